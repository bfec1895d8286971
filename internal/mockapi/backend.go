package mockapi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pders01/aihub/internal/content"
)

type record struct {
	item    content.Item
	likedBy map[string]bool
}

// backend is the in-memory catalog behind the handlers.
type backend struct {
	mu       sync.RWMutex
	now      func() time.Time
	accounts map[string]account // by email
	users    map[string]content.User
	records  map[content.Kind][]*record
	byKey    map[content.Key]*record
	comments map[string][]content.Comment
}

func newBackend(now func() time.Time) *backend {
	b := &backend{
		now:      now,
		accounts: make(map[string]account),
		users:    make(map[string]content.User),
		records:  make(map[content.Kind][]*record),
		byKey:    make(map[content.Key]*record),
		comments: make(map[string][]content.Comment),
	}
	for _, a := range seedAccounts() {
		b.accounts[strings.ToLower(a.user.Email)] = a
		b.users[a.user.ID] = a.user
	}
	for _, s := range seedCatalog(now()) {
		rec := &record{item: s.item, likedBy: make(map[string]bool)}
		for _, uid := range s.likedBy {
			rec.likedBy[uid] = true
		}
		kind := s.item.Kind()
		b.records[kind] = append(b.records[kind], rec)
		b.byKey[content.KeyOf(s.item)] = rec
	}
	for _, c := range seedComments {
		b.comments[c.toolID] = append(b.comments[c.toolID], content.Comment{
			ID:        c.id,
			ToolID:    c.toolID,
			Text:      c.text,
			CreatedAt: now().AddDate(0, 0, -c.daysAgo).UTC().Format(time.RFC3339),
			Author:    b.users[c.author],
		})
	}
	return b
}

func (b *backend) authenticate(email, password string) (content.User, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || !checkPasswordHash(password, a.passwordHash) {
		return content.User{}, false
	}
	return a.user, true
}

func (b *backend) user(id string) (content.User, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.users[id]
	return u, ok
}

// view renders a record for uid. An empty uid leaves the liked flag unset.
func (b *backend) view(rec *record, uid string) content.Item {
	out := content.Clone(rec.item)
	state := content.LikeState{Count: len(rec.likedBy), Counted: out.Kind().Counted()}
	if uid != "" {
		state.Liked = content.Bool(rec.likedBy[uid])
	}
	content.ApplyLikeState(out, state)
	return out
}

func (b *backend) list(kind content.Kind, tag, uid string) []content.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]content.Item, 0, len(b.records[kind]))
	for _, rec := range b.records[kind] {
		if tag != "" && !content.HasTag(rec.item, tag) {
			continue
		}
		out = append(out, b.view(rec, uid))
	}
	return out
}

func (b *backend) get(key content.Key, uid string) (content.Item, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.byKey[key]
	if !ok {
		return nil, false
	}
	return b.view(rec, uid), true
}

// toggle flips uid's like on key and returns the new state.
func (b *backend) toggle(key content.Key, uid string) (content.LikeState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.byKey[key]
	if !ok {
		return content.LikeState{}, false
	}
	if rec.likedBy[uid] {
		delete(rec.likedBy, uid)
	} else {
		rec.likedBy[uid] = true
	}
	return content.LikeState{
		Liked:   content.Bool(rec.likedBy[uid]),
		Count:   len(rec.likedBy),
		Counted: key.Kind.Counted(),
	}, true
}

func (b *backend) liked(uid string) []content.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []content.Item
	for _, kind := range content.Kinds() {
		for _, rec := range b.records[kind] {
			if rec.likedBy[uid] {
				out = append(out, b.view(rec, uid))
			}
		}
	}
	return out
}

func (b *backend) tags(kind content.Kind) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	items := make([]content.Item, 0, len(b.records[kind]))
	for _, rec := range b.records[kind] {
		items = append(items, rec.item)
	}
	return content.DistinctTags(items)
}

func (b *backend) commentsOf(toolID string) ([]content.Comment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.byKey[content.Key{Kind: content.KindTool, ID: toolID}]; !ok {
		return nil, false
	}
	out := append([]content.Comment{}, b.comments[toolID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, true
}

func (b *backend) addComment(toolID string, author content.User, text string) (content.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byKey[content.Key{Kind: content.KindTool, ID: toolID}]; !ok {
		return content.Comment{}, fmt.Errorf("tool %q not found", toolID)
	}
	c := content.Comment{
		ID:        uuid.NewString(),
		ToolID:    toolID,
		Text:      text,
		CreatedAt: b.now().UTC().Format(time.RFC3339Nano),
		Author:    author,
	}
	b.comments[toolID] = append(b.comments[toolID], c)
	return c, nil
}
