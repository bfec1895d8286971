package catalog

import (
	"context"
	"sort"

	"github.com/pders01/aihub/internal/content"
)

type LikedResult struct {
	Items []content.Item
	Err   error
}

// Liked is the state of the liked-content page: every item the user liked
// across kinds, narrowed by kind, by any of several tags, and by text.
type Liked struct {
	hub   *Hub
	kind  content.Kind
	tags  map[string]bool
	query string

	loaded bool
	items  []content.Item
	err    error
}

func NewLiked(hub *Hub) *Liked {
	return &Liked{hub: hub, tags: make(map[string]bool)}
}

func (l *Liked) Fetch(ctx context.Context) LikedResult {
	items, err := l.hub.Source().Liked(ctx)
	if err == nil {
		l.hub.loaded(items)
	}
	return LikedResult{Items: items, Err: err}
}

func (l *Liked) Apply(r LikedResult) {
	l.err = r.Err
	if r.Err != nil {
		return
	}
	l.items = r.Items
	l.loaded = true
}

func (l *Liked) Load(ctx context.Context) LikedResult {
	r := l.Fetch(ctx)
	l.Apply(r)
	return r
}

func (l *Liked) Loaded() bool { return l.loaded }
func (l *Liked) Err() error   { return l.err }

// SetKind narrows to one kind. An empty kind shows all.
func (l *Liked) SetKind(kind content.Kind) { l.kind = kind }
func (l *Liked) Kind() content.Kind       { return l.kind }

// ToggleTag adds or removes tag from the tag filter.
func (l *Liked) ToggleTag(tag string) {
	if l.tags[tag] {
		delete(l.tags, tag)
		return
	}
	l.tags[tag] = true
}

func (l *Liked) SelectedTags() []string {
	out := make([]string, 0, len(l.tags))
	for t := range l.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (l *Liked) SetQuery(q string) { l.query = q }
func (l *Liked) Query() string     { return l.query }

// Clear drops every filter.
func (l *Liked) Clear() {
	l.kind = ""
	l.tags = make(map[string]bool)
	l.query = ""
}

// Tags are the distinct tags across all liked items, for the tag menu.
func (l *Liked) Tags() []string {
	return content.DistinctTags(l.items)
}

// Visible applies the kind, tag and text filters. An item matches the tag
// filter when it carries any selected tag. Items the user has since
// unliked locally are dropped.
func (l *Liked) Visible() []content.Item {
	var out []content.Item
	for _, it := range l.hub.Ledger().OverlayAll(l.items) {
		if l.kind != "" && it.Kind() != l.kind {
			continue
		}
		if len(l.tags) > 0 && !l.anyTag(it) {
			continue
		}
		if !content.Matches(it, l.query) {
			continue
		}
		if s := content.LikeStateOf(it); s.Liked != nil && !*s.Liked {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (l *Liked) anyTag(it content.Item) bool {
	for t := range l.tags {
		if content.HasTag(it, t) {
			return true
		}
	}
	return false
}
