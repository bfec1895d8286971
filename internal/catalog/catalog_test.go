package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pders01/aihub/internal/api"
	"github.com/pders01/aihub/internal/cache"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	items    map[content.Kind][]content.Item
	liked    []content.Item
	comments map[string][]content.Comment
	calls    map[string]int
	listErr  error
	likeErr  error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		items: map[content.Kind][]content.Item{
			content.KindTool: {
				&content.Tool{Base: content.Base{ID: "1", Title: "ChatBot Pro", Description: "Conversational assistant", Tags: []string{"AI", "Chat"}}, LikeCount: 5, LikedByCurrentUser: content.Bool(false)},
				&content.Tool{Base: content.Base{ID: "2", Title: "Imagen", Description: "Image generation", Tags: []string{"AI"}}, LikeCount: 1},
				&content.Tool{Base: content.Base{ID: "3", Title: "Sheets+", Description: "Spreadsheet helper for chat teams", Tags: []string{"Productivity"}}},
			},
			content.KindNews: {
				&content.News{Base: content.Base{ID: "n1", Title: "AI weekly", Tags: []string{"AI"}}},
			},
		},
		comments: map[string][]content.Comment{},
		calls:    map[string]int{},
	}
}

func (f *fakeSource) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSource) ListKey(_ context.Context, key content.FetchKey) ([]content.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list:"+key.String()]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	tag, filtered := key.TagFilter()
	var out []content.Item
	for _, it := range f.items[key.Kind] {
		if !filtered || content.HasTag(it, tag) {
			out = append(out, content.Clone(it))
		}
	}
	return out, nil
}

func (f *fakeSource) Get(_ context.Context, kind content.Kind, id string) (content.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	for _, it := range f.items[kind] {
		if it.Common().ID == id {
			return content.Clone(it), nil
		}
	}
	return nil, nil
}

func (f *fakeSource) Liked(context.Context) ([]content.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liked, nil
}

func (f *fakeSource) ToggleLike(_ context.Context, kind content.Kind, id string) (*content.LikeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["like"]++
	return nil, f.likeErr
}

func (f *fakeSource) Comments(_ context.Context, toolID string) ([]content.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]content.Comment(nil), f.comments[toolID]...), nil
}

func (f *fakeSource) PostComment(_ context.Context, toolID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[toolID] = append(f.comments[toolID], content.Comment{ID: "c", ToolID: toolID, Text: text})
	return nil
}

func ids(items []content.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Common().ID)
	}
	return out
}

func TestController_TagFilterIsServerSide(t *testing.T) {
	src := newFakeSource()
	c := NewController(NewHub(src, cache.Options[[]content.Item]{}), content.KindTool)

	c.SetTag("AI")
	r := c.Load(context.Background())
	require.NoError(t, r.Err)
	assert.Equal(t, []string{"1", "2"}, ids(c.Visible()))
	for _, it := range c.Visible() {
		assert.True(t, content.HasTag(it, "AI"))
	}

	c.SetQuery("chat")
	assert.Equal(t, []string{"1"}, ids(c.Visible()), "tag AND query")
	assert.Equal(t, 1, src.count("list:tool[tag=AI]"), "query changes never refetch")
}

func TestController_ClearReturnsToCachedAll(t *testing.T) {
	src := newFakeSource()
	c := NewController(NewHub(src, cache.Options[[]content.Item]{}), content.KindTool)

	c.Load(context.Background())
	c.SetTag("AI")
	c.Load(context.Background())
	c.SetQuery("x")

	key := c.Clear()
	assert.Equal(t, content.AllOf(content.KindTool), key)
	assert.Empty(t, c.Query())
	c.Load(context.Background())

	assert.Len(t, c.Visible(), 3)
	assert.Equal(t, 1, src.count("list:tool[all]"), "fresh cached key is not refetched")
}

func TestController_ApplyIgnoresStaleResult(t *testing.T) {
	src := newFakeSource()
	c := NewController(NewHub(src, cache.Options[[]content.Item]{}), content.KindTool)

	stale := c.Fetch(context.Background(), c.SetTag("AI"))
	current := c.Fetch(context.Background(), c.SetTag("Productivity"))

	assert.True(t, c.Apply(current))
	assert.False(t, c.Apply(stale))
	assert.Equal(t, []string{"3"}, ids(c.Visible()))
	assert.True(t, c.Loaded())
}

func TestController_FailureKeepsItems(t *testing.T) {
	src := newFakeSource()
	c := NewController(NewHub(src, cache.Options[[]content.Item]{}), content.KindTool)
	c.Load(context.Background())

	src.mu.Lock()
	src.listErr = errors.New("offline")
	src.mu.Unlock()

	r := c.Refresh(context.Background())
	assert.Error(t, r.Err)
	assert.Error(t, c.Err())
	assert.Len(t, c.Visible(), 3)
	assert.Equal(t, FailureRetryable, Classify(c.Err()))
}

func TestController_LikeOverlayAndInvalidate(t *testing.T) {
	src := newFakeSource()
	hub := NewHub(src, cache.Options[[]content.Item]{})
	c := NewController(hub, content.KindTool)
	c.Load(context.Background())

	p := hub.ToggleLike(c.Visible()[0])
	shown := c.Visible()[0].(*content.Tool)
	assert.Equal(t, 6, shown.LikeCount)
	assert.True(t, *shown.LikedByCurrentUser)

	out := p.Commit(context.Background())
	require.NoError(t, out.Err)

	_, st := hub.Lists().Peek(content.AllOf(content.KindTool))
	assert.False(t, st.Fresh, "a confirmed like invalidates the kind's lists")

	c.Load(context.Background())
	assert.Equal(t, 2, src.count("list:tool[all]"))
}

func TestController_LikeRollback(t *testing.T) {
	src := newFakeSource()
	src.likeErr = &api.AuthError{Status: 401}
	hub := NewHub(src, cache.Options[[]content.Item]{})
	c := NewController(hub, content.KindTool)
	c.Load(context.Background())

	out := hub.ToggleLike(c.Visible()[0]).Commit(context.Background())
	assert.True(t, out.AuthExpired)
	assert.Equal(t, FailureAuth, Classify(out.Err))

	shown := c.Visible()[0].(*content.Tool)
	assert.Equal(t, 5, shown.LikeCount)
	assert.False(t, *shown.LikedByCurrentUser)
}

func TestLoadDetail(t *testing.T) {
	src := newFakeSource()
	hub := NewHub(src, cache.Options[[]content.Item]{})

	r := hub.LoadDetail(context.Background(), content.Key{Kind: content.KindTool, ID: "2"})
	require.NoError(t, r.Err)
	assert.False(t, r.NotFound)
	assert.Equal(t, "Imagen", r.Item.Common().Title)

	r = hub.LoadDetail(context.Background(), content.Key{Kind: content.KindTool, ID: "404"})
	assert.NoError(t, r.Err)
	assert.True(t, r.NotFound)

	src.listErr = errors.New("offline")
	r = hub.LoadDetail(context.Background(), content.Key{Kind: content.KindTool, ID: "2"})
	assert.Error(t, r.Err)
	assert.False(t, r.NotFound)
}

func TestLiked_Filters(t *testing.T) {
	src := newFakeSource()
	src.liked = []content.Item{
		&content.Tool{Base: content.Base{ID: "1", Title: "ChatBot", Tags: []string{"AI"}}, LikedByCurrentUser: content.Bool(true)},
		&content.Document{Base: content.Base{ID: "1", Title: "Guide", Tags: []string{"Docs"}}, LikedByCurrentUser: content.Bool(true)},
		&content.News{Base: content.Base{ID: "n1", Title: "Weekly", Tags: []string{"Productivity"}}},
	}
	hub := NewHub(src, cache.Options[[]content.Item]{})
	l := NewLiked(hub)
	require.NoError(t, l.Load(context.Background()).Err)

	assert.Len(t, l.Visible(), 3)
	assert.Equal(t, []string{"AI", "Docs", "Productivity"}, l.Tags())

	l.ToggleTag("AI")
	l.ToggleTag("Docs")
	assert.Equal(t, []string{"AI", "Docs"}, l.SelectedTags())
	got := l.Visible()
	keys := []string{content.KeyOf(got[0]).String(), content.KeyOf(got[1]).String()}
	sort.Strings(keys)
	assert.Equal(t, []string{"document/1", "tool/1"}, keys)

	l.SetKind(content.KindDocument)
	assert.Len(t, l.Visible(), 1)

	l.Clear()
	l.SetQuery("weekly")
	assert.Equal(t, []string{"n1"}, ids(l.Visible()))

	l.Clear()
	p := hub.ToggleLike(l.Visible()[0])
	assert.Len(t, l.Visible(), 2, "locally unliked items drop out")
	p.Discard()
	assert.Len(t, l.Visible(), 3)
}

func TestThread_Post(t *testing.T) {
	src := newFakeSource()
	th := NewThread(NewHub(src, cache.Options[[]content.Item]{}), "1")

	r := th.Post(context.Background(), "  ")
	assert.True(t, IsEmptyComment(r.Err))

	r = th.Post(context.Background(), "great tool")
	require.NoError(t, r.Err)
	assert.True(t, th.Apply(r))
	require.Len(t, th.Comments(), 1)
	assert.Equal(t, "great tool", th.Comments()[0].Text)

	assert.False(t, th.Apply(CommentsResult{ToolID: "other"}))
}

func TestPrefetch(t *testing.T) {
	src := newFakeSource()
	hub := NewHub(src, cache.Options[[]content.Item]{})

	require.NoError(t, hub.Prefetch(context.Background(), content.KindTool, content.KindNews))
	for _, k := range []content.Kind{content.KindTool, content.KindNews} {
		_, st := hub.Lists().Peek(content.AllOf(k))
		assert.True(t, st.Fresh, string(k))
	}

	src.listErr = errors.New("offline")
	hub.Reset()
	err := hub.Prefetch(context.Background())
	assert.ErrorContains(t, err, "prefetching")
}

func TestClassifyAndDescribe(t *testing.T) {
	assert.Equal(t, FailureNone, Classify(nil))
	assert.Equal(t, FailureAuth, Classify(&api.AuthError{Status: 401}))
	assert.Equal(t, FailureRetryable, Classify(&api.StatusError{Status: 500, Message: "boom"}))
	assert.Equal(t, "boom. Press r to retry.", Describe(&api.StatusError{Status: 500, Message: "boom"}))
	assert.Empty(t, Describe(nil))
}

func TestSnapshotPersister_RoundTrip(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "aihub.db"))
	require.NoError(t, err)
	defer store.Close()

	p := NewSnapshotPersister(store)
	key := content.TaggedWith(content.KindTool, "AI")

	_, _, ok, err := p.Restore(key)
	require.NoError(t, err)
	assert.False(t, ok)

	src := newFakeSource()
	items, _ := src.ListKey(context.Background(), key)
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, p.Persist(key, items, at))

	restored, fetchedAt, ok, err := p.Restore(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(fetchedAt))
	if diff := cmp.Diff(items, restored); diff != "" {
		t.Errorf("restored items mismatch (-want +got):\n%s", diff)
	}

	hub := NewHub(src, cache.Options[[]content.Item]{Persister: p})
	c := NewController(hub, content.KindTool)
	c.SetTag("AI")
	assert.True(t, c.Cached(), "warm start shows the persisted list")
	assert.Len(t, c.Visible(), 2)
	assert.Equal(t, 0, src.count("list:tool[tag=AI]"))
}

func TestHubReset_PurgesSnapshots(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "aihub.db"))
	require.NoError(t, err)
	defer store.Close()

	src := newFakeSource()
	hub := NewHub(src, cache.Options[[]content.Item]{Persister: NewSnapshotPersister(store)})
	key := content.AllOf(content.KindTool)
	_, err = hub.Fetch(context.Background(), key)
	require.NoError(t, err)
	_, err = store.GetSnapshot(key.String())
	require.NoError(t, err, "a fetched list is persisted")

	hub.Reset()

	_, err = store.GetSnapshot(key.String())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.False(t, NewController(hub, content.KindTool).Cached(), "the next user starts cold")
}

func TestSnapshotPersister_DropsUnreadableSnapshot(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "aihub.db"))
	require.NoError(t, err)
	defer store.Close()

	key := content.AllOf(content.KindNews)
	require.NoError(t, store.SaveSnapshot(&storage.Snapshot{Key: key.String(), Data: []byte(`[{"type":"webinar","id":"w1"}]`)}))

	_, _, ok, err := NewSnapshotPersister(store).Restore(key)
	assert.Error(t, err)
	assert.False(t, ok)
	_, err = store.GetSnapshot(key.String())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

type recordingListener struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingListener) OnItemsLoaded(items []content.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		r.seen = append(r.seen, content.KeyOf(it).String())
	}
}

func TestHub_NotifiesListeners(t *testing.T) {
	hub := NewHub(newFakeSource(), cache.Options[[]content.Item]{})
	l := &recordingListener{}
	hub.Subscribe(l)
	ctx := context.Background()

	_, err := hub.Fetch(ctx, content.TaggedWith(content.KindTool, "Productivity"))
	require.NoError(t, err)
	r := hub.LoadDetail(ctx, content.Key{Kind: content.KindNews, ID: "n1"})
	require.NoError(t, r.Err)

	assert.Equal(t, []string{"tool/3", "news/n1"}, l.seen)
}
