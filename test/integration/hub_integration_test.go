package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/aihub/internal/api"
	"github.com/pders01/aihub/internal/cache"
	"github.com/pders01/aihub/internal/catalog"
	"github.com/pders01/aihub/internal/config"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/mockapi"
	"github.com/pders01/aihub/internal/search"
	"github.com/pders01/aihub/internal/storage"
)

type testEnv struct {
	backend *mockapi.Server
	baseURL string
	dbPath  string
	store   *storage.Store
	client  *api.Client
	hub     *catalog.Hub
}

// setupTestEnvironment starts a seeded backend and builds the client stack
// on a temporary database, the way the command line does.
func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()
	backend := mockapi.New(mockapi.Options{})
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	env := &testEnv{
		backend: backend,
		baseURL: ts.URL,
		dbPath:  filepath.Join(t.TempDir(), "test.db"),
	}
	env.open(t)
	return env
}

// open (re)opens the database and everything built on it.
func (e *testEnv) open(t *testing.T) {
	t.Helper()
	cfg := config.TestConfig()

	store, err := storage.NewStoreWithTimeout(e.dbPath, cfg.Database.Timeout)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client, err := api.New(api.Options{
		BaseURL:    e.baseURL,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Sessions:   store.Sessions(),
		UserAgent:  cfg.API.UserAgent,
	})
	require.NoError(t, err)

	e.store = store
	e.client = client
	e.hub = catalog.NewHub(client, cache.Options[[]content.Item]{
		TTL:       cfg.Cache.TTL,
		Persister: catalog.NewSnapshotPersister(store),
	})
}

func (e *testEnv) signIn(t *testing.T, email string) *content.Session {
	t.Helper()
	s, err := e.client.Login(context.Background(), email, "password")
	require.NoError(t, err)
	return s
}

func (e *testEnv) item(t *testing.T, kind content.Kind, id string) content.Item {
	t.Helper()
	r := e.hub.LoadDetail(context.Background(), content.Key{Kind: kind, ID: id})
	require.NoError(t, r.Err)
	require.False(t, r.NotFound)
	return r.Item
}

func ids(items []content.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Common().ID
	}
	return out
}

func TestIntegration_ListAndTagFilter(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	tools, err := env.hub.Fetch(ctx, content.AllOf(content.KindTool))
	require.NoError(t, err)
	assert.Equal(t, []string{"tool1", "tool2", "tool3", "tool4", "tool5", "tool6"}, ids(tools))

	art, err := env.hub.Fetch(ctx, content.TaggedWith(content.KindTool, "Art"))
	require.NoError(t, err)
	assert.Equal(t, []string{"tool2", "tool3"}, ids(art))

	// A fresh key is served from the cache.
	before := env.hub.Lists().Stats().Fetches
	_, err = env.hub.Fetch(ctx, content.AllOf(content.KindTool))
	require.NoError(t, err)
	assert.Equal(t, before, env.hub.Lists().Stats().Fetches)

	for _, kind := range content.Kinds() {
		items, err := env.hub.Fetch(ctx, content.AllOf(kind))
		require.NoError(t, err, kind)
		assert.NotEmpty(t, items, kind)
		for _, it := range items {
			assert.Equal(t, kind, it.Kind())
		}
	}
}

func TestIntegration_SnapshotSurvivesRestart(t *testing.T) {
	env := setupTestEnvironment(t)
	key := content.AllOf(content.KindNews)

	_, err := env.hub.Fetch(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, env.store.Close())

	env.open(t)
	items, st := env.hub.Lists().Peek(key)
	assert.True(t, st.Present, "restored snapshot should be shown")
	assert.False(t, st.Fresh, "restored snapshot must be refetched")
	assert.Len(t, items, 5)
}

func TestIntegration_SessionPersistsAcrossRestart(t *testing.T) {
	env := setupTestEnvironment(t)
	s := env.signIn(t, "user2@example.com")
	assert.Equal(t, "Sam Rodriguez", s.User.DisplayName)
	require.NoError(t, env.store.Close())

	env.open(t)
	restored, err := env.client.Session()
	require.NoError(t, err)
	require.True(t, restored.Valid())
	assert.Equal(t, s.Token, restored.Token)

	// The backend rejecting the token clears it.
	env.backend.FailNext(http.StatusUnauthorized)
	_, err = env.client.Liked(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsAuth(err))

	after, err := env.client.Session()
	require.NoError(t, err)
	assert.False(t, after.Valid())
}

// likedSnapshot signs in as user1, likes Jasper and leaves the tool list,
// with user1's like flag on it, in the snapshot bucket.
func (e *testEnv) likedSnapshot(t *testing.T) content.FetchKey {
	t.Helper()
	ctx := context.Background()
	e.signIn(t, "user1@example.com")
	out := e.hub.ToggleLike(e.item(t, content.KindTool, "tool6")).Commit(ctx)
	require.NoError(t, out.Err)

	key := content.AllOf(content.KindTool)
	_, err := e.hub.Refresh(ctx, key)
	require.NoError(t, err)
	_, err = e.store.GetSnapshot(key.String())
	require.NoError(t, err)
	return key
}

func TestIntegration_SnapshotsDoNotOutliveTheUser(t *testing.T) {
	tests := []struct {
		name  string
		leave func(t *testing.T, env *testEnv)
	}{
		{"logout", func(t *testing.T, env *testEnv) {
			require.NoError(t, env.client.Logout())
		}},
		{"expired session", func(t *testing.T, env *testEnv) {
			env.backend.FailNext(http.StatusUnauthorized)
			_, err := env.client.Liked(context.Background())
			require.True(t, api.IsAuth(err))
		}},
		{"other user signs in", func(t *testing.T, env *testEnv) {
			env.signIn(t, "user2@example.com")
		}},
		{"catalog reset", func(t *testing.T, env *testEnv) {
			env.hub.Reset()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvironment(t)
			key := env.likedSnapshot(t)

			tt.leave(t, env)
			require.NoError(t, env.store.Close())

			env.open(t)
			_, st := env.hub.Lists().Peek(key)
			assert.False(t, st.Present, "the previous user's list must not be restored")
		})
	}
}

func TestIntegration_SameUserKeepsSnapshot(t *testing.T) {
	env := setupTestEnvironment(t)
	key := env.likedSnapshot(t)
	env.signIn(t, "user1@example.com")
	require.NoError(t, env.store.Close())

	env.open(t)
	items, st := env.hub.Lists().Peek(key)
	require.True(t, st.Present)
	for _, it := range items {
		if it.Common().ID == "tool6" {
			assert.True(t, content.LikeStateOf(it).IsLiked())
		}
	}
}

func TestIntegration_OptimisticLike(t *testing.T) {
	env := setupTestEnvironment(t)
	env.signIn(t, "user1@example.com")
	ctx := context.Background()

	jasper := env.item(t, content.KindTool, "tool6")
	require.False(t, content.LikeStateOf(jasper).IsLiked())

	p := env.hub.ToggleLike(jasper)
	assert.True(t, p.Optimistic().IsLiked())
	assert.Equal(t, 1, p.Optimistic().Count)

	// Lists show the local state before the server answers.
	tools, err := env.hub.Fetch(ctx, content.AllOf(content.KindTool))
	require.NoError(t, err)
	for _, it := range env.hub.Ledger().OverlayAll(tools) {
		if it.Common().ID == "tool6" {
			assert.True(t, content.LikeStateOf(it).IsLiked())
		}
	}

	outcome := p.Commit(ctx)
	require.NoError(t, outcome.Err)
	assert.False(t, outcome.RolledBack)
	assert.True(t, outcome.State.IsLiked())
	assert.Equal(t, 1, outcome.State.Count)

	fresh, err := env.hub.Refresh(ctx, content.AllOf(content.KindTool))
	require.NoError(t, err)
	for _, it := range fresh {
		if it.Common().ID == "tool6" {
			assert.True(t, content.LikeStateOf(it).IsLiked())
			assert.Equal(t, 1, content.LikeStateOf(it).Count)
		}
	}
}

func TestIntegration_LikeRollsBack(t *testing.T) {
	env := setupTestEnvironment(t)
	env.signIn(t, "user1@example.com")
	ctx := context.Background()

	chatgpt := env.item(t, content.KindTool, "tool1")
	before := content.LikeStateOf(chatgpt)
	require.True(t, before.IsLiked())

	env.backend.FailNext(http.StatusInternalServerError)
	p := env.hub.ToggleLike(chatgpt)
	assert.False(t, p.Optimistic().IsLiked())

	outcome := p.Commit(ctx)
	require.Error(t, outcome.Err)
	assert.True(t, outcome.RolledBack)
	assert.Equal(t, before.IsLiked(), outcome.State.IsLiked())
	assert.Equal(t, before.Count, outcome.State.Count)

	again := env.item(t, content.KindTool, "tool1")
	assert.True(t, content.LikeStateOf(again).IsLiked())
	assert.Equal(t, before.Count, content.LikeStateOf(again).Count)
}

func TestIntegration_RapidTogglesSettleInOrder(t *testing.T) {
	env := setupTestEnvironment(t)
	env.signIn(t, "user1@example.com")
	ctx := context.Background()

	jasper := env.item(t, content.KindTool, "tool6")
	first := env.hub.ToggleLike(jasper)
	second := env.hub.ToggleLike(jasper)
	assert.False(t, second.Optimistic().IsLiked())

	// The second toggle waits for the first to reach the server.
	var wg sync.WaitGroup
	outcomes := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); outcomes[1] = second.Commit(ctx).Err }()
	go func() { defer wg.Done(); outcomes[0] = first.Commit(ctx).Err }()
	wg.Wait()
	require.NoError(t, outcomes[0])
	require.NoError(t, outcomes[1])

	final := env.item(t, content.KindTool, "tool6")
	assert.False(t, content.LikeStateOf(final).IsLiked())
	assert.Equal(t, 0, content.LikeStateOf(final).Count)
}

func TestIntegration_LikedAggregate(t *testing.T) {
	env := setupTestEnvironment(t)
	env.signIn(t, "user1@example.com")

	liked := catalog.NewLiked(env.hub)
	r := liked.Load(context.Background())
	require.NoError(t, r.Err)
	all := ids(liked.Visible())
	assert.Subset(t, all, []string{"tool1", "tool3", "tool4"})
	assert.NotContains(t, all, "tool6")

	liked.SetKind(content.KindTool)
	liked.ToggleTag("Art")
	liked.ToggleTag("Coding")
	assert.ElementsMatch(t, []string{"tool3", "tool4"}, ids(liked.Visible()))

	liked.SetQuery("copilot")
	assert.Equal(t, []string{"tool4"}, ids(liked.Visible()))
}

func TestIntegration_CommentThread(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()
	thread := catalog.NewThread(env.hub, "tool1")

	r := thread.Fetch(ctx)
	require.NoError(t, r.Err)
	require.Len(t, r.Comments, 2)

	r = thread.Post(ctx, "needs sign-in")
	require.Error(t, r.Err)
	assert.True(t, api.IsAuth(r.Err))

	env.signIn(t, "user1@example.com")
	r = thread.Post(ctx, "   ")
	assert.True(t, catalog.IsEmptyComment(r.Err))

	r = thread.Post(ctx, "Useful for outlines")
	require.NoError(t, r.Err)
	require.True(t, thread.Apply(r))
	require.Len(t, thread.Comments(), 3)

	var found bool
	for _, c := range thread.Comments() {
		if c.Text == "Useful for outlines" {
			found = true
			assert.Equal(t, "Alex Johnson", c.Author.DisplayName)
		}
	}
	assert.True(t, found)
}

func TestIntegration_SearchIndexFollowsHub(t *testing.T) {
	env := setupTestEnvironment(t)
	index, err := search.NewBleveEngine(filepath.Join(t.TempDir(), "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	env.hub.Subscribe(index)

	require.NoError(t, env.hub.Prefetch(context.Background()))
	count, err := index.DocCount()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 18)

	results, err := index.Search("midjourney", 10)
	require.NoError(t, err)
	var hits []content.Item
	for _, r := range results {
		hits = append(hits, r.Item)
	}
	assert.Contains(t, ids(hits), "tool3")
}
