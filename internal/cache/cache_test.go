package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pders01/aihub/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *manualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// countingFetcher returns "<key>#<n>" where n counts calls.
func countingFetcher(calls *int32) Fetcher[string] {
	return func(_ context.Context, key content.FetchKey) (string, error) {
		n := atomic.AddInt32(calls, 1)
		return key.String() + "#" + string(rune('0'+n)), nil
	}
}

func TestRead_ConcurrentCallersShareOneFetch(t *testing.T) {
	c := New[string](Options[string]{})
	key := content.TaggedWith(content.KindTool, "AI")

	var calls int32
	release := make(chan struct{})
	fetch := func(_ context.Context, _ content.FetchKey) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "tools tagged AI", nil
	}

	const callers = 8
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Read(context.Background(), key, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool {
		s := c.Stats()
		return s.Misses+s.Joins == callers
	}, time.Second, time.Millisecond)

	_, st := c.Peek(key)
	assert.True(t, st.Loading)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "tools tagged AI", r)
	}
}

func TestRead_FreshHitSkipsFetch(t *testing.T) {
	c := New[string](Options[string]{})
	var calls int32
	fetch := countingFetcher(&calls)

	v1, err := c.Read(context.Background(), content.AllOf(content.KindTool), fetch)
	require.NoError(t, err)
	v2, err := c.Read(context.Background(), content.AllOf(content.KindTool), fetch)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), calls)
	assert.Equal(t, uint64(1), c.Stats().Hits)
}

func TestRead_KeysCompareByValue(t *testing.T) {
	c := New[string](Options[string]{})
	var calls int32
	fetch := countingFetcher(&calls)

	_, err := c.Read(context.Background(), content.TaggedWith(content.KindTool, "AI"), fetch)
	require.NoError(t, err)
	_, err = c.Read(context.Background(), content.FetchKey{Kind: content.KindTool, Tag: "AI", Filtered: true}, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls)

	_, err = c.Read(context.Background(), content.TaggedWith(content.KindTool, "ai"), fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls, "tag comparison is case-sensitive")
}

func TestInvalidate_RunsExactlyOneFreshFetch(t *testing.T) {
	c := New[string](Options[string]{})
	key := content.AllOf(content.KindDocument)
	var calls int32
	fetch := countingFetcher(&calls)

	first, err := c.Read(context.Background(), key, fetch)
	require.NoError(t, err)

	refreshed, err := c.Invalidate(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.NotEqual(t, first, refreshed)
	assert.Equal(t, int32(2), calls)

	again, err := c.Read(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, refreshed, again)
	assert.Equal(t, int32(2), calls)
}

func TestInvalidate_SupersededFetchCannotOverwrite(t *testing.T) {
	c := New[string](Options[string]{})
	key := content.TaggedWith(content.KindNews, "AI")

	releaseOld := make(chan struct{})
	oldStarted := make(chan struct{})
	slow := func(_ context.Context, _ content.FetchKey) (string, error) {
		close(oldStarted)
		<-releaseOld
		return "old", nil
	}
	quick := func(_ context.Context, _ content.FetchKey) (string, error) {
		return "new", nil
	}

	oldDone := make(chan string)
	go func() {
		v, _ := c.Read(context.Background(), key, slow)
		oldDone <- v
	}()
	<-oldStarted

	v, err := c.Invalidate(context.Background(), key, quick)
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	close(releaseOld)
	assert.Equal(t, "old", <-oldDone)

	got, st := c.Peek(key)
	assert.Equal(t, "new", got)
	assert.True(t, st.Fresh)
	assert.False(t, st.Loading)
}

func TestTTL_ExpiresWithClock(t *testing.T) {
	clock := newManualClock()
	c := New[string](Options[string]{TTL: 5 * time.Minute, Clock: clock})
	key := content.AllOf(content.KindPodcast)
	var calls int32
	fetch := countingFetcher(&calls)

	_, err := c.Read(context.Background(), key, fetch)
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	_, err = c.Read(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls)

	clock.Advance(2 * time.Minute)
	_, st := c.Peek(key)
	assert.True(t, st.Present)
	assert.False(t, st.Fresh)

	_, err = c.Read(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
}

func TestInvalidateKind(t *testing.T) {
	c := New[string](Options[string]{})
	var calls int32
	fetch := countingFetcher(&calls)

	keys := []content.FetchKey{
		content.AllOf(content.KindTool),
		content.TaggedWith(content.KindTool, "AI"),
		content.AllOf(content.KindNews),
	}
	for _, k := range keys {
		_, err := c.Read(context.Background(), k, fetch)
		require.NoError(t, err)
	}

	c.InvalidateKind(content.KindTool)

	for _, k := range keys[:2] {
		_, st := c.Peek(k)
		assert.True(t, st.Present, k.String())
		assert.False(t, st.Fresh, k.String())
	}
	_, st := c.Peek(keys[2])
	assert.True(t, st.Fresh)
}

func TestInvalidateKind_InFlightResultIsNotFresh(t *testing.T) {
	c := New[string](Options[string]{})
	key := content.AllOf(content.KindTool)

	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(_ context.Context, _ content.FetchKey) (string, error) {
		close(started)
		<-release
		return "before like", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Read(context.Background(), key, slow)
	}()
	<-started

	c.InvalidateKind(content.KindTool)
	close(release)
	<-done

	v, st := c.Peek(key)
	assert.Equal(t, "before like", v)
	assert.False(t, st.Fresh)
}

func TestRead_ErrorKeepsLastData(t *testing.T) {
	c := New[string](Options[string]{})
	key := content.AllOf(content.KindTool)

	_, err := c.Read(context.Background(), key, func(context.Context, content.FetchKey) (string, error) {
		return "good", nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = c.Invalidate(context.Background(), key, func(context.Context, content.FetchKey) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	state := c.State(key)
	assert.Equal(t, "good", state.Data)
	assert.ErrorIs(t, state.Err, boom)
	assert.False(t, state.Loading)
	assert.Equal(t, uint64(1), c.Stats().Errors)
}

func TestRead_CallerCancellationDoesNotAbortSharedFetch(t *testing.T) {
	c := New[string](Options[string]{})
	key := content.AllOf(content.KindTool)

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, _ content.FetchKey) (string, error) {
		close(started)
		<-release
		return "done", ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := c.Read(ctx, key, fetch)
		errc <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	waiter := make(chan string)
	go func() {
		v, _ := c.Read(context.Background(), key, fetch)
		waiter <- v
	}()
	require.Eventually(t, func() bool { return c.Stats().Joins == 1 }, time.Second, time.Millisecond)
	close(release)
	assert.Equal(t, "done", <-waiter)
}

type memPersister struct {
	mu    sync.Mutex
	saved map[content.FetchKey]string
}

func (p *memPersister) Restore(key content.FetchKey) (string, time.Time, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.saved[key]
	return v, time.Time{}, ok, nil
}

func (p *memPersister) Persist(key content.FetchKey, v string, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved[key] = v
	return nil
}

func (p *memPersister) Purge() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = make(map[content.FetchKey]string)
	return nil
}

func (p *memPersister) has(key content.FetchKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.saved[key]
	return ok
}

func TestClear_PurgesPersister(t *testing.T) {
	key := content.AllOf(content.KindTool)
	p := &memPersister{saved: map[content.FetchKey]string{key: "from disk"}}
	c := New[string](Options[string]{Persister: p})

	_, st := c.Peek(key)
	require.True(t, st.Present)

	c.Clear()
	assert.False(t, p.has(key))
	_, st = c.Peek(key)
	assert.False(t, st.Present, "a cleared cache must not restore the old value")
}

func TestClear_LateFetchIsNotPersisted(t *testing.T) {
	key := content.AllOf(content.KindNews)
	p := &memPersister{saved: map[content.FetchKey]string{}}
	c := New[string](Options[string]{Persister: p})

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Read(context.Background(), key, func(context.Context, content.FetchKey) (string, error) {
			close(started)
			<-release
			return "previous user", nil
		})
	}()

	<-started
	c.Clear()
	close(release)
	<-done

	assert.False(t, p.has(key), "a fetch begun before Clear must not reach the persister")
}

func TestPersister_WarmStartIsStale(t *testing.T) {
	key := content.AllOf(content.KindTool)
	p := &memPersister{saved: map[content.FetchKey]string{key: "from disk"}}
	c := New[string](Options[string]{Persister: p})

	v, st := c.Peek(key)
	assert.Equal(t, "from disk", v)
	assert.True(t, st.Present)
	assert.False(t, st.Fresh)

	got, err := c.Read(context.Background(), key, func(context.Context, content.FetchKey) (string, error) {
		return "from server", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from server", got)

	p.mu.Lock()
	assert.Equal(t, "from server", p.saved[key])
	p.mu.Unlock()
}

func TestClear(t *testing.T) {
	c := New[string](Options[string]{})
	var calls int32
	fetch := countingFetcher(&calls)
	key := content.AllOf(content.KindTool)

	_, err := c.Read(context.Background(), key, fetch)
	require.NoError(t, err)
	c.Clear()

	_, st := c.Peek(key)
	assert.False(t, st.Present)
	_, err = c.Read(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
}
