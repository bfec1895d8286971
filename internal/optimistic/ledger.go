package optimistic

import (
	"sync"

	"github.com/pders01/aihub/internal/content"
)

// Ledger is the local view of like state per item. It is separate from the
// shared list cache: views overlay it on whatever the cache returned.
type Ledger struct {
	mu     sync.Mutex
	states map[content.Key]content.LikeState
	// base is the state under the outstanding toggles of a key: the state
	// before the first of them, advanced by each one the server confirms.
	base    map[content.Key]content.LikeState
	pending map[content.Key]int
	// tail is closed once the most recent toggle for the key has finished
	// its network call. Dropped when the key has nothing pending.
	tail map[content.Key]chan struct{}
	// epoch changes on Reset; toggles from an older epoch no longer write.
	epoch uint64
}

func NewLedger() *Ledger {
	l := &Ledger{}
	l.init()
	return l
}

func (l *Ledger) init() {
	l.states = make(map[content.Key]content.LikeState)
	l.base = make(map[content.Key]content.LikeState)
	l.pending = make(map[content.Key]int)
	l.tail = make(map[content.Key]chan struct{})
}

// State returns the local like state for key.
func (l *Ledger) State(key content.Key) (content.LikeState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.states[key]
	return s, ok
}

// Pending is the number of toggles for key awaiting the server.
func (l *Ledger) Pending(key content.Key) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending[key]
}

// Reconcile records server state for items with no toggle in flight.
// Items with pending toggles keep their local state.
func (l *Ledger) Reconcile(items ...content.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range items {
		key := content.KeyOf(it)
		if l.pending[key] > 0 {
			continue
		}
		l.states[key] = content.LikeStateOf(it)
	}
}

// Overlay returns item with the local like state applied. The input is not
// modified; a copy is returned when local state exists.
func (l *Ledger) Overlay(item content.Item) content.Item {
	s, ok := l.State(content.KeyOf(item))
	if !ok {
		return item
	}
	c := content.Clone(item)
	content.ApplyLikeState(c, s)
	return c
}

// OverlayAll is Overlay over a list.
func (l *Ledger) OverlayAll(items []content.Item) []content.Item {
	out := make([]content.Item, len(items))
	for i, it := range items {
		out[i] = l.Overlay(it)
	}
	return out
}

// Reset forgets all local state, e.g. on sign-out. Toggles still in flight
// settle without touching the new state.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.init()
}

// settleLocked removes one outstanding toggle of key and recomputes the
// local state as base with the remaining toggles applied.
func (l *Ledger) settleLocked(key content.Key, done chan struct{}) content.LikeState {
	l.pending[key]--
	n := l.pending[key]
	s := l.base[key]
	for i := 0; i < n; i++ {
		s = s.Flipped()
	}
	l.states[key] = s
	if n <= 0 {
		delete(l.pending, key)
		delete(l.base, key)
		if l.tail[key] == done {
			delete(l.tail, key)
		}
	}
	return s
}
