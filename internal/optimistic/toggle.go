package optimistic

import (
	"context"

	"github.com/pders01/aihub/internal/api"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/debuglog"
)

// Remote performs the server side toggle. A nil state with a nil error
// means the server confirmed without saying what the new state is.
type Remote func(ctx context.Context, key content.Key) (*content.LikeState, error)

// Outcome is the result of committing one toggle.
type Outcome struct {
	Key content.Key
	// State is the local state once the commit settled.
	State       content.LikeState
	Err         error
	RolledBack  bool
	AuthExpired bool
}

type Toggler struct {
	ledger     *Ledger
	remote     Remote
	invalidate func(content.Kind)
	log        *debuglog.FieldLogger
}

// NewToggler builds a toggler over ledger. invalidate, when set, runs after
// every confirmed toggle so list views refetch server truth.
func NewToggler(ledger *Ledger, remote Remote, invalidate func(content.Kind)) *Toggler {
	return &Toggler{
		ledger:     ledger,
		remote:     remote,
		invalidate: invalidate,
		log:        debuglog.WithFields(map[string]any{"component": "optimistic"}),
	}
}

func (t *Toggler) Ledger() *Ledger { return t.ledger }

// Pending is one applied but unconfirmed toggle. Every Pending must be
// committed or discarded, since later toggles of the same key wait for it.
type Pending struct {
	t          *Toggler
	key        content.Key
	optimistic content.LikeState
	epoch      uint64
	prev       <-chan struct{}
	done       chan struct{}
	settled    bool
}

// ToggleItem is Toggle, seeding the ledger from item when it holds nothing
// for the item yet.
func (t *Toggler) ToggleItem(item content.Item) *Pending {
	key := content.KeyOf(item)
	t.ledger.mu.Lock()
	if _, ok := t.ledger.states[key]; !ok {
		t.ledger.states[key] = content.LikeStateOf(item)
	}
	t.ledger.mu.Unlock()
	return t.Toggle(key)
}

// Toggle flips the local state for key immediately and returns the handle
// used to confirm it with the server. An unknown state counts as not liked.
func (t *Toggler) Toggle(key content.Key) *Pending {
	l := t.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.states[key]
	if l.pending[key] == 0 {
		l.base[key] = cur
	}
	next := cur.Flipped()
	l.states[key] = next
	l.pending[key]++

	done := make(chan struct{})
	prev := l.tail[key]
	l.tail[key] = done

	return &Pending{t: t, key: key, optimistic: next, epoch: l.epoch, prev: prev, done: done}
}

func (p *Pending) Key() content.Key { return p.key }

// Optimistic is the local state right after this toggle was applied.
func (p *Pending) Optimistic() content.LikeState { return p.optimistic }

// Commit sends the toggle to the server. Calls for one key reach the server
// in click order and never overlap. On failure this toggle is reverted; on
// success the server's state is adopted, with any toggles still pending for
// the key applied on top.
func (p *Pending) Commit(ctx context.Context) Outcome {
	if p.settled {
		return Outcome{Key: p.key, State: p.current()}
	}
	p.settled = true

	if p.prev != nil {
		select {
		case <-p.prev:
		case <-ctx.Done():
			// Keep ordering for later toggles: signal only once the earlier
			// call has finished.
			prev, done := p.prev, p.done
			go func() {
				<-prev
				close(done)
			}()
			return p.fail(ctx.Err())
		}
	}
	defer close(p.done)

	state, err := p.t.remote(ctx, p.key)
	if err != nil {
		return p.fail(err)
	}

	l := p.t.ledger
	l.mu.Lock()
	if p.epoch != l.epoch {
		l.mu.Unlock()
		p.t.log.Debugf("like %s confirmed after reset, not recorded", p.key)
		return Outcome{Key: p.key, State: p.optimistic}
	}
	// The server applied this toggle on top of base. Its answer becomes the
	// new base; toggles still queued behind this one are re-applied on top.
	confirmed := l.base[p.key].Flipped()
	if state != nil {
		adopted := *state
		if !adopted.Counted && confirmed.Counted {
			adopted.Count, adopted.Counted = confirmed.Count, true
		}
		confirmed = adopted
	}
	l.base[p.key] = confirmed
	final := l.settleLocked(p.key, p.done)
	l.mu.Unlock()

	if p.t.invalidate != nil {
		p.t.invalidate(p.key.Kind)
	}
	p.t.log.Debugf("like %s confirmed: liked=%t count=%d", p.key, final.IsLiked(), final.Count)
	return Outcome{Key: p.key, State: final}
}

// Discard reverts the toggle without contacting the server.
func (p *Pending) Discard() content.LikeState {
	if p.settled {
		return p.current()
	}
	p.settled = true
	prev, done := p.prev, p.done
	go func() {
		if prev != nil {
			<-prev
		}
		close(done)
	}()
	return p.revert()
}

func (p *Pending) fail(err error) Outcome {
	reverted := p.revert()
	expired := api.IsAuth(err)
	p.t.log.Warnf("like %s failed, reverted (auth expired=%t): %v", p.key, expired, err)
	return Outcome{
		Key:         p.key,
		State:       reverted,
		Err:         err,
		RolledBack:  true,
		AuthExpired: expired,
	}
}

// revert drops this toggle. With nothing else pending the key returns to
// exactly the state it had before the toggle; otherwise the remaining
// toggles are re-applied to that state.
func (p *Pending) revert() content.LikeState {
	l := p.t.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	if p.epoch != l.epoch {
		return l.states[p.key]
	}
	return l.settleLocked(p.key, p.done)
}

func (p *Pending) current() content.LikeState {
	s, _ := p.t.ledger.State(p.key)
	return s
}
