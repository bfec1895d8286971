package catalog

import (
	"context"

	"github.com/pders01/aihub/internal/cache"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/debuglog"
	"github.com/pders01/aihub/internal/optimistic"
)

// Source is the backend as the catalog sees it. *api.Client implements it.
type Source interface {
	ListKey(ctx context.Context, key content.FetchKey) ([]content.Item, error)
	Get(ctx context.Context, kind content.Kind, id string) (content.Item, error)
	Liked(ctx context.Context) ([]content.Item, error)
	ToggleLike(ctx context.Context, kind content.Kind, id string) (*content.LikeState, error)
	Comments(ctx context.Context, toolID string) ([]content.Comment, error)
	PostComment(ctx context.Context, toolID, text string) error
}

// Listener hears about every item the hub loads. The search index is one.
type Listener interface {
	OnItemsLoaded(items []content.Item)
}

// Hub owns the list cache and the like ledger for one signed-in session.
type Hub struct {
	source  Source
	lists   *cache.Cache[[]content.Item]
	ledger  *optimistic.Ledger
	toggler *optimistic.Toggler
	log     *debuglog.FieldLogger

	listeners []Listener
}

func NewHub(source Source, opts cache.Options[[]content.Item]) *Hub {
	h := &Hub{
		source: source,
		lists:  cache.New(opts),
		ledger: optimistic.NewLedger(),
		log:    debuglog.WithFields(map[string]any{"component": "catalog"}),
	}
	remote := func(ctx context.Context, key content.Key) (*content.LikeState, error) {
		return source.ToggleLike(ctx, key.Kind, key.ID)
	}
	h.toggler = optimistic.NewToggler(h.ledger, remote, h.lists.InvalidateKind)
	return h
}

func (h *Hub) Source() Source                     { return h.source }
func (h *Hub) Lists() *cache.Cache[[]content.Item] { return h.lists }
func (h *Hub) Ledger() *optimistic.Ledger         { return h.ledger }

// Subscribe registers l. Call it before the hub is shared.
func (h *Hub) Subscribe(l Listener) {
	h.listeners = append(h.listeners, l)
}

func (h *Hub) loaded(items []content.Item) {
	h.ledger.Reconcile(items...)
	for _, l := range h.listeners {
		l.OnItemsLoaded(items)
	}
}

func (h *Hub) fetch(ctx context.Context, key content.FetchKey) ([]content.Item, error) {
	return h.source.ListKey(ctx, key)
}

// Fetch reads key through the cache.
func (h *Hub) Fetch(ctx context.Context, key content.FetchKey) ([]content.Item, error) {
	items, err := h.lists.Read(ctx, key, h.fetch)
	if err != nil {
		return nil, err
	}
	h.loaded(items)
	return items, nil
}

// Refresh forces one fresh fetch of key.
func (h *Hub) Refresh(ctx context.Context, key content.FetchKey) ([]content.Item, error) {
	items, err := h.lists.Invalidate(ctx, key, h.fetch)
	if err != nil {
		return nil, err
	}
	h.loaded(items)
	return items, nil
}

// ToggleLike applies a like toggle locally and returns the handle that
// confirms it with the server.
func (h *Hub) ToggleLike(item content.Item) *optimistic.Pending {
	return h.toggler.ToggleItem(item)
}

// Reset drops cached lists and local like state, e.g. after sign-out.
func (h *Hub) Reset() {
	h.lists.Clear()
	h.ledger.Reset()
	h.log.Infof("catalog state reset")
}
