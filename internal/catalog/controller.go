package catalog

import (
	"context"
	"strings"

	"github.com/pders01/aihub/internal/content"
)

// Result is the outcome of loading one list key.
type Result struct {
	Key   content.FetchKey
	Items []content.Item
	Err   error
}

// Controller is the state of one kind's list page: the tag filter, which
// selects what is fetched, and the text query, which filters what was
// fetched. It is not safe for concurrent use; run Fetch off the UI thread
// and hand its Result to Apply on it.
type Controller struct {
	hub   *Hub
	kind  content.Kind
	tag   string
	query string

	loaded    bool
	loadedKey content.FetchKey
	items     []content.Item
	err       error
}

func NewController(hub *Hub, kind content.Kind) *Controller {
	return &Controller{hub: hub, kind: kind}
}

func (c *Controller) Kind() content.Kind { return c.kind }

// Key is the cache key for the current tag filter.
func (c *Controller) Key() content.FetchKey {
	return content.TaggedWith(c.kind, c.tag)
}

func (c *Controller) Tag() string   { return c.tag }
func (c *Controller) Query() string { return c.query }

// SetTag changes the server side filter and returns the new key. An empty
// tag is the same as ClearTag.
func (c *Controller) SetTag(tag string) content.FetchKey {
	c.tag = strings.TrimSpace(tag)
	return c.Key()
}

func (c *Controller) ClearTag() content.FetchKey {
	c.tag = ""
	return c.Key()
}

// SetQuery changes the client side text filter. Nothing is fetched.
func (c *Controller) SetQuery(q string) {
	c.query = q
}

// Clear resets both filters to the unfiltered list of the kind.
func (c *Controller) Clear() content.FetchKey {
	c.query = ""
	return c.ClearTag()
}

// Fetch reads key through the cache. It only touches the hub, so it can
// run concurrently with changes to the controller.
func (c *Controller) Fetch(ctx context.Context, key content.FetchKey) Result {
	items, err := c.hub.Fetch(ctx, key)
	return Result{Key: key, Items: items, Err: err}
}

// Reload forces a fresh fetch of key.
func (c *Controller) Reload(ctx context.Context, key content.FetchKey) Result {
	items, err := c.hub.Refresh(ctx, key)
	return Result{Key: key, Items: items, Err: err}
}

// Load fetches the current key and applies the result.
func (c *Controller) Load(ctx context.Context) Result {
	r := c.Fetch(ctx, c.Key())
	c.Apply(r)
	return r
}

// Refresh invalidates the current key, refetches and applies the result.
func (c *Controller) Refresh(ctx context.Context) Result {
	r := c.Reload(ctx, c.Key())
	c.Apply(r)
	return r
}

// Apply installs r unless the filter has moved on since r was requested.
// A failed load keeps the previously shown items.
func (c *Controller) Apply(r Result) bool {
	if r.Key != c.Key() {
		return false
	}
	c.err = r.Err
	if r.Err != nil {
		return true
	}
	c.items = r.Items
	c.loaded = true
	c.loadedKey = r.Key
	return true
}

// Cached shows whatever the cache holds for the current key, fresh or not,
// so a view can paint before its fetch returns.
func (c *Controller) Cached() bool {
	key := c.Key()
	items, st := c.hub.Lists().Peek(key)
	if !st.Present {
		return false
	}
	c.items = items
	c.loaded = true
	c.loadedKey = key
	return true
}

// Loaded reports whether the shown items belong to the current key.
func (c *Controller) Loaded() bool {
	return c.loaded && c.loadedKey == c.Key()
}

func (c *Controller) Err() error { return c.err }

// Items are the loaded items before the text query, with local like state.
func (c *Controller) Items() []content.Item {
	return c.hub.Ledger().OverlayAll(c.items)
}

// Visible are the loaded items matching the text query, with local like
// state applied.
func (c *Controller) Visible() []content.Item {
	return c.hub.Ledger().OverlayAll(content.FilterItems(c.items, c.query))
}

// Tags are the distinct tags across the loaded items.
func (c *Controller) Tags() []string {
	return content.DistinctTags(c.items)
}
