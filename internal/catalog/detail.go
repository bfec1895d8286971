package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/pders01/aihub/internal/api"
	"github.com/pders01/aihub/internal/content"
)

// DetailResult separates "no such item" from "could not load it", which
// the views render differently.
type DetailResult struct {
	Key      content.Key
	Item     content.Item
	NotFound bool
	Err      error
}

func (h *Hub) LoadDetail(ctx context.Context, key content.Key) DetailResult {
	item, err := h.source.Get(ctx, key.Kind, key.ID)
	switch {
	case err != nil:
		return DetailResult{Key: key, Err: err}
	case item == nil:
		return DetailResult{Key: key, NotFound: true}
	}
	h.loaded([]content.Item{item})
	return DetailResult{Key: key, Item: h.ledger.Overlay(item)}
}

type CommentsResult struct {
	ToolID   string
	Comments []content.Comment
	Err      error
}

// Thread is the comment list of one tool.
type Thread struct {
	hub      *Hub
	toolID   string
	comments []content.Comment
	err      error
}

func NewThread(hub *Hub, toolID string) *Thread {
	return &Thread{hub: hub, toolID: toolID}
}

func (t *Thread) ToolID() string { return t.toolID }

func (t *Thread) Fetch(ctx context.Context) CommentsResult {
	cs, err := t.hub.source.Comments(ctx, t.toolID)
	return CommentsResult{ToolID: t.toolID, Comments: cs, Err: err}
}

func (t *Thread) Apply(r CommentsResult) bool {
	if r.ToolID != t.toolID {
		return false
	}
	t.err = r.Err
	if r.Err == nil {
		t.comments = r.Comments
	}
	return true
}

// Post adds a comment and refetches the thread. Blank text fails with
// api.ErrEmptyComment without a request.
func (t *Thread) Post(ctx context.Context, text string) CommentsResult {
	if strings.TrimSpace(text) == "" {
		return CommentsResult{ToolID: t.toolID, Err: api.ErrEmptyComment}
	}
	if err := t.hub.source.PostComment(ctx, t.toolID, text); err != nil {
		return CommentsResult{ToolID: t.toolID, Err: err}
	}
	return t.Fetch(ctx)
}

func (t *Thread) Comments() []content.Comment { return t.comments }
func (t *Thread) Err() error                  { return t.err }

// IsEmptyComment reports a rejected blank comment.
func IsEmptyComment(err error) bool {
	return errors.Is(err, api.ErrEmptyComment)
}
