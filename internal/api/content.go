package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pders01/aihub/internal/content"
)

func collectionPath(kind content.Kind) string {
	return "/" + kind.Collection()
}

func itemPath(kind content.Kind, id string) string {
	return collectionPath(kind) + "/" + url.PathEscape(id)
}

// List returns every item of kind, or only those tagged tag when tag is
// not empty. Tag matching is done by the server and is case-sensitive.
func (c *Client) List(ctx context.Context, kind content.Kind, tag string) ([]content.Item, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	path := collectionPath(kind)
	if tag != "" {
		path += "/tag/" + url.PathEscape(tag)
	}

	var items []content.Item
	err := c.getJSON(ctx, path, func(b []byte) error {
		var err error
		items, err = content.DecodeItems(kind, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListKey is List addressed by a cache key.
func (c *Client) ListKey(ctx context.Context, key content.FetchKey) ([]content.Item, error) {
	tag, _ := key.TagFilter()
	return c.List(ctx, key.Kind, tag)
}

// Get returns one item. A nil item with a nil error means the server has
// no such item.
func (c *Client) Get(ctx context.Context, kind content.Kind, id string) (content.Item, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	var item content.Item
	err := c.getJSON(ctx, itemPath(kind, id), func(b []byte) error {
		if len(bytes.TrimSpace(b)) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
			return nil
		}
		var err error
		item, err = content.DecodeItem(kind, b)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ToggleLike flips the current user's like on one item. The returned state
// is the server's answer; nil means the server sent no body and the caller
// keeps its own state.
func (c *Client) ToggleLike(ctx context.Context, kind content.Kind, id string) (*content.LikeState, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	body, err := c.send(ctx, call{method: http.MethodPost, path: itemPath(kind, id) + "/like"})
	if err != nil {
		return nil, err
	}
	return decodeLikeState(kind, body)
}

// ToggleLikeAny uses the kind-agnostic /likes/toggle route.
func (c *Client) ToggleLikeAny(ctx context.Context, key content.Key) (*content.LikeState, error) {
	payload := map[string]string{"contentId": key.ID, "contentType": string(key.Kind)}
	body, err := c.send(ctx, call{method: http.MethodPost, path: "/likes/toggle", payload: payload})
	if err != nil {
		return nil, err
	}
	return decodeLikeState(key.Kind, body)
}

type likeResponse struct {
	Liked      *bool           `json:"liked"`
	IsLiked    *bool           `json:"isLiked"`
	LikedByMe  *bool           `json:"likedByCurrentUser"`
	Likes      json.RawMessage `json:"likes"`
	LikeCount  *int            `json:"likeCount"`
	LikesCount *int            `json:"likesCount"`
}

func decodeLikeState(kind content.Kind, body []byte) (*content.LikeState, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var r likeResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decoding like response: %w", err)
	}

	var liked *bool
	for _, v := range []*bool{r.Liked, r.IsLiked, r.LikedByMe} {
		if v != nil {
			liked = content.Bool(*v)
			break
		}
	}
	if liked == nil {
		return nil, nil
	}

	state := &content.LikeState{Liked: liked}
	if !kind.Counted() {
		return state, nil
	}
	switch {
	case r.LikeCount != nil:
		state.Count, state.Counted = *r.LikeCount, true
	case r.LikesCount != nil:
		state.Count, state.Counted = *r.LikesCount, true
	case len(r.Likes) > 0:
		if n, ok := countOf(r.Likes); ok {
			state.Count, state.Counted = n, true
		}
	}
	if state.Count < 0 {
		state.Count = 0
	}
	return state, nil
}

func countOf(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return len(arr), true
	}
	return 0, false
}

// Comments lists the comments on a tool.
func (c *Client) Comments(ctx context.Context, toolID string) ([]content.Comment, error) {
	var comments []content.Comment
	err := c.getJSON(ctx, itemPath(content.KindTool, toolID)+"/comments", func(b []byte) error {
		var err error
		comments, err = content.DecodeComments(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// PostComment adds a comment to a tool. Blank text is rejected without a
// request.
func (c *Client) PostComment(ctx context.Context, toolID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyComment
	}
	_, err := c.send(ctx, call{
		method:  http.MethodPost,
		path:    itemPath(content.KindTool, toolID) + "/comments",
		payload: map[string]string{"text": text},
	})
	return err
}

type loginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        json.RawMessage `json:"user"`
}

// Login exchanges credentials for a session and stores it. Rejected
// credentials come back as a *StatusError, not an *AuthError.
func (c *Client) Login(ctx context.Context, email, password string) (*content.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	body, err := c.send(ctx, call{
		method:      http.MethodPost,
		path:        "/auth/login",
		payload:     map[string]string{"email": email, "password": password},
		credentials: true,
	})
	if err != nil {
		return nil, err
	}

	var r loginResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	if r.AccessToken == "" {
		return nil, errors.New("login response carried no access token")
	}

	session := &content.Session{
		Token:     r.AccessToken,
		TokenType: r.TokenType,
		CreatedAt: time.Now().UTC(),
	}
	if len(r.User) > 0 {
		user, err := content.DecodeUser(r.User)
		if err != nil {
			return nil, err
		}
		session.User = user
	}
	if session.User.Email == "" {
		session.User.Email = email
	}

	if err := c.saveSession(session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	c.log.Infof("signed in as %s", session.User.ID)
	return session, nil
}

// Logout forgets the stored session. The backend keeps no server side
// session state, so there is nothing to call.
func (c *Client) Logout() error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if err := c.sessions.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Liked returns everything the current user liked, across kinds.
func (c *Client) Liked(ctx context.Context) ([]content.Item, error) {
	var items []content.Item
	err := c.getJSON(ctx, "/likes/", func(b []byte) error {
		var err error
		items, err = content.DecodeMixed(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Tags returns the distinct tool tags.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	return c.tags(ctx, "/tags")
}

// DocumentTags returns the distinct document tags.
func (c *Client) DocumentTags(ctx context.Context) ([]string, error) {
	return c.tags(ctx, "/documents/tags/all")
}

func (c *Client) tags(ctx context.Context, path string) ([]string, error) {
	var tags []string
	err := c.getJSON(ctx, path, func(b []byte) error {
		b = bytes.TrimSpace(b)
		if len(b) > 0 && b[0] == '{' {
			var env struct {
				Tags []string `json:"tags"`
			}
			if err := json.Unmarshal(b, &env); err != nil {
				return err
			}
			tags = env.Tags
			return nil
		}
		return json.Unmarshal(b, &tags)
	})
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
