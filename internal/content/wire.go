package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// The backend has shipped several spellings of the same fields over time
// (snake_case columns, the SPA's camelCase, tool "name" instead of "title").
// wireItem accepts all of them; build* picks the first non-empty spelling.
type wireItem struct {
	Type        string     `json:"type"`
	ContentType string     `json:"contentType"`
	ID          flexString `json:"id"`

	Title       string   `json:"title"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`

	ThumbnailURL      string `json:"thumbnailUrl"`
	ThumbnailURLSnake string `json:"thumbnail_url"`
	ImageURL          string `json:"imageUrl"`
	ImageURLSnake     string `json:"image_url"`
	CreatedAt         string `json:"createdAt"`
	CreatedAtSnake    string `json:"created_at"`

	URL        string   `json:"url"`
	Likes      *flexInt `json:"likes"`
	LikeCount  *int     `json:"likeCount"`
	LikesCount *int     `json:"likesCount"`
	IsLiked    *bool    `json:"isLiked"`
	LikedByMe  *bool    `json:"likedByCurrentUser"`

	FileURL       string `json:"fileUrl"`
	FileURLSnake  string `json:"file_url"`
	FileType      string `json:"fileType"`
	FileTypeSnake string `json:"file_type"`
	Content       string `json:"content"`

	SourceURL        string          `json:"sourceUrl"`
	SourceURLSnake   string          `json:"source_url"`
	Author           json.RawMessage `json:"author"`
	PublishDate      string          `json:"publishDate"`
	PublishDateSnake string          `json:"publish_date"`
	BodyHTML         string          `json:"bodyHtml"`

	AudioURL           string `json:"audioUrl"`
	AudioURLSnake      string `json:"audio_url"`
	Duration           *int   `json:"duration"`
	DurationSeconds    *int   `json:"durationSeconds"`
	Host               string `json:"host"`
	EpisodeNumber      *int   `json:"episodeNumber"`
	EpisodeNumberSnake *int   `json:"episode_number"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a number or an array (whose length is the count), since
// older tool payloads carried the list of liking user ids.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*f = flexInt(len(arr))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return fmt.Errorf("count must be an integer: %w", err)
	}
	*f = flexInt(i)
	return nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstBool(vals ...*bool) *bool {
	for _, v := range vals {
		if v != nil {
			return cloneBool(v)
		}
	}
	return nil
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (w *wireItem) base() Base {
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	return Base{
		ID:           string(w.ID),
		Title:        first(w.Title, w.Name),
		Description:  w.Description,
		Tags:         tags,
		ThumbnailURL: first(w.ThumbnailURL, w.ThumbnailURLSnake, w.ImageURL, w.ImageURLSnake),
		CreatedAt:    first(w.CreatedAt, w.CreatedAtSnake),
	}
}

func (w *wireItem) likeCount() int {
	if n := firstInt(w.LikeCount, w.LikesCount); n != nil {
		return nonNegative(*n)
	}
	if w.Likes != nil {
		return nonNegative(int(*w.Likes))
	}
	return 0
}

func (w *wireItem) liked() *bool {
	return firstBool(w.LikedByMe, w.IsLiked)
}

func (w *wireItem) authorName() string {
	if len(w.Author) == 0 || bytes.Equal(w.Author, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(w.Author, &s); err == nil {
		return s
	}
	var u wireUser
	if err := json.Unmarshal(w.Author, &u); err == nil {
		return u.toUser().DisplayName
	}
	return ""
}

func (w *wireItem) build(kind Kind) (Item, error) {
	switch kind {
	case KindTool:
		return &Tool{
			Base:               w.base(),
			URL:                w.URL,
			LikeCount:          w.likeCount(),
			LikedByCurrentUser: w.liked(),
		}, nil
	case KindDocument:
		return &Document{
			Base:               w.base(),
			FileURL:            first(w.FileURL, w.FileURLSnake),
			FileType:           first(w.FileType, w.FileTypeSnake),
			Body:               w.Content,
			LikeCount:          w.likeCount(),
			LikedByCurrentUser: w.liked(),
		}, nil
	case KindNews:
		return &News{
			Base:               w.base(),
			SourceURL:          first(w.SourceURL, w.SourceURLSnake),
			Author:             w.authorName(),
			PublishDate:        first(w.PublishDate, w.PublishDateSnake),
			BodyHTML:           first(w.BodyHTML, w.Content),
			LikedByCurrentUser: w.liked(),
		}, nil
	case KindPodcast:
		p := &Podcast{
			Base:               w.base(),
			AudioURL:           first(w.AudioURL, w.AudioURLSnake),
			Host:               w.Host,
			LikedByCurrentUser: w.liked(),
		}
		if d := firstInt(w.DurationSeconds, w.Duration); d != nil {
			p.DurationSeconds = nonNegative(*d)
		}
		if n := firstInt(w.EpisodeNumber, w.EpisodeNumberSnake); n != nil {
			v := *n
			p.EpisodeNumber = &v
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
}

// DecodeItem decodes one item of a known kind.
func DecodeItem(kind Kind, data []byte) (Item, error) {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind, err)
	}
	return w.build(kind)
}

// DecodeItems decodes a list of items of one kind. Both a bare array and the
// paged envelope {"items": [...]} are accepted.
func DecodeItems(kind Kind, data []byte) ([]Item, error) {
	raw, err := listElements(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", kind, err)
	}
	items := make([]Item, 0, len(raw))
	for _, el := range raw {
		it, err := DecodeItem(kind, el)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// DecodeMixed decodes a list whose elements name their own kind in a "type"
// or "contentType" field, as the liked-content aggregate does.
func DecodeMixed(data []byte) ([]Item, error) {
	raw, err := listElements(data)
	if err != nil {
		return nil, fmt.Errorf("decoding mixed list: %w", err)
	}
	items := make([]Item, 0, len(raw))
	for _, el := range raw {
		var w wireItem
		if err := json.Unmarshal(el, &w); err != nil {
			return nil, fmt.Errorf("decoding mixed element: %w", err)
		}
		kind, err := ParseKind(first(w.Type, w.ContentType))
		if err != nil {
			return nil, fmt.Errorf("decoding mixed element %q: %w", string(w.ID), err)
		}
		it, err := w.build(kind)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func listElements(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var env struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		return env.Items, nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(trimmed, &arr); err != nil {
		return nil, err
	}
	return arr, nil
}

// MarshalTagged encodes item with a "type" discriminator, the shape
// DecodeMixed reads back.
func MarshalTagged(item Item) ([]byte, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(string(item.Kind()))
	fields["type"] = kind
	return json.Marshal(fields)
}

// wireUser accepts the profile spellings seen from the auth service.
type wireUser struct {
	ID               flexString `json:"id"`
	UID              flexString `json:"uid"`
	DisplayName      string     `json:"displayName"`
	DisplayNameSnake string     `json:"display_name"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	AvatarURL        string     `json:"avatarUrl"`
	PhotoURL         string     `json:"photoURL"`
	AvatarURLSnake   string     `json:"avatar_url"`
}

func (u wireUser) toUser() User {
	return User{
		ID:          first(string(u.ID), string(u.UID)),
		DisplayName: first(u.DisplayName, u.DisplayNameSnake, u.Name),
		Email:       u.Email,
		AvatarURL:   first(u.AvatarURL, u.PhotoURL, u.AvatarURLSnake),
	}
}

// DecodeUser decodes a user profile.
func DecodeUser(data []byte) (User, error) {
	var u wireUser
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("decoding user: %w", err)
	}
	return u.toUser(), nil
}

type wireComment struct {
	ID           flexString      `json:"id"`
	ToolID       flexString      `json:"toolId"`
	ToolIDSnake  flexString      `json:"tool_id"`
	Text         string          `json:"text"`
	CreatedAt    string          `json:"createdAt"`
	CreatedSnake string          `json:"created_at"`
	CreatedBy    json.RawMessage `json:"createdBy"`
	Author       json.RawMessage `json:"author"`
}

// DecodeComments decodes a comment list.
func DecodeComments(data []byte) ([]Comment, error) {
	raw, err := listElements(data)
	if err != nil {
		return nil, fmt.Errorf("decoding comments: %w", err)
	}
	out := make([]Comment, 0, len(raw))
	for _, el := range raw {
		var w wireComment
		if err := json.Unmarshal(el, &w); err != nil {
			return nil, fmt.Errorf("decoding comment: %w", err)
		}
		c := Comment{
			ID:        string(w.ID),
			ToolID:    first(string(w.ToolID), string(w.ToolIDSnake)),
			Text:      w.Text,
			CreatedAt: first(w.CreatedAt, w.CreatedSnake),
		}
		author := w.CreatedBy
		if len(author) == 0 {
			author = w.Author
		}
		if len(author) > 0 && !bytes.Equal(author, []byte("null")) {
			if u, err := DecodeUser(author); err == nil {
				c.Author = u
			}
		}
		out = append(out, c)
	}
	return out, nil
}
