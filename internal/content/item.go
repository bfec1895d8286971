package content

// Base holds the fields every kind shares.
type Base struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	CreatedAt    string   `json:"createdAt"`
}

// Item is a catalog entry of any kind. The set of implementations is closed;
// use Visit to branch on the concrete variant.
type Item interface {
	Kind() Kind
	Common() *Base
	sealed()
}

type Tool struct {
	Base
	URL                string `json:"url"`
	LikeCount          int    `json:"likeCount"`
	LikedByCurrentUser *bool  `json:"likedByCurrentUser,omitempty"`
}

type Document struct {
	Base
	FileURL            string `json:"fileUrl,omitempty"`
	FileType           string `json:"fileType,omitempty"`
	Body               string `json:"content,omitempty"`
	LikeCount          int    `json:"likeCount"`
	LikedByCurrentUser *bool  `json:"likedByCurrentUser,omitempty"`
}

type News struct {
	Base
	SourceURL          string `json:"sourceUrl"`
	Author             string `json:"author,omitempty"`
	PublishDate        string `json:"publishDate"`
	BodyHTML           string `json:"bodyHtml,omitempty"`
	LikedByCurrentUser *bool  `json:"likedByCurrentUser,omitempty"`
}

type Podcast struct {
	Base
	AudioURL           string `json:"audioUrl"`
	DurationSeconds    int    `json:"durationSeconds"`
	Host               string `json:"host,omitempty"`
	EpisodeNumber      *int   `json:"episodeNumber,omitempty"`
	LikedByCurrentUser *bool  `json:"likedByCurrentUser,omitempty"`
}

func (*Tool) Kind() Kind     { return KindTool }
func (*Document) Kind() Kind { return KindDocument }
func (*News) Kind() Kind     { return KindNews }
func (*Podcast) Kind() Kind  { return KindPodcast }

func (t *Tool) Common() *Base     { return &t.Base }
func (d *Document) Common() *Base { return &d.Base }
func (n *News) Common() *Base     { return &n.Base }
func (p *Podcast) Common() *Base  { return &p.Base }

func (*Tool) sealed()     {}
func (*Document) sealed() {}
func (*News) sealed()     {}
func (*Podcast) sealed()  {}

// Visitor has one method per kind. Adding a kind adds a method here, which
// breaks every visitor until it handles the new variant.
type Visitor interface {
	Tool(*Tool)
	Document(*Document)
	News(*News)
	Podcast(*Podcast)
}

// Visit dispatches item to the visitor method for its variant.
func Visit(item Item, v Visitor) {
	switch it := item.(type) {
	case *Tool:
		v.Tool(it)
	case *Document:
		v.Document(it)
	case *News:
		v.News(it)
	case *Podcast:
		v.Podcast(it)
	}
}

// KeyOf returns the cross-kind identity of item.
func KeyOf(item Item) Key {
	return Key{Kind: item.Kind(), ID: item.Common().ID}
}

// PrimaryURL is the link the item points at: the tool's site, the document
// file, the news source or the podcast audio.
func PrimaryURL(item Item) string {
	var u string
	Visit(item, urlVisitor{&u})
	return u
}

type urlVisitor struct{ out *string }

func (v urlVisitor) Tool(t *Tool)         { *v.out = t.URL }
func (v urlVisitor) Document(d *Document) { *v.out = d.FileURL }
func (v urlVisitor) News(n *News)         { *v.out = n.SourceURL }
func (v urlVisitor) Podcast(p *Podcast)   { *v.out = p.AudioURL }

// Clone returns a deep copy so views can hold local state without touching
// cached values.
func Clone(item Item) Item {
	var out Item
	Visit(item, cloneVisitor{&out})
	return out
}

type cloneVisitor struct{ out *Item }

func (v cloneVisitor) Tool(t *Tool) {
	c := *t
	c.Base = cloneBase(t.Base)
	c.LikedByCurrentUser = cloneBool(t.LikedByCurrentUser)
	*v.out = &c
}

func (v cloneVisitor) Document(d *Document) {
	c := *d
	c.Base = cloneBase(d.Base)
	c.LikedByCurrentUser = cloneBool(d.LikedByCurrentUser)
	*v.out = &c
}

func (v cloneVisitor) News(n *News) {
	c := *n
	c.Base = cloneBase(n.Base)
	c.LikedByCurrentUser = cloneBool(n.LikedByCurrentUser)
	*v.out = &c
}

func (v cloneVisitor) Podcast(p *Podcast) {
	c := *p
	c.Base = cloneBase(p.Base)
	c.LikedByCurrentUser = cloneBool(p.LikedByCurrentUser)
	if p.EpisodeNumber != nil {
		n := *p.EpisodeNumber
		c.EpisodeNumber = &n
	}
	*v.out = &c
}

func cloneBase(b Base) Base {
	b.Tags = append([]string(nil), b.Tags...)
	return b
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// Bool returns a pointer to v, for the optional liked fields.
func Bool(v bool) *bool { return &v }
