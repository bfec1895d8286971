package content

// LikeState is the like-related view of an item. Liked is nil when the
// server did not say whether the current user likes the item. Count is only
// meaningful when Counted is set.
type LikeState struct {
	Liked   *bool
	Count   int
	Counted bool
}

// IsLiked treats an unknown state as not liked.
func (s LikeState) IsLiked() bool {
	return s.Liked != nil && *s.Liked
}

// Flipped is the state after one like toggle from s.
func (s LikeState) Flipped() LikeState {
	next := LikeState{Liked: Bool(!s.IsLiked()), Count: s.Count, Counted: s.Counted}
	if s.Counted {
		if next.IsLiked() {
			next.Count++
		} else if next.Count > 0 {
			next.Count--
		}
	}
	return next
}

// LikeStateOf reads the like fields of item.
func LikeStateOf(item Item) LikeState {
	var s LikeState
	Visit(item, likeReader{&s})
	return s
}

type likeReader struct{ out *LikeState }

func (r likeReader) Tool(t *Tool) {
	*r.out = LikeState{Liked: cloneBool(t.LikedByCurrentUser), Count: t.LikeCount, Counted: true}
}

func (r likeReader) Document(d *Document) {
	*r.out = LikeState{Liked: cloneBool(d.LikedByCurrentUser), Count: d.LikeCount, Counted: true}
}

func (r likeReader) News(n *News) {
	*r.out = LikeState{Liked: cloneBool(n.LikedByCurrentUser)}
}

func (r likeReader) Podcast(p *Podcast) {
	*r.out = LikeState{Liked: cloneBool(p.LikedByCurrentUser)}
}

// ApplyLikeState writes s into item in place. Counts are ignored for kinds
// that do not carry one.
func ApplyLikeState(item Item, s LikeState) {
	Visit(item, likeWriter{s})
}

type likeWriter struct{ s LikeState }

func (w likeWriter) Tool(t *Tool) {
	t.LikedByCurrentUser = cloneBool(w.s.Liked)
	if w.s.Counted {
		t.LikeCount = w.s.Count
	}
}

func (w likeWriter) Document(d *Document) {
	d.LikedByCurrentUser = cloneBool(w.s.Liked)
	if w.s.Counted {
		d.LikeCount = w.s.Count
	}
}

func (w likeWriter) News(n *News)       { n.LikedByCurrentUser = cloneBool(w.s.Liked) }
func (w likeWriter) Podcast(p *Podcast) { p.LikedByCurrentUser = cloneBool(w.s.Liked) }
