package tui

type View int

const (
	ViewList View = iota
	ViewTags
	ViewDetail
	ViewComments
	ViewMedia
	ViewLogin
	ViewProfile
	ViewLiked
	ViewSearch
	ViewNotFound
)

func (v View) String() string {
	switch v {
	case ViewList:
		return "list"
	case ViewTags:
		return "tags"
	case ViewDetail:
		return "detail"
	case ViewComments:
		return "comments"
	case ViewMedia:
		return "media"
	case ViewLogin:
		return "login"
	case ViewProfile:
		return "profile"
	case ViewLiked:
		return "liked"
	case ViewSearch:
		return "search"
	case ViewNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)
