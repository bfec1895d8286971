package content

import (
	"fmt"
	"strings"
)

// Kind identifies one of the catalog's content categories.
type Kind string

const (
	KindTool     Kind = "tool"
	KindDocument Kind = "document"
	KindNews     Kind = "news"
	KindPodcast  Kind = "podcast"
)

var allKinds = []Kind{KindTool, KindDocument, KindNews, KindPodcast}

// Kinds returns every known kind in display order.
func Kinds() []Kind {
	return append([]Kind(nil), allKinds...)
}

// ParseKind accepts the singular or collection spelling of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tool", "tools":
		return KindTool, nil
	case "document", "documents", "doc", "docs":
		return KindDocument, nil
	case "news":
		return KindNews, nil
	case "podcast", "podcasts":
		return KindPodcast, nil
	default:
		return "", fmt.Errorf("unknown content kind %q", s)
	}
}

// Collection is the REST collection segment for the kind.
func (k Kind) Collection() string {
	switch k {
	case KindTool:
		return "tools"
	case KindDocument:
		return "documents"
	case KindNews:
		return "news"
	case KindPodcast:
		return "podcasts"
	default:
		return ""
	}
}

// Label is the plural, human-facing name.
func (k Kind) Label() string {
	switch k {
	case KindTool:
		return "Tools"
	case KindDocument:
		return "Documents"
	case KindNews:
		return "News"
	case KindPodcast:
		return "Podcasts"
	default:
		return string(k)
	}
}

func (k Kind) Valid() bool {
	return k.Collection() != ""
}

// Counted reports whether items of this kind carry a like count.
func (k Kind) Counted() bool {
	return k == KindTool || k == KindDocument
}
