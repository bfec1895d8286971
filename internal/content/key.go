package content

import "fmt"

// Key identifies an item across kinds. IDs are unique only within a kind.
type Key struct {
	Kind Kind
	ID   string
}

func (k Key) String() string {
	return string(k.Kind) + "/" + k.ID
}

// FetchKey identifies one cacheable list query: every item of a kind, or
// the items of a kind carrying one tag. It is comparable, so two keys are
// equal exactly when kind, filter presence and tag all match. Tag
// comparison is case-sensitive.
type FetchKey struct {
	Kind     Kind
	Tag      string
	Filtered bool
}

// AllOf is the unfiltered key for kind.
func AllOf(kind Kind) FetchKey {
	return FetchKey{Kind: kind}
}

// TaggedWith is the key for kind filtered to tag. An empty tag yields the
// unfiltered key.
func TaggedWith(kind Kind, tag string) FetchKey {
	if tag == "" {
		return AllOf(kind)
	}
	return FetchKey{Kind: kind, Tag: tag, Filtered: true}
}

// TagFilter returns the tag and whether a filter is set.
func (k FetchKey) TagFilter() (string, bool) {
	return k.Tag, k.Filtered
}

func (k FetchKey) String() string {
	if !k.Filtered {
		return fmt.Sprintf("%s[all]", k.Kind)
	}
	return fmt.Sprintf("%s[tag=%s]", k.Kind, k.Tag)
}
