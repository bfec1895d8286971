package content

import (
	"sort"
	"strings"
)

// Matches reports whether query occurs, case-insensitively, in the item's
// title, description or any of its tags. A blank query matches everything.
func Matches(item Item, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	b := item.Common()
	if strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Description), q) {
		return true
	}
	for _, tag := range b.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// FilterItems keeps the items matching query, preserving order.
func FilterItems(items []Item, query string) []Item {
	if strings.TrimSpace(query) == "" {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if Matches(it, query) {
			out = append(out, it)
		}
	}
	return out
}

// HasTag is an exact, case-sensitive tag test.
func HasTag(item Item, tag string) bool {
	for _, t := range item.Common().Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DistinctTags returns the sorted set of tags across items.
func DistinctTags(items []Item) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, it := range items {
		for _, t := range it.Common().Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
