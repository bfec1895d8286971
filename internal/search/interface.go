package search

import "github.com/pders01/aihub/internal/content"

// Searcher defines the minimal search API used by the TUI and the CLI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
	SearchIn(item content.Item, query string) ([]*Result, error)
}

// UpdateListener is notified whenever the catalog loads items, so engines
// can keep their view of the catalog current.
type UpdateListener interface {
	OnItemsLoaded(items []content.Item)
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}

// Result is one search hit.
type Result struct {
	Item    content.Item
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "description", "tags", "body"
	Text   string // matched text snippet
	Weight float64
}
