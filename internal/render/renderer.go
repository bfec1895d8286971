package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/pders01/aihub/internal/content"
)

// Renderer caches a glamour renderer and rebuilds it only when the wrap
// width moves noticeably.
type Renderer struct {
	mu       sync.Mutex
	glamour  *glamour.TermRenderer
	width    int
	minWidth int
	maxWidth int
	style    string
}

// NewRenderer clamps wrap widths to [minWidth, maxWidth]. An empty style
// picks light or dark from the terminal.
func NewRenderer(minWidth, maxWidth int, style string) *Renderer {
	if minWidth <= 0 {
		minWidth = 40
	}
	if maxWidth < minWidth {
		maxWidth = 120
	}
	return &Renderer{minWidth: minWidth, maxWidth: maxWidth, style: style}
}

// WrapWidth is the word wrap used for a terminal of the given width.
func (r *Renderer) WrapWidth(termWidth int) int {
	w := (termWidth * 9) / 10
	if w > r.maxWidth {
		w = r.maxWidth
	}
	if w < r.minWidth {
		w = r.minWidth
	}
	if termWidth < 50 {
		w = termWidth - 4
		if w < 20 {
			w = 20
		}
	}
	return w
}

func (r *Renderer) renderer(termWidth int) (*glamour.TermRenderer, error) {
	wrap := r.WrapWidth(termWidth)
	if r.glamour != nil && abs(r.width-wrap) <= 10 {
		return r.glamour, nil
	}
	styleOpt := glamour.WithAutoStyle()
	if r.style != "" {
		styleOpt = glamour.WithStandardStyle(r.style)
	}
	g, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
	if err != nil {
		return nil, err
	}
	r.glamour = g
	r.width = wrap
	return g, nil
}

// Markdown renders a markdown document for a terminal of termWidth.
func (r *Renderer) Markdown(md string, termWidth int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.renderer(termWidth)
	if err != nil {
		return "", err
	}
	return g.Render(md)
}

// Item renders the detail document of item.
func (r *Renderer) Item(item content.Item, termWidth int) (string, error) {
	return r.Markdown(Markdown(item), termWidth)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
