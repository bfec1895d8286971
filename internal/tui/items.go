package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/media"
	"github.com/pders01/aihub/internal/render"
	"github.com/pders01/aihub/internal/search"
)

type contentItem struct {
	item     content.Item
	showKind bool
	maxDesc  int
}

func (i contentItem) Title() string {
	base := i.item.Common()
	title := base.Title
	if i.showKind {
		title = "[" + strings.ToLower(i.item.Kind().Label()) + "] " + title
	}
	if s := content.LikeStateOf(i.item); s.IsLiked() {
		return LikedItemStyle.Render("♥ " + title)
	}
	return title
}

func (i contentItem) Description() string {
	base := i.item.Common()
	parts := []string{truncateEnd(base.Description, i.maxDesc)}
	if meta := itemMeta(i.item); meta != "" {
		parts = append(parts, meta)
	}
	return lipgloss.NewStyle().Foreground(MutedColor).Render(strings.Join(parts, " • "))
}

func (i contentItem) FilterValue() string { return i.item.Common().Title }

// itemMeta is the one-line summary shown under a title.
func itemMeta(item content.Item) string {
	var parts []string
	switch it := item.(type) {
	case *content.News:
		if it.Author != "" {
			parts = append(parts, it.Author)
		}
	case *content.Podcast:
		if it.DurationSeconds > 0 {
			parts = append(parts, render.Duration(it.DurationSeconds))
		}
	}
	if s := content.LikeStateOf(item); s.Counted {
		parts = append(parts, fmt.Sprintf("♥ %d", s.Count))
	}
	if tags := item.Common().Tags; len(tags) > 0 {
		parts = append(parts, "#"+strings.Join(tags, " #"))
	}
	return strings.Join(parts, " • ")
}

func contentItems(items []content.Item, showKind bool, maxDesc int) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = contentItem{item: it, showKind: showKind, maxDesc: maxDesc}
	}
	return out
}

type tagItem struct {
	tag      string
	selected bool
}

func (i tagItem) Title() string {
	if i.selected {
		return SelectedTagStyle.Render("● #" + i.tag)
	}
	return "#" + i.tag
}

func (i tagItem) Description() string { return "" }
func (i tagItem) FilterValue() string { return i.tag }

type searchResultItem struct {
	result *search.Result
}

func (i searchResultItem) Title() string {
	it := i.result.Item
	return "[" + strings.ToLower(it.Kind().Label()) + "] " + it.Common().Title
}

func (i searchResultItem) Description() string {
	var snippet string
	for _, m := range i.result.Matches {
		if m.Field != "title" {
			snippet = m.Field + ": " + m.Text
			break
		}
	}
	if snippet == "" {
		snippet = i.result.Item.Common().Description
	}
	return lipgloss.NewStyle().Foreground(MutedColor).Render(truncateEnd(snippet, 80))
}

func (i searchResultItem) FilterValue() string { return i.result.Item.Common().Title }

type mediaItem struct {
	url       string
	mediaType media.Type
	index     int
	total     int
}

func (i mediaItem) Title() string {
	return fmt.Sprintf("%d/%d %s", i.index+1, i.total, i.mediaType)
}

func (i mediaItem) Description() string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(truncateMiddle(i.url, 80))
}

func (i mediaItem) FilterValue() string { return i.url }
