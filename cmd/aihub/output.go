package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/search"
)

const descriptionWidth = 60

func newTable(w io.Writer) table.Writer {
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(style)
	return t
}

// likeCell renders the like column: a heart when the user likes the item
// and the count for kinds that have one.
func likeCell(item content.Item) string {
	s := content.LikeStateOf(item)
	var b strings.Builder
	if s.IsLiked() {
		b.WriteString("♥")
	}
	if s.Counted {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strconv.Itoa(s.Count))
	}
	return b.String()
}

func tagCell(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "#" + strings.Join(tags, " #")
}

// printItems writes items as a table. showKind adds a kind column for
// mixed lists.
func printItems(w io.Writer, items []content.Item, showKind bool) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items.")
		return
	}
	t := newTable(w)
	header := table.Row{"ID", "Title", "Description", "Tags", "Likes"}
	if showKind {
		header = append(table.Row{"Kind"}, header...)
	}
	t.AppendHeader(header)
	for _, it := range items {
		b := it.Common()
		row := table.Row{b.ID, b.Title, text.Trim(oneLine(b.Description), descriptionWidth), tagCell(b.Tags), likeCell(it)}
		if showKind {
			row = append(table.Row{string(it.Kind())}, row...)
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "Likes", Align: text.AlignRight}})
	t.AppendFooter(table.Row{fmt.Sprintf("%d items", len(items))})
	t.Render()
}

// printItemsJSON writes items with their kind discriminator, the shape the
// snapshot store uses.
func printItemsJSON(w io.Writer, items []content.Item) error {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := content.MarshalTagged(it)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", content.KeyOf(it), err)
		}
		out = append(out, b)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printComments(w io.Writer, comments []content.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Author", "Posted", "Comment"})
	for _, c := range comments {
		author := c.Author.DisplayName
		if author == "" {
			author = "anonymous"
		}
		t.AppendRow(table.Row{author, c.CreatedAt, text.WrapSoft(c.Text, descriptionWidth)})
	}
	t.Render()
}

func printResults(w io.Writer, results []*search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Kind", "ID", "Title", "Match", "Score"})
	for _, r := range results {
		b := r.Item.Common()
		match := ""
		if len(r.Matches) > 0 {
			match = r.Matches[0].Field + ": " + text.Trim(oneLine(r.Matches[0].Text), descriptionWidth)
		}
		t.AppendRow(table.Row{string(r.Item.Kind()), b.ID, b.Title, match, fmt.Sprintf("%.2f", r.Score)})
	}
	t.Render()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
