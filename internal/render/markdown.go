package render

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/pders01/aihub/internal/content"
)

// Markdown is the detail document for item.
func Markdown(item content.Item) string {
	b := &builder{}
	base := item.Common()
	fmt.Fprintf(&b.sb, "# %s\n\n", base.Title)
	content.Visit(item, b)
	if len(base.Tags) > 0 {
		fmt.Fprintf(&b.sb, "**Tags:** %s\n\n", strings.Join(base.Tags, " · "))
	}
	b.sb.WriteString("---\n\n")
	if base.Description != "" {
		b.sb.WriteString(base.Description)
		b.sb.WriteString("\n\n")
	}
	if b.body != "" {
		b.sb.WriteString(b.body)
		b.sb.WriteString("\n")
	}
	return b.sb.String()
}

type builder struct {
	sb   strings.Builder
	body string
}

func (b *builder) Tool(t *content.Tool) {
	b.likes(content.LikeStateOf(t))
	b.link("Visit site", t.URL)
}

func (b *builder) Document(d *content.Document) {
	b.likes(content.LikeStateOf(d))
	if d.FileType != "" {
		fmt.Fprintf(&b.sb, "*Format: %s*\n\n", d.FileType)
	}
	b.link("Download", d.FileURL)
	b.body = d.Body
}

func (b *builder) News(n *content.News) {
	var meta []string
	if n.Author != "" {
		meta = append(meta, "By "+n.Author)
	}
	if n.PublishDate != "" {
		meta = append(meta, "Published: "+shortDate(n.PublishDate))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b.sb, "*%s*\n\n", strings.Join(meta, " · "))
	}
	b.liked(content.LikeStateOf(n))
	b.link("Read at source", n.SourceURL)
	b.body = HTMLToMarkdown(n.BodyHTML)
}

func (b *builder) Podcast(p *content.Podcast) {
	var meta []string
	if p.EpisodeNumber != nil {
		meta = append(meta, fmt.Sprintf("Episode %d", *p.EpisodeNumber))
	}
	if p.Host != "" {
		meta = append(meta, "Hosted by "+p.Host)
	}
	if p.DurationSeconds > 0 {
		meta = append(meta, Duration(p.DurationSeconds))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b.sb, "*%s*\n\n", strings.Join(meta, " · "))
	}
	b.liked(content.LikeStateOf(p))
	b.link("Listen", p.AudioURL)
}

func (b *builder) likes(s content.LikeState) {
	mark := "♡"
	if s.IsLiked() {
		mark = "♥"
	}
	fmt.Fprintf(&b.sb, "%s %d likes\n\n", mark, s.Count)
}

func (b *builder) liked(s content.LikeState) {
	if s.IsLiked() {
		b.sb.WriteString("♥ Liked\n\n")
	}
}

func (b *builder) link(label, url string) {
	if url != "" {
		fmt.Fprintf(&b.sb, "[%s](%s)\n\n", label, url)
	}
}

// HTMLToMarkdown converts an HTML body. Input that fails to convert is
// returned unchanged so the reader still sees something.
func HTMLToMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(md)
}

// Duration formats seconds as m:ss or h:mm:ss.
func Duration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func shortDate(s string) string {
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

var (
	imgRegex   = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
	videoRegex = regexp.MustCompile(`<(?:video|audio|source)[^>]+src=["']([^"']+)["']`)
)

// MediaURLs lists every openable URL of item: its primary link, its
// thumbnail and any media embedded in an HTML body. Duplicates are dropped.
func MediaURLs(item content.Item) []string {
	urls := []string{content.PrimaryURL(item), item.Common().ThumbnailURL}
	if n, ok := item.(*content.News); ok {
		for _, re := range []*regexp.Regexp{imgRegex, videoRegex} {
			for _, match := range re.FindAllStringSubmatch(n.BodyHTML, -1) {
				urls = append(urls, match[1])
			}
		}
	}
	return uniqueStrings(urls)
}

func uniqueStrings(strs []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, s := range strs {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
	}
	return result
}
