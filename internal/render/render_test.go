package render

import (
	"strings"
	"testing"

	"github.com/pders01/aihub/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_Tool(t *testing.T) {
	tool := &content.Tool{
		Base:               content.Base{ID: "t1", Title: "ChatGPT", Description: "Chat assistant", Tags: []string{"AI", "NLP"}},
		URL:                "https://chat.openai.com/",
		LikeCount:          3,
		LikedByCurrentUser: content.Bool(true),
	}
	md := Markdown(tool)
	assert.True(t, strings.HasPrefix(md, "# ChatGPT\n"))
	assert.Contains(t, md, "♥ 3 likes")
	assert.Contains(t, md, "[Visit site](https://chat.openai.com/)")
	assert.Contains(t, md, "**Tags:** AI · NLP")
	assert.Contains(t, md, "Chat assistant")
}

func TestMarkdown_NewsConvertsHTML(t *testing.T) {
	n := &content.News{
		Base:        content.Base{ID: "n1", Title: "Launch"},
		Author:      "Jane Smith",
		PublishDate: "2024-05-01T10:00:00Z",
		BodyHTML:    "<p>Hello <strong>world</strong></p>",
	}
	md := Markdown(n)
	assert.Contains(t, md, "*By Jane Smith · Published: 2024-05-01*")
	assert.Contains(t, md, "Hello **world**")
	assert.NotContains(t, md, "<p>")
}

func TestMarkdown_Podcast(t *testing.T) {
	ep := 5
	p := &content.Podcast{
		Base:            content.Base{ID: "p1", Title: "Episode"},
		Host:            "Dr. Emma Chen",
		DurationSeconds: 1845,
		EpisodeNumber:   &ep,
		AudioURL:        "https://example.com/a.mp3",
	}
	md := Markdown(p)
	assert.Contains(t, md, "*Episode 5 · Hosted by Dr. Emma Chen · 30:45*")
	assert.Contains(t, md, "[Listen](https://example.com/a.mp3)")
	assert.NotContains(t, md, "Liked")
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0:00", Duration(-3))
	assert.Equal(t, "0:59", Duration(59))
	assert.Equal(t, "42:00", Duration(2520))
	assert.Equal(t, "1:01:01", Duration(3661))
}

func TestHTMLToMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", HTMLToMarkdown("   "))
}

func TestMediaURLs(t *testing.T) {
	n := &content.News{
		Base:      content.Base{ID: "n1", ThumbnailURL: "https://img/x.png"},
		SourceURL: "https://example.com/story",
		BodyHTML:  `<img src="https://img/x.png"><video src="https://v/clip.mp4"></video>`,
	}
	assert.Equal(t, []string{"https://example.com/story", "https://img/x.png", "https://v/clip.mp4"}, MediaURLs(n))

	tool := &content.Tool{URL: "https://a"}
	assert.Equal(t, []string{"https://a"}, MediaURLs(tool))
}

func TestRenderer_WrapWidth(t *testing.T) {
	r := NewRenderer(40, 120, "")
	assert.Equal(t, 120, r.WrapWidth(300))
	assert.Equal(t, 90, r.WrapWidth(100))
	assert.Equal(t, 45, r.WrapWidth(50))
	assert.Equal(t, 26, r.WrapWidth(30))
	assert.Equal(t, 20, r.WrapWidth(10))
}

func TestRenderer_Item(t *testing.T) {
	r := NewRenderer(40, 80, "notty")
	out, err := r.Item(&content.Tool{Base: content.Base{Title: "Jasper"}, URL: "https://www.jasper.ai/"}, 100)
	require.NoError(t, err)
	assert.Contains(t, out, "Jasper")
}
