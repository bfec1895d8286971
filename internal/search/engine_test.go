package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/aihub/internal/content"
)

func sampleItems() []content.Item {
	return []content.Item{
		&content.Tool{Base: content.Base{ID: "tool1", Title: "ChatGPT", Description: "Conversational assistant", Tags: []string{"AI", "NLP"}}},
		&content.Tool{Base: content.Base{ID: "tool4", Title: "GitHub Copilot", Description: "AI pair programming", Tags: []string{"Coding"}}},
		&content.Document{
			Base: content.Base{ID: "doc2", Title: "Advanced Prompt Engineering", Tags: []string{"advanced"}},
			Body: "Chain-of-thought prompting and few-shot learning for language models.",
		},
		&content.News{
			Base:     content.Base{ID: "news-3", Title: "Conference announced"},
			BodyHTML: "<p>Speakers include <b>copilot</b> engineers.</p>",
		},
	}
}

func TestSearchMinLength(t *testing.T) {
	engine := NewEngine()
	engine.OnItemsLoaded(sampleItems())

	tests := []struct {
		name  string
		query string
	}{
		{name: "Empty query", query: ""},
		{name: "Single character query", query: "a"},
		{name: "Whitespace only", query: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := engine.Search(tt.query, 10)
			assert.NoError(t, err)
			assert.NotNil(t, results)
			assert.Equal(t, 0, len(results), "short queries should return empty results")
		})
	}
}

func TestSearchRanksTitleFirst(t *testing.T) {
	engine := NewEngine()
	engine.OnItemsLoaded(sampleItems())

	results, err := engine.Search("copilot", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "tool4", results[0].Item.Common().ID, "title hit outranks body hit")
	assert.Equal(t, "news-3", results[1].Item.Common().ID)
	assert.Equal(t, "body", results[1].Matches[0].Field)
}

func TestSearchLimitAndTags(t *testing.T) {
	engine := NewEngine()
	engine.OnItemsLoaded(sampleItems())

	results, err := engine.Search("nlp", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tags", results[0].Matches[0].Field)

	results, err = engine.Search("ai", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestOnItemsLoadedReplaces(t *testing.T) {
	engine := NewEngine()
	engine.OnItemsLoaded(sampleItems())
	engine.OnItemsLoaded([]content.Item{
		&content.Tool{Base: content.Base{ID: "tool1", Title: "Renamed"}},
	})
	n, err := engine.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	results, err := engine.Search("chatgpt", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchIn(t *testing.T) {
	engine := NewEngine()
	doc := sampleItems()[2]

	results, err := engine.SearchIn(doc, "few-shot")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "body", results[0].Matches[0].Field)

	results, err = engine.SearchIn(nil, "prompt")
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "simple words", input: "hello world", expected: []string{"hello", "world"}},
		{name: "with punctuation", input: "hello, world! test.", expected: []string{"hello", "world", "test"}},
		{name: "with numbers", input: "test123 456hello", expected: []string{"test123", "456hello"}},
		{name: "mixed case", input: "Hello WORLD Test", expected: []string{"hello", "world", "test"}},
		{name: "single characters filtered", input: "a b test c d word", expected: []string{"test", "word"}},
		{name: "empty string", input: "", expected: nil},
		{name: "special characters", input: "test@email.com hello-world", expected: []string{"test", "email", "com", "hello", "world"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{name: "text shorter than limit", text: "short", maxLen: 10, expected: "short"},
		{name: "text exactly at limit", text: "exactlyten", maxLen: 10, expected: "exactlyten"},
		{name: "text longer than limit", text: "this is a very long text", maxLen: 10, expected: "this is a…"},
		{name: "multibyte", text: "héllo wörld", maxLen: 5, expected: "héll…"},
		{name: "empty text", text: "", maxLen: 10, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.text, tt.maxLen))
		})
	}
}

func TestScoreField(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name     string
		text     string
		terms    []string
		minScore float64
	}{
		{name: "exact match", text: "hello world", terms: []string{"hello"}, minScore: 2.0},
		{name: "partial match", text: "hello world", terms: []string{"hel"}, minScore: 1.0},
		{name: "no match", text: "hello world", terms: []string{"xyz"}, minScore: 0},
		{name: "empty text", text: "", terms: []string{"hello"}, minScore: 0},
		{name: "multiple terms", text: "hello world test", terms: []string{"hello", "test"}, minScore: 4.0},
		{name: "case insensitive", text: "HELLO WORLD", terms: []string{"hello"}, minScore: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.GreaterOrEqual(t, engine.scoreField(tt.text, tt.terms, 1.0), tt.minScore)
		})
	}
	assert.Zero(t, engine.scoreField("hello world", []string{"xyz"}, 1.0))
}

func TestFindBestSnippet(t *testing.T) {
	engine := NewEngine()
	text := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen target seventeen eighteen"
	snippet := engine.findBestSnippet(text, []string{"target"}, 40)
	assert.Contains(t, snippet, "target")
	assert.Equal(t, "", engine.findBestSnippet("", []string{"x"}, 40))
}
