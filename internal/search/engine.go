package search

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/render"
)

// Engine scores items in memory. It only knows the items the catalog has
// loaded so far.
type Engine struct {
	mu    sync.RWMutex
	items map[content.Key]content.Item
	order []content.Key
}

func NewEngine() *Engine {
	return &Engine{items: make(map[content.Key]content.Item)}
}

// OnItemsLoaded records items, replacing earlier copies of the same key.
func (e *Engine) OnItemsLoaded(items []content.Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, it := range items {
		k := content.KeyOf(it)
		if _, ok := e.items[k]; !ok {
			e.order = append(e.order, k)
		}
		e.items[k] = content.Clone(it)
	}
}

func (e *Engine) DocCount() (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items), nil
}

// Search scores every known item against query.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	e.mu.RLock()
	results := []*Result{}
	for _, k := range e.order {
		if r := e.searchItem(e.items[k], terms); r != nil {
			results = append(results, r)
		}
	}
	e.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchIn searches one item's text, for find-in-page on the detail view.
func (e *Engine) SearchIn(item content.Item, query string) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 || item == nil {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	if r := e.searchItem(item, terms); r != nil {
		return []*Result{r}, nil
	}
	return []*Result{}, nil
}

func (e *Engine) searchItem(item content.Item, terms []string) *Result {
	base := item.Common()
	var matches []Match
	var totalScore float64

	add := func(field, text, snippet string, weight float64) {
		if s := e.scoreField(text, terms, weight); s > 0 {
			matches = append(matches, Match{Field: field, Text: snippet, Weight: s})
			totalScore += s
		}
	}

	add("title", base.Title, base.Title, 4.0)
	add("description", base.Description, truncate(base.Description, 100), 2.0)
	tags := strings.Join(base.Tags, " ")
	add("tags", tags, tags, 1.5)
	if body := Body(item); body != "" {
		add("body", body, e.findBestSnippet(body, terms, 150), 1.0)
	}

	if totalScore == 0 {
		return nil
	}
	return &Result{Item: item, Score: totalScore, Matches: matches}
}

// Body is the long-form text of item, if it has one.
func Body(item content.Item) string {
	switch it := item.(type) {
	case *content.Document:
		return it.Body
	case *content.News:
		return render.HTMLToMarkdown(it.BodyHTML)
	default:
		return ""
	}
}

// scoreField calculates relevance score for a field
func (e *Engine) scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		termLower := strings.ToLower(term)

		if strings.Contains(lower, termLower) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == termLower:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, termLower) || strings.HasSuffix(word, termLower):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, termLower):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= (1.0 + math.Log(1.0+tf))

	return score * weight
}

// findBestSnippet finds the most relevant text snippet containing search terms
func (e *Engine) findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize == 0 || windowSize > len(words) {
		return truncate(text, maxLength)
	}

	bestScore := 0.0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		windowText := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0.0
		for _, term := range terms {
			if strings.Contains(windowText, strings.ToLower(term)) {
				score += 1.0
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	snippet := strings.Join(words[bestStart:bestStart+windowSize], " ")
	return truncate(snippet, maxLength)
}

// tokenize breaks text into searchable terms
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len(term) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if current.Len() > 1 {
		terms = append(terms, current.String())
	}

	return terms
}

// truncate limits text length with ellipsis
func truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}
