package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/debuglog"
)

// BleveEngine keeps a full-text index of every item the catalog has loaded.
// The index lives on disk, so search works across runs before any list has
// been fetched.
type BleveEngine struct {
	idx   bleve.Index
	local *Engine

	mu    sync.RWMutex
	items map[content.Key]content.Item
	log   *debuglog.FieldLogger
}

// NewBleveEngine creates or opens a Bleve index at indexPath.
func NewBleveEngine(indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating search index: %w", err)
		}
	}
	return newBleveEngine(idx), nil
}

// NewMemBleveEngine builds an index that is never written to disk.
func NewMemBleveEngine() (*BleveEngine, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return newBleveEngine(idx), nil
}

func newBleveEngine(idx bleve.Index) *BleveEngine {
	return &BleveEngine{
		idx:   idx,
		local: NewEngine(),
		items: make(map[content.Key]content.Item),
		log:   debuglog.WithFields(map[string]any{"component": "search"}),
	}
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = standard.Name
	desc.Store = true

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = standard.Name
	tags.Store = true

	body := bleve.NewTextFieldMapping()
	body.Analyzer = standard.Name
	body.Store = false

	exact := func() *mapping.FieldMapping {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = keyword.Name
		m.Store = true
		return m
	}

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", desc)
	dm.AddFieldMappingsAt("tags", tags)
	dm.AddFieldMappingsAt("body", body)
	dm.AddFieldMappingsAt("kind", exact())
	dm.AddFieldMappingsAt("item_id", exact())
	dm.AddFieldMappingsAt("url", exact())

	im.DefaultMapping = dm
	return im
}

func docID(k content.Key) string { return k.String() }

func document(item content.Item) map[string]any {
	base := item.Common()
	return map[string]any{
		"kind":        string(item.Kind()),
		"item_id":     base.ID,
		"title":       base.Title,
		"description": base.Description,
		"tags":        strings.Join(base.Tags, " | "),
		"body":        Body(item),
		"url":         content.PrimaryURL(item),
	}
}

// Index adds or replaces items in the index.
func (b *BleveEngine) Index(items []content.Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := b.idx.NewBatch()
	for _, it := range items {
		if err := batch.Index(docID(content.KeyOf(it)), document(it)); err != nil {
			return err
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("indexing %d items: %w", len(items), err)
	}
	b.mu.Lock()
	for _, it := range items {
		b.items[content.KeyOf(it)] = content.Clone(it)
	}
	b.mu.Unlock()
	return nil
}

// OnItemsLoaded indexes items, logging rather than returning failures.
func (b *BleveEngine) OnItemsLoaded(items []content.Item) {
	if err := b.Index(items); err != nil {
		b.log.Warnf("index update failed: %v", err)
	}
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range []struct {
			field       string
			match, pref float64
		}{
			{"title", 4.0, 3.5},
			{"description", 2.0, 1.8},
			{"tags", 1.5, 1.2},
			{"body", 1.0, 0.8},
		} {
			m := bleve.NewMatchQuery(tok)
			m.SetField(f.field)
			m.SetBoost(f.match)
			p := bleve.NewPrefixQuery(tok)
			p.SetField(f.field)
			p.SetBoost(f.pref)
			qs = append(qs, m, p)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"kind", "item_id", "title", "description", "tags", "url"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		item, err := b.hitItem(h.Fields)
		if err != nil {
			b.log.Debugf("skipping hit %s: %v", h.ID, err)
			continue
		}
		out = append(out, &Result{Item: item, Score: h.Score})
	}
	return out, nil
}

// hitItem prefers the full item seen this run and falls back to a partial
// item rebuilt from stored fields.
func (b *BleveEngine) hitItem(fields map[string]interface{}) (content.Item, error) {
	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}
	kind, err := content.ParseKind(str("kind"))
	if err != nil {
		return nil, err
	}
	key := content.Key{Kind: kind, ID: str("item_id")}

	b.mu.RLock()
	it, ok := b.items[key]
	b.mu.RUnlock()
	if ok {
		return content.Clone(it), nil
	}

	var tags []string
	for _, t := range strings.Split(str("tags"), " | ") {
		if t != "" {
			tags = append(tags, t)
		}
	}
	url := str("url")
	raw, err := json.Marshal(map[string]any{
		"id":          key.ID,
		"title":       str("title"),
		"description": str("description"),
		"tags":        tags,
		"url":         url,
		"fileUrl":     url,
		"sourceUrl":   url,
		"audioUrl":    url,
	})
	if err != nil {
		return nil, err
	}
	return content.DecodeItem(kind, raw)
}

// SearchIn searches one item without touching the index.
func (b *BleveEngine) SearchIn(item content.Item, query string) ([]*Result, error) {
	return b.local.SearchIn(item, query)
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
