package bleveindex

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/matst80/slask-instant/pkg/index"
	"github.com/matst80/slask-instant/pkg/types"
)

const (
	positionField = "slask_pos"
	maxFacetTerms = 200
)

// Index keeps records in a memory only bleve index. Facet attributes are
// indexed as keywords, searchable attributes with the standard analyzer.
type Index struct {
	index.Settings
	idx bleve.Index

	mu     sync.RWMutex
	source map[string]types.Hit
	nextId int
}

func buildMapping(settings index.Settings) mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	for _, attr := range settings.FacetAttributes {
		docMapping.AddFieldMappingsAt(attr, bleve.NewKeywordFieldMapping())
	}
	for _, attr := range settings.SearchableAttributes {
		text := bleve.NewTextFieldMapping()
		text.Name = textField(attr)
		text.IncludeTermVectors = false
		docMapping.AddFieldMappingsAt(attr, text)
	}
	docMapping.AddFieldMappingsAt(positionField, bleve.NewNumericFieldMapping())

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// textField keeps analyzed text apart from the keyword field of an attribute
// that is both searchable and a facet.
func textField(attr string) string {
	return attr + "_text"
}

func New(settings index.Settings) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping(settings))
	if err != nil {
		return nil, fmt.Errorf("create bleve index %s: %w", settings.Name, err)
	}
	return &Index{
		Settings: settings,
		idx:      idx,
		source:   map[string]types.Hit{},
	}, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.source)
}

func keywordValues(v any) any {
	switch typed := v.(type) {
	case nil:
		return nil
	case string:
		return strings.TrimSpace(typed)
	case []string:
		return typed
	case []any:
		ret := make([]string, 0, len(typed))
		for _, e := range typed {
			if e != nil {
				ret = append(ret, strings.TrimSpace(fmt.Sprint(e)))
			}
		}
		return ret
	default:
		return fmt.Sprint(typed)
	}
}

func (i *Index) document(hit types.Hit, position int) map[string]any {
	doc := map[string]any{positionField: float64(position)}
	for _, attr := range i.FacetAttributes {
		if v := keywordValues(hit[attr]); v != nil {
			doc[attr] = v
		}
	}
	for _, attr := range i.SearchableAttributes {
		if _, ok := doc[attr]; ok {
			continue
		}
		if s := hit.String(attr); s != "" {
			doc[attr] = s
		}
	}
	return doc
}

// UpsertItems indexes records in one batch. Records without an objectID get
// one.
func (i *Index) UpsertItems(hits ...types.Hit) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	batch := i.idx.NewBatch()
	for _, h := range hits {
		hit := maps.Clone(h)
		id := hit.ObjectID()
		if id == "" {
			id = strconv.Itoa(i.nextId)
			hit["objectID"] = id
		}
		if err := batch.Index(id, i.document(hit, i.nextId)); err != nil {
			return fmt.Errorf("index %s: %w", id, err)
		}
		i.nextId++
		i.source[id] = hit
	}
	return i.idx.Batch(batch)
}

func (i *Index) DeleteItems(objectIds ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	batch := i.idx.NewBatch()
	for _, id := range objectIds {
		if _, ok := i.source[id]; !ok {
			continue
		}
		delete(i.source, id)
		batch.Delete(id)
	}
	if batch.Size() == 0 {
		return nil
	}
	return i.idx.Batch(batch)
}

// textQuery requires every word in one of the searchable attributes. The
// last word also matches as a prefix.
func (i *Index) textQuery(text string) query.Query {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 || len(i.SearchableAttributes) == 0 {
		return bleve.NewMatchAllQuery()
	}
	complete := index.EndsWithSeparator(text)
	conjunction := bleve.NewConjunctionQuery()
	for idx, word := range words {
		disjunction := bleve.NewDisjunctionQuery()
		for _, attr := range i.SearchableAttributes {
			match := bleve.NewMatchQuery(word)
			match.SetField(textField(attr))
			disjunction.AddQuery(match)
			if idx == len(words)-1 && !complete {
				prefix := bleve.NewPrefixQuery(word)
				prefix.SetField(textField(attr))
				prefix.SetBoost(0.5)
				disjunction.AddQuery(prefix)
			}
		}
		conjunction.AddQuery(disjunction)
	}
	return conjunction
}

func filterQuery(filters types.FilterSnapshot) []query.Query {
	ret := []query.Query{}
	for _, group := range filters.Groups() {
		if len(group.Values) == 0 {
			continue
		}
		terms := make([]query.Query, 0, len(group.Values))
		for _, v := range group.Values {
			term := bleve.NewTermQuery(v)
			term.SetField(group.Name)
			terms = append(terms, term)
		}
		if group.Operator == types.And {
			ret = append(ret, bleve.NewConjunctionQuery(terms...))
		} else {
			ret = append(ret, bleve.NewDisjunctionQuery(terms...))
		}
	}
	return ret
}

func (i *Index) buildQuery(text string, filters types.FilterSnapshot) query.Query {
	q := i.textQuery(text)
	filter := filterQuery(filters)
	if len(filter) == 0 {
		return q
	}
	return bleve.NewConjunctionQuery(append([]query.Query{q}, filter...)...)
}

func facetCounts(result *bleve.SearchResult, attr string) []types.FacetCount {
	ret := []types.FacetCount{}
	facetResult, ok := result.Facets[attr]
	if !ok || facetResult == nil || facetResult.Terms == nil {
		return ret
	}
	for _, term := range facetResult.Terms.Terms() {
		ret = append(ret, types.FacetCount{Value: term.Term, Count: term.Count})
	}
	slices.SortFunc(ret, func(a, b types.FacetCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Value, b.Value))
	})
	return ret
}

// Search runs the main request and one facet only request for every
// requested attribute that is also filtered, so that a selection does not
// narrow the counts of its own attribute.
func (i *Index) Search(ctx context.Context, req *types.SearchRequest) (*types.ResponsePayload, error) {
	start := time.Now()
	perPage := max(req.HitsPerPage, 1)
	searchReq := bleve.NewSearchRequestOptions(i.buildQuery(req.Query, req.Filters), perPage, req.Page*perPage, false)
	searchReq.SortBy([]string{"-_score", positionField})
	searchReq.Facets = make(bleve.FacetsRequest)

	disjunctive := []string{}
	for _, attr := range req.Facets {
		if _, filtered := req.Filters.Operator(attr); filtered {
			disjunctive = append(disjunctive, attr)
			continue
		}
		searchReq.Facets[attr] = bleve.NewFacetRequest(attr, maxFacetTerms)
	}

	result, err := i.idx.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("bleve search %s: %w", i.Name, err)
	}

	facets := make(map[string][]types.FacetCount, len(req.Facets))
	for attr := range searchReq.Facets {
		facets[attr] = facetCounts(result, attr)
	}
	for _, attr := range disjunctive {
		facetReq := bleve.NewSearchRequestOptions(i.buildQuery(req.Query, req.Filters.Without(attr)), 0, 0, false)
		facetReq.Facets = bleve.FacetsRequest{attr: bleve.NewFacetRequest(attr, maxFacetTerms)}
		facetResult, err := i.idx.SearchInContext(ctx, facetReq)
		if err != nil {
			return nil, fmt.Errorf("bleve facet search %s.%s: %w", i.Name, attr, err)
		}
		facets[attr] = facetCounts(facetResult, attr)
	}

	i.mu.RLock()
	hits := make([]types.Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		if hit, ok := i.source[match.ID]; ok {
			hits = append(hits, maps.Clone(hit))
		}
	}
	i.mu.RUnlock()

	total := int(result.Total)
	return &types.ResponsePayload{
		Index:            i.Name,
		Query:            req.Query,
		Hits:             hits,
		NbHits:           total,
		Page:             req.Page,
		NbPages:          types.PageCount(total, perPage),
		HitsPerPage:      perPage,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		Facets:           facets,
	}, nil
}
