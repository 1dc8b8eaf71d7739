package index

import (
	"cmp"
	"context"
	"log"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/matst80/slask-instant/pkg/types"
)

type Settings struct {
	Name                 string   `yaml:"name" json:"name"`
	FacetAttributes      []string `yaml:"facets" json:"facets"`
	SearchableAttributes []string `yaml:"searchable" json:"searchable"`
}

// Index is an in-memory record store with key facets and a token index for
// free text. It implements types.SearchService.
type Index struct {
	Settings
	mu        sync.RWMutex
	tokenizer Tokenizer
	items     map[uint]types.Hit
	order     []uint
	nextId    uint
	ids       map[string]uint
	all       types.ItemList
	facets    map[string]*KeyField
	tokens    map[Token]types.ItemList
	trie      *Trie
}

func NewIndex(settings Settings) *Index {
	idx := &Index{
		Settings:  settings,
		tokenizer: Tokenizer{MaxTokens: 128},
		items:     map[uint]types.Hit{},
		ids:       map[string]uint{},
		all:       types.ItemList{},
		facets:    map[string]*KeyField{},
		tokens:    map[Token]types.ItemList{},
		trie:      NewTrie(),
	}
	for _, attr := range settings.FacetAttributes {
		idx.facets[attr] = NewKeyField(attr)
	}
	return idx
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.all)
}

func (i *Index) HasFacet(attribute string) bool {
	_, ok := i.facets[attribute]
	return ok
}

// UpsertItems adds records, replacing records with the same objectID.
// Records without an objectID get one.
func (i *Index) UpsertItems(hits ...types.Hit) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, hit := range hits {
		i.upsertLocked(maps.Clone(hit))
	}
	return nil
}

func (i *Index) upsertLocked(hit types.Hit) {
	objectId := hit.ObjectID()
	if existing, ok := i.ids[objectId]; ok && objectId != "" {
		i.removeLocked(existing)
	}
	id := i.nextId
	i.nextId++
	if objectId == "" {
		objectId = strconv.FormatUint(uint64(id), 10)
		hit["objectID"] = objectId
	}
	i.items[id] = hit
	i.ids[objectId] = id
	i.all.AddId(id)
	i.order = append(i.order, id)

	for attr, field := range i.facets {
		field.AddValueLink(hit[attr], id)
	}
	for _, attr := range i.SearchableAttributes {
		for _, token := range i.tokenizer.Tokenize(hit.String(attr)) {
			if ids, ok := i.tokens[token]; ok {
				ids.AddId(id)
			} else {
				i.tokens[token] = types.ItemList{id: struct{}{}}
				i.trie.Insert(token)
			}
		}
	}
}

func (i *Index) DeleteItem(objectId string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	id, ok := i.ids[objectId]
	if !ok {
		return false
	}
	i.removeLocked(id)
	return true
}

// DeleteItems removes records by objectID, unknown ids are ignored.
func (i *Index) DeleteItems(objectIds ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, objectId := range objectIds {
		if id, ok := i.ids[objectId]; ok {
			i.removeLocked(id)
		}
	}
	return nil
}

func (i *Index) removeLocked(id uint) {
	hit, ok := i.items[id]
	if !ok {
		return
	}
	delete(i.items, id)
	delete(i.ids, hit.ObjectID())
	delete(i.all, id)
	i.order = slices.DeleteFunc(i.order, func(o uint) bool { return o == id })
	for _, field := range i.facets {
		field.RemoveValueLink(id)
	}
	// tokens stay in the trie, an empty list matches nothing
	for _, ids := range i.tokens {
		delete(ids, id)
	}
}

// matchText returns the ids matching every query token together with a
// score per id. The last token also matches as a prefix unless the query
// ends with a separator.
func (i *Index) matchText(query string) (types.ItemList, map[uint]int) {
	scores := map[uint]int{}
	tokens := i.tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return i.all.Clone(), scores
	}
	var result types.ItemList
	for idx, token := range tokens {
		matched := types.ItemList{}
		if ids, ok := i.tokens[token]; ok {
			matched.Merge(ids)
			for id := range ids {
				scores[id] += 2
			}
		}
		if idx == len(tokens)-1 && !EndsWithSeparator(query) {
			for _, word := range i.trie.FindMatches(token) {
				if word == token {
					continue
				}
				for id := range i.tokens[word] {
					if !matched.Contains(id) {
						scores[id]++
					}
					matched.AddId(id)
				}
			}
		}
		if result == nil {
			result = matched
		} else {
			result.Intersect(matched)
		}
	}
	return result, scores
}

// matchFilters intersects base with the ids of every non empty group. Each
// group is matched on its own goroutine.
func (i *Index) matchFilters(base types.ItemList, filters types.FilterSnapshot) types.ItemList {
	results := make(chan types.ItemList)
	cnt := 0
	for _, group := range filters.Groups() {
		if len(group.Values) == 0 {
			continue
		}
		field, ok := i.facets[group.Name]
		cnt++
		go func(g types.FilterGroup) {
			if !ok {
				// filtering on an attribute that is not indexed matches nothing
				results <- types.ItemList{}
				return
			}
			results <- field.Match(g.Values, g.Operator)
		}(group)
	}
	cnt++
	go func() {
		results <- base
	}()
	return types.MakeIntersectResult(results, cnt)
}

func (i *Index) Search(ctx context.Context, req *types.SearchRequest) (*types.ResponsePayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	i.mu.RLock()
	defer i.mu.RUnlock()

	textIds, scores := i.matchText(req.Query)
	ids := i.matchFilters(textIds, req.Filters)

	facets := make(map[string][]types.FacetCount, len(req.Facets))
	for _, attr := range req.Facets {
		field, ok := i.facets[attr]
		if !ok {
			facets[attr] = []types.FacetCount{}
			continue
		}
		base := ids
		if _, selected := req.Filters.Operator(attr); selected {
			base = i.matchFilters(textIds, req.Filters.Without(attr))
		}
		facets[attr] = field.Counts(base)
	}

	position := make(map[uint]int, len(i.order))
	for p, id := range i.order {
		position[id] = p
	}
	sorted := ids.SortedIds()
	slices.SortStableFunc(sorted, func(a, b uint) int {
		return cmp.Or(cmp.Compare(scores[b], scores[a]), cmp.Compare(position[a], position[b]))
	})

	perPage := max(req.HitsPerPage, 1)
	from := min(req.Page*perPage, len(sorted))
	to := min(from+perPage, len(sorted))
	hits := make([]types.Hit, 0, to-from)
	for _, id := range sorted[from:to] {
		hits = append(hits, maps.Clone(i.items[id]))
	}

	took := time.Since(start)
	if took > 50*time.Millisecond {
		log.Printf("slow search in %s (%q): %v", i.Name, req.Query, took)
	}
	return &types.ResponsePayload{
		Index:            i.Name,
		Query:            req.Query,
		Hits:             hits,
		NbHits:           len(sorted),
		Page:             req.Page,
		NbPages:          types.PageCount(len(sorted), perPage),
		HitsPerPage:      perPage,
		ProcessingTimeMS: took.Milliseconds(),
		Facets:           facets,
	}, nil
}

func sortCounts(counts []types.FacetCount) {
	slices.SortFunc(counts, func(a, b types.FacetCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Value, b.Value))
	})
}
