package search

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"bioshelf/internal/domain"
)

// Weights is the scoring table for free-text queries. Operations and topics
// come from curated vocabularies and outrank free-text description overlap.
// It is pure configuration: scoring is a function of (terms, fields, weights)
// with no I/O.
type Weights struct {
	Name        float64
	Operation   float64
	Topic       float64
	Description float64
}

// DefaultWeights returns the stock scoring table.
func DefaultWeights() Weights {
	return Weights{
		Name:        domain.DefaultNameWeight,
		Operation:   domain.DefaultOperationWeight,
		Topic:       domain.DefaultTopicWeight,
		Description: domain.DefaultDescriptionWeight,
	}
}

// Engine answers name lookups and ranked free-text queries against a catalog
// snapshot. It performs pure reads; a snapshot is never mutated.
type Engine struct {
	weights Weights
	logger  *zap.Logger
}

func NewEngine(weights Weights, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		weights: weights,
		logger:  logger.Named("search"),
	}
}

// Find resolves a tool name against the metadata index: exact normalized
// id/name/alias match first, then substring match over normalized names and
// aliases preferring the shortest matched key. Case and separator variants
// resolve identically.
func (e *Engine) Find(snapshot domain.Snapshot, name string) (domain.ToolMetadata, error) {
	query := domain.NormalizeToolName(name)
	if query == "" {
		return domain.ToolMetadata{}, domain.E(domain.CodeInvalidArgument, "search.find", "tool name is required", nil)
	}

	if meta, ok := snapshot.Metadata.Lookup(query); ok {
		return meta, nil
	}

	best := ""
	for _, key := range snapshot.Metadata.Keys() {
		if !strings.Contains(key, query) && !strings.Contains(query, key) {
			continue
		}
		if best == "" || len(key) < len(best) || (len(key) == len(best) && key < best) {
			best = key
		}
	}
	if best != "" {
		if meta, ok := snapshot.Metadata.Lookup(best); ok {
			return meta, nil
		}
	}
	return domain.ToolMetadata{}, domain.ErrNotFound
}

// Search ranks metadata records against a free-text query. Results carry a
// positive score; zero-score records are excluded outright. Ordering is
// descending score with ascending tool name as the tie-break, so output is
// deterministic. This is a documented heuristic: token overlap only, no
// stemming, no semantic expansion.
func (e *Engine) Search(snapshot domain.Snapshot, query string, limit int) []domain.SearchResult {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	results := make([]domain.SearchResult, 0, limit)
	for _, meta := range snapshot.Metadata.Records() {
		score := Score(terms, meta, e.weights)
		if score <= 0 {
			continue
		}
		result := domain.SearchResult{
			ToolName: meta.DisplayName(),
			Score:    score,
			Metadata: meta,
		}
		if latest, ok := snapshot.Containers.Latest(meta.DisplayName()); ok {
			result.Latest = &latest
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ToolName < results[j].ToolName
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Score computes the weighted term overlap of a query against one metadata
// record. Absent fields contribute zero.
func Score(terms []string, meta domain.ToolMetadata, weights Weights) float64 {
	nameTokens := tokenSet(meta.ID, meta.Name)
	opTokens := tokenSet(meta.Operations...)
	topicTokens := tokenSet(meta.Topics...)
	descTokens := tokenSet(meta.Description)

	var score float64
	for _, term := range terms {
		switch {
		case nameTokens[term]:
			score += weights.Name
		case opTokens[term]:
			score += weights.Operation
		case topicTokens[term]:
			score += weights.Topic
		case descTokens[term]:
			score += weights.Description
		}
	}
	return score
}

func tokenSet(texts ...string) map[string]bool {
	set := make(map[string]bool)
	for _, text := range texts {
		for _, token := range Tokenize(text) {
			set[token] = true
		}
	}
	return set
}

// Tokenize lowercases text, strips punctuation and drops stop words.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		token := current.String()
		current.Reset()
		if stopWords[token] {
			return
		}
		tokens = append(tokens, token)
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
