// Package resolver matches parsed deck-list lines to catalog card printings.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/cards/fuzzy"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// Identifier names one card for a catalog batch lookup: either a set code
// and collector number, or a name.
type Identifier struct {
	Name            string
	SetCode         string
	CollectorNumber string
}

// Catalog is the remote card catalog.
type Catalog interface {
	// FetchCollection returns the cards found for one batch of identifiers.
	// Identifiers that match nothing are simply absent from the result.
	FetchCollection(ctx context.Context, ids []Identifier) ([]deckimport.CatalogCardRef, error)
	// Suggest returns card names close to name.
	Suggest(ctx context.Context, name string) ([]string, error)
}

// Cache is the local read-through card cache. Lookups return an empty
// result and a nil error on a miss.
type Cache interface {
	LookupPrinting(ctx context.Context, setCode, collectorNumber string) (*deckimport.CatalogCardRef, error)
	LookupName(ctx context.Context, name string) ([]deckimport.CatalogCardRef, error)
	SuggestNames(ctx context.Context, name string, limit int) ([]string, error)
}

// CacheWriter accepts catalog cards for asynchronous storage.
// Submit must not block.
type CacheWriter interface {
	Submit(cards []deckimport.CatalogCardRef)
}

// Options tunes batching and fuzzy matching.
type Options struct {
	BatchSize         int // identifiers per catalog request
	Concurrency       int // catalog requests in flight
	FuzzyThreshold    int // score needed to accept a fuzzy match
	CandidateMinScore int // score needed to list a candidate
	MaxCandidates     int
}

// DefaultOptions returns the default resolver options.
func DefaultOptions() Options {
	return Options{
		BatchSize:         75,
		Concurrency:       4,
		FuzzyThreshold:    90,
		CandidateMinScore: 60,
		MaxCandidates:     5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = d.FuzzyThreshold
	}
	if o.CandidateMinScore <= 0 {
		o.CandidateMinScore = d.CandidateMinScore
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = d.MaxCandidates
	}
	return o
}

// Resolver resolves card lines against the cache and the catalog.
// It holds no per-import state and is safe for concurrent use.
type Resolver struct {
	catalog Catalog
	cache   Cache
	writer  CacheWriter
	opts    Options
	logger  *zap.Logger
}

// New creates a Resolver. cache and writer may be nil.
func New(catalog Catalog, cache Cache, writer CacheWriter, opts Options, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		catalog: catalog,
		cache:   cache,
		writer:  writer,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// query is one distinct lookup shared by every line asking for the same card.
type query struct {
	name   string
	norm   string
	set    string
	number string

	status     deckimport.ResolutionStatus
	card       *deckimport.CatalogCardRef
	candidates []deckimport.CatalogCardRef
	err        *deckimport.ResolutionError
}

func (q *query) hasPrinting() bool {
	return q.set != "" && q.number != ""
}

func (q *query) pending() bool {
	return q.status == ""
}

func (q *query) resolve(card deckimport.CatalogCardRef) {
	q.status = deckimport.StatusResolved
	q.card = &card
}

func (q *query) fail(cause error) {
	q.status = deckimport.StatusNotFound
	q.err = &deckimport.ResolutionError{
		Code:    deckimport.CodeCatalogServiceError,
		Message: fmt.Sprintf("card catalog unavailable: %v", cause),
	}
}

// Resolve returns one CardResolution per card, in input order. Lines with
// a set and collector number try that printing in the cache and then the
// catalog before any name lookup. Catalog failures are reported per card;
// the only error returned is ctx's.
func (r *Resolver) Resolve(ctx context.Context, cards []deckimport.ParsedCardLine) ([]deckimport.CardResolution, error) {
	queries, index := buildQueries(cards)

	run := &resolution{Resolver: r, queries: queries}
	steps := []func(context.Context){
		run.fromCachedPrintings,
		run.fromCatalogPrintings,
		run.fromCachedNames,
		run.fromCatalogNames,
		run.fromSuggestions,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.writer != nil && len(run.fetched) > 0 {
		r.writer.Submit(run.fetched)
	}

	results := make([]deckimport.CardResolution, len(cards))
	for i, card := range cards {
		q := queries[index[i]]
		if q.pending() {
			q.status = deckimport.StatusNotFound
			q.err = &deckimport.ResolutionError{
				Code:    deckimport.CodeNotFound,
				Message: fmt.Sprintf("no card named %q", q.name),
			}
		}
		results[i] = deckimport.CardResolution{
			Query:      card,
			Status:     q.status,
			Card:       q.card,
			Candidates: q.candidates,
			Error:      q.err,
		}
	}

	r.logger.Debug("Resolved card lines",
		zap.Int("lines", len(cards)),
		zap.Int("distinct", len(queries)),
		zap.Int("fetched", len(run.fetched)))

	return results, nil
}

// buildQueries deduplicates cards by normalized name and printing.
// index[i] is the query serving cards[i].
func buildQueries(cards []deckimport.ParsedCardLine) ([]*query, []int) {
	queries := make([]*query, 0, len(cards))
	index := make([]int, len(cards))
	byKey := make(map[string]int, len(cards))

	for i, card := range cards {
		q := &query{
			name:   card.Name,
			norm:   fuzzy.Normalize(card.Name),
			set:    strings.ToLower(card.SetCode),
			number: strings.ToLower(card.CollectorNumber),
		}
		key := q.norm + "|" + q.set + "|" + q.number
		if n, ok := byKey[key]; ok {
			index[i] = n
			continue
		}
		byKey[key] = len(queries)
		index[i] = len(queries)
		queries = append(queries, q)
	}
	return queries, index
}
