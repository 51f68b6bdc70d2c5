package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/commander-decks/internal/cards/fuzzy"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// resolution carries the state of a single Resolve call.
type resolution struct {
	*Resolver
	queries []*query

	// fetched collects every card returned by the catalog during this call.
	fetched []deckimport.CatalogCardRef
}

// fromCachedPrintings resolves queries that name a set and collector number
// from the local cache. Errors count as misses.
func (r *resolution) fromCachedPrintings(ctx context.Context) {
	if r.cache == nil {
		return
	}

	for _, q := range r.queries {
		if !q.pending() || !q.hasPrinting() {
			continue
		}
		card, err := r.cache.LookupPrinting(ctx, q.set, q.number)
		if err != nil {
			r.logger.Warn("Card cache printing lookup failed",
				zap.String("set", q.set), zap.String("number", q.number), zap.Error(err))
			continue
		}
		if card != nil && matchesName(*card, q.norm) {
			q.resolve(*card)
		}
	}
}

// fromCachedNames resolves the remaining queries by exact name from the
// local cache. It runs after the catalog printing lookup so a cached copy
// of another printing never stands in for the one a line asked for.
func (r *resolution) fromCachedNames(ctx context.Context) {
	if r.cache == nil {
		return
	}

	for _, q := range r.queries {
		if !q.pending() || q.norm == "" {
			continue
		}
		cards, err := r.cache.LookupName(ctx, q.name)
		if err != nil {
			r.logger.Warn("Card cache name lookup failed", zap.String("name", q.name), zap.Error(err))
			continue
		}
		if best, ok := canonical(filterByName(cards, q.norm)); ok {
			q.resolve(best)
		}
	}
}

// fromCatalogPrintings looks up queries that name a set and collector number.
// A printing whose name does not match the line falls through to name lookup.
func (r *resolution) fromCatalogPrintings(ctx context.Context) {
	var pending []*query
	var ids []Identifier
	seen := make(map[string]bool)
	for _, q := range r.queries {
		if !q.pending() || !q.hasPrinting() {
			continue
		}
		pending = append(pending, q)
		if key := printingKey(q.set, q.number); !seen[key] {
			seen[key] = true
			ids = append(ids, Identifier{SetCode: q.set, CollectorNumber: q.number})
		}
	}
	if len(ids) == 0 {
		return
	}

	cards, failed := r.fetch(ctx, ids)
	byPrinting := make(map[string]deckimport.CatalogCardRef, len(cards))
	for _, card := range cards {
		byPrinting[printingKey(card.SetCode, card.CollectorNumber)] = card
	}

	for _, q := range pending {
		key := printingKey(q.set, q.number)
		if err, ok := failed[key]; ok {
			q.fail(err)
			continue
		}
		if card, ok := byPrinting[key]; ok && matchesName(card, q.norm) {
			q.resolve(card)
		}
	}
}

// fromCatalogNames looks up the remaining queries by exact name.
func (r *resolution) fromCatalogNames(ctx context.Context) {
	var pending []*query
	var ids []Identifier
	seen := make(map[string]bool)
	for _, q := range r.queries {
		if !q.pending() || q.norm == "" {
			continue
		}
		pending = append(pending, q)
		if !seen[q.norm] {
			seen[q.norm] = true
			ids = append(ids, Identifier{Name: q.name})
		}
	}
	if len(ids) == 0 {
		return
	}

	cards, failed := r.fetch(ctx, ids)
	for _, q := range pending {
		if err, ok := failed[nameKey(q.name)]; ok {
			q.fail(err)
			continue
		}
		if best, ok := canonical(filterByName(cards, q.norm)); ok {
			q.resolve(best)
		}
	}
}

// fromSuggestions scores suggested names for every query still unresolved.
func (r *resolution) fromSuggestions(ctx context.Context) {
	var pending []*query
	for _, q := range r.queries {
		if q.pending() && q.norm != "" {
			pending = append(pending, q)
		}
	}
	if len(pending) == 0 {
		return
	}

	type suggestion struct {
		matches []fuzzy.Match
		err     error
	}
	suggestions := make([]suggestion, len(pending))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, q := range pending {
		g.Go(func() error {
			matches, err := r.suggest(ctx, q)
			suggestions[i] = suggestion{matches: matches, err: err}
			return nil
		})
	}
	_ = g.Wait()

	// Every suggested name needs a card to offer as a candidate.
	var names []string
	seen := make(map[string]bool)
	for _, s := range suggestions {
		for _, m := range s.matches {
			if norm := fuzzy.Normalize(m.Name); !seen[norm] {
				seen[norm] = true
				names = append(names, m.Name)
			}
		}
	}
	cards, failed := r.cardsForNames(ctx, names)

	for i, q := range pending {
		s := suggestions[i]
		var scored []fuzzy.Match
		var refs []deckimport.CatalogCardRef
		var fetchErr error
		for _, m := range s.matches {
			norm := fuzzy.Normalize(m.Name)
			if card, ok := cards[norm]; ok {
				scored = append(scored, m)
				refs = append(refs, card)
			} else if err, ok := failed[norm]; ok && fetchErr == nil {
				fetchErr = err
			}
		}

		switch {
		case len(refs) == 0 && s.err != nil:
			q.fail(s.err)
		case len(refs) == 0 && fetchErr != nil:
			q.fail(fetchErr)
		case len(refs) == 0:
			// Left pending; reported as NOT_FOUND.
		case scored[0].Score >= r.opts.FuzzyThreshold && (len(scored) == 1 || scored[1].Score < scored[0].Score):
			q.resolve(refs[0])
		default:
			q.status = deckimport.StatusAmbiguous
			q.candidates = refs
			q.err = &deckimport.ResolutionError{
				Code:    deckimport.CodeAmbiguous,
				Message: fmt.Sprintf("%q matches %d cards", q.name, len(refs)),
			}
		}
	}
}

// suggest gathers candidate names from the catalog and the cache and
// returns those scoring at least CandidateMinScore, best first. The
// catalog error is returned alongside whatever the cache produced.
func (r *resolution) suggest(ctx context.Context, q *query) ([]fuzzy.Match, error) {
	var names []string

	catalogNames, catalogErr := r.catalog.Suggest(ctx, q.name)
	if catalogErr != nil {
		r.logger.Warn("Card suggestion lookup failed", zap.String("name", q.name), zap.Error(catalogErr))
	}
	names = append(names, catalogNames...)

	if r.cache != nil {
		cached, err := r.cache.SuggestNames(ctx, q.name, r.opts.MaxCandidates*4)
		if err != nil {
			r.logger.Warn("Card cache suggestion lookup failed", zap.String("name", q.name), zap.Error(err))
		}
		names = append(names, cached...)
	}

	matches := fuzzy.Search(q.name, names, fuzzy.SearchOptions{
		MinScore:   r.opts.CandidateMinScore,
		MaxResults: r.opts.MaxCandidates,
	})
	return matches, catalogErr
}

// cardsForNames returns the canonical printing for each name keyed by
// normalized name, reading the cache first and the catalog for the rest.
// failed holds the error for names whose catalog batch failed.
func (r *resolution) cardsForNames(ctx context.Context, names []string) (map[string]deckimport.CatalogCardRef, map[string]error) {
	cards := make(map[string]deckimport.CatalogCardRef, len(names))
	failed := make(map[string]error)

	var ids []Identifier
	for _, name := range names {
		norm := fuzzy.Normalize(name)
		if r.cache != nil {
			cached, err := r.cache.LookupName(ctx, name)
			if err != nil {
				r.logger.Warn("Card cache name lookup failed", zap.String("name", name), zap.Error(err))
			}
			if best, ok := canonical(filterByName(cached, norm)); ok {
				cards[norm] = best
				continue
			}
		}
		ids = append(ids, Identifier{Name: name})
	}
	if len(ids) == 0 {
		return cards, failed
	}

	fetched, fetchFailed := r.fetch(ctx, ids)
	for _, id := range ids {
		norm := fuzzy.Normalize(id.Name)
		if err, ok := fetchFailed[nameKey(id.Name)]; ok {
			failed[norm] = err
			continue
		}
		if best, ok := canonical(filterByName(fetched, norm)); ok {
			cards[norm] = best
		}
	}
	return cards, failed
}

// fetch runs ids through the catalog in batches with bounded concurrency.
// It returns every card found and, for identifiers whose batch failed,
// the batch error keyed by identifierKey.
func (r *resolution) fetch(ctx context.Context, ids []Identifier) ([]deckimport.CatalogCardRef, map[string]error) {
	var (
		mu     sync.Mutex
		cards  []deckimport.CatalogCardRef
		failed = make(map[string]error)
	)

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for start := 0; start < len(ids); start += r.opts.BatchSize {
		batch := ids[start:min(start+r.opts.BatchSize, len(ids))]
		g.Go(func() error {
			found, err := r.catalog.FetchCollection(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("Card catalog batch failed", zap.Int("identifiers", len(batch)), zap.Error(err))
				for _, id := range batch {
					failed[identifierKey(id)] = err
				}
				return nil
			}
			cards = append(cards, found...)
			return nil
		})
	}
	_ = g.Wait()

	r.fetched = append(r.fetched, cards...)
	return cards, failed
}

func identifierKey(id Identifier) string {
	if id.SetCode != "" && id.CollectorNumber != "" {
		return printingKey(id.SetCode, id.CollectorNumber)
	}
	return nameKey(id.Name)
}

func printingKey(set, number string) string {
	return "printing:" + strings.ToLower(set) + "#" + strings.ToLower(number)
}

func nameKey(name string) string {
	return "name:" + fuzzy.Normalize(name)
}
