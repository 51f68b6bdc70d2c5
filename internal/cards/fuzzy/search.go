package fuzzy

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
)

// Match is a fuzzy search hit with its score.
type Match struct {
	Name  string
	Score int
	Index int
}

// SearchOptions configures fuzzy search behavior.
type SearchOptions struct {
	// MaxResults limits the number of results returned (0 = unlimited)
	MaxResults int
	// MinScore sets minimum score threshold (0-100)
	MinScore int
}

// DefaultSearchOptions returns sensible default search options.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults: 100,
		MinScore:   30,
	}
}

// Search scores every name against query after normalization.
// Returns results sorted by score (highest first), then by input order.
// Names that normalize to the same string are reported once.
func Search(query string, names []string, options SearchOptions) []Match {
	normQuery := Normalize(query)
	results := make([]Match, 0, len(names))
	seen := make(map[string]bool, len(names))

	for i, name := range names {
		normName := Normalize(name)
		if seen[normName] {
			continue
		}
		seen[normName] = true

		score := scoreNormalized(normQuery, normName)
		if score >= options.MinScore {
			results = append(results, Match{Name: name, Score: score, Index: i})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})

	if options.MaxResults > 0 && len(results) > options.MaxResults {
		results = results[:options.MaxResults]
	}

	return results
}

// Score returns a similarity score between two card names (0-100).
// Only names equal after normalization score 100.
func Score(a, b string) int {
	return scoreNormalized(Normalize(a), Normalize(b))
}

// scoreNormalized combines edit distance with a containment score.
// Containment alone never reaches 90, so a partial name is a candidate
// but not a confident match.
func scoreNormalized(query, target string) int {
	if query == target {
		return 100
	}

	q, t := []rune(query), []rune(target)
	if len(q) == 0 || len(t) == 0 {
		return 0
	}

	maxLen := max(len(q), len(t))
	score := 100 - (lfuzzy.LevenshteinDistance(query, target) * 100 / maxLen)
	if score > 99 {
		score = 99
	}

	short, long := query, target
	if len(q) > len(t) {
		short, long = target, query
	}
	if strings.Contains(long, short) {
		containment := 60 + (min(len(q), len(t)) * 29 / maxLen)
		score = max(score, containment)
	}

	return max(score, 0)
}
