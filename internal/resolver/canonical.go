package resolver

import (
	"sort"

	"github.com/ramonehamilton/commander-decks/internal/cards/fuzzy"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// matchesName reports whether norm is the normalized full name of card or
// of one of its faces.
func matchesName(card deckimport.CatalogCardRef, norm string) bool {
	if norm == "" {
		return false
	}
	if fuzzy.Normalize(card.Name) == norm {
		return true
	}
	for _, face := range card.FaceNames {
		if fuzzy.Normalize(face) == norm {
			return true
		}
	}
	return false
}

func filterByName(cards []deckimport.CatalogCardRef, norm string) []deckimport.CatalogCardRef {
	var out []deckimport.CatalogCardRef
	for _, card := range cards {
		if matchesName(card, norm) {
			out = append(out, card)
		}
	}
	return out
}

// canonical picks one printing out of several for the same card: paper
// non-promo printings first, then the newest release, then set code,
// collector number and ID. The choice does not depend on input order.
func canonical(printings []deckimport.CatalogCardRef) (deckimport.CatalogCardRef, bool) {
	if len(printings) == 0 {
		return deckimport.CatalogCardRef{}, false
	}

	sorted := make([]deckimport.CatalogCardRef, len(printings))
	copy(sorted, printings)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if sa, sb := special(a), special(b); sa != sb {
			return !sa
		}
		if a.ReleasedAt != b.ReleasedAt {
			return a.ReleasedAt > b.ReleasedAt
		}
		if a.SetCode != b.SetCode {
			return a.SetCode < b.SetCode
		}
		if a.CollectorNumber != b.CollectorNumber {
			return a.CollectorNumber < b.CollectorNumber
		}
		return a.ID < b.ID
	})
	return sorted[0], true
}

func special(card deckimport.CatalogCardRef) bool {
	return card.Promo || card.Digital
}
