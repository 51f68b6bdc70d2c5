package deckimport

import (
	"fmt"
	"sort"
)

// DefaultDeckSize is the Commander deck size used for land suggestions.
const DefaultDeckSize = 100

// AssembleOptions configures Assemble.
type AssembleOptions struct {
	// SuggestLands attaches a basic land suggestion to the preview.
	SuggestLands bool
	// TargetDeckSize is the deck size lands are filled up to (default: 100).
	TargetDeckSize int
}

// Assemble groups resolutions into an ImportPreview.
//
// Input order is preserved inside every bucket. The first COMMANDER line
// becomes the commander whatever its status; any later COMMANDER lines
// are demoted to MAIN and reported as warnings. Unresolved lines are
// collected in Unresolved instead of their category bucket.
func Assemble(resolutions []CardResolution, opts AssembleOptions) *ImportPreview {
	ordered := make([]CardResolution, len(resolutions))
	copy(ordered, resolutions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Query.LineNumber < ordered[j].Query.LineNumber
	})

	preview := &ImportPreview{
		MainCards:        make([]CardResolution, 0),
		SideboardCards:   make([]CardResolution, 0),
		ConsideringCards: make([]CardResolution, 0),
		Unresolved:       make([]CardResolution, 0),
		Headers:          make([]CategoryHeader, 0),
		LineErrors:       make([]LineError, 0),
		Warnings:         make([]ImportWarning, 0),
	}

	for _, res := range ordered {
		if res.Query.Category == CategoryCommander {
			if preview.Commander == nil {
				commander := res
				preview.Commander = &commander
				continue
			}
			preview.Warnings = append(preview.Warnings, ImportWarning{
				LineNumber: res.Query.LineNumber,
				Code:       WarningCommanderDemoted,
				Message: fmt.Sprintf("%q moved to the main deck; %q is already the commander",
					res.Query.Name, preview.Commander.Query.Name),
			})
			res.Query.Category = CategoryMain
		}

		if res.Status != StatusResolved {
			preview.Unresolved = append(preview.Unresolved, res)
			continue
		}

		switch res.Query.Category {
		case CategorySideboard:
			preview.SideboardCards = append(preview.SideboardCards, res)
		case CategoryConsidering:
			preview.ConsideringCards = append(preview.ConsideringCards, res)
		default:
			preview.MainCards = append(preview.MainCards, res)
		}
	}

	if opts.SuggestLands {
		target := opts.TargetDeckSize
		if target <= 0 {
			target = DefaultDeckSize
		}
		fill := target - preview.deckQuantity()
		if fill < 0 {
			fill = 0
		}
		lands := DeriveLands(preview.ColorIdentity(), fill)
		preview.SuggestedLands = &lands
	}

	return preview
}

// deckQuantity counts the resolved commander and main deck cards.
func (p *ImportPreview) deckQuantity() int {
	total := 0
	if p.Commander != nil && p.Commander.Status == StatusResolved {
		total += p.Commander.Query.Quantity
	}
	for _, res := range p.MainCards {
		total += res.Query.Quantity
	}
	return total
}

// ColorIdentity returns the resolved commander's color identity, or the
// union of the resolved main deck when there is no resolved commander.
func (p *ImportPreview) ColorIdentity() []Color {
	if p.Commander != nil && p.Commander.Status == StatusResolved && p.Commander.Card != nil {
		return ParseColors(p.Commander.Card.ColorIdentity...)
	}
	var symbols []string
	for _, res := range p.MainCards {
		if res.Card != nil {
			symbols = append(symbols, res.Card.ColorIdentity...)
		}
	}
	return ParseColors(symbols...)
}
