package deckimport

import (
	"fmt"
	"strings"
)

// Section is a labelled group of card lines used when writing deck lists.
type Section struct {
	Label string
	Cards []ParsedCardLine
}

// FormatLine writes a card line in the form "4 Lightning Bolt (M21) 123".
func FormatLine(card ParsedCardLine) string {
	line := fmt.Sprintf("%d %s", card.Quantity, card.Name)
	if card.HasPrinting() {
		line += fmt.Sprintf(" (%s) %s", strings.ToUpper(card.SetCode), card.CollectorNumber)
	}
	return line
}

// FormatDeckList writes sections as deck-list text the tokenizer reads back.
// Empty sections are skipped.
func FormatDeckList(sections []Section) string {
	var sb strings.Builder
	for _, section := range sections {
		if len(section.Cards) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		if section.Label != "" {
			sb.WriteString(section.Label)
			sb.WriteString("\n")
		}
		for _, card := range section.Cards {
			sb.WriteString(FormatLine(card))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// DeckList writes the resolved cards of a preview using their catalog
// names and printings. Unresolved lines are left out.
func (p *ImportPreview) DeckList() string {
	var commander []ParsedCardLine
	if p.Commander != nil && p.Commander.Status == StatusResolved {
		commander = append(commander, resolvedLine(*p.Commander))
	}
	sections := []Section{
		{Label: "Commander", Cards: commander},
		{Label: "Deck", Cards: resolvedLines(p.MainCards)},
		{Label: "Sideboard", Cards: resolvedLines(p.SideboardCards)},
		{Label: "Considering", Cards: resolvedLines(p.ConsideringCards)},
	}
	return FormatDeckList(sections)
}

func resolvedLines(resolutions []CardResolution) []ParsedCardLine {
	lines := make([]ParsedCardLine, 0, len(resolutions))
	for _, res := range resolutions {
		lines = append(lines, resolvedLine(res))
	}
	return lines
}

func resolvedLine(res CardResolution) ParsedCardLine {
	line := res.Query
	if res.Card != nil {
		line.Name = res.Card.Name
		line.SetCode = res.Card.SetCode
		line.CollectorNumber = res.Card.CollectorNumber
	}
	return line
}
