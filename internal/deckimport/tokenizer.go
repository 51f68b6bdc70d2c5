package deckimport

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLineLength is the longest line, in characters, the tokenizer will match.
const DefaultMaxLineLength = 500

var (
	// "4 Lightning Bolt (M21) 123" or "4x Sol Ring (C21) 263"
	printingLineRegex = regexp.MustCompile(`^(\S+)\s+(.+?)\s+\(([A-Za-z0-9]{2,8})\)\s+(\S+)$`)
	// "4 Lightning Bolt" or "4x Lightning Bolt"
	quantityLineRegex = regexp.MustCompile(`^(\S+)\s+(.+)$`)
	// "Sol Ring (C21) 263" with an implicit quantity of one
	bareprintingRegex = regexp.MustCompile(`^(.+?)\s+\(([A-Za-z0-9]{2,8})\)\s+(\S+)$`)
	// Anything that looks like an attempt at a quantity, valid or not.
	quantityTokenRegex = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?[xX]?$`)
	// "Creatures (30):", "Commander:", "Sideboard", "Ramp (10)"
	headerRegex = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 '&/,.\-]*?)\s*(?:\((\d+)\))?\s*(:)?\s*(?:\((\d+)\))?$`)
	// Trailing export decorations: "*F*", "*CMDR*", "[Ramp]", "^Have,#37d67a^"
	decorationRegex = regexp.MustCompile(`(?:\s+(?:\*[A-Za-z]+\*|\[[^\]]*\]|\^[^^]*\^))+$`)
)

// knownLabels are header labels recognized without a trailing colon or count.
var knownLabels = map[string]Category{
	"commander":     CategoryCommander,
	"commanders":    CategoryCommander,
	"deck":          CategoryMain,
	"main":          CategoryMain,
	"mainboard":     CategoryMain,
	"main deck":     CategoryMain,
	"sideboard":     CategorySideboard,
	"side":          CategorySideboard,
	"considering":   CategoryConsidering,
	"maybeboard":    CategoryConsidering,
	"maybe":         CategoryConsidering,
	"companion":     CategoryMain,
	"creatures":     CategoryMain,
	"creature":      CategoryMain,
	"instants":      CategoryMain,
	"instant":       CategoryMain,
	"sorceries":     CategoryMain,
	"sorcery":       CategoryMain,
	"artifacts":     CategoryMain,
	"artifact":      CategoryMain,
	"enchantments":  CategoryMain,
	"enchantment":   CategoryMain,
	"planeswalkers": CategoryMain,
	"planeswalker":  CategoryMain,
	"lands":         CategoryMain,
	"land":          CategoryMain,
	"battles":       CategoryMain,
	"battle":        CategoryMain,
}

// CategoryForLabel maps a header label to its category. Unknown labels map to MAIN.
func CategoryForLabel(label string) Category {
	if category, ok := knownLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return category
	}
	return CategoryMain
}

// Tokenizer classifies deck-list lines.
type Tokenizer struct {
	maxLineLength int
}

// NewTokenizer creates a tokenizer. A non-positive limit uses DefaultMaxLineLength.
func NewTokenizer(maxLineLength int) *Tokenizer {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	return &Tokenizer{maxLineLength: maxLineLength}
}

// Tokenize tokenizes text with the default line length limit.
func Tokenize(text string) []Line {
	return NewTokenizer(DefaultMaxLineLength).Tokenize(text)
}

// SplitLines splits text into numbered physical lines (1-based).
func SplitLines(text string) []RawLine {
	text = strings.TrimPrefix(text, "\ufeff")
	parts := strings.Split(text, "\n")
	lines := make([]RawLine, 0, len(parts))
	for i, part := range parts {
		lines = append(lines, RawLine{Number: i + 1, Text: strings.TrimSuffix(part, "\r")})
	}
	return lines
}

// Tokenize produces one Line per physical line of text. It never fails:
// malformed card lines carry a LineError instead.
func (t *Tokenizer) Tokenize(text string) []Line {
	raw := SplitLines(text)
	lines := make([]Line, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, t.TokenizeLine(r))
	}
	return lines
}

// TokenizeLine classifies a single line.
func (t *Tokenizer) TokenizeLine(raw RawLine) Line {
	line := Line{Number: raw.Number, Raw: raw.Text}
	text := strings.TrimSpace(raw.Text)

	switch {
	case text == "":
		line.Kind = KindBlank
		return line
	case strings.HasPrefix(text, "//"), strings.HasPrefix(text, "#"):
		line.Kind = KindComment
		return line
	}

	line.Kind = KindCard
	if n := utf8.RuneCountInString(text); n > t.maxLineLength {
		line.Err = newLineError(raw.Number, CodeLineTooLong, text,
			"line is %d characters long, limit is %d", n, t.maxLineLength)
		return line
	}

	if header, ok := parseHeader(raw.Number, text); ok {
		line.Kind = KindHeader
		line.Header = header
		return line
	}

	card, lineErr := parseCard(raw.Number, text)
	line.Card = card
	line.Err = lineErr
	return line
}

func parseHeader(number int, text string) (*CategoryHeader, bool) {
	m := headerRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	label := strings.TrimSpace(m[1])
	countText := m[2]
	if countText == "" {
		countText = m[4]
	}
	_, known := knownLabels[strings.ToLower(label)]
	if !known && m[3] == "" && countText == "" {
		return nil, false
	}

	header := &CategoryHeader{
		LineNumber: number,
		Label:      label,
		Category:   CategoryForLabel(label),
	}
	if countText != "" {
		if n, err := strconv.Atoi(countText); err == nil {
			header.DeclaredCount = &n
		}
	}
	return header, true
}

func parseCard(number int, text string) (*ParsedCardLine, *LineError) {
	if stripped := strings.TrimSpace(decorationRegex.ReplaceAllString(text, "")); stripped != "" {
		text = stripped
	}

	card := &ParsedCardLine{LineNumber: number, Quantity: 1}
	qtyToken := ""

	if m := printingLineRegex.FindStringSubmatch(text); m != nil && quantityTokenRegex.MatchString(m[1]) {
		qtyToken = m[1]
		card.Name = m[2]
		card.SetCode = strings.ToLower(m[3])
		card.CollectorNumber = m[4]
	} else if m := quantityLineRegex.FindStringSubmatch(text); m != nil && quantityTokenRegex.MatchString(m[1]) {
		qtyToken = m[1]
		card.Name = m[2]
	} else if m := bareprintingRegex.FindStringSubmatch(text); m != nil {
		card.Name = m[1]
		card.SetCode = strings.ToLower(m[2])
		card.CollectorNumber = m[3]
	} else if quantityTokenRegex.MatchString(text) {
		return nil, newLineError(number, CodeInvalidQuantity, text,
			"quantity %q is not followed by a card name", text)
	} else {
		card.Name = text
	}
	card.Name = strings.TrimSpace(card.Name)

	if qtyToken != "" {
		qty, err := strconv.Atoi(strings.TrimRight(qtyToken, "xX"))
		if err != nil || qty < 1 {
			return nil, newLineError(number, CodeInvalidQuantity, text,
				"quantity %q must be a whole number of at least 1", qtyToken)
		}
		card.Quantity = qty
	}

	return card, nil
}
