package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// Archidekt fetches decks from the Archidekt JSON API.
type Archidekt struct {
	opts    Options
	baseURL string
}

// NewArchidekt creates an Archidekt source.
func NewArchidekt(opts Options) *Archidekt {
	return &Archidekt{
		opts:    opts.withDefaults(),
		baseURL: "https://archidekt.com/api",
	}
}

// archidektDeck is the subset of the Archidekt deck payload we read.
type archidektDeck struct {
	ID         int                  `json:"id"`
	Name       string               `json:"name"`
	DeckFormat int                  `json:"deckFormat"`
	Private    bool                 `json:"private"`
	Categories []*archidektCategory `json:"categories"`
	Cards      []*archidektDeckCard `json:"cards"`
}

type archidektCategory struct {
	Name           string `json:"name"`
	IsPremier      bool   `json:"isPremier"`
	IncludedInDeck bool   `json:"includedInDeck"`
}

type archidektDeckCard struct {
	Categories []string       `json:"categories"`
	Quantity   int            `json:"quantity"`
	Card       *archidektCard `json:"card"`
}

type archidektCard struct {
	CollectorNumber string               `json:"collectorNumber"`
	Edition         *archidektEdition    `json:"edition"`
	OracleCard      *archidektOracleCard `json:"oracleCard"`
}

type archidektEdition struct {
	EditionCode string `json:"editioncode"`
}

type archidektOracleCard struct {
	Name string `json:"name"`
}

func (a *Archidekt) Name() string { return "archidekt" }

// Matches accepts https://archidekt.com/decks/<id>[/<slug>].
func (a *Archidekt) Matches(u *url.URL) bool {
	if !hostIs(u, "archidekt.com") {
		return false
	}
	id, ok := deckID(u, "decks")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(id)
	return err == nil
}

// Fetch downloads and normalizes an Archidekt deck.
func (a *Archidekt) Fetch(ctx context.Context, u *url.URL) (*Deck, error) {
	id, _ := deckID(u, "decks")
	body, err := get(ctx, a.opts, fmt.Sprintf("%s/decks/%s/", a.baseURL, id), "application/json")
	if err != nil {
		return nil, err
	}

	var deck archidektDeck
	if err := json.Unmarshal(body, &deck); err != nil {
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}

	text := deck.deckList()
	if text == "" {
		return nil, errNoCards(deck.Name)
	}
	return &Deck{Source: a.Name(), URL: u.String(), Name: deck.Name, Text: text}, nil
}

// deckList groups cards by their primary category into commander, main,
// sideboard and maybeboard sections.
func (d *archidektDeck) deckList() string {
	included := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		included[strings.ToLower(c.Name)] = c.IncludedInDeck
	}

	var commander, main, sideboard, considering []deckimport.ParsedCardLine
	for _, dc := range d.Cards {
		if dc.Card == nil || dc.Card.OracleCard == nil || dc.Quantity <= 0 {
			continue
		}
		line := deckimport.ParsedCardLine{Quantity: dc.Quantity, Name: dc.Card.OracleCard.Name}
		if dc.Card.Edition != nil && dc.Card.CollectorNumber != "" {
			line.SetCode = dc.Card.Edition.EditionCode
			line.CollectorNumber = dc.Card.CollectorNumber
		}

		primary := ""
		if len(dc.Categories) > 0 {
			primary = strings.ToLower(dc.Categories[0])
		}
		inDeck, known := included[primary]
		switch {
		case primary == "commander":
			commander = append(commander, line)
		case primary == "sideboard":
			sideboard = append(sideboard, line)
		case primary == "maybeboard" || (known && !inDeck):
			considering = append(considering, line)
		default:
			main = append(main, line)
		}
	}

	return deckimport.FormatDeckList([]deckimport.Section{
		{Label: "Commander", Cards: commander},
		{Label: "Deck", Cards: main},
		{Label: "Sideboard", Cards: sideboard},
		{Label: "Maybeboard", Cards: considering},
	})
}
