package resolver

import (
	"context"
	"strings"

	"github.com/ramonehamilton/commander-decks/internal/cards/scryfall"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// ScryfallCatalog adapts a Scryfall client to Catalog.
type ScryfallCatalog struct {
	client *scryfall.Client
}

// NewScryfallCatalog creates a Catalog backed by client.
func NewScryfallCatalog(client *scryfall.Client) *ScryfallCatalog {
	return &ScryfallCatalog{client: client}
}

// FetchCollection implements Catalog.
func (c *ScryfallCatalog) FetchCollection(ctx context.Context, ids []Identifier) ([]deckimport.CatalogCardRef, error) {
	identifiers := make([]scryfall.CardIdentifier, len(ids))
	for i, id := range ids {
		if id.SetCode != "" && id.CollectorNumber != "" {
			identifiers[i] = scryfall.CardIdentifier{Set: id.SetCode, CollectorNumber: id.CollectorNumber}
		} else {
			identifiers[i] = scryfall.CardIdentifier{Name: id.Name}
		}
	}

	cards, _, err := c.client.FetchCollection(ctx, identifiers)
	if err != nil {
		return nil, err
	}

	refs := make([]deckimport.CatalogCardRef, 0, len(cards))
	for _, card := range cards {
		refs = append(refs, CardRef(card))
	}
	return refs, nil
}

// Suggest implements Catalog using Scryfall autocomplete.
func (c *ScryfallCatalog) Suggest(ctx context.Context, name string) ([]string, error) {
	return c.client.Autocomplete(ctx, name)
}

// CardRef converts a Scryfall card into a catalog reference.
func CardRef(card scryfall.Card) deckimport.CatalogCardRef {
	identity := card.ColorIdentity
	if identity == nil {
		identity = []string{}
	}
	manaCost := card.ManaCost
	if manaCost == "" && len(card.CardFaces) > 0 {
		manaCost = card.CardFaces[0].ManaCost
	}
	typeLine := card.TypeLine
	if typeLine == "" && len(card.CardFaces) > 0 {
		typeLine = card.CardFaces[0].TypeLine
	}

	return deckimport.CatalogCardRef{
		Origin:          deckimport.OriginCatalog,
		ID:              card.ID,
		OracleID:        card.OracleID,
		Name:            card.Name,
		Layout:          card.Layout,
		FaceNames:       card.FaceNames(),
		ManaCost:        manaCost,
		TypeLine:        typeLine,
		ColorIdentity:   identity,
		SetCode:         strings.ToLower(card.SetCode),
		CollectorNumber: card.CollectorNumber,
		ReleasedAt:      card.ReleasedAt,
		Promo:           card.Promo,
		Digital:         card.Digital,
		ImageURI:        card.ImageURI(),
	}
}
