// Package deckimport turns deck-list text into categorized card lines and
// assembles resolved lines into an import preview.
package deckimport

import "strings"

// Category is the deck section a card line belongs to.
type Category string

const (
	CategoryCommander   Category = "COMMANDER"
	CategoryMain        Category = "MAIN"
	CategorySideboard   Category = "SIDEBOARD"
	CategoryConsidering Category = "CONSIDERING"
)

// LineKind classifies a tokenized line.
type LineKind string

const (
	KindBlank   LineKind = "BLANK"
	KindComment LineKind = "COMMENT"
	KindHeader  LineKind = "HEADER"
	KindCard    LineKind = "CARD"
)

// RawLine is one physical line of input.
type RawLine struct {
	Number int
	Text   string
}

// Line is the tokenizer output for a single RawLine.
// Exactly one of Header, Card or Err is set for HEADER and CARD lines.
type Line struct {
	Number int
	Raw    string
	Kind   LineKind
	Header *CategoryHeader
	Card   *ParsedCardLine
	Err    *LineError
}

// ParsedCardLine is a card line extracted from the deck list.
type ParsedCardLine struct {
	LineNumber      int      `json:"lineNumber"`
	Quantity        int      `json:"quantity"`
	Name            string   `json:"name"`
	SetCode         string   `json:"setCode,omitempty"`
	CollectorNumber string   `json:"collectorNumber,omitempty"`
	Category        Category `json:"category"`
}

// HasPrinting reports whether the line names a specific set and collector number.
func (p ParsedCardLine) HasPrinting() bool {
	return p.SetCode != "" && p.CollectorNumber != ""
}

// CategoryHeader is a section header such as "Creatures (30):".
// DeclaredCount is informational only.
type CategoryHeader struct {
	LineNumber    int      `json:"lineNumber"`
	Label         string   `json:"label"`
	DeclaredCount *int     `json:"declaredCount,omitempty"`
	Category      Category `json:"category"`
}

// Origin tags where a CatalogCardRef came from.
type Origin string

const (
	OriginCatalog Origin = "catalog"
	OriginCache   Origin = "cache"
)

// CatalogCardRef is a single card printing known to the card catalog.
type CatalogCardRef struct {
	Origin          Origin   `json:"origin"`
	ID              string   `json:"id"`
	OracleID        string   `json:"oracleId,omitempty"`
	Name            string   `json:"name"`
	Layout          string   `json:"layout,omitempty"`
	FaceNames       []string `json:"faceNames,omitempty"`
	ManaCost        string   `json:"manaCost,omitempty"`
	TypeLine        string   `json:"typeLine,omitempty"`
	ColorIdentity   []string `json:"colorIdentity"`
	SetCode         string   `json:"setCode"`
	CollectorNumber string   `json:"collectorNumber"`
	ReleasedAt      string   `json:"releasedAt,omitempty"`
	Promo           bool     `json:"promo,omitempty"`
	Digital         bool     `json:"digital,omitempty"`
	ImageURI        string   `json:"imageUri,omitempty"`
}

// IsBasicLand reports whether the card is a basic land (Wastes included).
func (c CatalogCardRef) IsBasicLand() bool {
	return strings.HasPrefix(c.TypeLine, "Basic Land") || strings.HasPrefix(c.TypeLine, "Basic Snow Land")
}

// ResolutionStatus is the outcome of resolving one card line.
type ResolutionStatus string

const (
	StatusResolved  ResolutionStatus = "RESOLVED"
	StatusAmbiguous ResolutionStatus = "AMBIGUOUS"
	StatusNotFound  ResolutionStatus = "NOT_FOUND"
)

// CardResolution is the resolver result for one ParsedCardLine.
type CardResolution struct {
	Query      ParsedCardLine   `json:"query"`
	Status     ResolutionStatus `json:"status"`
	Card       *CatalogCardRef  `json:"resolvedCard,omitempty"`
	Candidates []CatalogCardRef `json:"candidates,omitempty"`
	Error      *ResolutionError `json:"error,omitempty"`
}

// BasicLands holds suggested basic land quantities.
type BasicLands struct {
	Plains   int `json:"plains"`
	Island   int `json:"island"`
	Swamp    int `json:"swamp"`
	Mountain int `json:"mountain"`
	Forest   int `json:"forest"`
	Wastes   int `json:"wastes"`
}

// Total returns the sum of all land quantities.
func (b BasicLands) Total() int {
	return b.Plains + b.Island + b.Swamp + b.Mountain + b.Forest + b.Wastes
}

// ImportWarning is a non-fatal note about how the preview was assembled.
type ImportWarning struct {
	LineNumber int    `json:"lineNumber"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// ImportPreview is the aggregate shown to the user before commit.
type ImportPreview struct {
	SessionID        string           `json:"sessionId"`
	Source           string           `json:"source,omitempty"`
	DeckName         string           `json:"deckName,omitempty"`
	Commander        *CardResolution  `json:"commander,omitempty"`
	MainCards        []CardResolution `json:"mainCards"`
	SideboardCards   []CardResolution `json:"sideboardCards"`
	ConsideringCards []CardResolution `json:"consideringCards"`
	Unresolved       []CardResolution `json:"unresolved"`
	SuggestedLands   *BasicLands      `json:"suggestedLands,omitempty"`
	Headers          []CategoryHeader `json:"headers"`
	LineErrors       []LineError      `json:"lineErrors"`
	Warnings         []ImportWarning  `json:"warnings"`
}
