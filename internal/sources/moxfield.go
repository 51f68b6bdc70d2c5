package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// Moxfield fetches decks from the Moxfield v3 API.
type Moxfield struct {
	opts    Options
	baseURL string
}

// NewMoxfield creates a Moxfield source.
func NewMoxfield(opts Options) *Moxfield {
	return &Moxfield{
		opts:    opts.withDefaults(),
		baseURL: "https://api2.moxfield.com/v3",
	}
}

type moxfieldDeck struct {
	Name   string                   `json:"name"`
	Boards map[string]moxfieldBoard `json:"boards"`
}

type moxfieldBoard struct {
	Count int                      `json:"count"`
	Cards map[string]moxfieldEntry `json:"cards"`
}

type moxfieldEntry struct {
	Quantity int          `json:"quantity"`
	Card     moxfieldCard `json:"card"`
}

type moxfieldCard struct {
	Name string `json:"name"`
	Set  string `json:"set"`
	CN   string `json:"cn"`
}

// moxfieldBoards lists the boards we import, in output order.
var moxfieldBoards = []struct {
	key   string
	label string
}{
	{"commanders", "Commander"},
	{"companions", "Companion"},
	{"mainboard", "Deck"},
	{"sideboard", "Sideboard"},
	{"maybeboard", "Maybeboard"},
}

func (m *Moxfield) Name() string { return "moxfield" }

// Matches accepts https://www.moxfield.com/decks/<publicId>.
func (m *Moxfield) Matches(u *url.URL) bool {
	if !hostIs(u, "moxfield.com") {
		return false
	}
	_, ok := deckID(u, "decks")
	return ok
}

// Fetch downloads and normalizes a Moxfield deck.
func (m *Moxfield) Fetch(ctx context.Context, u *url.URL) (*Deck, error) {
	id, _ := deckID(u, "decks")
	endpoint := fmt.Sprintf("%s/decks/all/%s", m.baseURL, url.PathEscape(id))
	body, err := get(ctx, m.opts, endpoint, "application/json")
	if err != nil {
		return nil, err
	}

	var deck moxfieldDeck
	if err := json.Unmarshal(body, &deck); err != nil {
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}

	text := deck.deckList()
	if text == "" {
		return nil, errNoCards(deck.Name)
	}
	return &Deck{Source: m.Name(), URL: u.String(), Name: deck.Name, Text: text}, nil
}

// deckList writes each board sorted by card name; board entries are
// keyed by opaque IDs with no meaningful order.
func (d *moxfieldDeck) deckList() string {
	sections := make([]deckimport.Section, 0, len(moxfieldBoards))
	for _, b := range moxfieldBoards {
		board, ok := d.Boards[b.key]
		if !ok {
			continue
		}
		lines := make([]deckimport.ParsedCardLine, 0, len(board.Cards))
		for _, entry := range board.Cards {
			if entry.Quantity <= 0 || entry.Card.Name == "" {
				continue
			}
			lines = append(lines, deckimport.ParsedCardLine{
				Quantity:        entry.Quantity,
				Name:            entry.Card.Name,
				SetCode:         entry.Card.Set,
				CollectorNumber: entry.Card.CN,
			})
		}
		sort.Slice(lines, func(i, j int) bool {
			if lines[i].Name != lines[j].Name {
				return lines[i].Name < lines[j].Name
			}
			return lines[i].SetCode+lines[i].CollectorNumber < lines[j].SetCode+lines[j].CollectorNumber
		})
		sections = append(sections, deckimport.Section{Label: b.label, Cards: lines})
	}
	return deckimport.FormatDeckList(sections)
}
