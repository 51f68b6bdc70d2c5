package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// MTGGoldfish scrapes the deck-list input embedded in MTGGoldfish deck pages.
type MTGGoldfish struct {
	opts    Options
	baseURL string
}

// NewMTGGoldfish creates an MTGGoldfish source.
func NewMTGGoldfish(opts Options) *MTGGoldfish {
	return &MTGGoldfish{
		opts:    opts.withDefaults(),
		baseURL: "https://www.mtggoldfish.com",
	}
}

func (g *MTGGoldfish) Name() string { return "mtggoldfish" }

// Matches accepts https://www.mtggoldfish.com/deck/<id>.
func (g *MTGGoldfish) Matches(u *url.URL) bool {
	if !hostIs(u, "mtggoldfish.com") {
		return false
	}
	_, ok := deckID(u, "deck")
	return ok
}

// Fetch downloads the deck page and extracts its deck list.
func (g *MTGGoldfish) Fetch(ctx context.Context, u *url.URL) (*Deck, error) {
	id, _ := deckID(u, "deck")
	page, err := get(ctx, g.opts, fmt.Sprintf("%s/deck/%s", g.baseURL, url.PathEscape(id)), "text/html")
	if err != nil {
		return nil, err
	}

	name, text, err := parseGoldfishPage(page)
	if err != nil {
		return nil, err
	}
	return &Deck{Source: g.Name(), URL: u.String(), Name: name, Text: text}, nil
}

// parseGoldfishPage reads the hidden deck input. Its value is a plain list
// with a bare "sideboard" line separating the sideboard; commander decks
// carry the commander in a separate input.
func parseGoldfishPage(page []byte) (name, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse deck page: %w", err)
	}

	list, ok := doc.Find("input#deck_input_deck").First().Attr("value")
	if !ok || strings.TrimSpace(list) == "" {
		return "", "", errors.New("deck list not found on page")
	}

	var sb strings.Builder
	if commander, ok := doc.Find("input#deck_input_commander").First().Attr("value"); ok && strings.TrimSpace(commander) != "" {
		sb.WriteString("Commander\n")
		sb.WriteString(strings.TrimSpace(commander))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Deck\n")
	for _, line := range strings.Split(strings.ReplaceAll(list, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "sideboard") {
			sb.WriteString("\nSideboard\n")
			continue
		}
		if line == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return goldfishDeckName(doc), sb.String(), nil
}

// goldfishDeckName takes the leading text of the page title heading, which
// is followed by an author byline element.
func goldfishDeckName(doc *goquery.Document) string {
	var name string
	doc.Find("h1.title").First().Contents().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(s.Nodes) > 0 && s.Nodes[0].Type == html.TextNode {
			if t := strings.TrimSpace(s.Text()); t != "" {
				name = t
				return false
			}
		}
		return true
	})
	if name == "" {
		name, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		name = strings.TrimSpace(name)
	}
	return name
}
