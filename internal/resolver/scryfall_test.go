package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/commander-decks/internal/cards/scryfall"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

func TestScryfallCatalog_FetchCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scryfall.CollectionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []scryfall.CardIdentifier{
			{Set: "c21", CollectorNumber: "263"},
			{Name: "Fire // Ice"},
		}, req.Identifiers)

		_, _ = w.Write([]byte(`{"object":"list","not_found":[],"data":[
			{"id":"sol","oracle_id":"o-sol","name":"Sol Ring","layout":"normal","mana_cost":"{1}",
			 "type_line":"Artifact","color_identity":[],"set":"C21","collector_number":"263",
			 "released_at":"2021-04-23","image_uris":{"normal":"sol.jpg"}},
			{"id":"fi","name":"Fire // Ice","layout":"split","type_line":"Instant // Instant",
			 "color_identity":["U","R"],"set":"mh2","collector_number":"290","released_at":"2021-06-18",
			 "card_faces":[{"name":"Fire","mana_cost":"{1}{R}","type_line":"Instant"},{"name":"Ice","mana_cost":"{1}{U}","type_line":"Instant"}]}
		]}`))
	}))
	defer server.Close()

	catalog := NewScryfallCatalog(scryfall.NewClient(scryfall.Options{BaseURL: server.URL, RateLimitDelay: time.Millisecond}))

	refs, err := catalog.FetchCollection(context.Background(), []Identifier{
		{Name: "Sol Ring", SetCode: "c21", CollectorNumber: "263"},
		{Name: "Fire // Ice"},
	})
	require.NoError(t, err)

	want := []deckimport.CatalogCardRef{
		{
			Origin: deckimport.OriginCatalog, ID: "sol", OracleID: "o-sol", Name: "Sol Ring",
			Layout: "normal", ManaCost: "{1}", TypeLine: "Artifact", ColorIdentity: []string{},
			SetCode: "c21", CollectorNumber: "263", ReleasedAt: "2021-04-23", ImageURI: "sol.jpg",
		},
		{
			Origin: deckimport.OriginCatalog, ID: "fi", Name: "Fire // Ice", Layout: "split",
			FaceNames: []string{"Fire", "Ice"}, ManaCost: "{1}{R}", TypeLine: "Instant // Instant",
			ColorIdentity: []string{"U", "R"}, SetCode: "mh2", CollectorNumber: "290", ReleasedAt: "2021-06-18",
		},
	}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Errorf("refs mismatch (-want +got):\n%s", diff)
	}
}

func TestScryfallCatalog_Suggest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards/autocomplete", r.URL.Path)
		_, _ = w.Write([]byte(`{"object":"catalog","total_values":1,"data":["Sol Ring"]}`))
	}))
	defer server.Close()

	catalog := NewScryfallCatalog(scryfall.NewClient(scryfall.Options{BaseURL: server.URL, RateLimitDelay: time.Millisecond}))

	names, err := catalog.Suggest(context.Background(), "sol rin")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sol Ring"}, names)
}
