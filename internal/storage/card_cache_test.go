package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// setupCardStore creates a migrated card store in a temporary database file.
func setupCardStore(t *testing.T) *CardStore {
	t.Helper()

	config := DefaultConfig(filepath.Join(t.TempDir(), "cards.db"))
	config.AutoMigrate = true
	db, err := Open(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewCardStore(db)
}

func testCard(id, name, set, number, released string) deckimport.CatalogCardRef {
	return deckimport.CatalogCardRef{
		Origin:          deckimport.OriginCatalog,
		ID:              id,
		OracleID:        "oracle-" + name,
		Name:            name,
		Layout:          "normal",
		ManaCost:        "{1}",
		TypeLine:        "Artifact",
		ColorIdentity:   []string{},
		SetCode:         set,
		CollectorNumber: number,
		ReleasedAt:      released,
		ImageURI:        "https://img.example/" + id + ".jpg",
	}
}

func TestCardStore_SaveAndLookupPrinting(t *testing.T) {
	store := setupCardStore(t)
	ctx := context.Background()

	sol := testCard("sol-c21", "Sol Ring", "C21", "263", "2021-04-23")
	require.NoError(t, store.SaveCards(ctx, []deckimport.CatalogCardRef{sol}))

	got, err := store.LookupPrinting(ctx, "c21", "263")
	require.NoError(t, err)
	require.NotNil(t, got)

	want := sol
	want.Origin = deckimport.OriginCache
	want.SetCode = "c21"
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("card mismatch (-want +got):\n%s", diff)
	}

	missing, err := store.LookupPrinting(ctx, "c21", "999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCardStore_LookupName(t *testing.T) {
	store := setupCardStore(t)
	ctx := context.Background()

	split := testCard("fire-ice", "Fire // Ice", "mh2", "290", "2021-06-18")
	split.FaceNames = []string{"Fire", "Ice"}
	split.ColorIdentity = []string{"U", "R"}

	require.NoError(t, store.SaveCards(ctx, []deckimport.CatalogCardRef{
		testCard("sol-c20", "Sol Ring", "c20", "252", "2020-04-17"),
		testCard("sol-c21", "Sol Ring", "c21", "263", "2021-04-23"),
		testCard("jotun", "Jötun Grunt", "csp", "8", "2006-07-21"),
		split,
	}))

	tests := []struct {
		query   string
		wantIDs []string
	}{
		{query: "Sol Ring", wantIDs: []string{"sol-c21", "sol-c20"}},
		{query: "SOL RING", wantIDs: []string{"sol-c21", "sol-c20"}},
		{query: "Jotun Grunt", wantIDs: []string{"jotun"}},
		{query: "fire // ice", wantIDs: []string{"fire-ice"}},
		{query: "Ice", wantIDs: []string{"fire-ice"}},
		{query: "Arcane Signet", wantIDs: nil},
		{query: "", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			cards, err := store.LookupName(ctx, tt.query)
			require.NoError(t, err)

			var ids []string
			for _, c := range cards {
				assert.Equal(t, deckimport.OriginCache, c.Origin)
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	cards, err := store.LookupName(ctx, "Fire")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, []string{"Fire", "Ice"}, cards[0].FaceNames)
	assert.Equal(t, []string{"U", "R"}, cards[0].ColorIdentity)
}

func TestCardStore_SaveCardsUpserts(t *testing.T) {
	store := setupCardStore(t)
	ctx := context.Background()

	card := testCard("x1", "Old Name", "tst", "1", "2020-01-01")
	require.NoError(t, store.SaveCards(ctx, []deckimport.CatalogCardRef{card}))

	card.Name = "New Name"
	require.NoError(t, store.SaveCards(ctx, []deckimport.CatalogCardRef{card}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	old, err := store.LookupName(ctx, "Old Name")
	require.NoError(t, err)
	assert.Empty(t, old, "renamed cards must not answer to their old name")

	renamed, err := store.LookupName(ctx, "New Name")
	require.NoError(t, err)
	assert.Len(t, renamed, 1)
}

func TestCardStore_SaveCardsSkipsMissingIDs(t *testing.T) {
	store := setupCardStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCards(ctx, []deckimport.CatalogCardRef{{Name: "No ID"}}))
	require.NoError(t, store.SaveCards(ctx, nil))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCardStore_SuggestNames(t *testing.T) {
	store := setupCardStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCards(ctx, []deckimport.CatalogCardRef{
		testCard("a", "Atraxa, Praetors' Voice", "2x2", "190", "2022-07-08"),
		testCard("b", "Atraxa, Grand Unifier", "one", "196", "2023-02-03"),
		testCard("c", "Sol Ring", "c21", "263", "2021-04-23"),
		testCard("d", "Solemn Simulacrum", "c21", "262", "2021-04-23"),
	}))

	names, err := store.SuggestNames(ctx, "atraxa", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Atraxa, Praetors' Voice", "Atraxa, Grand Unifier"}, names)

	names, err = store.SuggestNames(ctx, "Atraxa Praetor Voise", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Atraxa, Praetors' Voice"}, names)

	names, err = store.SuggestNames(ctx, "sol", 1)
	require.NoError(t, err)
	assert.Len(t, names, 1)

	names, err = store.SuggestNames(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCardStore_SuggestNamesReadsOnlySharedStems(t *testing.T) {
	store := setupCardStore(t)
	ctx := context.Background()

	cards := []deckimport.CatalogCardRef{testCard("sol", "Sol Ring", "c21", "263", "2021-04-23")}
	for i := 0; i < suggestPoolLimit+50; i++ {
		cards = append(cards, testCard(fmt.Sprintf("filler-%d", i), fmt.Sprintf("Filler Card %d", i), "tst", fmt.Sprint(i), "2020-01-01"))
	}
	require.NoError(t, store.SaveCards(ctx, cards))

	names, err := store.SuggestNames(ctx, "Sol Rnig", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sol Ring"}, names)

	names, err = store.SuggestNames(ctx, "Qwzx Blorp", 10)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNameStems(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "sol ring", want: []string{"sol", "rin"}},
		{input: "atraxa praetors voice", want: []string{"atr", "pra", "voi"}},
		{input: "fire ice", want: []string{"fir", "ice"}},
		{input: "ox of an", want: []string{"ox", "of", "an"}},
		{input: "a jotun", want: []string{"jot"}},
		{input: "sol sol", want: []string{"sol"}},
		{input: "", want: nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, nameStems(tt.input), tt.input)
	}
}

func TestCardStore_DeleteStale(t *testing.T) {
	store := setupCardStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCards(ctx, []deckimport.CatalogCardRef{
		testCard("old", "Old Card", "tst", "1", "2020-01-01"),
		testCard("new", "New Card", "tst", "2", "2020-01-01"),
	}))
	_, err := store.db.Conn().ExecContext(ctx,
		`UPDATE cached_cards SET last_updated = datetime('now', '-30 days') WHERE id = 'old'`)
	require.NoError(t, err)

	deleted, err := store.DeleteStale(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	cards, err := store.LookupName(ctx, "Old Card")
	require.NoError(t, err)
	assert.Empty(t, cards)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
