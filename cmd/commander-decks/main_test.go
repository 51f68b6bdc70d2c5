package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/commander-decks/internal/cards/scryfall"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
	"github.com/ramonehamilton/commander-decks/internal/version"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// writeConfig writes a config pointing the catalog at catalogURL with the
// card cache disabled.
func writeConfig(t *testing.T, catalogURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := fmt.Sprintf(`[catalog]
base_url = %q
rate_limit = "0s"
max_retries = 0

[cache]
enabled = false

[log]
level = "error"
`, catalogURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeCatalog serves /cards/collection from a fixed set of cards keyed by name.
func fakeCatalog(t *testing.T, cards ...scryfall.Card) *httptest.Server {
	t.Helper()
	byName := make(map[string]scryfall.Card, len(cards))
	for _, c := range cards {
		byName[strings.ToLower(c.Name)] = c
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/cards/collection", func(w http.ResponseWriter, r *http.Request) {
		var req scryfall.CollectionRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		resp := scryfall.CollectionResponse{Object: "list", Data: []scryfall.Card{}}
		for _, id := range req.Identifiers {
			if c, ok := byName[strings.ToLower(id.Name)]; ok {
				resp.Data = append(resp.Data, c)
			} else {
				resp.NotFound = append(resp.NotFound, id)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/cards/autocomplete", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(scryfall.Catalog{Object: "catalog", Data: []string{}})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testCard(id, name, set, number string, identity ...string) scryfall.Card {
	c := scryfall.Card{Name: name, Layout: "normal", ColorIdentity: identity}
	c.ID = id
	c.SetCode = set
	c.CollectorNumber = number
	return c
}

func TestLandsCommand(t *testing.T) {
	out, err := runCLI(t, "", "--config", writeConfig(t, "http://127.0.0.1:0"), "lands", "--colors", "WU", "--total", "11")
	require.NoError(t, err)
	assert.Equal(t, "Suggested basic lands (11)\n6 Plains\n5 Island\n", out)
}

func TestLandsCommand_Colorless(t *testing.T) {
	out, err := runCLI(t, "", "--config", writeConfig(t, "http://127.0.0.1:0"), "lands", "--total", "3")
	require.NoError(t, err)
	assert.Equal(t, "Suggested basic lands (3)\n3 Wastes\n", out)
}

func TestLandsCommand_NegativeTotal(t *testing.T) {
	_, err := runCLI(t, "", "--config", writeConfig(t, "http://127.0.0.1:0"), "lands", "--total", "-1")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "", "--config", writeConfig(t, "http://127.0.0.1:0"), "version")
	require.NoError(t, err)
	assert.Equal(t, version.GetVersion()+"\n", out)
}

func TestPreviewCommand_Stdin(t *testing.T) {
	catalog := fakeCatalog(t,
		testCard("id-atraxa", "Atraxa, Praetors' Voice", "c16", "28", "W", "U", "B", "G"),
		testCard("id-sol", "Sol Ring", "c21", "263"),
	)
	cfgPath := writeConfig(t, catalog.URL)

	deck := "Commander\n1 Atraxa, Praetors' Voice\n\nDeck\n1 Sol Ring\n1 Totally Unknown Card\n"
	out, err := runCLI(t, deck, "--config", cfgPath, "preview", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "Atraxa, Praetors' Voice")
	assert.Contains(t, out, "1 Sol Ring (C21) 263")
	assert.Contains(t, out, "Unresolved (1)")
	assert.Contains(t, out, "Totally Unknown Card")
	assert.NotContains(t, out, "Suggested basic lands")
}

func TestPreviewCommand_JSONWithLands(t *testing.T) {
	catalog := fakeCatalog(t,
		testCard("id-atraxa", "Atraxa, Praetors' Voice", "c16", "28", "W", "U", "B", "G"),
		testCard("id-sol", "Sol Ring", "c21", "263"),
	)
	cfgPath := writeConfig(t, catalog.URL)

	deckFile := filepath.Join(t.TempDir(), "deck.txt")
	require.NoError(t, os.WriteFile(deckFile, []byte("Commander\n1 Atraxa, Praetors' Voice\nDeck\n1 Sol Ring\n"), 0o644))

	out, err := runCLI(t, "", "--config", cfgPath, "preview", deckFile, "--json", "--lands", "--deck-size", "10")
	require.NoError(t, err)

	var preview deckimport.ImportPreview
	require.NoError(t, json.Unmarshal([]byte(out), &preview))

	require.NotNil(t, preview.Commander)
	assert.Equal(t, deckimport.StatusResolved, preview.Commander.Status)
	require.Len(t, preview.MainCards, 1)
	assert.Equal(t, "id-sol", preview.MainCards[0].Card.ID)
	assert.Empty(t, preview.Unresolved)
	assert.NotEmpty(t, preview.SessionID)

	// Two cards count toward ten, leaving eight basics over four colors.
	require.NotNil(t, preview.SuggestedLands)
	assert.Equal(t, deckimport.BasicLands{Plains: 2, Island: 2, Swamp: 2, Forest: 2}, *preview.SuggestedLands)
}

func TestPreviewCommand_RequiresInput(t *testing.T) {
	_, err := runCLI(t, "", "--config", writeConfig(t, "http://127.0.0.1:0"), "preview")
	assert.Error(t, err)
}

func TestPreviewCommand_MissingFile(t *testing.T) {
	_, err := runCLI(t, "", "--config", writeConfig(t, "http://127.0.0.1:0"), "preview", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read deck list")
}

func TestCacheAndMigrateCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "cards.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`[database]
path = %q
auto_migrate = false

[log]
level = "error"
`, dbPath)), 0o644))

	out, err := runCLI(t, "", "--config", cfgPath, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "dirty: false")

	out, err = runCLI(t, "", "--config", cfgPath, "cache", "stats")
	require.NoError(t, err)
	assert.Equal(t, dbPath+": 0 cached cards\n", out)

	out, err = runCLI(t, "", "--config", cfgPath, "cache", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Equal(t, "deleted 0 cached cards older than 1h0m0s\n", out)

	out, err = runCLI(t, "", "--config", cfgPath, "cache", "backup")
	require.NoError(t, err)
	snapshot := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(dir, "backups"), filepath.Dir(snapshot))

	out, err = runCLI(t, "", "--config", cfgPath, "cache", "backups")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, snapshot+"\t"), out)

	out, err = runCLI(t, "", "--config", cfgPath, "migrate", "force", "1")
	require.NoError(t, err)
	assert.Equal(t, "schema version 1 (dirty: false)\n", out)

	_, err = runCLI(t, "", "--config", cfgPath, "migrate", "force", "one")
	assert.Error(t, err)

	out, err = runCLI(t, "", "--config", cfgPath, "migrate", "down")
	require.NoError(t, err)
	assert.Equal(t, "schema version 0 (dirty: false)\n", out)
}
