package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ramonehamilton/commander-decks/internal/cards/fuzzy"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

const cardColumns = `c.id, c.oracle_id, c.name, c.layout, c.face_names, c.mana_cost, c.type_line,
	c.color_identity, c.set_code, c.collector_number, c.released_at, c.promo, c.digital, c.image_uri`

// CardStore reads and writes cached catalog cards.
type CardStore struct {
	db *DB
}

// NewCardStore creates a CardStore on db. The schema must already be migrated.
func NewCardStore(db *DB) *CardStore {
	return &CardStore{db: db}
}

// SaveCards upserts cards in a single transaction.
func (s *CardStore) SaveCards(ctx context.Context, cards []deckimport.CatalogCardRef) error {
	if len(cards) == 0 {
		return nil
	}

	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		upsert, err := tx.PrepareContext(ctx, `
			INSERT INTO cached_cards (
				id, oracle_id, name, normalized_name, layout, face_names, mana_cost, type_line,
				color_identity, set_code, collector_number, released_at, promo, digital, image_uri,
				last_updated
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				oracle_id = excluded.oracle_id,
				name = excluded.name,
				normalized_name = excluded.normalized_name,
				layout = excluded.layout,
				face_names = excluded.face_names,
				mana_cost = excluded.mana_cost,
				type_line = excluded.type_line,
				color_identity = excluded.color_identity,
				set_code = excluded.set_code,
				collector_number = excluded.collector_number,
				released_at = excluded.released_at,
				promo = excluded.promo,
				digital = excluded.digital,
				image_uri = excluded.image_uri,
				last_updated = CURRENT_TIMESTAMP
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare card upsert: %w", err)
		}
		defer func() { _ = upsert.Close() }()

		clearNames, err := tx.PrepareContext(ctx, `DELETE FROM cached_card_names WHERE card_id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare name cleanup: %w", err)
		}
		defer func() { _ = clearNames.Close() }()

		insertName, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO cached_card_names (card_id, normalized_name) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare name insert: %w", err)
		}
		defer func() { _ = insertName.Close() }()

		for _, card := range cards {
			if card.ID == "" {
				continue
			}
			faces, err := json.Marshal(nonNil(card.FaceNames))
			if err != nil {
				return fmt.Errorf("failed to encode face names for %s: %w", card.ID, err)
			}
			identity, err := json.Marshal(nonNil(card.ColorIdentity))
			if err != nil {
				return fmt.Errorf("failed to encode color identity for %s: %w", card.ID, err)
			}

			_, err = upsert.ExecContext(ctx,
				card.ID, card.OracleID, card.Name, fuzzy.Normalize(card.Name), card.Layout, string(faces),
				card.ManaCost, card.TypeLine, string(identity), strings.ToLower(card.SetCode),
				strings.ToLower(card.CollectorNumber), card.ReleasedAt, card.Promo, card.Digital, card.ImageURI,
			)
			if err != nil {
				return fmt.Errorf("failed to save card %s: %w", card.ID, err)
			}

			if _, err := clearNames.ExecContext(ctx, card.ID); err != nil {
				return fmt.Errorf("failed to clear names for %s: %w", card.ID, err)
			}
			for _, name := range append([]string{card.Name}, card.FaceNames...) {
				norm := fuzzy.Normalize(name)
				if norm == "" {
					continue
				}
				if _, err := insertName.ExecContext(ctx, card.ID, norm); err != nil {
					return fmt.Errorf("failed to save name %q for %s: %w", name, card.ID, err)
				}
			}
		}
		return nil
	})
}

// LookupPrinting returns the cached card with the given set code and
// collector number, or nil if it is not cached.
func (s *CardStore) LookupPrinting(ctx context.Context, setCode, collectorNumber string) (*deckimport.CatalogCardRef, error) {
	query := `SELECT ` + cardColumns + ` FROM cached_cards c
		WHERE c.set_code = ? AND c.collector_number = ?
		ORDER BY c.id
		LIMIT 1`

	row := s.db.Conn().QueryRowContext(ctx, query, strings.ToLower(setCode), strings.ToLower(collectorNumber))
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up printing %s #%s: %w", setCode, collectorNumber, err)
	}
	return &card, nil
}

// LookupName returns every cached printing whose full name or face name
// matches name after normalization.
func (s *CardStore) LookupName(ctx context.Context, name string) ([]deckimport.CatalogCardRef, error) {
	norm := fuzzy.Normalize(name)
	if norm == "" {
		return nil, nil
	}

	query := `SELECT ` + cardColumns + ` FROM cached_cards c
		JOIN cached_card_names n ON n.card_id = c.id
		WHERE n.normalized_name = ?
		ORDER BY c.released_at DESC, c.id`

	rows, err := s.db.Conn().QueryContext(ctx, query, norm)
	if err != nil {
		return nil, fmt.Errorf("failed to look up card %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	var cards []deckimport.CatalogCardRef
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}
	return cards, nil
}

// suggestPoolLimit caps the rows SuggestNames reads before ranking.
const suggestPoolLimit = 500

// SuggestNames ranks cached card names against query. Names containing the
// query's characters in order come first, closest first, followed by names
// within a small edit distance. Only names sharing a word stem with the
// query are read from the database.
func (s *CardStore) SuggestNames(ctx context.Context, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	stems := nameStems(fuzzy.Normalize(query))
	if len(stems) == 0 {
		return nil, nil
	}

	where := make([]string, len(stems))
	args := make([]interface{}, 0, len(stems)+1)
	for i, stem := range stems {
		where[i] = `normalized_name LIKE ?`
		args = append(args, "%"+stem+"%")
	}
	args = append(args, suggestPoolLimit)

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT DISTINCT name FROM cached_cards
		WHERE `+strings.Join(where, " OR ")+`
		ORDER BY name
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list card names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan card name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card names: %w", err)
	}

	ranks := lfuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	suggestions := make([]string, 0, limit)
	seen := make(map[string]bool)
	add := func(name string) {
		if len(suggestions) < limit && !seen[name] {
			seen[name] = true
			suggestions = append(suggestions, name)
		}
	}
	for _, rank := range ranks {
		add(rank.Target)
	}
	for _, match := range fuzzy.Search(query, names, fuzzy.SearchOptions{MinScore: 60, MaxResults: limit}) {
		add(match.Name)
	}
	return suggestions, nil
}

// nameStems returns the leading three characters of each word in a
// normalized name. Words shorter than that are used whole, but only when
// the name has no longer word.
func nameStems(normalized string) []string {
	words := strings.Fields(normalized)
	var stems, short []string
	seen := make(map[string]bool)
	for _, word := range words {
		r := []rune(word)
		if len(r) < 3 {
			short = append(short, word)
			continue
		}
		if stem := string(r[:3]); !seen[stem] {
			seen[stem] = true
			stems = append(stems, stem)
		}
	}
	if len(stems) == 0 {
		return short
	}
	return stems
}

// Count returns the number of cached printings.
func (s *CardStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM cached_cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached cards: %w", err)
	}
	return n, nil
}

// DeleteStale removes cards that have not been refreshed within olderThan.
func (s *CardStore) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	seconds := int64(olderThan.Seconds())

	result, err := s.db.Conn().ExecContext(ctx, `
		DELETE FROM cached_cards
		WHERE unixepoch(last_updated) <= unixepoch('now', '-' || ? || ' seconds')
	`, seconds)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale cards: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted cards: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (deckimport.CatalogCardRef, error) {
	var card deckimport.CatalogCardRef
	var oracleID, layout, manaCost, typeLine, releasedAt, imageURI sql.NullString
	var faces, identity string
	err := row.Scan(
		&card.ID, &oracleID, &card.Name, &layout, &faces, &manaCost, &typeLine,
		&identity, &card.SetCode, &card.CollectorNumber, &releasedAt, &card.Promo, &card.Digital, &imageURI,
	)
	if err != nil {
		return card, err
	}

	if err := json.Unmarshal([]byte(faces), &card.FaceNames); err != nil {
		return card, fmt.Errorf("invalid face names for %s: %w", card.ID, err)
	}
	if len(card.FaceNames) == 0 {
		card.FaceNames = nil
	}
	if err := json.Unmarshal([]byte(identity), &card.ColorIdentity); err != nil {
		return card, fmt.Errorf("invalid color identity for %s: %w", card.ID, err)
	}

	card.Origin = deckimport.OriginCache
	card.OracleID = oracleID.String
	card.Layout = layout.String
	card.ManaCost = manaCost.String
	card.TypeLine = typeLine.String
	card.ReleasedAt = releasedAt.String
	card.ImageURI = imageURI.String
	return card, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
