// Package importer runs the deck-list import pipeline: fetch or accept
// text, tokenize and segment it, resolve card names, and assemble a preview.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/deckimport"
	"github.com/ramonehamilton/commander-decks/internal/sources"
)

// ErrInvalidRequest is wrapped by every request validation failure.
var ErrInvalidRequest = errors.New("invalid import request")

// DeckFetcher fetches deck lists by URL.
type DeckFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*sources.Deck, error)
}

// CardResolver resolves parsed card lines against the catalog.
type CardResolver interface {
	Resolve(ctx context.Context, cards []deckimport.ParsedCardLine) ([]deckimport.CardResolution, error)
}

// Request is one import. Exactly one of Text and URL must be set.
type Request struct {
	Text           string `json:"text,omitempty"`
	URL            string `json:"url,omitempty"`
	SuggestLands   bool   `json:"suggestLands,omitempty"`
	TargetDeckSize int    `json:"targetDeckSize,omitempty"`
}

// Config configures the Service.
type Config struct {
	MaxLineLength   int // Longest card line matched (default: 500)
	MaxTextBytes    int // Largest accepted deck list (default: 1 MiB)
	DefaultDeckSize int // Land fill target when the request sets none (default: 100)
}

// Service builds import previews.
type Service struct {
	fetcher   DeckFetcher
	resolver  CardResolver
	tokenizer *deckimport.Tokenizer
	config    Config
	logger    *zap.Logger
}

// NewService creates an import service. fetcher may be nil, in which case
// URL imports are rejected.
func NewService(fetcher DeckFetcher, resolver CardResolver, config Config, logger *zap.Logger) *Service {
	if config.MaxLineLength <= 0 {
		config.MaxLineLength = deckimport.DefaultMaxLineLength
	}
	if config.MaxTextBytes <= 0 {
		config.MaxTextBytes = 1 << 20
	}
	if config.DefaultDeckSize <= 0 {
		config.DefaultDeckSize = deckimport.DefaultDeckSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:   fetcher,
		resolver:  resolver,
		tokenizer: deckimport.NewTokenizer(config.MaxLineLength),
		config:    config,
		logger:    logger,
	}
}

// Validate checks a request without running it.
func (s *Service) Validate(req Request) error {
	hasText := strings.TrimSpace(req.Text) != ""
	hasURL := strings.TrimSpace(req.URL) != ""

	switch {
	case hasText && hasURL:
		return fmt.Errorf("%w: provide either text or url, not both", ErrInvalidRequest)
	case !hasText && !hasURL:
		return fmt.Errorf("%w: text or url is required", ErrInvalidRequest)
	case hasURL && s.fetcher == nil:
		return fmt.Errorf("%w: URL imports are not enabled", ErrInvalidRequest)
	case len(req.Text) > s.config.MaxTextBytes:
		return fmt.Errorf("%w: deck list exceeds %d bytes", ErrInvalidRequest, s.config.MaxTextBytes)
	case req.TargetDeckSize < 0:
		return fmt.Errorf("%w: targetDeckSize cannot be negative", ErrInvalidRequest)
	}
	return nil
}

// Preview runs the import pipeline and returns the preview.
//
// Problems with individual lines are reported inside the preview. The
// returned error is ErrInvalidRequest, a *deckimport.SourceError when a
// URL could not be fetched, or the context error.
func (s *Service) Preview(ctx context.Context, req Request) (*deckimport.ImportPreview, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	log := s.logger.With(zap.String("session", sessionID))
	start := time.Now()

	text, source, deckName := req.Text, "", ""
	if strings.TrimSpace(req.URL) != "" {
		deck, err := s.fetcher.Fetch(ctx, strings.TrimSpace(req.URL))
		if err != nil {
			log.Warn("Deck import aborted", zap.String("url", req.URL), zap.Error(err))
			return nil, err
		}
		text, source, deckName = deck.Text, deck.Source, deck.Name
	}

	segmented := s.tokenizer.Parse(text)

	resolutions, err := s.resolver.Resolve(ctx, segmented.Cards)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cards: %w", err)
	}

	target := req.TargetDeckSize
	if target == 0 {
		target = s.config.DefaultDeckSize
	}
	preview := deckimport.Assemble(resolutions, deckimport.AssembleOptions{
		SuggestLands:   req.SuggestLands,
		TargetDeckSize: target,
	})
	preview.SessionID = sessionID
	preview.Source = source
	preview.DeckName = deckName
	preview.Headers = segmented.Headers
	preview.LineErrors = segmented.Errors

	log.Info("Built import preview",
		zap.String("source", source),
		zap.Int("lines", len(segmented.Cards)),
		zap.Int("lineErrors", len(segmented.Errors)),
		zap.Int("unresolved", len(preview.Unresolved)),
		zap.Bool("hasCommander", preview.Commander != nil),
		zap.Duration("elapsed", time.Since(start)))

	return preview, nil
}
