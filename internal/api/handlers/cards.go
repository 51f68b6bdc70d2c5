package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ramonehamilton/commander-decks/internal/api/response"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
)

// NameSuggester ranks known card names against a partial query.
type NameSuggester interface {
	SuggestNames(ctx context.Context, query string, limit int) ([]string, error)
}

// CardHandler handles card name lookups.
type CardHandler struct {
	suggester NameSuggester
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(suggester NameSuggester) *CardHandler {
	return &CardHandler{suggester: suggester}
}

// Suggest returns cached card names closest to the q parameter.
func (h *CardHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		response.BadRequest(w, errors.New("q parameter is required"))
		return
	}

	limit := defaultSuggestLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			response.BadRequest(w, errors.New("limit must be a positive integer"))
			return
		}
		limit = min(n, maxSuggestLimit)
	}

	if h.suggester == nil {
		response.ServiceUnavailable(w, errors.New("card cache is disabled"))
		return
	}

	names, err := h.suggester.SuggestNames(r.Context(), query, limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	response.Success(w, names)
}
