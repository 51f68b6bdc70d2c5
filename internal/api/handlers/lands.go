package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ramonehamilton/commander-decks/internal/api/response"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// maxLandTotal bounds the land count a client may request.
const maxLandTotal = 1000

// DeriveLandsRequest is the body of a land derivation request.
type DeriveLandsRequest struct {
	Colors []string `json:"colors"`
	Total  int      `json:"total"`
}

// LandHandler handles basic land suggestions.
type LandHandler struct{}

// NewLandHandler creates a new LandHandler.
func NewLandHandler() *LandHandler {
	return &LandHandler{}
}

// Derive splits a land count across a color identity.
func (h *LandHandler) Derive(w http.ResponseWriter, r *http.Request) {
	var req DeriveLandsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	if req.Total < 0 || req.Total > maxLandTotal {
		response.BadRequest(w, errors.New("total must be between 0 and 1000"))
		return
	}

	response.Success(w, deckimport.DeriveLands(deckimport.ParseColors(req.Colors...), req.Total))
}
