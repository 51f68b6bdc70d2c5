package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/api/response"
	"github.com/ramonehamilton/commander-decks/internal/deckimport"
	"github.com/ramonehamilton/commander-decks/internal/importer"
)

// Previewer builds import previews.
type Previewer interface {
	Preview(ctx context.Context, req importer.Request) (*deckimport.ImportPreview, error)
}

// ImportHandler handles deck-list import requests.
type ImportHandler struct {
	service      Previewer
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewImportHandler creates a new ImportHandler. Request bodies larger than
// maxBodyBytes are rejected.
func NewImportHandler(service Previewer, maxBodyBytes int64, logger *zap.Logger) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{service: service, maxBodyBytes: maxBodyBytes, logger: logger}
}

// Preview parses and resolves a deck list from text or a deck URL.
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req importer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.ErrorWithCode(w, http.StatusRequestEntityTooLarge, "INVALID_REQUEST",
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	preview, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, preview)
}

func (h *ImportHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var srcErr *deckimport.SourceError
	switch {
	case errors.Is(err, importer.ErrInvalidRequest):
		response.BadRequest(w, err)
	case errors.As(err, &srcErr):
		response.BadGateway(w, string(srcErr.Code), err)
	case errors.Is(err, context.DeadlineExceeded):
		response.ErrorWithCode(w, http.StatusGatewayTimeout, "TIMEOUT", errors.New("import timed out"))
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		h.logger.Debug("Import canceled", zap.String("path", r.URL.Path))
	default:
		h.logger.Error("Import failed", zap.Error(err))
		response.InternalError(w, errors.New("import failed"))
	}
}
