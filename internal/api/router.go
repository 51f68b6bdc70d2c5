package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/commander-decks/internal/api/handlers"
	"github.com/ramonehamilton/commander-decks/internal/api/response"
	"github.com/ramonehamilton/commander-decks/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		importHandler := handlers.NewImportHandler(s.importer, s.config.MaxBodyBytes, s.logger)
		r.Route("/imports", func(r chi.Router) {
			r.Post("/preview", importHandler.Preview)
		})

		landHandler := handlers.NewLandHandler()
		r.Route("/lands", func(r chi.Router) {
			r.Post("/derive", landHandler.Derive)
		})

		cardHandler := handlers.NewCardHandler(s.suggester)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/suggest", cardHandler.Suggest)
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "commander-decks",
		"version": version.GetVersion(),
	})
}
