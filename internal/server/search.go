package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
)

const (
	msgMissingKey   = "YouTube API key is not configured."
	msgMissingQuery = "Missing search query or video ID"
	msgUpstream     = "Failed to fetch data from YouTube API"
)

// SearchHandler serves GET /api/search for text queries (q) and related lookups (relatedToVideoId).
type SearchHandler struct {
	provider services.Provider
	pageSize int
	logger   *log.Logger
}

// NewSearchHandler creates a search handler. Text queries return at most pageSize results.
func NewSearchHandler(provider services.Provider, pageSize int, logger *log.Logger) *SearchHandler {
	return &SearchHandler{provider: provider, pageSize: pageSize, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SearchHandler) Routes() []string {
	return []string{services.SearchPath}
}

// ServeHTTP answers with {"items": [...]}.
//
// A text query wins when both parameters are present.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !services.IsConfigured(h.provider) {
		writeError(w, http.StatusInternalServerError, msgMissingKey)
		return
	}

	params := r.URL.Query()
	query := strings.TrimSpace(params.Get("q"))
	related := strings.TrimSpace(params.Get("relatedToVideoId"))

	var (
		items []models.Track
		err   error
	)
	switch {
	case query != "":
		items, err = h.provider.Search(r.Context(), query, h.pageSize)
	case related != "":
		var track *models.Track
		track, err = h.provider.Related(r.Context(), related)
		if track != nil {
			items = []models.Track{*track}
		}
	default:
		writeError(w, http.StatusBadRequest, msgMissingQuery)
		return
	}

	if err != nil {
		h.logger.Error("search failed", "query", query, "related", related, "error", err)
		switch {
		case errors.Is(err, shared.ErrMissingCredentials):
			writeError(w, http.StatusInternalServerError, msgMissingKey)
		case errors.Is(err, shared.ErrMissingQuery):
			writeError(w, http.StatusBadRequest, msgMissingQuery)
		default:
			writeError(w, http.StatusBadGateway, msgUpstream)
		}
		return
	}

	if items == nil {
		items = []models.Track{}
	}
	writeJSON(w, http.StatusOK, models.SearchResult{Items: items})
}
