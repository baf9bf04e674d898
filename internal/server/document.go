package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/repositories"
	"github.com/desertthunder/zenithx/internal/services"
)

// DocumentHandler serves /api/document, the signed-in user's persisted queue and liked songs.
//
// It expects [RequireAuth] in front of it and answers 401 when the request carries no claims.
type DocumentHandler struct {
	store  repositories.DocumentStore
	logger *log.Logger
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(store repositories.DocumentStore, logger *log.Logger) *DocumentHandler {
	return &DocumentHandler{store: store, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *DocumentHandler) Routes() []string {
	return []string{services.DocumentPath}
}

// ServeHTTP dispatches on the method: GET reads the whole document and POST merge-writes one field.
func (h *DocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, claims.UserID())
	case http.MethodPost:
		h.save(w, r, claims.UserID())
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *DocumentHandler) get(w http.ResponseWriter, r *http.Request, userID string) {
	doc, err := h.store.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load document", "user", userID, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc.Normalize())
}

func (h *DocumentHandler) save(w http.ResponseWriter, r *http.Request, userID string) {
	var req models.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	field, err := models.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	if err := h.store.SaveField(r.Context(), userID, field, req.Tracks()); err != nil {
		h.logger.Error("failed to save document", "user", userID, "field", field, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	h.logger.Debug("document saved", "user", userID, "field", field, "tracks", len(req.Payload))
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: field.Label() + " saved"})
}
