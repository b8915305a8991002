// Package api provides HTTP API handlers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/factchecker/realitycheck/internal/card"
	"github.com/factchecker/realitycheck/internal/dashboard"
	"github.com/factchecker/realitycheck/internal/database"
	"github.com/factchecker/realitycheck/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Version is reported by the health endpoint.
const Version = "2.1.0"

// Handler contains all HTTP handlers.
type Handler struct {
	sessions       *dashboard.Manager
	store          database.Store
	maxUploadBytes int64
}

// NewHandler creates a new handler.
func NewHandler(sessions *dashboard.Manager, store database.Store, maxUploadBytes int64) *Handler {
	return &Handler{
		sessions:       sessions,
		store:          store,
		maxUploadBytes: maxUploadBytes,
	}
}

type sessionResponse struct {
	ID    string          `json:"id"`
	Cards []card.Snapshot `json:"cards"`
}

type cardResponse struct {
	SessionID string        `json:"session_id"`
	Card      card.Snapshot `json:"card"`
}

// HealthCheck returns the service health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"version":   Version,
		"sessions":  h.sessions.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

// ListDetectors returns the dashboard's detector cards.
func (h *Handler) ListDetectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"detectors": dashboard.Catalog(),
	})
}

// CreateSession opens a new dashboard session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: s.ID, Cards: s.Snapshots()})
}

// GetSession returns every card of a session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID, Cards: s.Snapshots()})
}

// DeleteSession closes a session and cancels its pending work.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetNotices returns the session's notices. With drain=true they are removed.
func (h *Handler) GetNotices(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var notices []models.Notice
	if drain, _ := strconv.ParseBool(r.URL.Query().Get("drain")); drain {
		notices = s.DrainNotices()
	} else {
		notices = s.Notices()
	}
	if notices == nil {
		notices = []models.Notice{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notices": notices,
	})
}

// SelectFile accepts a multipart "file" field and starts the card's upload.
func (h *Handler) SelectFile(w http.ResponseWriter, r *http.Request) {
	s, c, ok := h.card(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "A file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read upload")
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	err = c.SelectFile(models.FileInput{
		Name:     header.Filename,
		Size:     header.Size,
		MIMEHint: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		writeCardError(w, c.Kind(), err)
		return
	}

	writeJSON(w, http.StatusAccepted, cardResponse{SessionID: s.ID, Card: c.State()})
}

// SetText replaces the text card's content.
func (h *Handler) SetText(w http.ResponseWriter, r *http.Request) {
	s, c, ok := h.card(w, r)
	if !ok {
		return
	}

	var req models.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := c.SetText(req.Text); err != nil {
		writeCardError(w, c.Kind(), err)
		return
	}

	writeJSON(w, http.StatusOK, cardResponse{SessionID: s.ID, Card: c.State()})
}

// Analyze starts an analysis of the card's input.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	s, c, ok := h.card(w, r)
	if !ok {
		return
	}

	if err := c.Analyze(); err != nil {
		writeCardError(w, c.Kind(), err)
		return
	}

	writeJSON(w, http.StatusAccepted, cardResponse{SessionID: s.ID, Card: c.State()})
}

// ResetCard returns the card to its initial state.
func (h *Handler) ResetCard(w http.ResponseWriter, r *http.Request) {
	s, c, ok := h.card(w, r)
	if !ok {
		return
	}

	c.Reset()
	writeJSON(w, http.StatusOK, cardResponse{SessionID: s.ID, Card: c.State()})
}

// GetAuditLogs returns paginated audit logs.
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	logs, err := h.store.GetAuditLogs(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get audit logs")
		writeError(w, http.StatusInternalServerError, "Failed to get audit logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	s, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}

func (h *Handler) card(w http.ResponseWriter, r *http.Request) (*dashboard.Session, *card.Controller, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return nil, nil, false
	}

	kind, err := models.ParseInputKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	c, ok := s.Card(kind)
	if !ok {
		writeError(w, http.StatusNotFound, "Card not found")
		return nil, nil, false
	}
	return s, c, true
}

// Helper functions
func writeCardError(w http.ResponseWriter, kind models.InputKind, err error) {
	switch {
	case card.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, card.UserMessage(kind, err))
	case errors.Is(err, card.ErrClosed):
		writeError(w, http.StatusGone, "Session closed")
	default:
		log.Error().Err(err).Str("kind", string(kind)).Msg("Card operation failed")
		writeError(w, http.StatusInternalServerError, "Card operation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
