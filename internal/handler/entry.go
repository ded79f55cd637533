// Package handler contains the HTTP layer: decode and validate requests,
// call services, map domain errors to status codes, render pages. No
// business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/thought-journal/internal/auth"
	"github.com/sakif/thought-journal/internal/service"
)

// EntryHandler exposes the journal entry CRUD routes:
//
//	GET    /api/entry        → list the caller's entries
//	POST   /api/entry        → create an entry
//	PUT    /api/entry/{id}   → update text + replace competency set
//	DELETE /api/entry/{id}   → delete an entry
//
// All four sit behind auth.RequireAuth, so the user id is always in the
// request context by the time these run.
type EntryHandler struct {
	entries *service.EntryService
	logger  *slog.Logger
}

func NewEntryHandler(entries *service.EntryService, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, logger: logger}
}

// entryRequest is the body schema for POST and PUT. Decoding enforces the
// shape ({text: string, competencyIDs: number[]}) before anything touches
// the store; a malformed body is a 400, not a surprise downstream.
type entryRequest struct {
	Text          string  `json:"text"`
	CompetencyIDs []int64 `json:"competencyIDs"`
}

// HandleList returns every entry owned by the caller, newest first, each
// with its competency id list.
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	entries, err := h.entries.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// HandleCreate inserts a new entry and echoes it back with the generated
// id and timestamp.
func (h *EntryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	req, ok := h.decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.entries.Create(r.Context(), userID, req.Text, req.CompetencyIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// HandleUpdate overwrites the entry's text and replaces its competency set.
func (h *EntryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeEntryRequest(w, r)
	if !ok {
		return
	}

	if err := h.entries.Update(r.Context(), userID, id, req.Text, req.CompetencyIDs); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Updated"})
}

// HandleDelete removes the entry and its association rows.
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	if err := h.entries.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted"})
}

// decodeEntryRequest parses and validates the request body shape. The
// service validates the values (empty text, unknown ids); this only cares
// that the JSON is well-formed and matches the schema.
func (h *EntryHandler) decodeEntryRequest(w http.ResponseWriter, r *http.Request) (entryRequest, bool) {
	var req entryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("invalid entry body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be {text: string, competencyIDs: number[]}",
		})
		return entryRequest{}, false
	}
	return req, true
}

// entryID parses the {id} path parameter.
func (h *EntryHandler) entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "entry id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}
