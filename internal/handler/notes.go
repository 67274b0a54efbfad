package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notevault/notevault/internal/model"
	"github.com/notevault/notevault/internal/server/middleware"
	"github.com/notevault/notevault/internal/store"
)

// NotesHandler serves the note CRUD endpoints. Every query is constrained by
// the authenticated account, so one account can never observe or mutate
// another's notes.
type NotesHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewNotesHandler creates a NotesHandler.
func NewNotesHandler(st *store.Store, logger *slog.Logger) *NotesHandler {
	return &NotesHandler{store: st, logger: logger}
}

// List returns all notes owned by the caller.
// GET /notes
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	notes, err := h.store.ListNotes(r.Context(), principal.AccountID)
	if err != nil {
		h.logger.Error("list notes", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "error getting notes")
		return
	}

	writeJSON(w, http.StatusOK, model.NotesResponse{Notes: notes})
}

// createNoteRequest is the expected payload for Create.
type createNoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create stores a new note. The server assigns the ID and creation time.
// POST /notes
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	var req createNoteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.store.CreateNote(r.Context(), principal.AccountID, req.Title, req.Description)
	if err != nil {
		h.logger.Error("create note", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "error creating note")
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// Get returns one note by ID.
// GET /notes/{noteId}
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	noteID := chi.URLParam(r, "noteId")

	note, err := h.store.GetNote(r.Context(), principal.AccountID, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		h.logger.Error("get note", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "error fetching note")
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// Update applies a partial update. At least one of title and description must
// be present; absent fields keep their stored values.
// PATCH /notes/{noteId}
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	noteID := chi.URLParam(r, "noteId")

	var patch model.NotePatch
	if err := readJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "no value present to update")
		return
	}

	note, err := h.store.UpdateNote(r.Context(), principal.AccountID, noteID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		h.logger.Error("update note", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "error updating note")
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// Delete removes a note. Deleting an ID that doesn't exist still succeeds.
// DELETE /notes/{noteId}
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	noteID := chi.URLParam(r, "noteId")

	if err := h.store.DeleteNote(r.Context(), principal.AccountID, noteID); err != nil {
		h.logger.Error("delete note", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "error deleting note")
		return
	}

	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "ok"})
}
