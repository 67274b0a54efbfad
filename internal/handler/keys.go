package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notevault/notevault/internal/model"
	"github.com/notevault/notevault/internal/server/middleware"
	"github.com/notevault/notevault/internal/service"
	"github.com/notevault/notevault/internal/store"
)

// KeysHandler serves key issuance and key administration.
type KeysHandler struct {
	store   *store.Store
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewKeysHandler creates a KeysHandler.
func NewKeysHandler(st *store.Store, authSvc *service.AuthService, logger *slog.Logger) *KeysHandler {
	return &KeysHandler{store: st, authSvc: authSvc, logger: logger}
}

// issueKeyRequest is the expected payload for Issue.
type issueKeyRequest struct {
	Name  string   `json:"name"`
	Scope []string `json:"scope"`
	Email string   `json:"email"`
}

// Issue generates a new API key and returns the plaintext credential exactly
// once. With an email, a fresh account is created to own the key. Without
// one, the request must itself carry a valid Api-Key header, and the new key
// is added to the caller's account.
// POST /api_key/new
func (h *KeysHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := service.IssueKeyParams{
		Name:  req.Name,
		Scope: req.Scope,
		Email: req.Email,
	}

	// The issuance route sits outside the auth middleware (it is how a
	// caller obtains its first key), so an existing credential is resolved
	// here when the caller wants a second key on the same account.
	if req.Email == "" {
		if credential := r.Header.Get(middleware.HeaderAPIKey); credential != "" {
			principal, err := h.authSvc.ValidateCredential(r.Context(), credential)
			if err != nil {
				if errors.Is(err, service.ErrInvalidCredentials) {
					writeError(w, http.StatusUnauthorized, "invalid api key")
					return
				}
				h.logger.Error("verify api key", "error", err)
				writeError(w, http.StatusInternalServerError, "unable to verify api key")
				return
			}

			// A key can only mint siblings within its own grants. Without
			// this check a read-only credential could issue itself a
			// write-scoped twin and bypass scope enforcement entirely.
			for _, s := range req.Scope {
				if !model.HasScope(principal.Scope, s) {
					writeError(w, http.StatusForbidden, "requested scope exceeds the presenting key's scope")
					return
				}
			}
			params.AccountID = principal.AccountID
		}
	}

	issued, err := h.authSvc.IssueKey(r.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("issue api key", "error", err)
		writeError(w, http.StatusInternalServerError, "error creating api key")
		return
	}

	writeJSON(w, http.StatusOK, model.IssuedKeyResponse{
		ID:     issued.Key.ID,
		Name:   issued.Key.Name,
		Scope:  issued.Key.Scope,
		Key:    issued.Plaintext,
		Prefix: issued.Key.Prefix,
	})
}

// List returns the caller's keys without the hash or plaintext.
// GET /api_key
func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	keys, err := h.store.ListAPIKeys(r.Context(), principal.AccountID)
	if err != nil {
		h.logger.Error("list api keys", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "error getting api keys")
		return
	}

	summaries := make([]model.KeySummary, 0, len(keys))
	for i := range keys {
		summaries = append(summaries, keys[i].Summary())
	}

	writeJSON(w, http.StatusOK, model.KeysResponse{Data: summaries})
}

// DeleteAll removes every key owned by the caller. Credentials presented
// afterwards no longer resolve.
// DELETE /api_key
func (h *KeysHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	if err := h.store.DeleteAPIKeys(r.Context(), principal.AccountID); err != nil {
		h.logger.Error("delete api keys", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "unable to delete api keys")
		return
	}

	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "ok"})
}

// updateKeyRequest is the expected payload for Update. Nil fields keep their
// stored values.
type updateKeyRequest struct {
	Name  *string  `json:"name,omitempty"`
	Scope []string `json:"scope,omitempty"`
}

// Update changes the name and/or scope of one key, owner-checked. The hash
// and prefix are immutable; rotating a secret means issuing a new key.
// PATCH /api_key/{keyId}
func (h *KeysHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	keyID := chi.URLParam(r, "keyId")

	var req updateKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == nil && req.Scope == nil {
		writeError(w, http.StatusBadRequest, "no value present to update")
		return
	}

	key, err := h.store.GetAPIKey(r.Context(), principal.AccountID, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "api key not found")
			return
		}
		h.logger.Error("get api key", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "error fetching api key")
		return
	}

	if req.Name != nil {
		key.Name = *req.Name
	}
	if req.Scope != nil {
		key.Scope = req.Scope
	}

	if err := h.store.UpdateAPIKey(r.Context(), key); err != nil {
		h.logger.Error("update api key", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "error updating api key")
		return
	}

	writeJSON(w, http.StatusOK, key.Summary())
}

// Delete removes a single key, owner-checked and idempotent.
// DELETE /api_key/{keyId}
func (h *KeysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	keyID := chi.URLParam(r, "keyId")

	if err := h.store.DeleteAPIKey(r.Context(), principal.AccountID, keyID); err != nil {
		h.logger.Error("delete api key", "error", err, "account", principal.AccountID)
		writeError(w, http.StatusInternalServerError, "unable to delete api key")
		return
	}

	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "ok"})
}
