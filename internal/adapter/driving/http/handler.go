// Package httphandler is the HTTP driving adapter exposing the vault as a
// JSON REST API. The caller's identity arrives as an opaque user id in the
// X-User-ID header, set by the host's authentication layer; this adapter
// performs no authentication of its own.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ericfisherdev/teamvault/internal/application"
	"github.com/ericfisherdev/teamvault/internal/domain/model"
	"github.com/ericfisherdev/teamvault/internal/domain/port/driven"
)

// userIDHeader carries the authenticated caller's opaque user id.
const userIDHeader = "X-User-ID"

// Handler is the HTTP driving adapter that serves the vault REST API.
type Handler struct {
	vault  *application.VaultService
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(vault *application.VaultService, logger *slog.Logger) *Handler {
	return &Handler{vault: vault, logger: logger}
}

// NewRouter creates a chi router with all routes registered and wrapped with
// request-id, real-ip, logging, and panic-recovery middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(recoveryMiddleware(logger))

	r.Get("/api/v1/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/users", h.ListUsers)

		r.Route("/credentials", func(r chi.Router) {
			r.Get("/", h.ListCredentials)
			r.Post("/", h.CreateCredential)
			r.Get("/{id}", h.GetCredential)
			r.Put("/{id}", h.UpdateCredential)
			r.Delete("/{id}", h.DeleteCredential)
			r.Get("/{id}/secret", h.RevealSecret)
			r.Get("/{id}/permissions", h.ListPermissions)
			r.Put("/{id}/permissions", h.GrantPermission)
			r.Delete("/{id}/permissions/{userID}", h.RevokePermission)
		})
	})

	return r
}

// requireUser rejects requests without an X-User-ID header. Identity is
// established upstream; an empty header means the request never passed the
// host's authentication layer.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(userIDHeader) == "" {
			writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerID returns the opaque user id of the authenticated caller.
func callerID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}

// auditFrom builds the explicit audit context for a mutating request.
func auditFrom(r *http.Request) model.AuditContext {
	return model.AuditContext{
		ActorID:    callerID(r),
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	}
}

// serviceError maps service-layer errors onto HTTP status codes. Unknown
// errors are logged and reported as an opaque 500.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, application.ErrNotFound):
		writeError(w, http.StatusNotFound, "credential not found")
	case errors.Is(err, application.ErrDecryptionFailure):
		h.logger.Error("decryption failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "stored secret could not be decrypted")
	case errors.Is(err, driven.ErrKeyUnavailable):
		h.logger.Error("master key unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "vault temporarily unavailable")
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListCredentials returns a page of credential summaries visible to the caller.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	filters := model.ListFilters{Search: r.URL.Query().Get("search")}
	page := application.NormalizePage(pageFrom(r))

	summaries, err := h.vault.List(r.Context(), userID, filters, page)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	total, err := h.vault.Count(r.Context(), userID, filters)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	items := make([]CredentialSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, toSummaryResponse(s))
	}

	writeJSON(w, http.StatusOK, CredentialListResponse{
		Items:   items,
		Total:   total,
		Page:    page.Number,
		PerPage: page.PerPage,
	})
}

// CreateCredential creates a credential owned by the caller.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred, err := h.vault.Create(r.Context(), callerID(r), credentialInput(req), auditFrom(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCredentialResponse(cred))
}

// GetCredential returns a single credential. A missing credential and a
// denied view both produce 404. With ?decrypt=1 the response carries the
// decrypted secret.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	decrypt := r.URL.Query().Get("decrypt") == "1"

	cred, err := h.vault.Get(r.Context(), chi.URLParam(r, "id"), callerID(r), decrypt)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if cred == nil {
		writeError(w, http.StatusNotFound, "credential not found")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*cred))
}

// RevealSecret returns only the decrypted secret of a credential.
func (h *Handler) RevealSecret(w http.ResponseWriter, r *http.Request) {
	cred, err := h.vault.Get(r.Context(), chi.URLParam(r, "id"), callerID(r), true)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if cred == nil {
		writeError(w, http.StatusNotFound, "credential not found")
		return
	}

	writeJSON(w, http.StatusOK, SecretResponse{Secret: cred.Plaintext})
}

// UpdateCredential replaces a credential's metadata and optionally its secret.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.vault.Update(r.Context(), chi.URLParam(r, "id"), callerID(r), credentialInput(req), auditFrom(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredential deletes a credential. Owner-only.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	err := h.vault.Delete(r.Context(), chi.URLParam(r, "id"), callerID(r), auditFrom(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPermissions returns a credential's grant rows. Owner-only.
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	grants, err := h.vault.ListPermissions(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	resp := make([]GrantResponse, 0, len(grants))
	for _, g := range grants {
		resp = append(resp, toGrantResponse(g))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GrantPermission upserts a grant row for a target user. Owner-only.
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	err := h.vault.GrantAccess(r.Context(), chi.URLParam(r, "id"), callerID(r), req.UserID, req.CanView, req.CanEdit, auditFrom(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RevokePermission deletes a grant row for a target user. Owner-only;
// revoking a missing grant still returns 204.
func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	err := h.vault.RevokeAccess(r.Context(), chi.URLParam(r, "id"), callerID(r), chi.URLParam(r, "userID"), auditFrom(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUsers returns the active users the caller may grant access to.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.vault.GrantableUsers(r.Context(), callerID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, resp)
}

// credentialInput converts a request body to the service input type.
func credentialInput(req CredentialRequest) model.CredentialInput {
	return model.CredentialInput{
		Title:    req.Title,
		Link:     req.Link,
		Username: req.Username,
		Secret:   req.Secret,
		Notes:    req.Notes,
	}
}

// pageFrom parses pagination query parameters with service-side clamping.
func pageFrom(r *http.Request) model.Page {
	var page model.Page
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Number = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		page.PerPage = n
	}
	return page
}
