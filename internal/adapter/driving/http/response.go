package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CredentialResponse is the JSON representation of a single credential.
// Secret carries the decrypted value and is present only on authorized
// decrypting reads; ciphertext never leaves the API.
type CredentialResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Username  string `json:"username"`
	Notes     string `json:"notes"`
	OwnerID   string `json:"owner_id"`
	Secret    string `json:"secret,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CredentialSummaryResponse is the JSON listing representation: metadata plus
// the caller's effective edit right, never a secret.
type CredentialSummaryResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Link          string `json:"link"`
	Username      string `json:"username"`
	Notes         string `json:"notes"`
	OwnerID       string `json:"owner_id"`
	OwnerUsername string `json:"owner_username"`
	OwnerFullName string `json:"owner_full_name"`
	CanEdit       bool   `json:"can_edit"`
	CreatedAt     string `json:"created_at"`
}

// CredentialListResponse wraps a listing page with pagination totals.
type CredentialListResponse struct {
	Items   []CredentialSummaryResponse `json:"items"`
	Total   int                         `json:"total"`
	Page    int                         `json:"page"`
	PerPage int                         `json:"per_page"`
}

// SecretResponse is the JSON body of the secret reveal endpoint.
type SecretResponse struct {
	Secret string `json:"secret"`
}

// GrantResponse is the JSON representation of a grant row with user display data.
type GrantResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	CanView   bool   `json:"can_view"`
	CanEdit   bool   `json:"can_edit"`
	CreatedAt string `json:"created_at"`
}

// UserResponse is the JSON representation of a grantable user.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// CredentialRequest is the JSON body for create and update. On update an
// empty secret keeps the stored one.
type CredentialRequest struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Username string `json:"username"`
	Secret   string `json:"secret"`
	Notes    string `json:"notes"`
}

// GrantRequest is the JSON body for the grant endpoint.
type GrantRequest struct {
	UserID  string `json:"user_id"`
	CanView bool   `json:"can_view"`
	CanEdit bool   `json:"can_edit"`
}

// toCredentialResponse converts a domain Credential to its JSON representation.
func toCredentialResponse(cred model.Credential) CredentialResponse {
	return CredentialResponse{
		ID:        cred.ID,
		Title:     cred.Title,
		Link:      cred.Link,
		Username:  cred.Username,
		Notes:     cred.Notes,
		OwnerID:   cred.OwnerID,
		Secret:    cred.Plaintext,
		CreatedAt: cred.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: cred.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toSummaryResponse converts a domain CredentialSummary to its JSON representation.
func toSummaryResponse(s model.CredentialSummary) CredentialSummaryResponse {
	return CredentialSummaryResponse{
		ID:            s.ID,
		Title:         s.Title,
		Link:          s.Link,
		Username:      s.Username,
		Notes:         s.Notes,
		OwnerID:       s.OwnerID,
		OwnerUsername: s.OwnerUsername,
		OwnerFullName: s.OwnerFullName,
		CanEdit:       s.CanEdit,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toGrantResponse converts a domain Grant to its JSON representation.
func toGrantResponse(g model.Grant) GrantResponse {
	return GrantResponse{
		UserID:    g.UserID,
		Username:  g.Username,
		FullName:  g.FullName,
		CanView:   g.CanView,
		CanEdit:   g.CanEdit,
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toUserResponse converts a domain User to its JSON representation.
func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
	}
}
