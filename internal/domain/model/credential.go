package model

import "time"

// Credential is a stored secret with its plaintext metadata. Secret holds the
// ciphertext blob as persisted; Plaintext is populated only for an authorized
// decrypting read and must never be persisted or logged.
type Credential struct {
	ID        string
	Title     string
	Link      string
	Username  string
	Secret    string `json:"-"`
	Plaintext string `json:"-"`
	Notes     string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialSummary is the listing projection of a Credential: metadata plus
// the caller's effective edit right, never the secret.
type CredentialSummary struct {
	ID            string
	Title         string
	Link          string
	Username      string
	Notes         string
	OwnerID       string
	OwnerUsername string
	OwnerFullName string
	CanEdit       bool
	CreatedAt     time.Time
}

// CredentialInput carries the caller-supplied fields for create and update.
// On update an empty Secret means "leave the stored ciphertext untouched".
type CredentialInput struct {
	Title    string
	Link     string
	Username string
	Secret   string `json:"-"`
	Notes    string
}

// ListFilters narrows credential listings. Search matches title, link and
// username with a substring match.
type ListFilters struct {
	Search string
}

// Page is a bounded pagination request. Number is 1-based.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}
