package model

import "time"

// Grant records delegated rights on a credential for one non-owner user.
// CanView and CanEdit are independent flags; CanEdit does not imply CanView.
// The owner never has a Grant row, their rights are implicit.
type Grant struct {
	CredentialID string
	UserID       string
	CanView      bool
	CanEdit      bool
	CreatedAt    time.Time

	// Display fields joined from users for permission listings.
	Username string
	FullName string
}
