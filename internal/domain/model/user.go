package model

import "time"

// User is the host application's account record. The vault core never creates
// or mutates users; it reads them for display joins and grant-target listings.
type User struct {
	ID        string
	Username  string
	FullName  string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}
