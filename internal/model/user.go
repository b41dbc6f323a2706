// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"time"
)

// User is the local record for a signed-in person.
//
// Subject is the identity provider's stable id for the person, e.g. "github:1234567".
// It is UNIQUE in the database: one external identity maps to exactly one row.
// We still generate our own internal string ID (xid) so task rows never depend on
// a third party's numbering scheme.
//
// Users are created lazily the first time an authenticated request arrives.
// When nothing but the subject is known, PlaceholderUser fills in the profile.
type User struct {
	ID        string    `json:"id"        db:"id"`
	Subject   string    `json:"subject"   db:"subject"`
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"` // may be a placeholder address
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PlaceholderUser builds the profile used when a user is created from a bare
// identity, before any real profile data is known.
func PlaceholderUser(subject string) *User {
	return &User{
		Subject: subject,
		Name:    "User",
		Email:   fmt.Sprintf("user-%s@example.com", subject),
	}
}
