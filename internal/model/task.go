// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Task is one curriculum day a user has picked to work on.
//
// The `json:"..."` tags define the wire shape the browser sees:
//
//	{"id":"cv37rs3pp9olc6atsptg","title":"Node.js Intro","dayNumber":4,"isCompleted":false,...}
//
// UserID is tagged `json:"-"` so it never leaves the server. The owner is always
// the caller, so echoing it back adds nothing.
type Task struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"-"           db:"user_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	DayNumber   int       `json:"dayNumber"   db:"day_number"` // 1-21, unique per user
	IsCompleted bool      `json:"isCompleted" db:"is_completed"`
	GitHubURL   string    `json:"githubUrl"   db:"github_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
