// Package repository declares the persistence contracts the services depend on.
//
// Two implementations live in subpackages: sqlite (default, embedded) and
// postgres. Services only ever see these interfaces, which is what lets the
// service tests run against hand-written fakes.
package repository

import (
	"context"

	"github.com/sakif/learning-tracker/internal/model"
)

type UserRepository interface {
	// EnsureUser returns the user for subject, inserting the placeholder
	// profile first when none exists. Safe to call concurrently.
	EnsureUser(ctx context.Context, placeholder *model.User) (*model.User, error)
	// UpsertUser creates the user or refreshes name and email from a login.
	UpsertUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserBySubject(ctx context.Context, subject string) (*model.User, error)
}

type TaskRepository interface {
	// ListTasksByUser returns the user's tasks ordered by day number.
	ListTasksByUser(ctx context.Context, userID string) ([]model.Task, error)
	// CreateTask inserts task atomically: it fails with apperror.ErrQuotaExceeded
	// when the user already has quota tasks, and with apperror.ErrDuplicateDay
	// when the day is taken. The quota check wins when both apply.
	CreateTask(ctx context.Context, task *model.Task, quota int) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	UpdateTaskCompletion(ctx context.Context, id string, completed bool) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Store is everything a backing database provides.
type Store interface {
	UserRepository
	TaskRepository
	Close() error
}
