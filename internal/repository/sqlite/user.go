package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
)

const userColumns = `id, subject, name, email, created_at, updated_at`

// EnsureUser returns the user row for placeholder.Subject, inserting
// placeholder first if the subject is new.
//
// INSERT ... ON CONFLICT DO NOTHING:
// Two requests for a brand-new user can race. Both INSERTs are attempted; the
// UNIQUE(subject) constraint lets exactly one win and the other becomes a
// no-op. The SELECT afterwards returns the same row to both callers.
func (db *DB) EnsureUser(ctx context.Context, placeholder *model.User) (*model.User, error) {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, subject, name, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(subject) DO NOTHING`,
		xid.New().String(),
		placeholder.Subject,
		placeholder.Name,
		placeholder.Email,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ensuring user %s: %w", placeholder.Subject, err)
	}
	return db.GetUserBySubject(ctx, placeholder.Subject)
}

// UpsertUser creates the user or, when the subject already exists, refreshes
// its name and email. The internal ID of an existing user never changes.
// On return user carries the stored ID and timestamps.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, subject, name, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(subject) DO UPDATE SET
		     name = excluded.name,
		     email = excluded.email,
		     updated_at = excluded.updated_at`,
		xid.New().String(),
		user.Subject,
		user.Name,
		user.Email,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user %s: %w", user.Subject, err)
	}

	stored, err := db.GetUserBySubject(ctx, user.Subject)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserBySubject retrieves a user by identity-provider subject.
func (db *DB) GetUserBySubject(ctx context.Context, subject string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE subject = ?`, subject)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", subject)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by subject %s: %w", subject, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Subject, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
