package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
)

const userColumns = `id, subject, name, email, created_at, updated_at`

// EnsureUser inserts placeholder unless its subject exists, then returns the stored row.
func (db *DB) EnsureUser(ctx context.Context, placeholder *model.User) (*model.User, error) {
	now := time.Now().UTC()
	_, err := db.pool.Exec(ctx, `
		INSERT INTO users (id, subject, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subject) DO NOTHING
	`, xid.New().String(), placeholder.Subject, placeholder.Name, placeholder.Email, now, now)
	if err != nil {
		return nil, fmt.Errorf("postgres: ensuring user %s: %w", placeholder.Subject, err)
	}
	return db.GetUserBySubject(ctx, placeholder.Subject)
}

// UpsertUser creates the user or refreshes name and email, keeping the ID.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	row := db.pool.QueryRow(ctx, `
		INSERT INTO users (id, subject, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subject) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			updated_at = EXCLUDED.updated_at
		RETURNING `+userColumns,
		xid.New().String(), user.Subject, user.Name, user.Email, now, now)

	stored, err := scanUser(row)
	if err != nil {
		return fmt.Errorf("postgres: upserting user %s: %w", user.Subject, err)
	}
	*user = *stored
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserBySubject(ctx context.Context, subject string) (*model.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE subject = $1`, subject))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("user", subject)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting user by subject %s: %w", subject, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Subject, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
