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

const taskColumns = `id, user_id, title, description, day_number, is_completed, github_url, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*model.Task, error) {
	var t model.Task
	err := s.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.DayNumber,
		&t.IsCompleted,
		&t.GitHubURL,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasksByUser returns every task owned by userID, ordered by day number.
// An empty result is an empty slice, never nil, so it encodes as [].
func (db *DB) ListTasksByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY day_number ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks for user %s: %w", userID, err)
	}
	// ALWAYS close rows, or the single connection is never released.
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts task for task.UserID inside one transaction:
//
//  1. count the user's tasks       → apperror.QuotaExceeded if count >= quota
//  2. look for the same day number → apperror.DuplicateDay if present
//  3. insert
//
// Every statement goes through tx. Using db.conn here would wait forever for
// the one connection the transaction already holds.
func (db *DB) CreateTask(ctx context.Context, task *model.Task, quota int) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning create task: %w", err)
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ?`, task.UserID,
	).Scan(&count); err != nil {
		return fmt.Errorf("sqlite: counting tasks for user %s: %w", task.UserID, err)
	}
	if count >= quota {
		return apperror.QuotaExceeded(quota)
	}

	var sameDay int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND day_number = ?`,
		task.UserID, task.DayNumber,
	).Scan(&sameDay); err != nil {
		return fmt.Errorf("sqlite: checking day %d for user %s: %w", task.DayNumber, task.UserID, err)
	}
	if sameDay > 0 {
		return apperror.DuplicateDay(task.DayNumber)
	}

	now := time.Now().UTC()
	task.ID = xid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.DayNumber,
		task.IsCompleted,
		task.GitHubURL,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.DuplicateDay(task.DayNumber)
	}
	if err != nil {
		return fmt.Errorf("sqlite: inserting task (user=%s day=%d): %w", task.UserID, task.DayNumber, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing task: %w", err)
	}
	return nil
}

// GetTaskByID retrieves a single task.
// Returns apperror.ErrNotFound if no task exists with that ID.
func (db *DB) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	t, err := scanTask(db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}
	return t, nil
}

// UpdateTaskCompletion sets is_completed and returns the updated row.
func (db *DB) UpdateTaskCompletion(ctx context.Context, id string, completed bool) (*model.Task, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE tasks SET is_completed = ?, updated_at = ? WHERE id = ?`,
		completed, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating task %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, apperror.NotFound("task", id)
	}

	return db.GetTaskByID(ctx, id)
}

// DeleteTask removes a task by ID.
// Returns apperror.ErrNotFound if nothing was deleted.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("task", id)
	}
	return nil
}
