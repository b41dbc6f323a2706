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

const taskColumns = `id, user_id, title, description, day_number, is_completed, github_url, created_at, updated_at`

func scanTask(row pgx.Row) (*model.Task, error) {
	t := &model.Task{}
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DayNumber,
		&t.IsCompleted, &t.GitHubURL, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) ListTasksByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY day_number ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing tasks for user %s: %w", userID, err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask locks the owner's user row, so concurrent creates for one user
// run their count-and-insert one after another. Creates for different users
// do not block each other.
func (db *DB) CreateTask(ctx context.Context, task *model.Task, quota int) error {
	now := time.Now().UTC()
	task.ID = xid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now

	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, task.UserID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("user", task.UserID)
		}
		if err != nil {
			return fmt.Errorf("locking user: %w", err)
		}

		var count, sameDay int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*), COUNT(*) FILTER (WHERE day_number = $2)
			FROM tasks WHERE user_id = $1
		`, task.UserID, task.DayNumber).Scan(&count, &sameDay)
		if err != nil {
			return fmt.Errorf("counting tasks: %w", err)
		}
		if count >= quota {
			return apperror.QuotaExceeded(quota)
		}
		if sameDay > 0 {
			return apperror.DuplicateDay(task.DayNumber)
		}

		_, err = tx.Exec(ctx, `INSERT INTO tasks (`+taskColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			task.ID, task.UserID, task.Title, task.Description, task.DayNumber,
			task.IsCompleted, task.GitHubURL, task.CreatedAt, task.UpdatedAt)
		if isUniqueViolation(err) {
			return apperror.DuplicateDay(task.DayNumber)
		}
		return err
	})

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if err != nil {
		return fmt.Errorf("postgres: creating task (user=%s day=%d): %w", task.UserID, task.DayNumber, err)
	}
	return nil
}

func (db *DB) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	t, err := scanTask(db.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting task %s: %w", id, err)
	}
	return t, nil
}

func (db *DB) UpdateTaskCompletion(ctx context.Context, id string, completed bool) (*model.Task, error) {
	t, err := scanTask(db.pool.QueryRow(ctx, `
		UPDATE tasks SET is_completed = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+taskColumns,
		id, completed, time.Now().UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: updating task %s: %w", id, err)
	}
	return t, nil
}

func (db *DB) DeleteTask(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("task", id)
	}
	return nil
}
