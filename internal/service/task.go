package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/curriculum"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/progress"
	"github.com/sakif/learning-tracker/internal/repository"
)

// Limits enforced on task creation.
const (
	MaxTasksPerUser      = 7
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxURLLength         = 500
)

// CreateTaskInput carries the fields a client may set when selecting a day.
// Blank Title, Description and GitHubURL are filled from the curriculum.
type CreateTaskInput struct {
	Title       string
	Description string
	DayNumber   int
	IsCompleted bool
	GitHubURL   string
}

// TaskService owns the task-selection rules: at most MaxTasksPerUser tasks
// per user, at most one per curriculum day, and only the owner may change
// or delete a task.
type TaskService struct {
	users      repository.UserRepository
	tasks      repository.TaskRepository
	curriculum *curriculum.Curriculum
	aggregator progress.Aggregator
	logger     *slog.Logger
}

func NewTaskService(
	users repository.UserRepository,
	tasks repository.TaskRepository,
	cur *curriculum.Curriculum,
	agg progress.Aggregator,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		users:      users,
		tasks:      tasks,
		curriculum: cur,
		aggregator: agg,
		logger:     logger,
	}
}

// ListTasks returns the caller's tasks ordered by day number.
func (s *TaskService) ListTasks(ctx context.Context, identity string) ([]model.Task, error) {
	user, err := ensureUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListTasksByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask adds a task for the caller.
//
// CHECK ORDER:
//  1. identity present           → else Unauthenticated
//  2. fewer than 7 tasks         → else QuotaExceeded
//  3. day is in the curriculum   → else Validation
//  4. day not already selected   → else DuplicateDay
//
// A user at capacity gets QuotaExceeded whatever the day number, even an
// invalid one. Steps 2 and 4 run again inside the repository's transaction,
// so two concurrent requests cannot both squeeze in as the 7th task.
func (s *TaskService) CreateTask(ctx context.Context, identity string, in CreateTaskInput) (*model.Task, error) {
	user, err := ensureUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	task, err := s.buildTask(user.ID, in)
	if err != nil {
		full, countErr := s.atQuota(ctx, user.ID)
		if countErr != nil {
			return nil, fmt.Errorf("counting tasks: %w", countErr)
		}
		if full {
			return nil, apperror.QuotaExceeded(MaxTasksPerUser)
		}
		return nil, err
	}

	if err := s.tasks.CreateTask(ctx, task, MaxTasksPerUser); err != nil {
		if isRuleViolation(err) {
			s.logger.Info("task rejected",
				slog.String("userID", user.ID),
				slog.Int("day", task.DayNumber),
				slog.String("reason", err.Error()),
			)
			return nil, err
		}
		s.logger.Error("failed to create task",
			slog.String("userID", user.ID),
			slog.Int("day", task.DayNumber),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("userID", user.ID),
		slog.Int("day", task.DayNumber),
	)
	return task, nil
}

// atQuota reports whether the user already holds MaxTasksPerUser tasks.
// It only decides which error a rejected request sees; the insert itself is
// guarded by the repository transaction.
func (s *TaskService) atQuota(ctx context.Context, userID string) (bool, error) {
	tasks, err := s.tasks.ListTasksByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(tasks) >= MaxTasksPerUser, nil
}

// buildTask validates in and fills curriculum defaults.
func (s *TaskService) buildTask(userID string, in CreateTaskInput) (*model.Task, error) {
	entry, ok := s.curriculum.Lookup(in.DayNumber)
	if !ok {
		return nil, apperror.ValidationFailed("dayNumber",
			fmt.Sprintf("dayNumber must be between 1 and %d", curriculum.MaxDay))
	}

	task := &model.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DayNumber:   in.DayNumber,
		IsCompleted: in.IsCompleted,
		GitHubURL:   strings.TrimSpace(in.GitHubURL),
	}
	if task.Title == "" {
		task.Title = entry.Title
	}
	if task.Description == "" {
		task.Description = entry.Description
	}
	if task.GitHubURL == "" {
		task.GitHubURL = entry.GitHubURL
	}

	switch {
	case len(task.Title) > MaxTitleLength:
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	case len(task.Description) > MaxDescriptionLength:
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	case len(task.GitHubURL) > MaxURLLength:
		return nil, apperror.ValidationFailed("githubUrl",
			fmt.Sprintf("githubUrl must be %d characters or less", MaxURLLength))
	}
	return task, nil
}

// SetCompletion marks a task done or not done.
func (s *TaskService) SetCompletion(ctx context.Context, identity, taskID string, completed bool) (*model.Task, error) {
	task, err := s.ownedTask(ctx, identity, taskID)
	if err != nil {
		return nil, err
	}
	return s.updateCompletion(ctx, task, completed)
}

// ToggleCompletion flips the completion flag. Two toggles restore the task.
func (s *TaskService) ToggleCompletion(ctx context.Context, identity, taskID string) (*model.Task, error) {
	task, err := s.ownedTask(ctx, identity, taskID)
	if err != nil {
		return nil, err
	}
	return s.updateCompletion(ctx, task, !task.IsCompleted)
}

func (s *TaskService) updateCompletion(ctx context.Context, task *model.Task, completed bool) (*model.Task, error) {
	updated, err := s.tasks.UpdateTaskCompletion(ctx, task.ID, completed)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update task",
			slog.String("id", task.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated",
		slog.String("id", updated.ID),
		slog.Bool("completed", updated.IsCompleted),
	)
	return updated, nil
}

// DeleteTask removes one of the caller's tasks, freeing its day and a quota slot.
func (s *TaskService) DeleteTask(ctx context.Context, identity, taskID string) error {
	task, err := s.ownedTask(ctx, identity, taskID)
	if err != nil {
		return err
	}

	if err := s.tasks.DeleteTask(ctx, task.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete task",
			slog.String("id", task.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Info("task deleted", slog.String("id", task.ID), slog.Int("day", task.DayNumber))
	return nil
}

// Progress lists the caller's tasks and summarises them.
func (s *TaskService) Progress(ctx context.Context, identity string) (progress.Summary, error) {
	tasks, err := s.ListTasks(ctx, identity)
	if err != nil {
		return progress.Summary{}, err
	}
	return s.aggregator.Summarize(tasks), nil
}

// Curriculum exposes the entries the caller can choose from.
func (s *TaskService) Curriculum() []curriculum.Entry {
	return s.curriculum.All()
}

// Summarize aggregates tasks with the service's tables, so every view of
// progress agrees with Progress.
func (s *TaskService) Summarize(tasks []model.Task) progress.Summary {
	return s.aggregator.Summarize(tasks)
}

// ownedTask loads taskID and checks it belongs to identity's user.
func (s *TaskService) ownedTask(ctx context.Context, identity, taskID string) (*model.Task, error) {
	user, err := ensureUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}

	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != user.ID {
		s.logger.Warn("task access denied",
			slog.String("taskID", taskID),
			slog.String("userID", user.ID),
		)
		return nil, apperror.Forbidden("you do not have permission to modify this task")
	}
	return task, nil
}

func isRuleViolation(err error) bool {
	return errors.Is(err, apperror.ErrQuotaExceeded) ||
		errors.Is(err, apperror.ErrDuplicateDay) ||
		errors.Is(err, apperror.ErrValidation)
}
