package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/auth"
	"github.com/sakif/learning-tracker/internal/curriculum"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/progress"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore implements repository.UserRepository and repository.TaskRepository
// in memory, with the same quota and duplicate-day rules the SQL stores
// enforce. failWith makes every call return that error, for testing how
// services treat database failures.

type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*model.User // by subject
	tasks    map[string]*model.Task // by id
	nextID   int
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*model.User),
		tasks: make(map[string]*model.Task),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) EnsureUser(_ context.Context, placeholder *model.User) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if u, ok := f.users[placeholder.Subject]; ok {
		cp := *u
		return &cp, nil
	}
	u := *placeholder
	u.ID = f.id("user")
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	f.users[u.Subject] = &u
	cp := u
	return &cp, nil
}

func (f *fakeStore) UpsertUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if existing, ok := f.users[user.Subject]; ok {
		existing.Name, existing.Email = user.Name, user.Email
		*user = *existing
		return nil
	}
	user.ID = f.id("user")
	stored := *user
	f.users[user.Subject] = &stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeStore) GetUserBySubject(_ context.Context, subject string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[subject]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperror.NotFound("user", subject)
}

func (f *fakeStore) ListTasksByUser(_ context.Context, userID string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Task{}
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out, nil
}

func (f *fakeStore) CreateTask(_ context.Context, task *model.Task, quota int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	count, sameDay := 0, false
	for _, t := range f.tasks {
		if t.UserID == task.UserID {
			count++
			sameDay = sameDay || t.DayNumber == task.DayNumber
		}
	}
	if count >= quota {
		return apperror.QuotaExceeded(quota)
	}
	if sameDay {
		return apperror.DuplicateDay(task.DayNumber)
	}
	task.ID = f.id("task")
	stored := *task
	f.tasks[task.ID] = &stored
	return nil
}

func (f *fakeStore) GetTaskByID(_ context.Context, id string) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperror.NotFound("task", id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) UpdateTaskCompletion(_ context.Context, id string, completed bool) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperror.NotFound("task", id)
	}
	t.IsCompleted = completed
	cp := *t
	return &cp, nil
}

func (f *fakeStore) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.tasks[id]; !ok {
		return apperror.NotFound("task", id)
	}
	delete(f.tasks, id)
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

const testRepoURL = "https://github.com/example/curriculum/tree/main"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTaskService(t *testing.T) (*TaskService, *fakeStore) {
	t.Helper()
	cur, err := curriculum.Default(testRepoURL)
	if err != nil {
		t.Fatalf("curriculum.Default: %v", err)
	}
	store := newFakeStore()
	return NewTaskService(store, store, cur, progress.Default(), testLogger()), store
}

func newTestUserService(t *testing.T) (*UserService, *fakeStore, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("service-test-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	store := newFakeStore()
	return NewUserService(store, tokens, testLogger()), store, tokens
}
