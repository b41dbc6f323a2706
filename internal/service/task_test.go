package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/curriculum"
	"github.com/sakif/learning-tracker/internal/progress"
)

const alice = "github:1"

func mustCreate(t *testing.T, svc *TaskService, identity string, day int) string {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), identity, CreateTaskInput{DayNumber: day})
	if err != nil {
		t.Fatalf("CreateTask(day=%d) error = %v", day, err)
	}
	return task.ID
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreateTask_FillsFromCurriculum(t *testing.T) {
	svc, _ := newTestTaskService(t)

	task, err := svc.CreateTask(context.Background(), alice, CreateTaskInput{DayNumber: 4})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.ID == "" {
		t.Error("expected task to have an ID")
	}
	if task.Title != "Node.js Intro" {
		t.Errorf("Title = %q, want Node.js Intro", task.Title)
	}
	if task.GitHubURL != testRepoURL+"/Day-04" {
		t.Errorf("GitHubURL = %q", task.GitHubURL)
	}
	if task.IsCompleted {
		t.Error("new task should not be completed")
	}
}

func TestCreateTask_KeepsClientFields(t *testing.T) {
	svc, _ := newTestTaskService(t)

	task, err := svc.CreateTask(context.Background(), alice, CreateTaskInput{
		Title:       "  My own title  ",
		Description: "notes",
		DayNumber:   2,
		IsCompleted: true,
		GitHubURL:   "https://github.com/me/repo",
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.Title != "My own title" || task.Description != "notes" || !task.IsCompleted {
		t.Errorf("client fields not kept: %+v", task)
	}
	if task.GitHubURL != "https://github.com/me/repo" {
		t.Errorf("GitHubURL = %q", task.GitHubURL)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	tests := []struct {
		name      string
		identity  string
		in        CreateTaskInput
		wantErr   error
		wantField string
	}{
		{"no identity", "", CreateTaskInput{DayNumber: 1}, apperror.ErrUnauthenticated, ""},
		{"blank identity", "   ", CreateTaskInput{DayNumber: 1}, apperror.ErrUnauthenticated, ""},
		{"day zero", alice, CreateTaskInput{DayNumber: 0}, apperror.ErrValidation, "dayNumber"},
		{"day 22", alice, CreateTaskInput{DayNumber: 22}, apperror.ErrValidation, "dayNumber"},
		{"title too long", alice, CreateTaskInput{DayNumber: 1, Title: strings.Repeat("a", MaxTitleLength+1)}, apperror.ErrValidation, "title"},
		{"description too long", alice, CreateTaskInput{DayNumber: 1, Description: strings.Repeat("a", MaxDescriptionLength+1)}, apperror.ErrValidation, "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestTaskService(t)
			_, err := svc.CreateTask(context.Background(), tt.identity, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantField == "" {
				return
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("error %v is not an AppError", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
}

func TestCreateTask_EighthTaskExceedsQuota(t *testing.T) {
	svc, _ := newTestTaskService(t)
	for _, day := range []int{1, 3, 5, 7, 9, 11, 13} {
		mustCreate(t, svc, alice, day)
	}

	_, err := svc.CreateTask(context.Background(), alice, CreateTaskInput{DayNumber: 2})
	if !errors.Is(err, apperror.ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}
	if err.Error() != "Maximum 7 tasks allowed" {
		t.Errorf("message = %q", err.Error())
	}

	// Regardless of day number, including an already-selected one.
	_, err = svc.CreateTask(context.Background(), alice, CreateTaskInput{DayNumber: 1})
	if !errors.Is(err, apperror.ErrQuotaExceeded) {
		t.Errorf("duplicate at quota: error = %v, want ErrQuotaExceeded", err)
	}
}

func TestCreateTask_AtQuotaInvalidDayIsQuota(t *testing.T) {
	svc, _ := newTestTaskService(t)
	for _, day := range []int{1, 3, 5, 7, 9, 11, 13} {
		mustCreate(t, svc, alice, day)
	}

	for _, day := range []int{0, 22, -1} {
		_, err := svc.CreateTask(context.Background(), alice, CreateTaskInput{DayNumber: day})
		if !errors.Is(err, apperror.ErrQuotaExceeded) {
			t.Errorf("day %d at quota: error = %v, want ErrQuotaExceeded", day, err)
		}
	}
}

func TestCreateTask_DuplicateDay(t *testing.T) {
	svc, _ := newTestTaskService(t)
	mustCreate(t, svc, alice, 4)

	_, err := svc.CreateTask(context.Background(), alice, CreateTaskInput{DayNumber: 4})
	if !errors.Is(err, apperror.ErrDuplicateDay) {
		t.Fatalf("error = %v, want ErrDuplicateDay", err)
	}
	if err.Error() != "Task for this day already exists" {
		t.Errorf("message = %q", err.Error())
	}

	// Quotas and days are per user.
	mustCreate(t, svc, "github:2", 4)
}

func TestCreateTask_StoreFailureIsWrapped(t *testing.T) {
	svc, store := newTestTaskService(t)
	mustCreate(t, svc, alice, 1) // user exists before the store breaks

	store.failWith = errors.New("disk on fire")
	_, err := svc.CreateTask(context.Background(), alice, CreateTaskInput{DayNumber: 2})
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		t.Errorf("store failure surfaced as AppError %v", appErr)
	}
}

// =========================================================================
// LIST / PROGRESS
// =========================================================================

func TestListTasks_NewUserIsEmpty(t *testing.T) {
	svc, store := newTestTaskService(t)

	tasks, err := svc.ListTasks(context.Background(), "github:new")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("len = %d, want 0", len(tasks))
	}
	if _, ok := store.users["github:new"]; !ok {
		t.Error("ListTasks did not create the user")
	}
}

func TestListTasks_OrderedByDay(t *testing.T) {
	svc, _ := newTestTaskService(t)
	for _, day := range []int{12, 3, 7} {
		mustCreate(t, svc, alice, day)
	}

	tasks, err := svc.ListTasks(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i-1].DayNumber >= tasks[i].DayNumber {
			t.Errorf("not ordered: %d before %d", tasks[i-1].DayNumber, tasks[i].DayNumber)
		}
	}
}

func TestListTasks_Unauthenticated(t *testing.T) {
	svc, _ := newTestTaskService(t)
	if _, err := svc.ListTasks(context.Background(), ""); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestProgress(t *testing.T) {
	svc, _ := newTestTaskService(t)

	empty, err := svc.Progress(context.Background(), alice)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if !empty.Empty() || empty.Badge != "" || empty.Message != "" {
		t.Errorf("empty summary = %+v", empty)
	}

	var ids []string
	for _, day := range []int{1, 2, 3, 4, 5, 6, 7} {
		ids = append(ids, mustCreate(t, svc, alice, day))
	}
	for _, id := range ids[:4] {
		if _, err := svc.SetCompletion(context.Background(), alice, id, true); err != nil {
			t.Fatalf("SetCompletion() error = %v", err)
		}
	}

	s, err := svc.Progress(context.Background(), alice)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if s.Percentage != 57 || s.Badge != "Intermediate Learner" {
		t.Errorf("4/7: percentage=%d badge=%q", s.Percentage, s.Badge)
	}
	if s.Completed+s.Remaining != s.Total {
		t.Errorf("counts don't add up: %+v", s)
	}
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestToggleCompletion_TwiceRestores(t *testing.T) {
	svc, _ := newTestTaskService(t)
	id := mustCreate(t, svc, alice, 5)

	first, err := svc.ToggleCompletion(context.Background(), alice, id)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	if !first.IsCompleted {
		t.Error("first toggle should complete the task")
	}

	second, err := svc.ToggleCompletion(context.Background(), alice, id)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	if second.IsCompleted {
		t.Error("second toggle should restore the original state")
	}
}

func TestSetCompletion_Idempotent(t *testing.T) {
	svc, _ := newTestTaskService(t)
	id := mustCreate(t, svc, alice, 5)

	for i := 0; i < 2; i++ {
		task, err := svc.SetCompletion(context.Background(), alice, id, true)
		if err != nil {
			t.Fatalf("SetCompletion() error = %v", err)
		}
		if !task.IsCompleted {
			t.Errorf("call %d: IsCompleted = false", i+1)
		}
	}
}

func TestOwnership(t *testing.T) {
	svc, _ := newTestTaskService(t)
	id := mustCreate(t, svc, alice, 5)
	const mallory = "github:666"

	if _, err := svc.SetCompletion(context.Background(), mallory, id, true); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("SetCompletion by other user: error = %v, want ErrForbidden", err)
	}
	if _, err := svc.ToggleCompletion(context.Background(), mallory, id); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("ToggleCompletion by other user: error = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteTask(context.Background(), mallory, id); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("DeleteTask by other user: error = %v, want ErrForbidden", err)
	}

	// Still there for the owner.
	tasks, _ := svc.ListTasks(context.Background(), alice)
	if len(tasks) != 1 || tasks[0].IsCompleted {
		t.Errorf("task changed by non-owner: %+v", tasks)
	}
}

func TestUpdateDelete_NotFound(t *testing.T) {
	svc, _ := newTestTaskService(t)

	if _, err := svc.SetCompletion(context.Background(), alice, "missing", true); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("SetCompletion: error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteTask(context.Background(), alice, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteTask: error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteTask(context.Background(), alice, " "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("DeleteTask blank id: error = %v, want ErrValidation", err)
	}
}

func TestDeleteTask_FreesSlotAndDay(t *testing.T) {
	svc, _ := newTestTaskService(t)
	var ids []string
	for day := 1; day <= MaxTasksPerUser; day++ {
		ids = append(ids, mustCreate(t, svc, alice, day))
	}

	if err := svc.DeleteTask(context.Background(), alice, ids[0]); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	mustCreate(t, svc, alice, 1)
}

func TestSummarize_UsesConfiguredTables(t *testing.T) {
	cur, err := curriculum.Default(testRepoURL)
	if err != nil {
		t.Fatalf("curriculum.Default: %v", err)
	}
	agg := progress.Default()
	agg.Badges = progress.Table{Fallback: "Custom Badge"}
	store := newFakeStore()
	svc := NewTaskService(store, store, cur, agg, testLogger())

	id := mustCreate(t, svc, alice, 1)
	if _, err := svc.SetCompletion(context.Background(), alice, id, true); err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}
	tasks, err := svc.ListTasks(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}

	fromProgress, err := svc.Progress(context.Background(), alice)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if got := svc.Summarize(tasks).Badge; got != "Custom Badge" || got != fromProgress.Badge {
		t.Errorf("Summarize badge = %q, Progress badge = %q, want Custom Badge", got, fromProgress.Badge)
	}
}

func TestCurriculum(t *testing.T) {
	svc, _ := newTestTaskService(t)
	if got := len(svc.Curriculum()); got != 21 {
		t.Errorf("len(Curriculum()) = %d, want 21", got)
	}
}
