package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/learning-tracker/internal/auth"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/service"
)

// TaskHandler serves the task, progress and curriculum JSON API.
// It only translates HTTP to service calls; the rules live in TaskService.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// createTaskRequest is the POST /api/tasks body. Only dayNumber is required;
// the other text fields default to the curriculum entry.
//
// dayNumber carries no validate tag: TaskService checks the quota before the
// day, so a user at capacity sees quota_exceeded even for day 0 or 22.
type createTaskRequest struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=1000"`
	DayNumber   int    `json:"dayNumber"`
	IsCompleted bool   `json:"isCompleted"`
	GitHubURL   string `json:"githubUrl" validate:"omitempty,url,max=500"`
}

// updateTaskRequest is the PATCH /api/tasks/{id} body. A nil IsCompleted
// (field omitted or empty body) toggles the task.
type updateTaskRequest struct {
	IsCompleted *bool `json:"isCompleted"`
}

// HandleList returns the caller's tasks ordered by day.
//
// HTTP: GET /api/tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	tasks, err := h.tasks.ListTasks(r.Context(), identity)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreate selects a curriculum day for the caller.
//
// HTTP: POST /api/tasks
// BODY: {"dayNumber": 4, "title": "...", "description": "...", "githubUrl": "..."}
// 201 with the task, or 400 for validation, quota and duplicate-day failures.
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var req createTaskRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), identity, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DayNumber:   req.DayNumber,
		IsCompleted: req.IsCompleted,
		GitHubURL:   req.GitHubURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// HandleUpdate sets or toggles completion.
//
// HTTP: PATCH /api/tasks/{id}
// BODY: {"isCompleted": true} to set, {} or no body to toggle.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var (
		task *model.Task
		err  error
	)
	if req.IsCompleted == nil {
		task, err = h.tasks.ToggleCompletion(r.Context(), identity, id)
	} else {
		task, err = h.tasks.SetCompletion(r.Context(), identity, id, *req.IsCompleted)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes one of the caller's tasks.
//
// HTTP: DELETE /api/tasks/{id} → 204 No Content
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.tasks.DeleteTask(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleProgress returns the aggregated progress summary.
//
// HTTP: GET /api/progress
func (h *TaskHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	summary, err := h.tasks.Progress(r.Context(), identity)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleCurriculum lists the 21 selectable days. Public.
//
// HTTP: GET /api/curriculum
func (h *TaskHandler) HandleCurriculum(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tasks.Curriculum())
}
