// Package handler contains the HTTP handlers: the JSON API under /api, the
// sign-in routes under /auth, and the server-rendered dashboard at /.
//
// Handlers parse requests, call a service, and write the response. They hold
// no business rules. Identity comes from the auth middleware via
// auth.IdentityFromContext; an anonymous request reaches the service with an
// empty identity and is rejected there as unauthenticated.
package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/learning-tracker/internal/auth"
	"github.com/sakif/learning-tracker/internal/curriculum"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/progress"
	"github.com/sakif/learning-tracker/internal/service"
)

// DashboardHandler renders the single-page tracker.
// Templates are parsed once at startup.
type DashboardHandler struct {
	templates   *template.Template
	tasks       *service.TaskService
	users       *service.UserService
	githubLogin bool
	devLogin    bool
	logger      *slog.Logger
}

// NewDashboardHandler parses base.html and dashboard.html from templateDir.
// base.html defines the page shell with {{template "content" .}};
// dashboard.html fills "content".
func NewDashboardHandler(
	templateDir string,
	tasks *service.TaskService,
	users *service.UserService,
	githubLogin, devLogin bool,
	logger *slog.Logger,
) (*DashboardHandler, error) {
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "dashboard.html"),
	)
	if err != nil {
		return nil, err
	}

	return &DashboardHandler{
		templates:   tmpl,
		tasks:       tasks,
		users:       users,
		githubLogin: githubLogin,
		devLogin:    devLogin,
		logger:      logger,
	}, nil
}

var templateFuncs = template.FuncMap{
	"dayLabel": func(day int) string { return fmt.Sprintf("%02d", day) },
}

// curriculumCard is one entry of the "available tasks" grid.
type curriculumCard struct {
	curriculum.Entry
	Selected bool
}

type dashboardView struct {
	Title       string
	SignedIn    bool
	GitHubLogin bool
	DevLogin    bool

	User       *model.User
	Tasks      []model.Task
	Summary    progress.Summary
	Curriculum []curriculumCard
	MaxTasks   int
	AtQuota    bool
}

// HandleDashboard renders the tracker, or the sign-in page for anonymous visitors.
//
// HTTP: GET /
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{
		Title:       "21-Day Learning Tracker",
		GitHubLogin: h.githubLogin,
		DevLogin:    h.devLogin,
		MaxTasks:    service.MaxTasksPerUser,
	}

	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		if err := h.loadTracker(r, identity, &view); err != nil {
			h.logger.Error("failed to load dashboard",
				slog.String("identity", identity),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base", view); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *DashboardHandler) loadTracker(r *http.Request, identity string, view *dashboardView) error {
	user, err := h.users.Me(r.Context(), identity)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.ListTasks(r.Context(), identity)
	if err != nil {
		return err
	}

	selected := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		selected[t.DayNumber] = true
	}
	entries := h.tasks.Curriculum()
	cards := make([]curriculumCard, len(entries))
	for i, e := range entries {
		cards[i] = curriculumCard{Entry: e, Selected: selected[e.Day]}
	}

	view.SignedIn = true
	view.User = user
	view.Tasks = tasks
	view.Summary = h.tasks.Summarize(tasks)
	view.Curriculum = cards
	view.AtQuota = len(tasks) >= service.MaxTasksPerUser
	return nil
}
