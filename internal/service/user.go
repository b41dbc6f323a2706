// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, never *sqlite.DB or *postgres.DB, so
// the tests in this package run on in-memory fakes and the same code backs
// the HTTP server and trackerctl.
//
// Every operation starts from an identity: the provider subject taken from
// the caller's token. An empty identity is apperror.ErrUnauthenticated.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/auth"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/repository"
)

// UserService resolves identities to user records and runs logins.
type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// EnsureUser returns the user for identity, creating a placeholder record
// ("User", "user-<identity>@example.com") on first sight. Calling it any
// number of times, from any number of goroutines, yields the same user.
func (s *UserService) EnsureUser(ctx context.Context, identity string) (*model.User, error) {
	return ensureUser(ctx, s.users, identity)
}

// Me is EnsureUser under the name the /api/me endpoint uses.
func (s *UserService) Me(ctx context.Context, identity string) (*model.User, error) {
	return s.EnsureUser(ctx, identity)
}

// LoginResult bundles the user and the session token so the handler can set
// the cookie and respond in one step.
type LoginResult struct {
	User  *model.User
	Token string
}

// LoginWithProfile stores the provider's view of the user (create on first
// login, refresh name/email later) and issues a session token for the subject.
func (s *UserService) LoginWithProfile(ctx context.Context, profile auth.Profile) (*LoginResult, error) {
	subject := strings.TrimSpace(profile.Subject)
	if subject == "" {
		return nil, apperror.Unauthenticated()
	}

	user := model.PlaceholderUser(subject)
	if name := strings.TrimSpace(profile.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(profile.Email); email != "" {
		user.Email = email
	}

	if err := s.users.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: upserting %s: %w", subject, err)
	}

	token, err := s.tokens.Issue(subject)
	if err != nil {
		return nil, fmt.Errorf("service/user: issuing token for %s: %w", subject, err)
	}

	s.logger.Info("user signed in",
		slog.String("userID", user.ID),
		slog.String("subject", subject),
	)
	return &LoginResult{User: user, Token: token}, nil
}

// ensureUser is shared by UserService and TaskService.
func ensureUser(ctx context.Context, users repository.UserRepository, identity string) (*model.User, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, apperror.Unauthenticated()
	}
	user, err := users.EnsureUser(ctx, model.PlaceholderUser(identity))
	if err != nil {
		return nil, fmt.Errorf("service: ensuring user %s: %w", identity, err)
	}
	return user, nil
}
