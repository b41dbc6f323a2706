package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/learning-tracker/internal/auth"
	"github.com/sakif/learning-tracker/internal/config"
	"github.com/sakif/learning-tracker/internal/curriculum"
	"github.com/sakif/learning-tracker/internal/progress"
	"github.com/sakif/learning-tracker/internal/server"
	"github.com/sakif/learning-tracker/internal/service"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Open the configured database (DB_DRIVER, DB_PATH / DATABASE_URL) and
apply any pending migrations. The server does the same on startup; this
command is for running it ahead of a deploy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			store, err := server.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("migrating %s database: %w", cfg.DBDriver, err)
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.DBDriver)
			return nil
		},
	}
}

func curriculumCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "curriculum",
		Short: "Print the 21-day curriculum",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := curriculum.Default(config.Load().CurriculumRepoURL)
			if err != nil {
				return err
			}
			return printCurriculum(cmd.OutOrStdout(), cur.All(), asJSON)
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func printCurriculum(w io.Writer, entries []curriculum.Entry, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tTITLE\tREFERENCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%02d\t%s\t%s\n", e.Day, e.Title, e.GitHubURL)
	}
	return tw.Flush()
}

func progressCmd() *cobra.Command {
	var subject string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show one user's progress summary",
		Long: `Print the progress summary for the user with the given identity, e.g.
"github:583231" or "dev:alice". An unknown identity is created with a
placeholder profile, the same as on their first API call.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(subject) == "" {
				return errors.New("--subject is required")
			}

			cfg := config.Load()
			logger := cfg.NewLogger(cmd.ErrOrStderr())

			cur, err := curriculum.Default(cfg.CurriculumRepoURL)
			if err != nil {
				return err
			}
			store, err := server.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer store.Close()

			tasks := service.NewTaskService(store, store, cur, progress.Default(), logger)
			summary, err := tasks.Progress(cmd.Context(), subject)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary, asJSON)
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "user identity (required)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func printSummary(w io.Writer, s progress.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	if s.Empty() {
		fmt.Fprintln(w, "No tasks selected yet")
		return nil
	}

	fmt.Fprintf(w, "Progress:  %d%% (%s)\n", s.Percentage, s.Color)
	fmt.Fprintf(w, "Tasks:     %d total, %d completed, %d remaining\n", s.Total, s.Completed, s.Remaining)
	if s.ShowBadge() {
		fmt.Fprintf(w, "Badge:     %s\n", s.Badge)
		fmt.Fprintf(w, "Message:   %s\n", s.Message)
	}
	for _, t := range s.Recent {
		mark := " "
		if t.IsCompleted {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] Day %02d  %s\n", mark, t.DayNumber, t.Title)
	}
	return nil
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an identity",
		Long: `Sign a session token with JWT_SECRET. Useful with curl:

  curl -H "Authorization: Bearer $(trackerctl token -s dev:alice)" localhost:8080/api/tasks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(subject) == "" {
				return errors.New("--subject is required")
			}

			cfg := config.Load()
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
			if err != nil {
				return err
			}
			token, err := tokens.IssueFor(subject, ttl)
			if err != nil {
				return err
			}

			slog.Debug("issued token", slog.String("subject", subject), slog.Duration("ttl", ttl))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "user identity, e.g. dev:alice (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default TOKEN_TTL)")
	return cmd
}
