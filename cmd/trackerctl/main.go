// Command trackerctl is the admin CLI for the learning tracker.
//
// It reads the same .env / environment settings as the server:
//
//	trackerctl migrate                         # create or upgrade the schema
//	trackerctl curriculum [--json]             # print the 21-day curriculum
//	trackerctl progress --subject github:42    # one user's progress summary
//	trackerctl token --subject dev:alice       # mint a session token for curl
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/learning-tracker/internal/config"
)

var Version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Admin tool for the 21-day learning tracker",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(curriculumCmd())
	root.AddCommand(progressCmd())
	root.AddCommand(tokenCmd())

	return root
}
