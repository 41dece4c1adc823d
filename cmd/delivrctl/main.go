// delivrctl is the operator-facing CLI over delivr's Service API
// (pkg/api): create releases, start/stop their cron, pause/resume/archive
// them, trigger stage 2/3, and retry/approve tasks. It talks to a running
// delivr server over HTTP rather than importing its internal packages,
// the same boundary a CI pipeline or chat-ops integration would use.
// Grounded on the teacher's sibling repo's CLI (devdashboard/cmd/
// devdashboard/main.go): a Cobra root command with persistent logging
// flags, one subcommand constructor per operation, and a console
// formatter built on jedib0t/go-pretty for table output.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	flagVerbose bool
	flagDebug   bool
	flagServer  string
	flagTimeout time.Duration
)

func main() {
	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delivrctl",
		Short: "delivrctl operates a running delivr release orchestration server",
		Long: strings.TrimSpace(`
delivrctl - operator CLI for the delivr release orchestration engine

Talks to a running delivr server's Service API (/api/v1) over HTTP:
create releases, start or stop their cron schedule, pause/resume/archive
them, trigger stage 2 (regression) or stage 3 (pre-release), and retry
or approve individual tasks.`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogging()
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (info) logging")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging (overrides --verbose)")
	cmd.PersistentFlags().StringVar(&flagServer, "server", "http://localhost:8080/api/v1", "Base URL of the delivr server's Service API")
	cmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "HTTP request timeout")
	cmd.Version = version

	cmd.AddCommand(newReleaseCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("delivrctl version: %s\n", version)
		},
	}
}

func initLogging() {
	var level slog.Level
	switch {
	case flagDebug:
		level = slog.LevelDebug
	case flagVerbose:
		level = slog.LevelInfo
	default:
		level = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	slog.Debug("logging initialized", "level", level.String())
}

func client() *apiClient {
	return newAPIClient(flagServer, flagTimeout)
}
