package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jirasafe/jirasafe/internal/audit"
	"github.com/jirasafe/jirasafe/internal/config"
	"github.com/jirasafe/jirasafe/internal/jira"
	jiramcp "github.com/jirasafe/jirasafe/internal/mcp"
)

var (
	serveSafetyPath string
	serveWatch      bool
	serveDryRun     bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveSafetyPath, "safety", "", "Path to safety config YAML (audit + gating settings)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Hot-reload the safety config on change")
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "Start with global dry-run mode enabled")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP tool server on stdio",
	Long: "Runs jirasafe as an MCP (Model Context Protocol) server over stdio.\n" +
		"Credentials come from JIRA_URL, JIRA_EMAIL, and JIRA_API_TOKEN\n" +
		"(a .env file in the working directory is honored).",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		var cfgErr *jira.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(78) // EX_CONFIG
		}
		return err
	}

	log := newLogger(cfg)

	safety, err := config.LoadSafety(serveSafetyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(78)
	}

	client, err := jira.NewClient(cfg.JiraConfig(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(78)
	}

	auditor := audit.New(safety.AuditConfig(), log)
	auditor.SetDryRun(safety.DryRun || serveDryRun)

	srv := jiramcp.New(jiramcp.Config{
		Jira:    client,
		Auditor: auditor,
		Log:     log,
		Version: version,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	if serveWatch && serveSafetyPath != "" {
		reloader, err := config.NewReloader(serveSafetyPath, log, func(s *config.Safety) {
			srv.ApplySafety(s.DryRun, s.AuditConfig())
		})
		if err != nil {
			return fmt.Errorf("start safety config watcher: %w", err)
		}
		go func() {
			if err := reloader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithField("error", err.Error()).Warn("safety config watcher stopped")
			}
		}()
	}

	log.WithFields(logrus.Fields{
		"dry_run": auditor.DryRun(),
		"session": auditor.SessionID(),
	}).Info("jirasafe MCP server running on stdio")

	return srv.Run(ctx)
}

// newLogger builds the process logger. Output goes to stderr because
// stdout carries the MCP transport.
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
