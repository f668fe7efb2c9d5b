package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jirasafe/jirasafe/internal/audit"
)

var (
	auditLogPath string
	auditCount   int
	auditJSON    bool
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&auditLogPath, "log", "", "Path to the persistent audit log file")
	auditCmd.Flags().IntVar(&auditCount, "count", 20, "Number of recent entries to show")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Emit entries as JSON instead of a timeline")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent entries from the persistent audit log",
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	if auditLogPath == "" {
		return fmt.Errorf("--log is required")
	}

	cfg := audit.DefaultConfig()
	cfg.LogFilePath = auditLogPath
	a := audit.New(cfg, nil)

	entries, err := a.RecentEntries(auditCount)
	if err != nil {
		return err
	}

	if auditJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Print(audit.FormatTimeline(entries))
	return nil
}
