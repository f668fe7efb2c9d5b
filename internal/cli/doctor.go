package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jirasafe/jirasafe/internal/config"
	"github.com/jirasafe/jirasafe/internal/jira"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and Jira connectivity",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("✗ configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ configuration loaded (%s)\n", cfg.JiraURL)

	client, err := jira.NewClient(cfg.JiraConfig(), newLogger(cfg))
	if err != nil {
		fmt.Printf("✗ client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ok, err := client.ValidateConnection(ctx)
	switch {
	case err != nil:
		fmt.Printf("✗ authentication: %v\n", err)
		os.Exit(1)
	case !ok:
		fmt.Println("✗ connection: Jira unreachable")
		os.Exit(1)
	default:
		fmt.Println("✓ connected and authenticated")
	}
	return nil
}
