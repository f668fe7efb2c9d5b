package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jirasafe/jirasafe/internal/audit"
	"github.com/jirasafe/jirasafe/internal/jira"
)

func setEnv(t *testing.T, url, email, token string) {
	t.Helper()
	t.Setenv("JIRA_URL", url)
	t.Setenv("JIRA_EMAIL", email)
	t.Setenv("JIRA_API_TOKEN", token)
}

func TestLoadRequiresCredentials(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		email string
		token string
	}{
		{"missing url", "", "a@b.c", "t"},
		{"missing email", "https://x.atlassian.net", "", "t"},
		{"missing token", "https://x.atlassian.net", "a@b.c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.url, tt.email, tt.token)
			_, err := Load()
			var cfgErr *jira.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestLoadReadsTuning(t *testing.T) {
	setEnv(t, "https://x.atlassian.net", "a@b.c", "tok")
	t.Setenv("JIRA_RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("JIRA_RATE_LIMIT_WINDOW", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RateLimitMaxRequests != 5 {
		t.Fatalf("max requests = %d", cfg.RateLimitMaxRequests)
	}
	if cfg.RateLimitWindow != 2*time.Second {
		t.Fatalf("window = %s", cfg.RateLimitWindow)
	}

	jc := cfg.JiraConfig()
	if jc.BaseURL != "https://x.atlassian.net" || jc.MaxRequests != 5 {
		t.Fatalf("unexpected jira config: %+v", jc)
	}
}

func TestLoadSafetyDefaults(t *testing.T) {
	cfg, err := LoadSafety("")
	if err != nil {
		t.Fatalf("load safety: %v", err)
	}
	ac := cfg.AuditConfig()
	if !ac.Enabled || !ac.RequireConfirmation {
		t.Fatalf("defaults should enable audit and gating: %+v", ac)
	}
	want := []audit.Action{audit.ActionUpdate, audit.ActionDelete}
	if len(ac.ConfirmationRequiredActions) != 2 ||
		ac.ConfirmationRequiredActions[0] != want[0] ||
		ac.ConfirmationRequiredActions[1] != want[1] {
		t.Fatalf("default gated actions = %v", ac.ConfirmationRequiredActions)
	}
}

func TestLoadSafetyOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.yaml")
	content := `
dry_run: true
audit:
  require_confirmation: false
  confirmation_required_actions: [delete, transition]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadSafety(path)
	if err != nil {
		t.Fatalf("load safety: %v", err)
	}
	if !cfg.DryRun {
		t.Fatal("dry_run should be true")
	}
	ac := cfg.AuditConfig()
	if ac.RequireConfirmation {
		t.Fatal("require_confirmation should be false")
	}
	if len(ac.ConfirmationRequiredActions) != 2 || ac.ConfirmationRequiredActions[1] != audit.ActionTransition {
		t.Fatalf("gated actions = %v", ac.ConfirmationRequiredActions)
	}
	// untouched field keeps its default
	if !ac.Enabled {
		t.Fatal("enabled should keep default true")
	}
}

func TestLoadSafetyRejectsUnknownAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.yaml")
	content := "audit:\n  confirmation_required_actions: [explode]\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSafety(path)
	var cfgErr *jira.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoadSafetyFileRequiresPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.yaml")
	content := "audit:\n  log_to_file: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSafety(path)
	var cfgErr *jira.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
