// Package config loads jirasafe's startup configuration: Jira
// credentials from the environment (with optional .env) and the safety
// settings from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jirasafe/jirasafe/internal/audit"
	"github.com/jirasafe/jirasafe/internal/jira"
)

// Config is the process configuration assembled at startup.
type Config struct {
	JiraURL      string
	JiraEmail    string
	JiraAPIToken string

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, merging in a .env file
// when one exists. Missing mandatory settings are a ConfigError; the
// process should exit rather than start half-configured.
func Load() (*Config, error) {
	// Best-effort: absence of .env is normal.
	_ = godotenv.Load()

	cfg := &Config{
		JiraURL:              os.Getenv("JIRA_URL"),
		JiraEmail:            os.Getenv("JIRA_EMAIL"),
		JiraAPIToken:         os.Getenv("JIRA_API_TOKEN"),
		RateLimitMaxRequests: envInt("JIRA_RATE_LIMIT_MAX_REQUESTS", 0),
		RateLimitWindow:      envDuration("JIRA_RATE_LIMIT_WINDOW", 0),
		LogLevel:             envDefault("LOG_LEVEL", "info"),
		LogFormat:            envDefault("LOG_FORMAT", "text"),
	}

	if cfg.JiraURL == "" {
		return nil, &jira.ConfigError{Message: "JIRA_URL is required"}
	}
	if cfg.JiraEmail == "" {
		return nil, &jira.ConfigError{Message: "JIRA_EMAIL is required"}
	}
	if cfg.JiraAPIToken == "" {
		return nil, &jira.ConfigError{Message: "JIRA_API_TOKEN is required"}
	}

	return cfg, nil
}

// JiraConfig maps the loaded settings onto the client config.
func (c *Config) JiraConfig() jira.Config {
	return jira.Config{
		BaseURL:     c.JiraURL,
		Email:       c.JiraEmail,
		APIToken:    c.JiraAPIToken,
		MaxRequests: c.RateLimitMaxRequests,
		Window:      c.RateLimitWindow,
	}
}

// Safety is the YAML-backed safety configuration: audit behavior plus
// the starting dry-run mode.
type Safety struct {
	DryRun bool        `yaml:"dry_run"`
	Audit  SafetyAudit `yaml:"audit"`
}

// SafetyAudit mirrors audit.Config in YAML form.
type SafetyAudit struct {
	Enabled             bool     `yaml:"enabled"`
	LogToConsole        bool     `yaml:"log_to_console"`
	LogToFile           bool     `yaml:"log_to_file"`
	LogFilePath         string   `yaml:"log_file_path"`
	RequireConfirmation bool     `yaml:"require_confirmation"`
	ConfirmationActions []string `yaml:"confirmation_required_actions"`
}

// DefaultSafety mirrors audit.DefaultConfig.
func DefaultSafety() *Safety {
	d := audit.DefaultConfig()
	return &Safety{
		Audit: SafetyAudit{
			Enabled:             d.Enabled,
			LogToConsole:        d.LogToConsole,
			LogToFile:           d.LogToFile,
			RequireConfirmation: d.RequireConfirmation,
			ConfirmationActions: []string{string(audit.ActionUpdate), string(audit.ActionDelete)},
		},
	}
}

// LoadSafety reads the safety YAML at path, applied over the defaults.
// An empty path returns the defaults.
func LoadSafety(path string) (*Safety, error) {
	cfg := DefaultSafety()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &jira.ConfigError{Message: fmt.Sprintf("read safety config: %v", err)}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &jira.ConfigError{Message: fmt.Sprintf("parse safety config %s: %v", path, err)}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Safety) validate() error {
	for _, a := range s.Audit.ConfirmationActions {
		switch audit.Action(a) {
		case audit.ActionCreate, audit.ActionUpdate, audit.ActionDelete, audit.ActionTransition,
			audit.ActionAssign, audit.ActionLink, audit.ActionUnlink, audit.ActionMove:
		default:
			return &jira.ConfigError{Message: fmt.Sprintf("unknown confirmation action %q", a)}
		}
	}
	if s.Audit.LogToFile && s.Audit.LogFilePath == "" {
		return &jira.ConfigError{Message: "audit.log_file_path is required when log_to_file is enabled"}
	}
	return nil
}

// AuditConfig converts the YAML form into the auditor's config.
func (s *Safety) AuditConfig() audit.Config {
	actions := make([]audit.Action, 0, len(s.Audit.ConfirmationActions))
	for _, a := range s.Audit.ConfirmationActions {
		actions = append(actions, audit.Action(a))
	}
	return audit.Config{
		Enabled:                     s.Audit.Enabled,
		LogToConsole:                s.Audit.LogToConsole,
		LogToFile:                   s.Audit.LogToFile,
		LogFilePath:                 s.Audit.LogFilePath,
		RequireConfirmation:         s.Audit.RequireConfirmation,
		ConfirmationRequiredActions: actions,
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
