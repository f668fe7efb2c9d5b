package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jirasafe/jirasafe/internal/audit"
)

// SetDryRunInput defines parameters for jira_set_dry_run.
type SetDryRunInput struct {
	Enabled bool `json:"enabled" jsonschema:"true to enable global dry-run mode"`
}

// SetDryRunOutput confirms the new mode.
type SetDryRunOutput struct {
	DryRun  bool   `json:"dry_run"`
	Message string `json:"message"`
}

func (s *Server) handleSetDryRun(ctx context.Context, req *mcpsdk.CallToolRequest, input SetDryRunInput) (*mcpsdk.CallToolResult, SetDryRunOutput, error) {
	s.auditor.SetDryRun(input.Enabled)
	msg := "dry-run disabled: mutations will execute"
	if input.Enabled {
		msg = "dry-run enabled: mutations will be previewed and logged, never executed"
	}
	return nil, SetDryRunOutput{DryRun: input.Enabled, Message: msg}, nil
}

// ConfigureAuditInput defines parameters for jira_configure_audit.
// Pointer fields distinguish "unset" from an explicit false.
type ConfigureAuditInput struct {
	Enabled             *bool    `json:"enabled,omitempty" jsonschema:"master switch for audit logging"`
	LogToConsole        *bool    `json:"log_to_console,omitempty" jsonschema:"emit audit lines to the server log"`
	LogToFile           *bool    `json:"log_to_file,omitempty" jsonschema:"append audit entries to the log file"`
	LogFilePath         *string  `json:"log_file_path,omitempty" jsonschema:"persistent audit log path"`
	RequireConfirmation *bool    `json:"require_confirmation,omitempty" jsonschema:"master switch for confirmation gating"`
	ConfirmationActions []string `json:"confirmation_required_actions,omitempty" jsonschema:"actions requiring confirm=true"`
}

// ConfigureAuditOutput reports the effective configuration.
type ConfigureAuditOutput struct {
	Enabled             bool     `json:"enabled"`
	LogToConsole        bool     `json:"log_to_console"`
	LogToFile           bool     `json:"log_to_file"`
	LogFilePath         string   `json:"log_file_path,omitempty"`
	RequireConfirmation bool     `json:"require_confirmation"`
	ConfirmationActions []string `json:"confirmation_required_actions"`
}

func (s *Server) handleConfigureAudit(ctx context.Context, req *mcpsdk.CallToolRequest, input ConfigureAuditInput) (*mcpsdk.CallToolResult, ConfigureAuditOutput, error) {
	var actions []audit.Action
	if input.ConfirmationActions != nil {
		actions = make([]audit.Action, 0, len(input.ConfirmationActions))
		for _, a := range input.ConfirmationActions {
			actions = append(actions, audit.Action(a))
		}
	}

	s.auditor.Configure(audit.ConfigPatch{
		Enabled:                     input.Enabled,
		LogToConsole:                input.LogToConsole,
		LogToFile:                   input.LogToFile,
		LogFilePath:                 input.LogFilePath,
		RequireConfirmation:         input.RequireConfirmation,
		ConfirmationRequiredActions: actions,
	})

	cfg := s.auditor.Config()
	out := ConfigureAuditOutput{
		Enabled:             cfg.Enabled,
		LogToConsole:        cfg.LogToConsole,
		LogToFile:           cfg.LogToFile,
		LogFilePath:         cfg.LogFilePath,
		RequireConfirmation: cfg.RequireConfirmation,
	}
	for _, a := range cfg.ConfirmationRequiredActions {
		out.ConfirmationActions = append(out.ConfirmationActions, string(a))
	}
	return nil, out, nil
}

// AuditSessionInput is empty; the session log is unparameterized.
type AuditSessionInput struct{}

// AuditSessionOutput carries a snapshot of the session log.
type AuditSessionOutput struct {
	SessionID string        `json:"session_id"`
	Entries   []audit.Entry `json:"entries"`
}

func (s *Server) handleAuditSession(ctx context.Context, req *mcpsdk.CallToolRequest, input AuditSessionInput) (*mcpsdk.CallToolResult, AuditSessionOutput, error) {
	return nil, AuditSessionOutput{
		SessionID: s.auditor.SessionID(),
		Entries:   s.auditor.SessionLog(),
	}, nil
}

// AuditRecentInput defines parameters for jira_audit_recent.
type AuditRecentInput struct {
	Count int `json:"count,omitempty" jsonschema:"number of entries to return; default 20"`
}

// AuditRecentOutput carries entries from the persistent log file.
type AuditRecentOutput struct {
	Entries []audit.Entry `json:"entries"`
}

func (s *Server) handleAuditRecent(ctx context.Context, req *mcpsdk.CallToolRequest, input AuditRecentInput) (*mcpsdk.CallToolResult, AuditRecentOutput, error) {
	count := input.Count
	if count <= 0 {
		count = 20
	}
	entries, err := s.auditor.RecentEntries(count)
	if err != nil {
		return errResult[AuditRecentOutput](err)
	}
	return nil, AuditRecentOutput{Entries: entries}, nil
}

// ClearAuditSessionInput is empty.
type ClearAuditSessionInput struct{}

// ClearAuditSessionOutput confirms the clear.
type ClearAuditSessionOutput struct {
	Cleared bool `json:"cleared"`
}

func (s *Server) handleClearAuditSession(ctx context.Context, req *mcpsdk.CallToolRequest, input ClearAuditSessionInput) (*mcpsdk.CallToolResult, ClearAuditSessionOutput, error) {
	s.auditor.ClearSessionLog()
	return nil, ClearAuditSessionOutput{Cleared: true}, nil
}

// StatusInput is empty.
type StatusInput struct{}

// StatusOutput reports connection and safety state.
type StatusOutput struct {
	Connected           bool   `json:"connected"`
	DryRun              bool   `json:"dry_run"`
	RequireConfirmation bool   `json:"require_confirmation"`
	RateLimitRemaining  int    `json:"rate_limit_remaining"`
	SessionEntries      int    `json:"session_entries"`
	Message             string `json:"message,omitempty"`
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	connected, err := s.jira.ValidateConnection(ctx)

	out := StatusOutput{
		Connected:           connected,
		DryRun:              s.auditor.DryRun(),
		RequireConfirmation: s.auditor.Config().RequireConfirmation,
		RateLimitRemaining:  s.jira.Limiter().Remaining(),
		SessionEntries:      len(s.auditor.SessionLog()),
	}
	if err != nil {
		// Only authentication failures surface from ValidateConnection.
		out.Message = err.Error()
	}
	return nil, out, nil
}
