// Package mcp exposes Jira as MCP tools with the safety gate applied to
// every mutating call.
package mcp

import (
	"context"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/jirasafe/jirasafe/internal/audit"
	"github.com/jirasafe/jirasafe/internal/jira"
)

// Config holds the server's collaborators.
type Config struct {
	Jira    *jira.Client
	Auditor *audit.Auditor
	Log     *logrus.Logger
	Version string
}

// Server wraps the MCP SDK server with Jira tools and audit gating.
type Server struct {
	mcpServer *mcpsdk.Server
	jira      *jira.Client
	auditor   *audit.Auditor
	log       *logrus.Logger
}

// New builds the server and registers all tools.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(os.Stderr)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		jira:    cfg.Jira,
		auditor: cfg.Auditor,
		log:     log,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "jirasafe",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// ApplySafety swaps in reloaded safety settings. Used by the config hot
// reloader.
func (s *Server) ApplySafety(dryRun bool, cfg audit.Config) {
	s.auditor.SetDryRun(dryRun)
	s.auditor.Configure(audit.ConfigPatch{
		Enabled:                     &cfg.Enabled,
		LogToConsole:                &cfg.LogToConsole,
		LogToFile:                   &cfg.LogToFile,
		LogFilePath:                 &cfg.LogFilePath,
		RequireConfirmation:         &cfg.RequireConfirmation,
		ConfirmationRequiredActions: cfg.ConfirmationRequiredActions,
	})
}

// registerTools adds every jirasafe tool to the MCP server.
func (s *Server) registerTools() {
	// Read tools.
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_get_issue",
		Description: "Get a Jira issue by key, optionally narrowing the returned fields.",
	}, s.handleGetIssue)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_search_issues",
		Description: "Search issues with JQL. Results are paginated server-side and capped.",
	}, s.handleSearchIssues)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_list_projects",
		Description: "List projects visible to the configured account.",
	}, s.handleListProjects)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_list_boards",
		Description: "List Agile boards, optionally filtered by project key.",
	}, s.handleListBoards)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_list_sprints",
		Description: "List sprints on a board, optionally filtered by state (active/future/closed).",
	}, s.handleListSprints)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_list_comments",
		Description: "List the comments on an issue, newest first.",
	}, s.handleListComments)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_list_worklogs",
		Description: "List the worklog entries on an issue.",
	}, s.handleListWorklogs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_list_transitions",
		Description: "List the workflow transitions currently available for an issue.",
	}, s.handleListTransitions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_search_users",
		Description: "Find users by display name or email fragment.",
	}, s.handleSearchUsers)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_list_fields",
		Description: "List all system and custom fields.",
	}, s.handleListFields)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_list_versions",
		Description: "List the versions (releases) of a project.",
	}, s.handleListVersions)

	// Mutating tools. All pass through the dry-run and confirmation gate.
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_create_issue",
		Description: "Create an issue. Honors dry-run mode; logged to the audit trail.",
	}, s.handleCreateIssue)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_update_issue",
		Description: "Update issue fields. Requires confirm=true unless dry-run is active.",
	}, s.handleUpdateIssue)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_delete_issue",
		Description: "Delete an issue. Requires confirm=true unless dry-run is active.",
	}, s.handleDeleteIssue)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_transition_issue",
		Description: "Move an issue through a workflow transition. Honors dry-run mode.",
	}, s.handleTransitionIssue)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_assign_issue",
		Description: "Assign an issue to a user by account id, or unassign with an empty id.",
	}, s.handleAssignIssue)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_add_comment",
		Description: "Add a comment to an issue. Honors dry-run mode.",
	}, s.handleAddComment)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_add_worklog",
		Description: "Log time on an issue (Jira duration syntax, e.g. '3h 30m').",
	}, s.handleAddWorklog)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_move_to_sprint",
		Description: "Move issues into a sprint, or to the backlog with sprint_id=0.",
	}, s.handleMoveToSprint)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_link_issues",
		Description: "Create a typed link between two issues (e.g. 'Blocks').",
	}, s.handleLinkIssues)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_unlink_issues",
		Description: "Delete an issue link by its link id.",
	}, s.handleUnlinkIssues)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_create_version",
		Description: "Create a project version (release). Honors dry-run mode.",
	}, s.handleCreateVersion)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_add_remote_link",
		Description: "Attach an external URL to an issue.",
	}, s.handleAddRemoteLink)

	// Safety and audit administration.
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_set_dry_run",
		Description: "Toggle global dry-run mode. While enabled, mutations are previewed and logged but never executed.",
	}, s.handleSetDryRun)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_configure_audit",
		Description: "Adjust audit logging and confirmation gating. Omitted settings are unchanged.",
	}, s.handleConfigureAudit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_audit_session",
		Description: "Return this session's audit entries.",
	}, s.handleAuditSession)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_audit_recent",
		Description: "Return the most recent entries from the persistent audit log file.",
	}, s.handleAuditRecent)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_clear_audit_session",
		Description: "Clear the in-memory session audit log. The persistent file is untouched.",
	}, s.handleClearAuditSession)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jira_status",
		Description: "Report connection health, dry-run state, and rate limiter headroom.",
	}, s.handleStatus)
}
