package mcp

import (
	"context"
	"fmt"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jirasafe/jirasafe/internal/audit"
	"github.com/jirasafe/jirasafe/internal/jira"
)

// MutationOutput is the uniform result of every mutating tool. Gating
// rejections and dry-run previews are successful responses, not errors;
// only genuine upstream failures set status "error".
type MutationOutput struct {
	Status     string `json:"status" jsonschema:"one of: success, dry-run, confirmation_required, error"`
	Message    string `json:"message,omitempty"`
	Preview    string `json:"preview,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
}

const (
	statusSuccess              = "success"
	statusDryRun               = "dry-run"
	statusConfirmationRequired = "confirmation_required"
	statusError                = "error"
)

// mutation describes one gated upstream call.
type mutation struct {
	action     audit.Action
	resource   audit.Resource
	resourceID string
	input      map[string]any
	confirmed  bool
	dryRun     bool
	// execute performs the upstream call and may return the id of the
	// affected resource (used when the mutation creates it).
	execute func(ctx context.Context) (string, error)
}

// run applies the gating state machine: dry-run check, then confirmation
// check, then the upstream call. The audit entry is always recorded
// before the result is returned.
func (s *Server) run(ctx context.Context, m mutation) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if s.auditor.DryRun() || m.dryRun {
		s.auditor.Log(audit.Entry{
			Action:     m.action,
			Resource:   m.resource,
			ResourceID: m.resourceID,
			Input:      m.input,
			Result:     audit.ResultDryRun,
			DryRun:     true,
		})
		return nil, MutationOutput{
			Status:     statusDryRun,
			Message:    "dry-run: no changes were made",
			Preview:    audit.DryRunSummary(m.action, m.resource, m.resourceID, m.input),
			ResourceID: m.resourceID,
		}, nil
	}

	if gate := s.auditor.ValidateConfirmation(m.action, m.confirmed); !gate.Valid {
		return nil, MutationOutput{
			Status:     statusConfirmationRequired,
			Message:    gate.Message + "; re-issue the call with confirm=true, or enable dry-run to preview it first",
			ResourceID: m.resourceID,
		}, nil
	}

	id, err := m.execute(ctx)
	if err != nil {
		s.auditor.Log(audit.Entry{
			Action:     m.action,
			Resource:   m.resource,
			ResourceID: m.resourceID,
			Input:      m.input,
			Result:     audit.ResultFailure,
			Error:      err.Error(),
		})
		return &mcpsdk.CallToolResult{IsError: true}, MutationOutput{
			Status:  statusError,
			Message: jira.FormatToolError(err),
		}, nil
	}

	if id == "" {
		id = m.resourceID
	}
	s.auditor.Log(audit.Entry{
		Action:     m.action,
		Resource:   m.resource,
		ResourceID: id,
		Input:      m.input,
		Result:     audit.ResultSuccess,
	})
	return nil, MutationOutput{
		Status:     statusSuccess,
		Message:    fmt.Sprintf("%s %s succeeded", m.action, m.resource),
		ResourceID: id,
	}, nil
}

// CreateIssueInput defines parameters for jira_create_issue.
type CreateIssueInput struct {
	Project   string         `json:"project" jsonschema:"project key"`
	IssueType string         `json:"issue_type" jsonschema:"issue type name, e.g. Task or Bug"`
	Summary   string         `json:"summary" jsonschema:"issue summary"`
	Fields    map[string]any `json:"fields,omitempty" jsonschema:"additional field values by field id"`
	DryRun    bool           `json:"dry_run,omitempty" jsonschema:"preview without creating"`
}

func (s *Server) handleCreateIssue(ctx context.Context, req *mcpsdk.CallToolRequest, input CreateIssueInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	fields := map[string]any{
		"project":   map[string]string{"key": input.Project},
		"issuetype": map[string]string{"name": input.IssueType},
		"summary":   input.Summary,
	}
	for k, v := range input.Fields {
		fields[k] = v
	}

	return s.run(ctx, mutation{
		action:   audit.ActionCreate,
		resource: audit.ResourceIssue,
		input:    map[string]any{"project": input.Project, "issue_type": input.IssueType, "summary": input.Summary},
		dryRun:   input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			created, err := s.jira.CreateIssue(ctx, fields)
			if err != nil {
				return "", err
			}
			return created.Key, nil
		},
	})
}

// UpdateIssueInput defines parameters for jira_update_issue.
type UpdateIssueInput struct {
	IssueKey string         `json:"issue_key" jsonschema:"issue key, e.g. PROJ-123"`
	Fields   map[string]any `json:"fields" jsonschema:"field values to set, by field id"`
	Confirm  bool           `json:"confirm,omitempty" jsonschema:"explicit confirmation for this gated action"`
	DryRun   bool           `json:"dry_run,omitempty" jsonschema:"preview without updating"`
}

func (s *Server) handleUpdateIssue(ctx context.Context, req *mcpsdk.CallToolRequest, input UpdateIssueInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionUpdate,
		resource:   audit.ResourceIssue,
		resourceID: input.IssueKey,
		input:      map[string]any{"fields": input.Fields},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			return "", s.jira.UpdateIssue(ctx, input.IssueKey, input.Fields)
		},
	})
}

// DeleteIssueInput defines parameters for jira_delete_issue.
type DeleteIssueInput struct {
	IssueKey       string `json:"issue_key" jsonschema:"issue key to delete"`
	DeleteSubtasks bool   `json:"delete_subtasks,omitempty" jsonschema:"also delete subtasks"`
	Confirm        bool   `json:"confirm,omitempty" jsonschema:"explicit confirmation for this gated action"`
	DryRun         bool   `json:"dry_run,omitempty" jsonschema:"preview without deleting"`
}

func (s *Server) handleDeleteIssue(ctx context.Context, req *mcpsdk.CallToolRequest, input DeleteIssueInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionDelete,
		resource:   audit.ResourceIssue,
		resourceID: input.IssueKey,
		input:      map[string]any{"delete_subtasks": input.DeleteSubtasks},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			return "", s.jira.DeleteIssue(ctx, input.IssueKey, input.DeleteSubtasks)
		},
	})
}

// TransitionIssueInput defines parameters for jira_transition_issue.
type TransitionIssueInput struct {
	IssueKey     string         `json:"issue_key" jsonschema:"issue key"`
	TransitionID string         `json:"transition_id" jsonschema:"transition id from jira_list_transitions"`
	Fields       map[string]any `json:"fields,omitempty" jsonschema:"field values to set during the transition"`
	Confirm      bool           `json:"confirm,omitempty" jsonschema:"explicit confirmation if transitions are gated"`
	DryRun       bool           `json:"dry_run,omitempty" jsonschema:"preview without transitioning"`
}

func (s *Server) handleTransitionIssue(ctx context.Context, req *mcpsdk.CallToolRequest, input TransitionIssueInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionTransition,
		resource:   audit.ResourceIssue,
		resourceID: input.IssueKey,
		input:      map[string]any{"transition": input.TransitionID, "fields": input.Fields},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			return "", s.jira.TransitionIssue(ctx, input.IssueKey, input.TransitionID, input.Fields)
		},
	})
}

// AssignIssueInput defines parameters for jira_assign_issue.
type AssignIssueInput struct {
	IssueKey  string `json:"issue_key" jsonschema:"issue key"`
	AccountID string `json:"account_id,omitempty" jsonschema:"assignee account id; empty unassigns"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema:"explicit confirmation if assigns are gated"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema:"preview without assigning"`
}

func (s *Server) handleAssignIssue(ctx context.Context, req *mcpsdk.CallToolRequest, input AssignIssueInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionAssign,
		resource:   audit.ResourceIssue,
		resourceID: input.IssueKey,
		input:      map[string]any{"assignee": input.AccountID},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			return "", s.jira.AssignIssue(ctx, input.IssueKey, input.AccountID)
		},
	})
}

// AddCommentInput defines parameters for jira_add_comment.
type AddCommentInput struct {
	IssueKey string `json:"issue_key" jsonschema:"issue key"`
	Body     string `json:"body" jsonschema:"comment text"`
	Confirm  bool   `json:"confirm,omitempty" jsonschema:"explicit confirmation if comments are gated"`
	DryRun   bool   `json:"dry_run,omitempty" jsonschema:"preview without commenting"`
}

func (s *Server) handleAddComment(ctx context.Context, req *mcpsdk.CallToolRequest, input AddCommentInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionCreate,
		resource:   audit.ResourceComment,
		resourceID: input.IssueKey,
		input:      map[string]any{"body": input.Body},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			created, err := s.jira.AddComment(ctx, input.IssueKey, input.Body)
			if err != nil {
				return "", err
			}
			return created.ID, nil
		},
	})
}

// AddWorklogInput defines parameters for jira_add_worklog.
type AddWorklogInput struct {
	IssueKey  string `json:"issue_key" jsonschema:"issue key"`
	TimeSpent string `json:"time_spent" jsonschema:"duration in Jira syntax, e.g. 3h 30m"`
	Comment   string `json:"comment,omitempty" jsonschema:"worklog comment"`
	Started   string `json:"started,omitempty" jsonschema:"start timestamp; empty means now"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema:"explicit confirmation if worklogs are gated"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema:"preview without logging time"`
}

func (s *Server) handleAddWorklog(ctx context.Context, req *mcpsdk.CallToolRequest, input AddWorklogInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionCreate,
		resource:   audit.ResourceWorklog,
		resourceID: input.IssueKey,
		input:      map[string]any{"time_spent": input.TimeSpent, "comment": input.Comment},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			created, err := s.jira.AddWorklog(ctx, input.IssueKey, input.TimeSpent, input.Comment, input.Started)
			if err != nil {
				return "", err
			}
			return created.ID, nil
		},
	})
}

// MoveToSprintInput defines parameters for jira_move_to_sprint.
type MoveToSprintInput struct {
	SprintID  int      `json:"sprint_id" jsonschema:"target sprint id; 0 moves to the backlog"`
	IssueKeys []string `json:"issue_keys" jsonschema:"issues to move"`
	Confirm   bool     `json:"confirm,omitempty" jsonschema:"explicit confirmation if moves are gated"`
	DryRun    bool     `json:"dry_run,omitempty" jsonschema:"preview without moving"`
}

func (s *Server) handleMoveToSprint(ctx context.Context, req *mcpsdk.CallToolRequest, input MoveToSprintInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	target := "backlog"
	if input.SprintID > 0 {
		target = strconv.Itoa(input.SprintID)
	}
	return s.run(ctx, mutation{
		action:     audit.ActionMove,
		resource:   audit.ResourceSprint,
		resourceID: target,
		input:      map[string]any{"issues": input.IssueKeys, "sprint": target},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			if input.SprintID > 0 {
				return "", s.jira.MoveIssuesToSprint(ctx, input.SprintID, input.IssueKeys)
			}
			return "", s.jira.MoveIssuesToBacklog(ctx, input.IssueKeys)
		},
	})
}

// LinkIssuesInput defines parameters for jira_link_issues.
type LinkIssuesInput struct {
	LinkType   string `json:"link_type" jsonschema:"link type name, e.g. Blocks or Relates"`
	InwardKey  string `json:"inward_key" jsonschema:"inward issue key"`
	OutwardKey string `json:"outward_key" jsonschema:"outward issue key"`
	Confirm    bool   `json:"confirm,omitempty" jsonschema:"explicit confirmation if links are gated"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema:"preview without linking"`
}

func (s *Server) handleLinkIssues(ctx context.Context, req *mcpsdk.CallToolRequest, input LinkIssuesInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionLink,
		resource:   audit.ResourceLink,
		resourceID: input.InwardKey + "->" + input.OutwardKey,
		input:      map[string]any{"type": input.LinkType, "inward": input.InwardKey, "outward": input.OutwardKey},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			return "", s.jira.LinkIssues(ctx, input.LinkType, input.InwardKey, input.OutwardKey)
		},
	})
}

// UnlinkIssuesInput defines parameters for jira_unlink_issues.
type UnlinkIssuesInput struct {
	LinkID  string `json:"link_id" jsonschema:"issue link id to delete"`
	Confirm bool   `json:"confirm,omitempty" jsonschema:"explicit confirmation if unlinks are gated"`
	DryRun  bool   `json:"dry_run,omitempty" jsonschema:"preview without unlinking"`
}

func (s *Server) handleUnlinkIssues(ctx context.Context, req *mcpsdk.CallToolRequest, input UnlinkIssuesInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionUnlink,
		resource:   audit.ResourceLink,
		resourceID: input.LinkID,
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			return "", s.jira.DeleteIssueLink(ctx, input.LinkID)
		},
	})
}

// CreateVersionInput defines parameters for jira_create_version.
type CreateVersionInput struct {
	Name        string `json:"name" jsonschema:"version name, e.g. 2.1.0"`
	ProjectID   int    `json:"project_id" jsonschema:"numeric project id"`
	Description string `json:"description,omitempty" jsonschema:"version description"`
	ReleaseDate string `json:"release_date,omitempty" jsonschema:"planned release date, YYYY-MM-DD"`
	Confirm     bool   `json:"confirm,omitempty" jsonschema:"explicit confirmation if version creation is gated"`
	DryRun      bool   `json:"dry_run,omitempty" jsonschema:"preview without creating"`
}

func (s *Server) handleCreateVersion(ctx context.Context, req *mcpsdk.CallToolRequest, input CreateVersionInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionCreate,
		resource:   audit.ResourceVersion,
		resourceID: input.Name,
		input:      map[string]any{"name": input.Name, "project_id": input.ProjectID, "release_date": input.ReleaseDate},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			created, err := s.jira.CreateVersion(ctx, jira.Version{
				Name:        input.Name,
				ProjectID:   input.ProjectID,
				Description: input.Description,
				ReleaseDate: input.ReleaseDate,
			})
			if err != nil {
				return "", err
			}
			return created.ID, nil
		},
	})
}

// AddRemoteLinkInput defines parameters for jira_add_remote_link.
type AddRemoteLinkInput struct {
	IssueKey string `json:"issue_key" jsonschema:"issue key"`
	URL      string `json:"url" jsonschema:"external URL to attach"`
	Title    string `json:"title,omitempty" jsonschema:"link title"`
	Confirm  bool   `json:"confirm,omitempty" jsonschema:"explicit confirmation if remote links are gated"`
	DryRun   bool   `json:"dry_run,omitempty" jsonschema:"preview without attaching"`
}

func (s *Server) handleAddRemoteLink(ctx context.Context, req *mcpsdk.CallToolRequest, input AddRemoteLinkInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.run(ctx, mutation{
		action:     audit.ActionLink,
		resource:   audit.ResourceRemoteLink,
		resourceID: input.IssueKey,
		input:      map[string]any{"url": input.URL, "title": input.Title},
		confirmed:  input.Confirm,
		dryRun:     input.DryRun,
		execute: func(ctx context.Context) (string, error) {
			return "", s.jira.AddRemoteLink(ctx, input.IssueKey, input.URL, input.Title)
		},
	})
}
