package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GetIssue fetches one issue by key or ID. fields narrows the returned
// field set; nil fetches everything.
func (c *Client) GetIssue(ctx context.Context, key string, fields []string) (*Issue, error) {
	if key == "" {
		return nil, &ValidationError{Message: "issue key is required", Fields: map[string]string{"key": "must not be empty"}}
	}
	query := url.Values{}
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}
	var issue Issue
	err := c.Do(ctx, http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(key), query, nil, &issue)
	if err != nil {
		return nil, issueNotFound(err, key)
	}
	return &issue, nil
}

// CreateIssue creates an issue from a fields map (project, issuetype,
// summary, plus anything else the project accepts).
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (*Issue, error) {
	if len(fields) == 0 {
		return nil, &ValidationError{Message: "issue fields are required", Fields: map[string]string{"fields": "must not be empty"}}
	}
	var created Issue
	err := c.Do(ctx, http.MethodPost, "/rest/api/3/issue", nil, map[string]any{"fields": fields}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateIssue applies a partial field update to an issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	if key == "" {
		return &ValidationError{Message: "issue key is required", Fields: map[string]string{"key": "must not be empty"}}
	}
	if len(fields) == 0 {
		return &ValidationError{Message: "update fields are required", Fields: map[string]string{"fields": "must not be empty"}}
	}
	err := c.Do(ctx, http.MethodPut, "/rest/api/3/issue/"+url.PathEscape(key), nil, map[string]any{"fields": fields}, nil)
	return issueNotFound(err, key)
}

// DeleteIssue deletes an issue. deleteSubtasks cascades to subtasks.
func (c *Client) DeleteIssue(ctx context.Context, key string, deleteSubtasks bool) error {
	if key == "" {
		return &ValidationError{Message: "issue key is required", Fields: map[string]string{"key": "must not be empty"}}
	}
	query := url.Values{}
	if deleteSubtasks {
		query.Set("deleteSubtasks", "true")
	}
	err := c.Do(ctx, http.MethodDelete, "/rest/api/3/issue/"+url.PathEscape(key), query, nil, nil)
	return issueNotFound(err, key)
}

// ListTransitions returns the workflow transitions currently available
// for an issue.
func (c *Client) ListTransitions(ctx context.Context, key string) ([]Transition, error) {
	var out struct {
		Transitions []Transition `json:"transitions"`
	}
	err := c.Do(ctx, http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(key)+"/transitions", nil, nil, &out)
	if err != nil {
		return nil, issueNotFound(err, key)
	}
	return out.Transitions, nil
}

// TransitionIssue moves an issue through a workflow transition,
// optionally updating fields in the same request.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string, fields map[string]any) error {
	if transitionID == "" {
		return &ValidationError{Message: "transition id is required", Fields: map[string]string{"transitionId": "must not be empty"}}
	}
	body := map[string]any{
		"transition": map[string]string{"id": transitionID},
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	err := c.Do(ctx, http.MethodPost, "/rest/api/3/issue/"+url.PathEscape(key)+"/transitions", nil, body, nil)
	return issueNotFound(err, key)
}

// AssignIssue sets the assignee by account ID. An empty accountID
// unassigns the issue.
func (c *Client) AssignIssue(ctx context.Context, key, accountID string) error {
	body := map[string]any{"accountId": nil}
	if accountID != "" {
		body["accountId"] = accountID
	}
	err := c.Do(ctx, http.MethodPut, "/rest/api/3/issue/"+url.PathEscape(key)+"/assignee", nil, body, nil)
	return issueNotFound(err, key)
}

// issueNotFound upgrades a 404 APIError to a typed NotFoundError so the
// caller sees which issue was missing.
func issueNotFound(err error, key string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			ResourceType: "issue",
			ResourceID:   key,
			Message:      fmt.Sprintf("issue %s not found: %s", key, apiErr.Message),
		}
	}
	return err
}
