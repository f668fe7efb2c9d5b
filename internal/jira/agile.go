package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListBoards returns Agile boards, optionally filtered by project key.
func (c *Client) ListBoards(ctx context.Context, projectKey string, maxItems int) ([]Board, error) {
	query := url.Values{}
	if projectKey != "" {
		query.Set("projectKeyOrId", projectKey)
	}
	return fetchPaged[Board](ctx, c, "/rest/agile/1.0/board", query, maxItems)
}

// ListSprints returns the sprints on a board. state filters by
// "active", "future", or "closed"; empty returns all.
func (c *Client) ListSprints(ctx context.Context, boardID int, state string, maxItems int) ([]Sprint, error) {
	if boardID <= 0 {
		return nil, &ValidationError{Message: "board id is required", Fields: map[string]string{"boardId": "must be positive"}}
	}
	query := url.Values{}
	if state != "" {
		query.Set("state", state)
	}
	path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
	return fetchPaged[Sprint](ctx, c, path, query, maxItems)
}

// MoveIssuesToSprint moves issues into a sprint.
func (c *Client) MoveIssuesToSprint(ctx context.Context, sprintID int, issueKeys []string) error {
	if sprintID <= 0 {
		return &ValidationError{Message: "sprint id is required", Fields: map[string]string{"sprintId": "must be positive"}}
	}
	if len(issueKeys) == 0 {
		return &ValidationError{Message: "issue keys are required", Fields: map[string]string{"issues": "must not be empty"}}
	}
	path := "/rest/agile/1.0/sprint/" + strconv.Itoa(sprintID) + "/issue"
	return c.Do(ctx, http.MethodPost, path, nil, map[string]any{"issues": issueKeys}, nil)
}

// MoveIssuesToBacklog moves issues out of any sprint.
func (c *Client) MoveIssuesToBacklog(ctx context.Context, issueKeys []string) error {
	if len(issueKeys) == 0 {
		return &ValidationError{Message: "issue keys are required", Fields: map[string]string{"issues": "must not be empty"}}
	}
	return c.Do(ctx, http.MethodPost, "/rest/agile/1.0/backlog/issue", nil, map[string]any{"issues": issueKeys}, nil)
}
