package jira

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListComments returns up to maxResults comments on an issue.
func (c *Client) ListComments(ctx context.Context, issueKey string, maxResults int) ([]Comment, error) {
	if maxResults <= 0 {
		maxResults = searchPageSize
	}
	query := url.Values{}
	query.Set("maxResults", strconv.Itoa(maxResults))
	query.Set("orderBy", "-created")

	var out struct {
		Comments []Comment `json:"comments"`
	}
	err := c.Do(ctx, http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/comment", query, nil, &out)
	if err != nil {
		return nil, issueNotFound(err, issueKey)
	}
	return out.Comments, nil
}

// AddComment posts a comment. body may be plain text (wrapped into ADF)
// or a pre-built ADF document.
func (c *Client) AddComment(ctx context.Context, issueKey string, body any) (*Comment, error) {
	if s, ok := body.(string); ok {
		if s == "" {
			return nil, &ValidationError{Message: "comment body is required", Fields: map[string]string{"body": "must not be empty"}}
		}
		body = adfParagraph(s)
	}
	var created Comment
	err := c.Do(ctx, http.MethodPost, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/comment", nil, map[string]any{"body": body}, &created)
	if err != nil {
		return nil, issueNotFound(err, issueKey)
	}
	return &created, nil
}

// DeleteComment removes a comment from an issue.
func (c *Client) DeleteComment(ctx context.Context, issueKey, commentID string) error {
	err := c.Do(ctx, http.MethodDelete, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/comment/"+url.PathEscape(commentID), nil, nil, nil)
	return issueNotFound(err, issueKey)
}

// ListWorklogs returns the worklog entries on an issue.
func (c *Client) ListWorklogs(ctx context.Context, issueKey string) ([]Worklog, error) {
	var out struct {
		Worklogs []Worklog `json:"worklogs"`
	}
	err := c.Do(ctx, http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/worklog", nil, nil, &out)
	if err != nil {
		return nil, issueNotFound(err, issueKey)
	}
	return out.Worklogs, nil
}

// AddWorklog records time spent on an issue. timeSpent uses Jira
// duration syntax ("3h 30m"); started is an RFC3339-ish Jira timestamp
// or empty for now.
func (c *Client) AddWorklog(ctx context.Context, issueKey, timeSpent, comment, started string) (*Worklog, error) {
	if timeSpent == "" {
		return nil, &ValidationError{Message: "timeSpent is required", Fields: map[string]string{"timeSpent": "must not be empty"}}
	}
	body := map[string]any{"timeSpent": timeSpent}
	if comment != "" {
		body["comment"] = adfParagraph(comment)
	}
	if started != "" {
		body["started"] = started
	}
	var created Worklog
	err := c.Do(ctx, http.MethodPost, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/worklog", nil, body, &created)
	if err != nil {
		return nil, issueNotFound(err, issueKey)
	}
	return &created, nil
}

// adfParagraph wraps plain text into a minimal Atlassian Document Format
// document, the only body format API v3 accepts.
func adfParagraph(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}
