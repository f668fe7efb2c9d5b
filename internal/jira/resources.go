package jira

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListProjects returns projects visible to the authenticated user.
func (c *Client) ListProjects(ctx context.Context, maxItems int) ([]Project, error) {
	return fetchPaged[Project](ctx, c, "/rest/api/3/project/search", nil, maxItems)
}

// SearchUsers finds users matching a display name or email fragment.
func (c *Client) SearchUsers(ctx context.Context, queryText string, maxResults int) ([]User, error) {
	if queryText == "" {
		return nil, &ValidationError{Message: "query is required", Fields: map[string]string{"query": "must not be empty"}}
	}
	if maxResults <= 0 {
		maxResults = searchPageSize
	}
	query := url.Values{}
	query.Set("query", queryText)
	query.Set("maxResults", strconv.Itoa(maxResults))

	var users []User
	if err := c.Do(ctx, http.MethodGet, "/rest/api/3/user/search", query, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListFields returns all system and custom fields.
func (c *Client) ListFields(ctx context.Context) ([]Field, error) {
	var fields []Field
	if err := c.Do(ctx, http.MethodGet, "/rest/api/3/field", nil, nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// ListVersions returns the versions of a project.
func (c *Client) ListVersions(ctx context.Context, projectKey string) ([]Version, error) {
	if projectKey == "" {
		return nil, &ValidationError{Message: "project key is required", Fields: map[string]string{"project": "must not be empty"}}
	}
	var versions []Version
	err := c.Do(ctx, http.MethodGet, "/rest/api/3/project/"+url.PathEscape(projectKey)+"/versions", nil, nil, &versions)
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// CreateVersion creates a project version.
func (c *Client) CreateVersion(ctx context.Context, v Version) (*Version, error) {
	if v.Name == "" || v.ProjectID == 0 {
		return nil, &ValidationError{
			Message: "version name and project id are required",
			Fields:  map[string]string{"name": "must not be empty", "projectId": "must be set"},
		}
	}
	var created Version
	if err := c.Do(ctx, http.MethodPost, "/rest/api/3/version", nil, v, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// LinkIssues creates a typed link between two issues.
func (c *Client) LinkIssues(ctx context.Context, linkType, inwardKey, outwardKey string) error {
	if linkType == "" || inwardKey == "" || outwardKey == "" {
		return &ValidationError{
			Message: "link type and both issue keys are required",
			Fields:  map[string]string{"type": "must not be empty"},
		}
	}
	body := map[string]any{
		"type":         map[string]string{"name": linkType},
		"inwardIssue":  map[string]string{"key": inwardKey},
		"outwardIssue": map[string]string{"key": outwardKey},
	}
	return c.Do(ctx, http.MethodPost, "/rest/api/3/issueLink", nil, body, nil)
}

// DeleteIssueLink removes a link by its ID.
func (c *Client) DeleteIssueLink(ctx context.Context, linkID string) error {
	if linkID == "" {
		return &ValidationError{Message: "link id is required", Fields: map[string]string{"linkId": "must not be empty"}}
	}
	return c.Do(ctx, http.MethodDelete, "/rest/api/3/issueLink/"+url.PathEscape(linkID), nil, nil, nil)
}

// ListRemoteLinks returns the remote links on an issue.
func (c *Client) ListRemoteLinks(ctx context.Context, issueKey string) ([]RemoteLink, error) {
	var links []RemoteLink
	err := c.Do(ctx, http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/remotelink", nil, nil, &links)
	if err != nil {
		return nil, issueNotFound(err, issueKey)
	}
	return links, nil
}

// AddRemoteLink attaches an external URL to an issue.
func (c *Client) AddRemoteLink(ctx context.Context, issueKey, linkURL, title string) error {
	if linkURL == "" {
		return &ValidationError{Message: "url is required", Fields: map[string]string{"url": "must not be empty"}}
	}
	body := map[string]any{
		"object": map[string]string{"url": linkURL, "title": title},
	}
	err := c.Do(ctx, http.MethodPost, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/remotelink", nil, body, nil)
	return issueNotFound(err, issueKey)
}
