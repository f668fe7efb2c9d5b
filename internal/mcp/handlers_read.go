package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jirasafe/jirasafe/internal/jira"
)

// errResult renders a read failure as a tool error result.
func errResult[T any](err error) (*mcpsdk.CallToolResult, T, error) {
	var zero T
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: jira.FormatToolError(err)}},
	}, zero, nil
}

// GetIssueInput defines parameters for jira_get_issue.
type GetIssueInput struct {
	IssueKey string   `json:"issue_key" jsonschema:"issue key, e.g. PROJ-123"`
	Fields   []string `json:"fields,omitempty" jsonschema:"field ids to return; empty returns all"`
}

// GetIssueOutput carries the fetched issue.
type GetIssueOutput struct {
	Issue *jira.Issue `json:"issue"`
}

func (s *Server) handleGetIssue(ctx context.Context, req *mcpsdk.CallToolRequest, input GetIssueInput) (*mcpsdk.CallToolResult, GetIssueOutput, error) {
	issue, err := s.jira.GetIssue(ctx, input.IssueKey, input.Fields)
	if err != nil {
		return errResult[GetIssueOutput](err)
	}
	return nil, GetIssueOutput{Issue: issue}, nil
}

// SearchIssuesInput defines parameters for jira_search_issues.
type SearchIssuesInput struct {
	JQL        string   `json:"jql" jsonschema:"JQL query"`
	Fields     []string `json:"fields,omitempty" jsonschema:"field ids to return per issue"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"result cap; default 50"`
}

// SearchIssuesOutput carries one page of matches.
type SearchIssuesOutput struct {
	Issues        []jira.Issue `json:"issues"`
	NextPageToken string       `json:"next_page_token,omitempty"`
}

func (s *Server) handleSearchIssues(ctx context.Context, req *mcpsdk.CallToolRequest, input SearchIssuesInput) (*mcpsdk.CallToolResult, SearchIssuesOutput, error) {
	page, err := s.jira.SearchIssuesPage(ctx, input.JQL, input.Fields, "", input.MaxResults)
	if err != nil {
		return errResult[SearchIssuesOutput](err)
	}
	return nil, SearchIssuesOutput{Issues: page.Issues, NextPageToken: page.NextPageToken}, nil
}

// ListProjectsInput defines parameters for jira_list_projects.
type ListProjectsInput struct {
	MaxResults int `json:"max_results,omitempty" jsonschema:"result cap"`
}

// ListProjectsOutput carries the visible projects.
type ListProjectsOutput struct {
	Projects []jira.Project `json:"projects"`
}

func (s *Server) handleListProjects(ctx context.Context, req *mcpsdk.CallToolRequest, input ListProjectsInput) (*mcpsdk.CallToolResult, ListProjectsOutput, error) {
	projects, err := s.jira.ListProjects(ctx, input.MaxResults)
	if err != nil {
		return errResult[ListProjectsOutput](err)
	}
	return nil, ListProjectsOutput{Projects: projects}, nil
}

// ListBoardsInput defines parameters for jira_list_boards.
type ListBoardsInput struct {
	ProjectKey string `json:"project_key,omitempty" jsonschema:"filter boards by project"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"result cap"`
}

// ListBoardsOutput carries the matching boards.
type ListBoardsOutput struct {
	Boards []jira.Board `json:"boards"`
}

func (s *Server) handleListBoards(ctx context.Context, req *mcpsdk.CallToolRequest, input ListBoardsInput) (*mcpsdk.CallToolResult, ListBoardsOutput, error) {
	boards, err := s.jira.ListBoards(ctx, input.ProjectKey, input.MaxResults)
	if err != nil {
		return errResult[ListBoardsOutput](err)
	}
	return nil, ListBoardsOutput{Boards: boards}, nil
}

// ListSprintsInput defines parameters for jira_list_sprints.
type ListSprintsInput struct {
	BoardID    int    `json:"board_id" jsonschema:"board id from jira_list_boards"`
	State      string `json:"state,omitempty" jsonschema:"filter: active, future, or closed"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"result cap"`
}

// ListSprintsOutput carries the board's sprints.
type ListSprintsOutput struct {
	Sprints []jira.Sprint `json:"sprints"`
}

func (s *Server) handleListSprints(ctx context.Context, req *mcpsdk.CallToolRequest, input ListSprintsInput) (*mcpsdk.CallToolResult, ListSprintsOutput, error) {
	sprints, err := s.jira.ListSprints(ctx, input.BoardID, input.State, input.MaxResults)
	if err != nil {
		return errResult[ListSprintsOutput](err)
	}
	return nil, ListSprintsOutput{Sprints: sprints}, nil
}

// ListCommentsInput defines parameters for jira_list_comments.
type ListCommentsInput struct {
	IssueKey   string `json:"issue_key" jsonschema:"issue key"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"result cap"`
}

// ListCommentsOutput carries the issue's comments.
type ListCommentsOutput struct {
	Comments []jira.Comment `json:"comments"`
}

func (s *Server) handleListComments(ctx context.Context, req *mcpsdk.CallToolRequest, input ListCommentsInput) (*mcpsdk.CallToolResult, ListCommentsOutput, error) {
	comments, err := s.jira.ListComments(ctx, input.IssueKey, input.MaxResults)
	if err != nil {
		return errResult[ListCommentsOutput](err)
	}
	return nil, ListCommentsOutput{Comments: comments}, nil
}

// ListWorklogsInput defines parameters for jira_list_worklogs.
type ListWorklogsInput struct {
	IssueKey string `json:"issue_key" jsonschema:"issue key"`
}

// ListWorklogsOutput carries the issue's worklogs.
type ListWorklogsOutput struct {
	Worklogs []jira.Worklog `json:"worklogs"`
}

func (s *Server) handleListWorklogs(ctx context.Context, req *mcpsdk.CallToolRequest, input ListWorklogsInput) (*mcpsdk.CallToolResult, ListWorklogsOutput, error) {
	worklogs, err := s.jira.ListWorklogs(ctx, input.IssueKey)
	if err != nil {
		return errResult[ListWorklogsOutput](err)
	}
	return nil, ListWorklogsOutput{Worklogs: worklogs}, nil
}

// ListTransitionsInput defines parameters for jira_list_transitions.
type ListTransitionsInput struct {
	IssueKey string `json:"issue_key" jsonschema:"issue key"`
}

// ListTransitionsOutput carries the available transitions.
type ListTransitionsOutput struct {
	Transitions []jira.Transition `json:"transitions"`
}

func (s *Server) handleListTransitions(ctx context.Context, req *mcpsdk.CallToolRequest, input ListTransitionsInput) (*mcpsdk.CallToolResult, ListTransitionsOutput, error) {
	transitions, err := s.jira.ListTransitions(ctx, input.IssueKey)
	if err != nil {
		return errResult[ListTransitionsOutput](err)
	}
	return nil, ListTransitionsOutput{Transitions: transitions}, nil
}

// SearchUsersInput defines parameters for jira_search_users.
type SearchUsersInput struct {
	Query      string `json:"query" jsonschema:"display name or email fragment"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"result cap"`
}

// SearchUsersOutput carries the matching users.
type SearchUsersOutput struct {
	Users []jira.User `json:"users"`
}

func (s *Server) handleSearchUsers(ctx context.Context, req *mcpsdk.CallToolRequest, input SearchUsersInput) (*mcpsdk.CallToolResult, SearchUsersOutput, error) {
	users, err := s.jira.SearchUsers(ctx, input.Query, input.MaxResults)
	if err != nil {
		return errResult[SearchUsersOutput](err)
	}
	return nil, SearchUsersOutput{Users: users}, nil
}

// ListFieldsInput is empty; the field list is unparameterized.
type ListFieldsInput struct{}

// ListFieldsOutput carries every field definition.
type ListFieldsOutput struct {
	Fields []jira.Field `json:"fields"`
}

func (s *Server) handleListFields(ctx context.Context, req *mcpsdk.CallToolRequest, input ListFieldsInput) (*mcpsdk.CallToolResult, ListFieldsOutput, error) {
	fields, err := s.jira.ListFields(ctx)
	if err != nil {
		return errResult[ListFieldsOutput](err)
	}
	return nil, ListFieldsOutput{Fields: fields}, nil
}

// ListVersionsInput defines parameters for jira_list_versions.
type ListVersionsInput struct {
	ProjectKey string `json:"project_key" jsonschema:"project key"`
}

// ListVersionsOutput carries the project's versions.
type ListVersionsOutput struct {
	Versions []jira.Version `json:"versions"`
}

func (s *Server) handleListVersions(ctx context.Context, req *mcpsdk.CallToolRequest, input ListVersionsInput) (*mcpsdk.CallToolResult, ListVersionsOutput, error) {
	versions, err := s.jira.ListVersions(ctx, input.ProjectKey)
	if err != nil {
		return errResult[ListVersionsOutput](err)
	}
	return nil, ListVersionsOutput{Versions: versions}, nil
}
