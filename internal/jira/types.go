package jira

// Issue is a Jira issue as returned by the REST API. Fields is kept as a
// loose map beyond the common fields because projects add arbitrary
// custom fields.
type Issue struct {
	ID     string         `json:"id"`
	Key    string         `json:"key"`
	Self   string         `json:"self,omitempty"`
	Fields map[string]any `json:"fields"`
}

// User is a Jira account reference.
type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"emailAddress,omitempty"`
	Active      bool   `json:"active,omitempty"`
}

// Project references a Jira project.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Transition is one available workflow transition for an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"to"`
}

// Comment is an issue comment. Body is ADF or plain text depending on
// API version; we pass it through opaquely.
type Comment struct {
	ID      string `json:"id,omitempty"`
	Body    any    `json:"body"`
	Author  *User  `json:"author,omitempty"`
	Created string `json:"created,omitempty"`
	Updated string `json:"updated,omitempty"`
}

// Worklog is a time-tracking entry on an issue.
type Worklog struct {
	ID               string `json:"id,omitempty"`
	TimeSpent        string `json:"timeSpent,omitempty"`
	TimeSpentSeconds int    `json:"timeSpentSeconds,omitempty"`
	Comment          any    `json:"comment,omitempty"`
	Started          string `json:"started,omitempty"`
	Author           *User  `json:"author,omitempty"`
}

// Board is an Agile board.
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Sprint is an Agile sprint on a board.
type Sprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Goal      string `json:"goal,omitempty"`
}

// Version is a project version (release).
type Version struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ProjectID   int    `json:"projectId,omitempty"`
	Released    bool   `json:"released"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// IssueLink connects two issues with a typed relationship.
type IssueLink struct {
	ID   string `json:"id,omitempty"`
	Type struct {
		Name    string `json:"name"`
		Inward  string `json:"inward,omitempty"`
		Outward string `json:"outward,omitempty"`
	} `json:"type"`
	InwardIssue  *Issue `json:"inwardIssue,omitempty"`
	OutwardIssue *Issue `json:"outwardIssue,omitempty"`
}

// RemoteLink attaches an external URL to an issue.
type RemoteLink struct {
	ID     int `json:"id,omitempty"`
	Object struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"object"`
}

// Field describes a system or custom field.
type Field struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

// SearchPage is one page of JQL search results. Jira's newer search
// endpoint paginates with a continuation token; older endpoints use
// startAt/maxResults/total.
type SearchPage struct {
	StartAt       int     `json:"startAt,omitempty"`
	MaxResults    int     `json:"maxResults,omitempty"`
	Total         int     `json:"total,omitempty"`
	IsLast        bool    `json:"isLast,omitempty"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	Issues        []Issue `json:"issues"`
}

// pagedValues is the offset-paginated envelope used by the Agile API.
type pagedValues[T any] struct {
	StartAt    int  `json:"startAt"`
	MaxResults int  `json:"maxResults"`
	Total      int  `json:"total"`
	IsLast     bool `json:"isLast"`
	Values     []T  `json:"values"`
}
