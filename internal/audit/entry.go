// Package audit gates mutating Jira operations behind dry-run and
// confirmation checks and records every attempted mutation, in memory
// for the session and optionally to an append-only JSONL file.
package audit

// Action is the kind of mutation being attempted.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
	ActionAssign     Action = "assign"
	ActionLink       Action = "link"
	ActionUnlink     Action = "unlink"
	ActionMove       Action = "move"
)

// Resource is the Jira entity family a mutation targets.
type Resource string

const (
	ResourceIssue      Resource = "issue"
	ResourceComment    Resource = "comment"
	ResourceWorklog    Resource = "worklog"
	ResourceSprint     Resource = "sprint"
	ResourceVersion    Resource = "version"
	ResourceLink       Resource = "link"
	ResourceRemoteLink Resource = "remote_link"
)

// Result is the outcome recorded for an attempted mutation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultDryRun  Result = "dry-run"
)

// Entry is one immutable audit record. A dry-run entry never
// corresponds to an actual upstream mutation.
type Entry struct {
	Timestamp  string         `json:"timestamp"`
	SessionID  string         `json:"session_id,omitempty"`
	Action     Action         `json:"action"`
	Resource   Resource       `json:"resource"`
	ResourceID string         `json:"resource_id,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	Result     Result         `json:"result"`
	Error      string         `json:"error,omitempty"`
	DryRun     bool           `json:"dry_run"`
}

// TimestampFormat is the wire format for entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"
