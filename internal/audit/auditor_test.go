package audit

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuditor(cfg Config) *Auditor {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(cfg, log)
}

func TestValidateConfirmationGating(t *testing.T) {
	a := newTestAuditor(DefaultConfig())

	assert.False(t, a.ValidateConfirmation(ActionDelete, false).Valid)
	assert.True(t, a.ValidateConfirmation(ActionDelete, true).Valid)

	// create is not in the default confirmation set
	assert.True(t, a.ValidateConfirmation(ActionCreate, false).Valid)

	res := a.ValidateConfirmation(ActionUpdate, false)
	require.False(t, res.Valid)
	assert.Contains(t, res.Message, "requires explicit confirmation")
}

func TestDryRunBypassesConfirmation(t *testing.T) {
	a := newTestAuditor(DefaultConfig())

	a.SetDryRun(true)
	assert.True(t, a.ValidateConfirmation(ActionDelete, false).Valid)

	a.SetDryRun(false)
	assert.False(t, a.ValidateConfirmation(ActionDelete, false).Valid)
}

func TestDisabledGateAllowsEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireConfirmation = false
	a := newTestAuditor(cfg)

	assert.True(t, a.ValidateConfirmation(ActionDelete, false).Valid)
}

func TestConfigureMergesPartial(t *testing.T) {
	a := newTestAuditor(DefaultConfig())

	off := false
	path := "/tmp/audit.jsonl"
	a.Configure(ConfigPatch{RequireConfirmation: &off, LogFilePath: &path})

	cfg := a.Config()
	assert.False(t, cfg.RequireConfirmation)
	assert.Equal(t, path, cfg.LogFilePath)
	// untouched fields keep defaults
	assert.True(t, cfg.Enabled)
	assert.Equal(t, []Action{ActionUpdate, ActionDelete}, cfg.ConfirmationRequiredActions)
}

func TestConfigureCustomGatedActions(t *testing.T) {
	a := newTestAuditor(DefaultConfig())
	a.Configure(ConfigPatch{ConfirmationRequiredActions: []Action{ActionTransition}})

	assert.True(t, a.ValidateConfirmation(ActionDelete, false).Valid)
	assert.False(t, a.ValidateConfirmation(ActionTransition, false).Valid)
}

func TestLogStampsAndSanitizes(t *testing.T) {
	a := newTestAuditor(DefaultConfig())
	a.SetDryRun(true)

	a.Log(Entry{
		Action:     ActionUpdate,
		Resource:   ResourceIssue,
		ResourceID: "PROJ-1",
		Input:      map[string]any{"summary": "new title", "apiToken": "s3cret"},
		Result:     ResultDryRun,
	})

	entries := a.SessionLog()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.NotEmpty(t, e.Timestamp)
	assert.True(t, e.DryRun)
	assert.Equal(t, RedactedMarker, e.Input["apiToken"])
	assert.Equal(t, "new title", e.Input["summary"])
	assert.Equal(t, a.SessionID(), e.SessionID)
}

func TestLogDisabledIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	a := newTestAuditor(cfg)

	a.Log(Entry{Action: ActionCreate, Resource: ResourceIssue, Result: ResultSuccess})
	assert.Empty(t, a.SessionLog())
}

func TestSessionLogIsolation(t *testing.T) {
	a := newTestAuditor(DefaultConfig())
	a.Log(Entry{Action: ActionCreate, Resource: ResourceIssue, Result: ResultSuccess})

	snapshot := a.SessionLog()
	require.Len(t, snapshot, 1)
	snapshot[0].Action = ActionDelete
	_ = append(snapshot, Entry{Action: ActionMove})

	again := a.SessionLog()
	require.Len(t, again, 1)
	assert.Equal(t, ActionCreate, again[0].Action)
}

func TestClearSessionLog(t *testing.T) {
	a := newTestAuditor(DefaultConfig())
	a.Log(Entry{Action: ActionCreate, Resource: ResourceIssue, Result: ResultSuccess})

	a.ClearSessionLog()
	assert.Empty(t, a.SessionLog())
}

func TestFileLogAndRecentEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	cfg := DefaultConfig()
	cfg.LogToFile = true
	cfg.LogFilePath = path
	a := newTestAuditor(cfg)

	for i := 0; i < 5; i++ {
		a.Log(Entry{Action: ActionCreate, Resource: ResourceIssue, Result: ResultSuccess})
	}

	entries, err := a.RecentEntries(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecentEntriesSkipsGarbageLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	content := `{"action":"create","resource":"issue","result":"success"}
not json at all
{"action":"delete","resource":"issue","result":"failure"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := DefaultConfig()
	cfg.LogFilePath = path
	a := newTestAuditor(cfg)

	entries, err := a.RecentEntries(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionCreate, entries[0].Action)
	assert.Equal(t, ActionDelete, entries[1].Action)
}

func TestRecentEntriesMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFilePath = filepath.Join(t.TempDir(), "nope.jsonl")
	a := newTestAuditor(cfg)

	entries, err := a.RecentEntries(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileWriteFailureDoesNotPropagate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogToFile = true
	// A directory path cannot be opened as a file; the write fails
	// internally and Log must still record the session entry.
	cfg.LogFilePath = t.TempDir()
	a := newTestAuditor(cfg)

	a.Log(Entry{Action: ActionCreate, Resource: ResourceIssue, Result: ResultSuccess})
	assert.Len(t, a.SessionLog(), 1)
}
