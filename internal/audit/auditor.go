package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config controls logging and confirmation gating.
type Config struct {
	Enabled             bool
	LogToConsole        bool
	LogToFile           bool
	LogFilePath         string
	RequireConfirmation bool
	// ConfirmationRequiredActions lists the actions that need an
	// explicit confirmed flag before execution.
	ConfirmationRequiredActions []Action
}

// DefaultConfig enables logging to console and requires confirmation
// for updates and deletes.
func DefaultConfig() Config {
	return Config{
		Enabled:                     true,
		LogToConsole:                true,
		LogToFile:                   false,
		RequireConfirmation:         true,
		ConfirmationRequiredActions: []Action{ActionUpdate, ActionDelete},
	}
}

// ConfigPatch is a partial Config for Configure: nil fields keep their
// prior value.
type ConfigPatch struct {
	Enabled                     *bool
	LogToConsole                *bool
	LogToFile                   *bool
	LogFilePath                 *string
	RequireConfirmation         *bool
	ConfirmationRequiredActions []Action
}

// GateResult is the outcome of a confirmation check. An invalid result
// is a normal structured rejection, not an error.
type GateResult struct {
	Valid   bool
	Message string
}

// Auditor owns the shared mutable safety state: the audit config, the
// global dry-run flag, and the in-memory session log. One Auditor is
// constructed per process (or per test) and injected into every tool
// handler; all access is mutex-guarded.
type Auditor struct {
	mu        sync.Mutex
	cfg       Config
	dryRun    bool
	session   []Entry
	sessionID string
	log       *logrus.Logger
	now       func() time.Time
}

// New creates an Auditor. A nil logger gets a default stderr logger;
// stdout is reserved for the MCP transport.
func New(cfg Config, log *logrus.Logger) *Auditor {
	if log == nil {
		log = logrus.New()
		log.SetOutput(os.Stderr)
	}
	return &Auditor{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		log:       log,
		now:       time.Now,
	}
}

// SessionID identifies this auditor's session in emitted log lines.
func (a *Auditor) SessionID() string { return a.sessionID }

// SetDryRun toggles the global dry-run flag for all subsequent calls.
func (a *Auditor) SetDryRun(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dryRun = enabled
}

// DryRun reads the global dry-run flag.
func (a *Auditor) DryRun() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dryRun
}

// Config returns a snapshot of the current configuration.
func (a *Auditor) Config() Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	cfg := a.cfg
	cfg.ConfirmationRequiredActions = append([]Action(nil), a.cfg.ConfirmationRequiredActions...)
	return cfg
}

// Configure merges the non-nil fields of patch into the config.
func (a *Auditor) Configure(patch ConfigPatch) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if patch.Enabled != nil {
		a.cfg.Enabled = *patch.Enabled
	}
	if patch.LogToConsole != nil {
		a.cfg.LogToConsole = *patch.LogToConsole
	}
	if patch.LogToFile != nil {
		a.cfg.LogToFile = *patch.LogToFile
	}
	if patch.LogFilePath != nil {
		a.cfg.LogFilePath = *patch.LogFilePath
	}
	if patch.RequireConfirmation != nil {
		a.cfg.RequireConfirmation = *patch.RequireConfirmation
	}
	if patch.ConfirmationRequiredActions != nil {
		a.cfg.ConfirmationRequiredActions = append([]Action(nil), patch.ConfirmationRequiredActions...)
	}
}

// ValidateConfirmation decides whether a gated action may proceed. It
// must run before any upstream mutating call. The check passes when the
// action is not gated, gating is globally disabled, dry-run is active,
// or the caller confirmed explicitly.
func (a *Auditor) ValidateConfirmation(action Action, confirmed bool) GateResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.cfg.RequireConfirmation || a.dryRun {
		return GateResult{Valid: true}
	}
	gated := false
	for _, required := range a.cfg.ConfirmationRequiredActions {
		if required == action {
			gated = true
			break
		}
	}
	if !gated {
		return GateResult{Valid: true}
	}
	if confirmed {
		return GateResult{Valid: true}
	}
	return GateResult{
		Valid:   false,
		Message: fmt.Sprintf("%s requires explicit confirmation", action),
	}
}

// Log records one attempted mutation. The entry's timestamp, session ID,
// and dry-run flag are stamped here and its input is sanitized before
// storage. File writes are best-effort: failures are logged, never
// returned. No-op when logging is disabled.
func (a *Auditor) Log(entry Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.cfg.Enabled {
		return
	}

	entry.Timestamp = a.now().UTC().Format(TimestampFormat)
	entry.SessionID = a.sessionID
	entry.DryRun = entry.DryRun || a.dryRun
	entry.Input = SanitizeInput(entry.Input)

	a.session = append(a.session, entry)

	if a.cfg.LogToConsole {
		fields := logrus.Fields{
			"session":  a.sessionID,
			"action":   entry.Action,
			"resource": entry.Resource,
			"result":   entry.Result,
			"dry_run":  entry.DryRun,
		}
		if entry.ResourceID != "" {
			fields["resource_id"] = entry.ResourceID
		}
		if len(entry.Input) > 0 {
			fields["input"] = entry.Input
		}
		if entry.Error != "" {
			a.log.WithFields(fields).WithField("error", entry.Error).Warn("audit")
		} else {
			a.log.WithFields(fields).Info("audit")
		}
	}

	if a.cfg.LogToFile && a.cfg.LogFilePath != "" {
		if err := appendLine(a.cfg.LogFilePath, entry); err != nil {
			a.log.WithField("error", err.Error()).Warn("audit file write failed")
		}
	}
}

// SessionLog returns a snapshot copy of the in-memory session entries.
// Mutating the returned slice does not affect internal state.
func (a *Auditor) SessionLog() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Entry(nil), a.session...)
}

// ClearSessionLog empties the in-memory list. The persistent file is
// untouched.
func (a *Auditor) ClearSessionLog() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = nil
}

// RecentEntries reads the last count entries from the persistent log
// file, skipping unparseable lines. A missing file yields an empty list.
func (a *Auditor) RecentEntries(count int) ([]Entry, error) {
	a.mu.Lock()
	path := a.cfg.LogFilePath
	a.mu.Unlock()

	if path == "" || count <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	if len(entries) > count {
		entries = entries[len(entries)-count:]
	}
	return entries, nil
}

// appendLine appends one JSON line to path, creating parent directories
// as needed. Best-effort durability: no fsync.
func appendLine(path string, entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}
