package mcp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/jirasafe/jirasafe/internal/audit"
	"github.com/jirasafe/jirasafe/internal/jira"
)

// newTestServer wires a Server against a fake Jira backend and counts
// how many mutating requests actually reach it.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*Server, *atomic.Int32) {
	t.Helper()

	var upstreamCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		if handler != nil {
			handler(w, r)
			return
		}
		w.Write([]byte(`{"id":"10001","key":"PROJ-1"}`))
	}))
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	client, err := jira.NewClient(jira.Config{
		BaseURL:     srv.URL,
		Email:       "bot@example.com",
		APIToken:    "token",
		MaxRequests: 100,
		Window:      time.Second,
		BackoffBase: time.Millisecond,
	}, log)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	s := New(Config{
		Jira:    client,
		Auditor: audit.New(audit.DefaultConfig(), log),
		Log:     log,
	})
	return s, &upstreamCalls
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	s, upstream := newTestServer(t, nil)

	result, out, err := s.handleDeleteIssue(context.Background(), &mcpsdk.CallToolRequest{}, DeleteIssueInput{
		IssueKey: "PROJ-9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("a gating rejection must not be an error result")
	}
	if out.Status != statusConfirmationRequired {
		t.Fatalf("status = %q", out.Status)
	}
	if !strings.Contains(out.Message, "requires explicit confirmation") {
		t.Fatalf("message = %q", out.Message)
	}
	if upstream.Load() != 0 {
		t.Fatalf("no upstream call may happen before confirmation, got %d", upstream.Load())
	}
	if len(s.auditor.SessionLog()) != 0 {
		t.Fatal("rejected calls are not audit-logged")
	}
}

func TestConfirmedDeleteExecutesAndLogs(t *testing.T) {
	s, upstream := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	_, out, err := s.handleDeleteIssue(context.Background(), &mcpsdk.CallToolRequest{}, DeleteIssueInput{
		IssueKey: "PROJ-9",
		Confirm:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != statusSuccess {
		t.Fatalf("status = %q, message = %q", out.Status, out.Message)
	}
	if upstream.Load() == 0 {
		t.Fatal("expected an upstream call")
	}

	entries := s.auditor.SessionLog()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Action != audit.ActionDelete || e.Result != audit.ResultSuccess || e.ResourceID != "PROJ-9" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestDryRunSkipsUpstreamAndLogs(t *testing.T) {
	s, upstream := newTestServer(t, nil)
	s.auditor.SetDryRun(true)

	result, out, err := s.handleUpdateIssue(context.Background(), &mcpsdk.CallToolRequest{}, UpdateIssueInput{
		IssueKey: "PROJ-123",
		Fields:   map[string]any{"summary": "New title"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("a dry-run preview must not be an error result")
	}
	if out.Status != statusDryRun {
		t.Fatalf("status = %q", out.Status)
	}
	for _, want := range []string{"DRY-RUN", "UPDATE", "issue", "PROJ-123", "summary"} {
		if !strings.Contains(out.Preview, want) {
			t.Fatalf("preview missing %q:\n%s", want, out.Preview)
		}
	}
	if upstream.Load() != 0 {
		t.Fatalf("dry-run must never call upstream, got %d calls", upstream.Load())
	}

	entries := s.auditor.SessionLog()
	if len(entries) != 1 || entries[0].Result != audit.ResultDryRun || !entries[0].DryRun {
		t.Fatalf("expected a dry-run audit entry, got %+v", entries)
	}
}

func TestPerRequestDryRunFlag(t *testing.T) {
	s, upstream := newTestServer(t, nil)

	// Global dry-run off; the per-request flag alone must suffice.
	_, out, err := s.handleCreateIssue(context.Background(), &mcpsdk.CallToolRequest{}, CreateIssueInput{
		Project:   "PROJ",
		IssueType: "Task",
		Summary:   "hello",
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != statusDryRun {
		t.Fatalf("status = %q", out.Status)
	}
	if upstream.Load() != 0 {
		t.Fatal("per-request dry-run must skip upstream")
	}
}

func TestUpstreamFailureIsLoggedAndFlagged(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages":["Issue does not exist"]}`))
	})

	result, out, err := s.handleDeleteIssue(context.Background(), &mcpsdk.CallToolRequest{}, DeleteIssueInput{
		IssueKey: "NOPE-1",
		Confirm:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("upstream failure must be an error result")
	}
	if out.Status != statusError {
		t.Fatalf("status = %q", out.Status)
	}
	if !strings.Contains(out.Message, "Error [NOT_FOUND]") || !strings.Contains(out.Message, "Issue does not exist") {
		t.Fatalf("message = %q", out.Message)
	}

	entries := s.auditor.SessionLog()
	if len(entries) != 1 || entries[0].Result != audit.ResultFailure || entries[0].Error == "" {
		t.Fatalf("expected a failure audit entry, got %+v", entries)
	}
}

func TestCreateNotGatedByDefault(t *testing.T) {
	s, upstream := newTestServer(t, nil)

	_, out, err := s.handleCreateIssue(context.Background(), &mcpsdk.CallToolRequest{}, CreateIssueInput{
		Project:   "PROJ",
		IssueType: "Task",
		Summary:   "no confirmation needed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != statusSuccess {
		t.Fatalf("status = %q, message = %q", out.Status, out.Message)
	}
	if out.ResourceID != "PROJ-1" {
		t.Fatalf("resource id = %q", out.ResourceID)
	}
	if upstream.Load() == 0 {
		t.Fatal("expected an upstream call")
	}
}

func TestSetDryRunTool(t *testing.T) {
	s, _ := newTestServer(t, nil)

	_, out, err := s.handleSetDryRun(context.Background(), &mcpsdk.CallToolRequest{}, SetDryRunInput{Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.DryRun || !s.auditor.DryRun() {
		t.Fatal("dry-run flag should be set")
	}
}

func TestConfigureAuditTool(t *testing.T) {
	s, upstream := newTestServer(t, nil)

	off := false
	_, out, err := s.handleConfigureAudit(context.Background(), &mcpsdk.CallToolRequest{}, ConfigureAuditInput{
		RequireConfirmation: &off,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.RequireConfirmation {
		t.Fatal("gating should be off")
	}

	// Delete now proceeds without confirm.
	_, mout, err := s.handleDeleteIssue(context.Background(), &mcpsdk.CallToolRequest{}, DeleteIssueInput{IssueKey: "PROJ-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mout.Status != statusSuccess {
		t.Fatalf("status = %q", mout.Status)
	}
	if upstream.Load() == 0 {
		t.Fatal("expected an upstream call")
	}
}

func TestAuditSessionAndClearTools(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.auditor.SetDryRun(true)

	_, _, _ = s.handleUpdateIssue(context.Background(), &mcpsdk.CallToolRequest{}, UpdateIssueInput{
		IssueKey: "PROJ-1",
		Fields:   map[string]any{"summary": "x"},
	})

	_, sess, err := s.handleAuditSession(context.Background(), &mcpsdk.CallToolRequest{}, AuditSessionInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sess.Entries) != 1 || sess.SessionID == "" {
		t.Fatalf("unexpected session output: %+v", sess)
	}

	_, cleared, err := s.handleClearAuditSession(context.Background(), &mcpsdk.CallToolRequest{}, ClearAuditSessionInput{})
	if err != nil || !cleared.Cleared {
		t.Fatalf("clear failed: %v", err)
	}
	if len(s.auditor.SessionLog()) != 0 {
		t.Fatal("session log should be empty")
	}
}

func TestGetIssueTool(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"10001","key":"PROJ-1","fields":{"summary":"hello"}}`))
	})

	_, out, err := s.handleGetIssue(context.Background(), &mcpsdk.CallToolRequest{}, GetIssueInput{IssueKey: "PROJ-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Issue == nil || out.Issue.Key != "PROJ-1" {
		t.Fatalf("unexpected issue: %+v", out.Issue)
	}
}

func TestGetIssueNotFound(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages":["Issue does not exist"]}`))
	})

	result, _, err := s.handleGetIssue(context.Background(), &mcpsdk.CallToolRequest{}, GetIssueInput{IssueKey: "NOPE-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestApplySafetyHotReload(t *testing.T) {
	s, _ := newTestServer(t, nil)

	cfg := audit.DefaultConfig()
	cfg.RequireConfirmation = false
	s.ApplySafety(true, cfg)

	if !s.auditor.DryRun() {
		t.Fatal("dry-run should be on after reload")
	}
	if s.auditor.Config().RequireConfirmation {
		t.Fatal("gating should be off after reload")
	}
}
