package audit

import (
	"strings"
	"testing"
)

func TestDryRunSummaryContents(t *testing.T) {
	out := DryRunSummary(ActionUpdate, ResourceIssue, "PROJ-123", map[string]any{
		"summary": "New title",
	})

	for _, want := range []string{"DRY-RUN", "UPDATE", "issue", "PROJ-123", "summary", "New title"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestDryRunSummarySkipsNilFields(t *testing.T) {
	out := DryRunSummary(ActionCreate, ResourceIssue, "", map[string]any{
		"summary":  "hello",
		"assignee": nil,
	})

	if strings.Contains(out, "assignee") {
		t.Fatalf("nil fields should be omitted:\n%s", out)
	}
	if strings.Contains(out, "Target:") {
		t.Fatalf("empty resource id should omit target line:\n%s", out)
	}
}

func TestDryRunSummaryTruncatesAt100(t *testing.T) {
	long := strings.Repeat("a", 150)
	out := DryRunSummary(ActionUpdate, ResourceIssue, "PROJ-1", map[string]any{
		"description": long,
	})

	if strings.Contains(out, long) {
		t.Fatal("full 150-char value should not appear in preview")
	}
	if !strings.Contains(out, strings.Repeat("a", 100)+"...") {
		t.Fatal("expected 100-char prefix with ellipsis")
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(nil)
	if !strings.Contains(out, "No audit entries") {
		t.Fatalf("unexpected empty output: %q", out)
	}
}

func TestFormatTimelineEntries(t *testing.T) {
	entries := []Entry{
		{Timestamp: "2026-01-15T10:00:00.000Z", Action: ActionDelete, Resource: ResourceIssue, ResourceID: "PROJ-9", Result: ResultFailure, Error: "boom"},
		{Timestamp: "2026-01-15T10:01:00.000Z", Action: ActionUpdate, Resource: ResourceIssue, ResourceID: "PROJ-10", Result: ResultDryRun, DryRun: true},
	}

	out := FormatTimeline(entries)
	for _, want := range []string{"10:00:00", "FAILURE", "PROJ-9", "boom", "[dry-run]", "2 entries"} {
		if !strings.Contains(out, want) {
			t.Fatalf("timeline missing %q:\n%s", want, out)
		}
	}
}
