package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// maxPreviewValueLen bounds field values in dry-run previews. This is
// independent of the 500-char storage truncation.
const maxPreviewValueLen = 100

// DryRunSummary renders a human-readable preview of what a mutation
// would do. Pure formatting: no state is touched.
func DryRunSummary(action Action, resource Resource, resourceID string, input map[string]any) string {
	var b strings.Builder

	b.WriteString(separator + "\n")
	b.WriteString("DRY-RUN MODE - no changes will be made\n")
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf("Action:   %s\n", strings.ToUpper(string(action))))
	b.WriteString(fmt.Sprintf("Resource: %s\n", resource))
	if resourceID != "" {
		b.WriteString(fmt.Sprintf("Target:   %s\n", resourceID))
	}

	keys := make([]string, 0, len(input))
	for k, v := range input {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		b.WriteString("Changes:\n")
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  • %s: %s\n", k, previewValue(input[k])))
		}
	}

	b.WriteString(separator + "\n")
	b.WriteString("To execute, disable dry-run mode and re-issue the call (destructive actions need confirm=true).\n")

	return b.String()
}

func previewValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	if len(s) > maxPreviewValueLen {
		return s[:maxPreviewValueLen] + "..."
	}
	return s
}

// FormatTimeline renders audit entries as a text timeline for the CLI.
func FormatTimeline(entries []Entry) string {
	if len(entries) == 0 {
		return "No audit entries found.\n"
	}

	var b strings.Builder
	b.WriteString(separator + "\n")
	for _, e := range entries {
		tag := ""
		if e.DryRun {
			tag = "  [dry-run]"
		}
		b.WriteString(fmt.Sprintf("%-12s %-10s %-10s %-12s %-20s%s\n",
			formatTimeOnly(e.Timestamp),
			strings.ToUpper(string(e.Result)),
			e.Action,
			e.Resource,
			truncate(e.ResourceID, 20),
			tag))
		if e.Error != "" {
			b.WriteString(fmt.Sprintf("             error: %s\n", truncate(e.Error, 80)))
		}
	}
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf("%d entries\n", len(entries)))
	return b.String()
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
