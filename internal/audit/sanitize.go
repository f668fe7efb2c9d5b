package audit

import "strings"

// RedactedMarker replaces values of sensitive keys before an input map
// is stored or emitted.
const RedactedMarker = "[REDACTED]"

// maxStoredValueLen bounds string values in stored entries; anything
// longer is truncated with TruncationMarker appended.
const maxStoredValueLen = 500

// TruncationMarker is appended to truncated string values.
const TruncationMarker = "... [truncated]"

// sensitiveKeyParts flags a key as secret-bearing by case-insensitive
// substring match.
var sensitiveKeyParts = []string{"password", "token", "secret", "key", "credential"}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// SanitizeInput returns a copy of input safe to store and emit:
// sensitive keys are replaced with RedactedMarker and over-long string
// values are truncated. Nested maps are sanitized recursively. The
// original map is never modified.
func SanitizeInput(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for k, v := range input {
		if isSensitiveKey(k) {
			out[k] = RedactedMarker
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		if len(val) > maxStoredValueLen {
			return val[:maxStoredValueLen] + TruncationMarker
		}
		return val
	case map[string]any:
		return SanitizeInput(val)
	default:
		return v
	}
}
