package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Classified is implemented by every error in the taxonomy. Code is a
// stable machine-readable tag used in tool results and logs.
type Classified interface {
	error
	Code() string
}

// ConfigError reports missing or invalid startup settings. Fatal: the
// process exits rather than serving with a broken configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }
func (e *ConfigError) Code() string  { return "CONFIG_ERROR" }

// ValidationError reports malformed caller input with per-field messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Code() string  { return "VALIDATION_ERROR" }

// AuthError reports rejected credentials. Never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Code() string  { return "AUTH_ERROR" }

// APIError is an upstream non-2xx response other than 401.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string { return e.Message }
func (e *APIError) Code() string  { return "API_ERROR" }

// RateLimitError means the local bucket or the upstream 429 budget is
// exhausted. RetryAfter tells the caller when trying again makes sense.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return e.Message }
func (e *RateLimitError) Code() string  { return "RATE_LIMIT" }

// NotFoundError identifies an absent resource. Never retried.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
	Message      string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceID)
}

func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// IsRetryable reports whether the retry loop may attempt the request
// again. Auth, not-found, validation, and explicit 403/404 API errors
// propagate on first occurrence.
func IsRetryable(err error) bool {
	var authErr *AuthError
	var nfErr *NotFoundError
	var valErr *ValidationError
	var cfgErr *ConfigError
	if errors.As(err, &authErr) || errors.As(err, &nfErr) ||
		errors.As(err, &valErr) || errors.As(err, &cfgErr) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode != http.StatusForbidden && apiErr.StatusCode != http.StatusNotFound
	}
	return true
}

// FormatToolError renders any error for the tool-result boundary:
// "Error [<code>]: <message>" for classified errors, "Error: <message>"
// for everything else.
func FormatToolError(err error) string {
	if err == nil {
		return "Unknown error: <nil>"
	}
	var classified Classified
	if errors.As(err, &classified) {
		return fmt.Sprintf("Error [%s]: %s", classified.Code(), classified.Error())
	}
	return fmt.Sprintf("Error: %s", err.Error())
}

// errorBody is the shape Jira uses for failure payloads.
type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
	Message       string            `json:"message"`
	ErrorField    string            `json:"error"`
}

// extractErrorMessage pulls the most specific human-readable message out
// of a failure response body. Precedence: errorMessages (joined) >
// message > error > HTTP status text. Unparseable bodies fall through to
// the raw text when it is short enough to be a message.
func extractErrorMessage(body []byte, statusCode int) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.ErrorMessages) > 0 {
			return strings.Join(parsed.ErrorMessages, "; ")
		}
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.ErrorField != "" {
			return parsed.ErrorField
		}
		if len(parsed.Errors) > 0 {
			parts := make([]string, 0, len(parsed.Errors))
			for field, msg := range parsed.Errors {
				parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
			}
			return strings.Join(parts, "; ")
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(statusCode)
}
