package ledgerline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AuthenticationError is returned when no usable credential can be resolved
// for a call's scope. It is terminal: the SDK never retries or silently
// defaults a missing key.
type AuthenticationError struct {
	// Scope is the credential family that failed to resolve.
	Scope Scope
	// Hint names the configuration field or environment variable to set.
	Hint string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("ledgerline: no %s API key could be resolved: %s", e.Scope, e.Hint)
}

// APIError is returned when the server rejects a call with 401 or 417. The
// message is taken from the response body verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledgerline: %s (HTTP %d)", e.Message, e.Status)
}

// ExportError is returned when an export job reaches the errored state.
type ExportError struct {
	Export *Export
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("ledgerline: export %s failed with state %q", e.Export.ID, e.Export.State)
}

// SessionError is returned when a guard session reaches a terminal state
// other than approved.
type SessionError struct {
	Session *Session
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("ledgerline: session %s was not approved: state %q", e.Session.ID, e.Session.State)
}

// InternalError reports a protocol contract violation: an HTTP status the
// server is never supposed to return, or page metadata that breaks the
// pagination invariants. It indicates a defect on one side of the wire, not
// a condition callers should recover from.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "ledgerline: internal: " + e.Message
}

func internalErrorf(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

// apiErrorFromBody builds an APIError from a 401/417 response body. The body
// either carries a single "message" string, or a "messages" mapping of field
// name to a list of problems, flattened to "<field> <problems>" entries
// joined by commas. Anything else yields a generic message.
func apiErrorFromBody(status int, body []byte) *APIError {
	var payload struct {
		Message  string              `json:"message"`
		Messages map[string][]string `json:"messages"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return &APIError{Status: status, Message: payload.Message}
		}
		if len(payload.Messages) > 0 {
			fields := make([]string, 0, len(payload.Messages))
			for f := range payload.Messages {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			parts := make([]string, 0, len(fields))
			for _, f := range fields {
				parts = append(parts, f+" "+strings.Join(payload.Messages[f], " "))
			}
			return &APIError{Status: status, Message: strings.Join(parts, ", ")}
		}
	}
	return &APIError{Status: status, Message: "unknown API error"}
}
