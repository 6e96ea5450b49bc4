// Package errs defines the error envelope returned to API clients.
package errs

import "strings"

// FieldError is a single field-level problem, e.g. a failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType describes what a client should do after an error.
type ActionType string

const (
	ActionTypeRedirect ActionType = "redirect"
)

type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the error type handlers return. The global error handler
// renders it as JSON, or as plain text when Plain is set.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors"`
	Action *Action      `json:"action"`

	// Plain selects a text/plain response built by Body.
	Plain bool `json:"-"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError, regardless of its fields.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	clone := *e
	clone.Message = message
	return &clone
}

// AsText returns a copy that renders as plain text.
func (e *HTTPError) AsText() *HTTPError {
	clone := *e
	clone.Plain = true
	return &clone
}

// Body is the plain text representation: one "field: message" line per
// field error, or the message alone.
func (e *HTTPError) Body() string {
	if len(e.Errors) == 0 {
		return e.Message
	}

	lines := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		lines = append(lines, fe.Field+": "+fe.Error)
	}
	return strings.Join(lines, "\n")
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
