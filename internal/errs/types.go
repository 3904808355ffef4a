package errs

import "strings"

// FieldError represents a single field-level problem in a request.
// Example:
//
//	{ "field": "staff_id", "error": "must be an integer" }
type FieldError struct {
	// Field is the field name/key the error relates to (e.g. "staff_id").
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// ActionType is a string-based enum describing what the client should do.
type ActionType string

const (
	// ActionTypeRedirect tells the client it should redirect somewhere.
	// Usually "Value" holds the URL or route.
	ActionTypeRedirect ActionType = "redirect"

	// ActionTypeRetry tells the client the same request may succeed later
	// (e.g. after a serialization failure).
	ActionTypeRetry ActionType = "retry"
)

// Action describes an optional "what the client should do next" instruction.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the single error shape returned to API clients.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "INVALID_FIELDS").
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Override: lets the frontend show Message verbatim.
//   - Errors: per-field errors.
//   - Action: client instruction (optional).
//   - Details: structured, machine-readable context such as the allowed
//     filter fields, so list parameters are self-describing to the client.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors"`

	Action *Action `json:"action"`

	Details map[string]any `json:"details,omitempty"`
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError.
//
// It only compares the type, not Code/Status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)

	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Errors:   e.Errors,
		Action:   e.Action,
		Details:  e.Details,
	}
}

// WithDetails returns a copy of this HTTPError carrying the given details.
func (e *HTTPError) WithDetails(details map[string]any) *HTTPError {
	cp := e.WithMessage(e.Message)
	cp.Details = details
	return cp
}

// Convertible is implemented by typed domain errors (filter, shaping,
// scheduling, dispatch) that know their client-facing representation.
//
// The global error handler looks for it with errors.As before falling back
// to the database error translation.
type Convertible interface {
	error
	HTTPError() *HTTPError
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
