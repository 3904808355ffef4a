package query

import (
	"fmt"
	"strings"

	"github.com/deppfellow/booking-backend/internal/errs"
)

// MalformedFilterError means the filter parameter is not a JSON object.
type MalformedFilterError struct {
	Err     error
	Allowed []FilterField
}

func (e *MalformedFilterError) Error() string {
	return fmt.Sprintf("malformed filter: %v", e.Err)
}

func (e *MalformedFilterError) Unwrap() error {
	return e.Err
}

func (e *MalformedFilterError) HTTPError() *errs.HTTPError {
	code := "MALFORMED_FILTER"
	return errs.NewBadRequestError("The filter parameter must be a JSON object", true, &code, nil, nil).
		WithDetails(map[string]any{"allowed_fields": describe(e.Allowed)})
}

// InvalidFilterError lists every offending filter key together with the
// filterable fields and their types.
type InvalidFilterError struct {
	Fields  []errs.FieldError
	Allowed []FilterField
}

func (e *InvalidFilterError) Error() string {
	return "invalid filter fields: " + e.names()
}

func (e *InvalidFilterError) names() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return strings.Join(names, ", ")
}

func (e *InvalidFilterError) HTTPError() *errs.HTTPError {
	code := "INVALID_FILTER"
	return errs.NewBadRequestError("Invalid filter fields: "+e.names(), true, &code, e.Fields, nil).
		WithDetails(map[string]any{"allowed_fields": describe(e.Allowed)})
}

// InvalidFieldsError names the requested projection fields that do not
// exist, together with the allowed set.
type InvalidFieldsError struct {
	Invalid []string
	Allowed []string
}

func (e *InvalidFieldsError) Error() string {
	return "invalid fields requested: " + strings.Join(e.Invalid, ", ")
}

func (e *InvalidFieldsError) HTTPError() *errs.HTTPError {
	code := "INVALID_FIELDS"
	fieldErrors := make([]errs.FieldError, len(e.Invalid))
	for i, f := range e.Invalid {
		fieldErrors[i] = errs.FieldError{Field: f, Error: "is not an available field"}
	}

	return errs.NewBadRequestError("Invalid fields requested: "+strings.Join(e.Invalid, ", "), true, &code, fieldErrors, nil).
		WithDetails(map[string]any{
			"invalid_fields": e.Invalid,
			"allowed_fields": e.Allowed,
		})
}

// InvalidSortError rejects an order_by outside the sortable whitelist.
type InvalidSortError struct {
	Field   string
	Allowed []string
}

func (e *InvalidSortError) Error() string {
	return fmt.Sprintf("cannot order by %q", e.Field)
}

func (e *InvalidSortError) HTTPError() *errs.HTTPError {
	code := "INVALID_ORDER_BY"
	return errs.NewBadRequestError(fmt.Sprintf("Cannot order by %q", e.Field), true, &code,
		[]errs.FieldError{{Field: "order_by", Error: "is not a sortable field"}}, nil).
		WithDetails(map[string]any{"allowed_fields": e.Allowed})
}

func describe(fields []FilterField) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Type
	}
	return out
}
