package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/booking-backend/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var uniqueKeyConstraint = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// ErrCode reports the mapped Code for a given error.
//
// Both normalized *Error values and raw *pgconn.PgError values found in the
// chain are recognized; anything else is Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return MapCode(pgerr.Code)
	}
	return Other
}

// ConvertPgError converts a raw Postgres error into an Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode creates application error codes of the form
// <DOMAIN>_<ACTION>, e.g. appointments + ExclusionViolation => APPOINTMENT_OVERLAP.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(singular(tableName))

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	case ExclusionViolation:
		action = "OVERLAP"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// formatUserFriendlyMessage produces an end-user-facing error message.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		// "identifier" is replaced later if the column can be inferred.
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	case ExclusionViolation:
		return fmt.Sprintf("The %s overlaps an existing %s for the same staff member", entityName, entityName)

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName infers a display name for the entity an error refers to.
//
// A column ending in "_id" wins (best for foreign keys), then the table name,
// then "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		return humanizeText(singular(tableName))
	}

	return "record"
}

func singular(name string) string {
	if strings.HasSuffix(strings.ToLower(name), "s") && len(name) > 1 {
		return name[:len(name)-1]
	}
	return name
}

// humanizeText converts snake_case into Title Case ("day_offs" -> "Day Offs").
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation infers the column from a unique constraint
// name. Supported conventions: "unique_<table>_<column>" and
// "<table>_<column>_(key|ukey)".
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	matches := uniqueKeyConstraint.FindStringSubmatch(constraintName)
	if len(matches) > 1 {
		return matches[1]
	}

	return ""
}

// HandleError maps a database error onto the HTTP error the client sees.
// HTTP and convertible errors pass through untouched; unknown errors become
// a bare 500 so driver messages never leak.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	var convertible errs.Convertible
	if errors.As(err, &convertible) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return fromPgError(ConvertPgError(pgerr))
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		if table, ok := notFoundTable(err); ok {
			return errs.NewNotFoundError(getEntityName(table, "")+" not found", true, nil)
		}
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}

func fromPgError(sqlErr *Error) *errs.HTTPError {
	code := generateErrorCode(sqlErr.TableName, sqlErr.Code)
	message := formatUserFriendlyMessage(sqlErr)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return errs.NewBadRequestError(message, false, &code, nil, nil)

	case UniqueViolation:
		if column := extractColumnForUniqueViolation(sqlErr.ConstraintName); column != "" {
			message = strings.ReplaceAll(message, "identifier", humanizeText(column))
		}
		return errs.NewBadRequestError(message, true, &code, nil, nil)

	case NotNullViolation:
		required := []errs.FieldError{{Field: strings.ToLower(sqlErr.ColumnName), Error: "is required"}}
		return errs.NewBadRequestError(message, true, &code, required, nil)

	case CheckViolation:
		return errs.NewBadRequestError(message, true, &code, nil, nil)

	case ExclusionViolation:
		return errs.NewConflictError(message, true, &code)

	case SerializationFailure, DeadlockDetected:
		conflict := errs.NewConflictError("The request conflicted with a concurrent change, please retry", true, nil)
		conflict.Action = &errs.Action{Type: errs.ActionTypeRetry, Message: "Retry the request"}
		return conflict
	}

	return errs.NewInternalServerError()
}

// notFoundTable reads the table repositories prefix onto not-found errors
// ("table:day_offs: no rows in result set").
func notFoundTable(err error) (string, bool) {
	_, rest, ok := strings.Cut(err.Error(), "table:")
	if !ok {
		return "", false
	}
	table, _, _ := strings.Cut(rest, ":")
	return table, table != ""
}
