package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/deppfellow/booking-backend/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is a request that checks itself, usually by passing itself
// to Struct.
type Validatable interface {
	Validate() error
}

var validate = newValidator()

// newValidator reports fields by their wire name: the json tag, else the
// query or param tag (path ids are json:"-").
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		for _, key := range []string{"json", "query", "param"} {
			if name, _, _ := strings.Cut(sf.Tag.Get(key), ","); name != "" && name != "-" {
				return name
			}
		}
		return ""
	})
	return v
}

// Struct validates v with the shared validator.
func Struct(v any) error {
	return validate.Struct(v)
}

// BindAndValidate fills payload (a struct pointer) from the path, query
// string and body, then validates it. Both failures are 400s; validation
// failures carry one field error per broken rule.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(bindErrorMessage(err), false, nil, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
	}

	return nil
}

// bindErrorMessage takes the message of Echo's bind error, e.g.
// "Unmarshal type error: expected=int64, got=string, field=staff_id, offset=14".
func bindErrorMessage(err error) string {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if msg, ok := echoErr.Message.(string); ok && msg != "" {
			return msg
		}
	}
	return "Invalid request payload"
}

// validateStruct runs v.Validate and turns validator errors into field
// errors keyed by wire name. Any other error becomes the message.
func validateStruct(v Validatable) (string, []errs.FieldError) {
	err := v.Validate()
	if err == nil {
		return "", nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err.Error(), []errs.FieldError{}
	}

	fieldErrors := make([]errs.FieldError, 0, len(invalid))
	for _, fe := range invalid {
		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: fe.Field(),
			Error: fieldMessage(fe),
		})
	}
	return "Validation failed", fieldErrors
}

func fieldMessage(fe validator.FieldError) string {
	text := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if text {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if text {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return "must not exceed " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gtfield":
		return "must be after " + snakeCase(fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be a valid phone number with country code"
	}

	if fe.Param() != "" {
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return "failed " + fe.Tag()
}

// snakeCase turns a Go field name such as StartsAt or StaffID into
// starts_at or staff_id.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			boundary := i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1])))
			if boundary {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
