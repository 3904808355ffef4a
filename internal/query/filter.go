package query

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/deppfellow/booking-backend/internal/errs"
	"github.com/go-playground/validator/v10"
)

// FilterField is one filterable key and a human-readable type description
// such as "integer" or "string (one of: scheduled, cancelled)".
type FilterField struct {
	Name string `json:"name"`
	Type string `json:"type"`

	goName string
	index  []int
}

// FilterSpec is the whitelist of filter keys for one list endpoint.
//
// It is derived from a struct: the json tag names the key, the Go type is
// the expected JSON type and the validate tag holds the constraints,
// including cross-field rules such as gte_if_set=DateFrom.
type FilterSpec struct {
	name     string
	typ      reflect.Type
	fields   []FilterField
	byName   map[string]FilterField
	jsonName map[string]string
}

// FilterNamer lets a filter struct pick the name used in error details.
type FilterNamer interface {
	FilterName() string
}

// NewFilterSpec builds the spec of filter struct T. It panics when T is not
// a struct; specs are built once at startup.
func NewFilterSpec[T any]() FilterSpec {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("query: filter spec %s is not a struct", t))
	}

	spec := FilterSpec{
		name:     t.Name(),
		typ:      t,
		byName:   make(map[string]FilterField),
		jsonName: make(map[string]string),
	}
	if namer, ok := reflect.New(t).Elem().Interface().(FilterNamer); ok {
		spec.name = namer.FilterName()
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}

		f := FilterField{
			Name:   name,
			Type:   describeType(sf.Type, sf.Tag.Get("validate")),
			goName: sf.Name,
			index:  sf.Index,
		}
		spec.fields = append(spec.fields, f)
		spec.byName[name] = f
		spec.jsonName[sf.Name] = name
	}

	return spec
}

// Name is the filter's display name.
func (s FilterSpec) Name() string {
	return s.name
}

// Fields returns the allowed filter keys in declaration order.
func (s FilterSpec) Fields() []FilterField {
	return append([]FilterField(nil), s.fields...)
}

// ParseFilter validates a raw filter payload (a JSON object string)
// against spec.
//
// An empty payload yields an empty map. A payload that is not a JSON object
// fails with *MalformedFilterError. Unknown keys, values of the wrong type
// and constraint violations are all collected into one *InvalidFilterError.
// Null values are dropped: a null filter means "no filter on this field".
//
// Feeding the JSON encoding of the result back into ParseFilter yields an
// equal map.
func ParseFilter(raw string, spec FilterSpec) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &MalformedFilterError{Err: err, Allowed: spec.Fields()}
	}
	if payload == nil {
		return nil, &MalformedFilterError{Err: errors.New("filter is null"), Allowed: spec.Fields()}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	target := reflect.New(spec.typ)
	reported := make(map[string]bool)
	var fieldErrors []errs.FieldError
	var present []FilterField

	for _, key := range keys {
		f, ok := spec.byName[key]
		if !ok {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: key, Error: "is not a filterable field"})
			reported[key] = true
			continue
		}

		value := payload[key]
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			continue
		}

		dst := target.Elem().FieldByIndex(f.index)
		if err := json.Unmarshal(value, dst.Addr().Interface()); err != nil {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: key, Error: "must be of type " + f.Type})
			reported[key] = true
			dst.SetZero()
			continue
		}
		present = append(present, f)
	}

	if err := filterValidate.Struct(target.Interface()); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, err
		}
		for _, fe := range validationErrors {
			if reported[fe.Field()] {
				continue
			}
			fieldErrors = append(fieldErrors, errs.FieldError{Field: fe.Field(), Error: spec.message(fe)})
			reported[fe.Field()] = true
		}
	}

	if len(fieldErrors) > 0 {
		return nil, &InvalidFilterError{Fields: fieldErrors, Allowed: spec.Fields()}
	}

	result := make(map[string]any, len(present))
	for _, f := range present {
		v := target.Elem().FieldByIndex(f.index)
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				break
			}
			v = v.Elem()
		}
		if v.Kind() == reflect.Pointer {
			continue
		}
		result[f.Name] = normalize(v.Interface())
	}

	return result, nil
}

func normalize(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

func (s FilterSpec) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte_if_set":
		other := s.jsonName[fe.Param()]
		if other == "" {
			other = fe.Param()
		}
		return "must not be before " + other
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must not exceed " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
}

var filterValidate = newFilterValidator()

func newFilterValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	if err := v.RegisterValidation("gte_if_set", gteIfSet); err != nil {
		panic(err)
	}
	return v
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	}
	return name
}

// gteIfSet holds when the field is not before the named sibling field, or
// when that sibling is unset.
func gteIfSet(fl validator.FieldLevel) bool {
	parent := fl.Parent()
	for parent.Kind() == reflect.Pointer {
		parent = parent.Elem()
	}

	other := parent.FieldByName(fl.Param())
	if !other.IsValid() {
		return false
	}
	for other.Kind() == reflect.Pointer {
		if other.IsNil() {
			return true
		}
		other = other.Elem()
	}

	c, ok := compareValues(fl.Field(), other)
	return ok && c >= 0
}

func compareValues(a, b reflect.Value) (int, bool) {
	if ta, ok := asTime(a); ok {
		tb, ok := asTime(b)
		return ta.Compare(tb), ok
	}
	if a.Kind() != b.Kind() {
		return 0, false
	}

	switch a.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(a.Uint(), b.Uint()), true
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float()), true
	case reflect.String:
		return cmp.Compare(a.String(), b.String()), true
	}
	return 0, false
}

func asTime(v reflect.Value) (time.Time, bool) {
	if !v.CanInterface() {
		return time.Time{}, false
	}
	switch t := v.Interface().(type) {
	case time.Time:
		return t, true
	case Date:
		return t.Time(), true
	}
	return time.Time{}, false
}

var (
	timeType = reflect.TypeFor[time.Time]()
	dateType = reflect.TypeFor[Date]()
)

func describeType(t reflect.Type, tag string) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var base string
	switch {
	case t == timeType:
		base = "datetime (RFC 3339)"
	case t == dateType:
		base = "date (YYYY-MM-DD)"
	default:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			base = "integer"
		case reflect.Float32, reflect.Float64:
			base = "number"
		case reflect.Bool:
			base = "boolean"
		case reflect.String:
			base = "string"
		case reflect.Slice:
			base = "array of " + describeType(t.Elem(), "")
		default:
			base = t.Kind().String()
		}
	}

	for _, rule := range strings.Split(tag, ",") {
		if values, ok := strings.CutPrefix(rule, "oneof="); ok {
			return fmt.Sprintf("%s (one of: %s)", base, strings.ReplaceAll(values, " ", ", "))
		}
	}
	return base
}
