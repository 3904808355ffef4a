package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// ShapeSpec declares which fields a client may select on a list endpoint
// and which are always returned.
type ShapeSpec struct {
	allowed  []string
	required []string
}

// NewShapeSpec fails when a required field is not allowed.
func NewShapeSpec(allowed []string, required ...string) (ShapeSpec, error) {
	for _, r := range required {
		if !slices.Contains(allowed, r) {
			return ShapeSpec{}, fmt.Errorf("query: required field %q is not in the allowed set", r)
		}
	}

	return ShapeSpec{
		allowed:  slices.Clone(allowed),
		required: slices.Clone(required),
	}, nil
}

// ShapeSpecFor allows every json field of T. It panics on a bad required
// field; specs are built once at startup.
func ShapeSpecFor[T any](required ...string) ShapeSpec {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var allowed []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "-" && name != "" {
			allowed = append(allowed, name)
		}
	}

	spec, err := NewShapeSpec(allowed, required...)
	if err != nil {
		panic(err)
	}
	return spec
}

// Allowed returns the selectable fields in declaration order.
func (s ShapeSpec) Allowed() []string {
	return slices.Clone(s.allowed)
}

// Required returns the fields every projected record keeps.
func (s ShapeSpec) Required() []string {
	return slices.Clone(s.required)
}

// ParseFields splits a comma-separated field list. An empty list returns
// nil, meaning no projection. Unknown names fail with *InvalidFieldsError.
func ParseFields(fields string, spec ShapeSpec) ([]string, error) {
	var requested, invalid []string
	for _, f := range strings.Split(fields, ",") {
		f = strings.TrimSpace(f)
		if f == "" || slices.Contains(requested, f) || slices.Contains(invalid, f) {
			continue
		}
		if slices.Contains(spec.allowed, f) {
			requested = append(requested, f)
		} else {
			invalid = append(invalid, f)
		}
	}

	if len(invalid) > 0 {
		return nil, &InvalidFieldsError{Invalid: invalid, Allowed: spec.Allowed()}
	}
	return requested, nil
}

// Shape projects records to the requested fields plus the required ones,
// preserving record order. With no requested fields the records are
// returned as they are. An empty input returns an empty slice without
// looking at fields.
func Shape[T any](records []T, fields string, spec ShapeSpec) ([]any, error) {
	out := make([]any, 0, len(records))
	if len(records) == 0 {
		return out, nil
	}

	requested, err := ParseFields(fields, spec)
	if err != nil {
		return nil, err
	}

	if len(requested) == 0 {
		for _, r := range records {
			out = append(out, r)
		}
		return out, nil
	}

	keep := append(slices.Clone(spec.required), requested...)
	for _, r := range records {
		projected, err := project(r, keep)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

func project(record any, keep []string) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("query: encoding record for projection: %w", err)
	}

	var full map[string]json.RawMessage
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, fmt.Errorf("query: record is not an object: %w", err)
	}

	projected := make(map[string]json.RawMessage, len(keep))
	for _, f := range keep {
		if v, ok := full[f]; ok {
			projected[f] = v
		} else {
			projected[f] = json.RawMessage("null")
		}
	}
	return projected, nil
}
