package query

import (
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"sort"
	"testing"
)

type staffRow struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	internal string
}

var staffShape = ShapeSpecFor[staffRow]("id")

func staffRows() []staffRow {
	return []staffRow{
		{ID: 1, FullName: "Ana", Email: "ana@example.com", Phone: "+62811"},
		{ID: 2, FullName: "Budi", Email: "budi@example.com"},
	}
}

func keysOf(t *testing.T, v any) []string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestShapeSpecFor(t *testing.T) {
	want := []string{"id", "full_name", "email", "phone"}
	if got := staffShape.Allowed(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Allowed() = %v, want %v", got, want)
	}
}

func TestNewShapeSpecRejectsUnknownRequired(t *testing.T) {
	if _, err := NewShapeSpec([]string{"id"}, "id", "name"); err == nil {
		t.Fatalf("expected an error for required field outside allowed")
	}
}

func TestShapeWithoutFieldsReturnsFullRecords(t *testing.T) {
	rows := staffRows()

	got, err := Shape(rows, "", staffShape)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	for i, r := range got {
		if r != any(rows[i]) {
			t.Fatalf("record %d = %#v, want the unprojected row", i, r)
		}
	}
}

func TestShapeKeepsRequiredFields(t *testing.T) {
	got, err := Shape(staffRows(), " email ", staffShape)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	for _, r := range got {
		if keys := keysOf(t, r); !reflect.DeepEqual(keys, []string{"email", "id"}) {
			t.Fatalf("keys = %v, want [email id]", keys)
		}
	}

	first := got[0].(map[string]json.RawMessage)
	if string(first["id"]) != "1" || string(first["email"]) != `"ana@example.com"` {
		t.Fatalf("first = %s / %s, want original order preserved", first["id"], first["email"])
	}
}

func TestShapeOmittedFieldBecomesNull(t *testing.T) {
	got, err := Shape(staffRows(), "phone", staffShape)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	second := got[1].(map[string]json.RawMessage)
	if string(second["phone"]) != "null" {
		t.Fatalf("phone = %s, want null", second["phone"])
	}
}

func TestShapeRejectsUnknownFields(t *testing.T) {
	_, err := Shape(staffRows(), "full_name,unknown_field,salary", staffShape)

	var invalid *InvalidFieldsError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidFieldsError", err)
	}
	if !reflect.DeepEqual(invalid.Invalid, []string{"unknown_field", "salary"}) {
		t.Fatalf("invalid = %v", invalid.Invalid)
	}
	if !slices.Equal(invalid.Allowed, staffShape.Allowed()) {
		t.Fatalf("allowed = %v", invalid.Allowed)
	}

	httpErr := invalid.HTTPError()
	if httpErr.Status != 400 || httpErr.Code != "INVALID_FIELDS" {
		t.Fatalf("http error = %+v", httpErr)
	}
	if !reflect.DeepEqual(httpErr.Details["invalid_fields"], []string{"unknown_field", "salary"}) {
		t.Fatalf("details = %v", httpErr.Details)
	}
}

func TestShapeEmptyInput(t *testing.T) {
	got, err := Shape([]staffRow{}, "unknown_field", staffShape)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got %v, want empty slice", got)
	}
}

func TestParseFieldsDeduplicates(t *testing.T) {
	got, err := ParseFields("email, email,,id", staffShape)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"email", "id"}) {
		t.Fatalf("got %v", got)
	}
}
