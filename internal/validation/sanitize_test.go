package validation

import (
	"reflect"
	"testing"
)

func sanitizeEngine() *Engine {
	e := NewEngine()
	e.RegisterSchema("loans", Flat(&RuleSet{
		Fields: map[string]FieldType{
			"loan_id":   TypeString,
			"amount":    TypeNumber,
			"term":      TypeInteger,
			"rate":      TypePercentage,
			"funded":    TypeDate,
			"closed_at": TypeDateTime,
			"active":    TypeBool,
		},
	}))
	return e
}

func TestSanitize(t *testing.T) {
	e := sanitizeEngine()

	tests := []struct {
		name  string
		field string
		in    Value
		want  Value
	}{
		{
			name:  "trims strings",
			field: "loan_id",
			in:    StringValue("  LN-42  "),
			want:  StringValue("LN-42"),
		},
		{
			name:  "parses currency numbers",
			field: "amount",
			in:    StringValue("$1,234.50"),
			want:  NumberValue(1234.5),
		},
		{
			name:  "unparsable number becomes null",
			field: "amount",
			in:    StringValue("n/a"),
			want:  NullValue,
		},
		{
			name:  "clamps percentage above 100",
			field: "rate",
			in:    StringValue("120"),
			want:  NumberValue(100),
		},
		{
			name:  "clamps percentage below 0",
			field: "rate",
			in:    StringValue("-5"),
			want:  NumberValue(0),
		},
		{
			name:  "formats dates as ISO",
			field: "funded",
			in:    StringValue("3/15/2024"),
			want:  StringValue("2024-03-15"),
		},
		{
			name:  "formats datetimes as RFC3339",
			field: "closed_at",
			in:    StringValue("2024-03-15 10:30:00"),
			want:  StringValue("2024-03-15T10:30:00Z"),
		},
		{
			name:  "unparsable date becomes null",
			field: "funded",
			in:    StringValue("someday"),
			want:  NullValue,
		},
		{
			name:  "parses boolean strings",
			field: "active",
			in:    StringValue("TRUE"),
			want:  BoolValue(true),
		},
		{
			name:  "parses numeric booleans",
			field: "active",
			in:    StringValue("0"),
			want:  BoolValue(false),
		},
		{
			name:  "null stays null",
			field: "amount",
			in:    NullValue,
			want:  NullValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Sanitize(Record{tt.field: tt.in}, "loans", "")
			if got := out[tt.field]; got != tt.want {
				t.Errorf("Sanitize(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	e := sanitizeEngine()

	rec := Record{
		"loan_id":   StringValue("  LN-1 "),
		"amount":    StringValue("($2,000)"),
		"term":      StringValue("36"),
		"rate":      StringValue("150%"),
		"funded":    StringValue("01/02/2024"),
		"closed_at": StringValue("2024-06-01T08:00:00Z"),
		"active":    StringValue("1"),
	}

	once := e.Sanitize(rec, "loans", "")
	twice := e.Sanitize(once, "loans", "")
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("sanitization is not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}

func TestSanitize_UnknownSchemaAndFields(t *testing.T) {
	e := sanitizeEngine()

	rec := Record{"anything": StringValue("  raw  ")}

	// No schema: untouched copy.
	out := e.Sanitize(rec, "unknown", "")
	if got, _ := out["anything"].AsString(); got != "  raw  " {
		t.Errorf("no-schema sanitize changed value: %q", got)
	}

	// Known schema, unknown field: passes through unchanged.
	out = e.Sanitize(rec, "loans", "")
	if got, _ := out["anything"].AsString(); got != "  raw  " {
		t.Errorf("unknown field changed: %q", got)
	}
}

func TestSanitizeAll(t *testing.T) {
	e := sanitizeEngine()

	records := []Record{
		{"amount": StringValue("$10")},
		{"amount": StringValue("$20")},
	}

	out := e.SanitizeAll(records, "loans", "")
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if got, _ := out[0]["amount"].AsFloat(); got != 10 {
		t.Errorf("out[0] = %v, want 10", got)
	}
	if got, _ := out[1]["amount"].AsFloat(); got != 20 {
		t.Errorf("out[1] = %v, want 20", got)
	}
	// Inputs stay raw.
	if got, _ := records[0]["amount"].AsString(); got != "$10" {
		t.Errorf("input mutated: %q", got)
	}
}
