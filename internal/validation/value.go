package validation

// value.go defines the closed variant type used for record values.
//
// Records arrive from CSV uploads (everything is a string) or from JSON
// bodies (strings, numbers, booleans, nulls). Converting to Value at the
// ingestion boundary means the engine dispatches on a known discriminant
// instead of doing reflection on interface{} values throughout.

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a loosely-typed scalar: null, string, number, or boolean.
// The zero value is null.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
}

// NullValue is the null Value.
var NullValue = Value{}

// StringValue returns a Value holding s.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// NumberValue returns a Value holding f.
func NumberValue(f float64) Value { return Value{kind: KindNumber, n: f} }

// BoolValue returns a Value holding b.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// From converts an arbitrary scalar (as produced by encoding/json or a CSV
// reader) into a Value. Unsupported types are stringified via fmt.
func From(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue
	case Value:
		return x
	case string:
		return StringValue(x)
	case float64:
		return NumberValue(x)
	case float32:
		return NumberValue(float64(x))
	case int:
		return NumberValue(float64(x))
	case int32:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case bool:
		return BoolValue(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return NumberValue(f)
		}
		return StringValue(x.String())
	default:
		return StringValue(fmt.Sprintf("%v", v))
	}
}

// Kind returns the variant discriminant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsEmpty reports whether the value is null or a blank string.
// Empty values are governed only by required-field checks.
func (v Value) IsEmpty() bool {
	return v.kind == KindNull || (v.kind == KindString && strings.TrimSpace(v.s) == "")
}

// AsString returns the raw string if the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsFloat returns the numeric value if the value is a number.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// AsBool returns the boolean value if the value is a boolean.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Text returns the stringified form of the value. Null stringifies to "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// MarshalJSON encodes the value as the corresponding JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		return json.Marshal(v.n)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON scalar into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = From(raw)
	return nil
}

func kindName(k Kind) string {
	switch k {
	case KindString:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "null"
	}
}

// Record is an open mapping from field name to a loosely-typed value.
// Fields the active schema does not describe pass through validation and
// sanitization untouched.
type Record map[string]Value

// RecordFrom converts a decoded JSON object into a Record.
func RecordFrom(m map[string]any) Record {
	rec := make(Record, len(m))
	for name, v := range m {
		rec[name] = From(v)
	}
	return rec
}

// Clone returns a shallow copy of the record. Values are immutable, so a
// shallow copy is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for name, v := range r {
		out[name] = v
	}
	return out
}

// Present reports whether the named field exists and is non-empty.
func (r Record) Present(name string) bool {
	v, ok := r[name]
	return ok && !v.IsEmpty()
}

// Number returns the parsed numeric value of the named field.
func (r Record) Number(name string) (float64, bool) {
	v, ok := r[name]
	if !ok || v.IsEmpty() {
		return 0, false
	}
	return ParseNumber(v)
}

// Date returns the parsed date value of the named field.
func (r Record) Date(name string) (time.Time, bool) {
	v, ok := r[name]
	if !ok || v.IsEmpty() {
		return time.Time{}, false
	}
	return ParseDate(v)
}

// Text returns the stringified value of the named field.
func (r Record) Text(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v.IsEmpty() {
		return "", false
	}
	return strings.TrimSpace(v.Text()), true
}

// fieldNames returns the record's field names in sorted order so validation
// output is deterministic regardless of map iteration order.
func (r Record) fieldNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
