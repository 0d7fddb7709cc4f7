package validation

// sanitize.go normalizes record values into the canonical shape declared by
// the governing schema. Sanitization is representation-only: it trims,
// coerces, and reformats, but never judges validity and never throws.
// Unparsable values become null; the field key always survives.

import (
	"strings"
	"time"
)

// Sanitize normalizes a single record against the schema for the report
// type. With no registered schema the record is returned as an untouched
// copy.
func (e *Engine) Sanitize(rec Record, reportType, subType string) Record {
	rs := e.resolve(reportType, subType)
	if rs == nil {
		return rec.Clone()
	}
	return sanitizeRecord(rec, rs)
}

// SanitizeAll normalizes every record in input order. The input slice and
// its records are never mutated.
func (e *Engine) SanitizeAll(records []Record, reportType, subType string) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = e.Sanitize(rec, reportType, subType)
	}
	return out
}

func sanitizeRecord(rec Record, rs *RuleSet) Record {
	out := make(Record, len(rec))
	for name, v := range rec {
		ft, ok := rs.Fields[name]
		if !ok {
			// Fields the schema doesn't describe pass through unchanged.
			out[name] = v
			continue
		}
		out[name] = sanitizeValue(v, ft)
	}
	return out
}

func sanitizeValue(v Value, ft FieldType) Value {
	if v.IsNull() {
		return NullValue
	}

	switch ft {
	case TypeString:
		if s, ok := v.AsString(); ok {
			return StringValue(strings.TrimSpace(s))
		}
		return StringValue(v.Text())

	case TypeNumber, TypeInteger:
		f, ok := ParseNumber(v)
		if !ok {
			return NullValue
		}
		return NumberValue(f)

	case TypePercentage:
		f, ok := ParseNumber(v)
		if !ok {
			return NullValue
		}
		if f < 0 {
			f = 0
		} else if f > 100 {
			f = 100
		}
		return NumberValue(f)

	case TypeDate:
		t, ok := ParseDate(v)
		if !ok {
			return NullValue
		}
		return StringValue(t.Format("2006-01-02"))

	case TypeDateTime:
		t, ok := ParseDate(v)
		if !ok {
			return NullValue
		}
		return StringValue(t.Format(time.RFC3339))

	case TypeBool:
		b, ok := ParseBool(v)
		if !ok {
			return NullValue
		}
		return BoolValue(b)

	default:
		return v
	}
}
