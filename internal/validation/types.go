// Package validation implements the rules-driven engine that checks
// lending/collections report records against per-report-type schemas and
// normalizes them into a canonical shape.
//
// The engine owns a schema registry (one Schema per report type, optionally
// split by sub-type) and exposes record-level and dataset-level validation,
// sanitization, and schema introspection. Consumers pass raw parsed records
// through the engine before accepting them into application state.
//
// Validation failures are data, not errors: every operation returns a result
// object and one bad record never aborts processing of the rest.
package validation

import "regexp"

// FieldType is the semantic type tag declared for a field in a schema.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeInteger
	TypeDate
	TypeDateTime
	TypePercentage
	TypeBool
)

// String returns the schema-file name of the field type.
func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeInteger:
		return "integer"
	case TypeDate:
		return "date"
	case TypeDateTime:
		return "datetime"
	case TypePercentage:
		return "percentage"
	case TypeBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Severity classifies a finding. Errors reject the record; warnings are
// advisory and never affect acceptance.
type Severity int

const (
	// SeverityWarning is the zero value: enum constraints default to the
	// lenient policy (advisory) unless a schema opts a field into errors.
	SeverityWarning Severity = iota
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Constraint is the per-field constraint set. Nil bounds are unconstrained.
type Constraint struct {
	Min          *float64
	Max          *float64
	Enum         []string
	EnumSeverity Severity // severity of enum violations for this field
	Pattern      *regexp.Regexp
	MinLength    *int
	MaxLength    *int
}

// BusinessRule is a cross-field consistency check. Check returns a violation
// message, or "" when the rule passes or any field it needs is absent.
type BusinessRule struct {
	Name     string
	Severity Severity
	Check    func(Record) string
}

// RuleSet is the required/types/constraints/rules bundle governing one
// report type or sub-type. Rule sets are built once and treated as
// immutable reference data.
type RuleSet struct {
	Required    []string
	Fields      map[string]FieldType
	Constraints map[string]Constraint
	Rules       []BusinessRule
}

// Schema is a tagged union: either a single flat rule set, or a mapping of
// sub-type name to rule set for report types with sub-type variants.
type Schema struct {
	Flat     *RuleSet
	SubTypes map[string]*RuleSet
}

// Flat wraps a single rule set as a Schema.
func Flat(rs *RuleSet) Schema { return Schema{Flat: rs} }

// WithSubTypes wraps a sub-type keyed rule-set mapping as a Schema.
func WithSubTypes(m map[string]*RuleSet) Schema { return Schema{SubTypes: m} }

// Resolve returns the rule set for the given sub-type, or nil if the schema
// has no matching variant. An empty sub-type resolves to the flat rule set.
func (s Schema) Resolve(subType string) *RuleSet {
	if subType != "" {
		if s.SubTypes != nil {
			return s.SubTypes[subType]
		}
		// Sub-type given for a flat schema: the flat rule set governs.
		return s.Flat
	}
	return s.Flat
}

// Options configures a single validation call.
type Options struct {
	// AllowPartial skips required-field checks, for partial/patch updates.
	AllowPartial bool

	// Lenient disables strict schema resolution: a missing schema for the
	// requested report type produces a warning instead of a rejecting
	// error. The default (strict) rejects records for unknown report types.
	Lenient bool

	// CustomRules overrides schema resolution for this call only.
	CustomRules *RuleSet
}

// Result is the outcome of validating a single record.
type Result struct {
	Valid    bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`

	// Sanitized is the normalized form of the record. It is produced
	// independently of validity: sanitizing never fixes invalid data, it
	// only normalizes representation.
	Sanitized Record `json:"sanitized,omitempty"`
}

// CustomValidator is a caller-registered validation function. Registered
// validators are only invoked explicitly via ValidateWithCustom, never
// automatically by ValidateRecord.
type CustomValidator func(Record, *Options) Result
