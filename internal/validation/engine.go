package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Date plausibility window: parsed dates outside it draw a non-blocking
// warning. Policy constants, not hard errors.
const (
	maxDateYearsPast   = 5
	maxDateYearsFuture = 1
)

// Engine owns the schema registry and the named custom validators. Construct
// one at startup and pass it to consumers; all validation operations are
// pure functions of their inputs plus the registry contents.
type Engine struct {
	mu      sync.RWMutex
	schemas map[string]Schema
	custom  map[string]CustomValidator

	// Now supplies the current time for date-window checks. Overridable in
	// tests; defaults to time.Now.
	Now func() time.Time
}

// NewEngine returns an empty engine. Default report-type schemas are
// installed by the schema package.
func NewEngine() *Engine {
	return &Engine{
		schemas: make(map[string]Schema),
		custom:  make(map[string]CustomValidator),
		Now:     time.Now,
	}
}

// RegisterSchema installs or overwrites the schema for a report type.
// Records are always validated against the schema current at call time.
func (e *Engine) RegisterSchema(reportType string, s Schema) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schemas[reportType] = s
}

// Schema returns the rule set governing the report type (and sub-type, if
// given), or nil if none is registered. Read-only lookup for introspection.
func (e *Engine) Schema(reportType, subType string) *RuleSet {
	return e.resolve(reportType, subType)
}

// ReportTypes returns the registered report-type keys in sorted order.
func (e *Engine) ReportTypes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.schemas))
	for k := range e.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SubTypes returns the sub-type keys of a report type in sorted order, or
// nil for flat schemas.
func (e *Engine) SubTypes(reportType string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.schemas[reportType]
	if !ok || s.SubTypes == nil {
		return nil
	}
	keys := make([]string, 0, len(s.SubTypes))
	for k := range s.SubTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddCustomValidator registers a named validator for later explicit use via
// ValidateWithCustom. Registered validators are never invoked automatically.
func (e *Engine) AddCustomValidator(name string, fn CustomValidator) error {
	if fn == nil {
		return fmt.Errorf("custom validator %q: nil function", name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.custom[name] = fn
	return nil
}

// RemoveCustomValidator unregisters a named validator. Removing an unknown
// name is a no-op.
func (e *Engine) RemoveCustomValidator(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.custom, name)
}

// ValidateWithCustom invokes a previously registered custom validator.
func (e *Engine) ValidateWithCustom(name string, rec Record, opts *Options) (Result, error) {
	e.mu.RLock()
	fn, ok := e.custom[name]
	e.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("custom validator %q is not registered", name)
	}
	return fn(rec, opts), nil
}

// ValidateRecord validates a single record against the schema for the given
// report type and optional sub-type.
//
// The passes run in order: required fields, per-field type checks, per-field
// constraint checks, then cross-field business rules. A record is valid when
// it produced no errors; warnings never affect validity. Panics raised while
// checking a record are converted into a single "Validation error" entry so
// one bad record cannot abort a dataset pass.
func (e *Engine) ValidateRecord(rec Record, reportType, subType string, opts *Options) (res Result) {
	if opts == nil {
		opts = &Options{}
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Errors: []string{fmt.Sprintf("Validation error: %v", r)}}
		}
	}()

	rs := opts.CustomRules
	if rs == nil {
		rs = e.resolve(reportType, subType)
	}
	if rs == nil {
		msg := schemaNotFound(reportType, subType)
		if opts.Lenient {
			return Result{Valid: true, Warnings: []string{msg}, Sanitized: rec.Clone()}
		}
		return Result{Errors: []string{msg}}
	}

	var errs, warns []string

	if !opts.AllowPartial {
		for _, name := range rs.Required {
			if !rec.Present(name) {
				errs = append(errs, fmt.Sprintf("Required field '%s' is missing or empty", name))
			}
		}
	}

	// Per-field pass over the fields present in the record. Fields the
	// schema does not describe pass through unflagged; empty values are
	// governed only by the required check above.
	now := e.now()
	for _, name := range rec.fieldNames() {
		v := rec[name]
		if v.IsEmpty() {
			continue
		}
		if ft, ok := rs.Fields[name]; ok {
			checkType(name, v, ft, now, &errs, &warns)
		}
		if c, ok := rs.Constraints[name]; ok {
			checkConstraint(name, v, c, &errs, &warns)
		}
	}

	// Business rules self-skip when the fields they read are absent.
	for _, rule := range rs.Rules {
		if msg := rule.Check(rec); msg != "" {
			if rule.Severity == SeverityError {
				errs = append(errs, msg)
			} else {
				warns = append(warns, msg)
			}
		}
	}

	return Result{
		Valid:     len(errs) == 0,
		Errors:    errs,
		Warnings:  warns,
		Sanitized: sanitizeRecord(rec, rs),
	}
}

func (e *Engine) resolve(reportType, subType string) *RuleSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.schemas[reportType]
	if !ok {
		return nil
	}
	return s.Resolve(subType)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func schemaNotFound(reportType, subType string) string {
	if subType != "" {
		return fmt.Sprintf("No validation schema registered for report type '%s' sub-type '%s'", reportType, subType)
	}
	return fmt.Sprintf("No validation schema registered for report type '%s'", reportType)
}

// checkType validates a non-empty value against its declared type tag.
func checkType(name string, v Value, ft FieldType, now time.Time, errs, warns *[]string) {
	switch ft {
	case TypeString:
		// Lenient policy: a non-string scalar is coerced via its string
		// form and flagged as a warning rather than an error.
		if v.Kind() != KindString {
			*warns = append(*warns, fmt.Sprintf("Field '%s' expected text, coerced %s value '%s'", name, kindName(v.Kind()), v.Text()))
		}

	case TypeNumber:
		if _, ok := ParseNumber(v); !ok {
			*errs = append(*errs, fmt.Sprintf("Field '%s' must be a number, got '%s'", name, v.Text()))
		}

	case TypeInteger:
		f, ok := ParseNumber(v)
		if !ok || f != math.Trunc(f) {
			*errs = append(*errs, fmt.Sprintf("Field '%s' must be a whole number, got '%s'", name, v.Text()))
		}

	case TypeDate, TypeDateTime:
		t, ok := ParseDate(v)
		if !ok {
			*errs = append(*errs, fmt.Sprintf("Field '%s' is not a valid date: '%s'", name, v.Text()))
			return
		}
		if t.Before(now.AddDate(-maxDateYearsPast, 0, 0)) {
			*warns = append(*warns, fmt.Sprintf("Date in field '%s' is more than %d years in the past", name, maxDateYearsPast))
		} else if t.After(now.AddDate(maxDateYearsFuture, 0, 0)) {
			*warns = append(*warns, fmt.Sprintf("Date in field '%s' is more than %d year in the future", name, maxDateYearsFuture))
		}

	case TypePercentage:
		f, ok := ParseNumber(v)
		if !ok {
			*errs = append(*errs, fmt.Sprintf("Field '%s' must be a numeric percentage, got '%s'", name, v.Text()))
		} else if f < 0 || f > 100 {
			*errs = append(*errs, fmt.Sprintf("Field '%s' must be between 0 and 100, got '%s'", name, v.Text()))
		}

	case TypeBool:
		if _, ok := ParseBool(v); !ok {
			*errs = append(*errs, fmt.Sprintf("Field '%s' must be a boolean (true/false or 0/1), got '%s'", name, v.Text()))
		}
	}
}

// checkConstraint validates a non-empty value against its constraint set,
// independently of the type check.
func checkConstraint(name string, v Value, c Constraint, errs, warns *[]string) {
	if c.Min != nil || c.Max != nil {
		if f, ok := ParseNumber(v); ok {
			if c.Min != nil && f < *c.Min {
				*errs = append(*errs, fmt.Sprintf("Field '%s' must be at least %v, got %v", name, *c.Min, f))
			}
			if c.Max != nil && f > *c.Max {
				*errs = append(*errs, fmt.Sprintf("Field '%s' must be at most %v, got %v", name, *c.Max, f))
			}
		}
	}

	if len(c.Enum) > 0 {
		if !enumContains(c.Enum, strings.TrimSpace(v.Text())) {
			msg := fmt.Sprintf("Field '%s' has unexpected value '%s' (expected one of: %s)", name, v.Text(), strings.Join(c.Enum, ", "))
			if c.EnumSeverity == SeverityError {
				*errs = append(*errs, msg)
			} else {
				*warns = append(*warns, msg)
			}
		}
	}

	if c.Pattern != nil && !c.Pattern.MatchString(v.Text()) {
		*errs = append(*errs, fmt.Sprintf("Field '%s' does not match the expected format: '%s'", name, v.Text()))
	}

	if c.MinLength != nil || c.MaxLength != nil {
		l := len(v.Text())
		if c.MinLength != nil && l < *c.MinLength {
			*errs = append(*errs, fmt.Sprintf("Field '%s' must be at least %d characters", name, *c.MinLength))
		}
		if c.MaxLength != nil && l > *c.MaxLength {
			*errs = append(*errs, fmt.Sprintf("Field '%s' must be at most %d characters", name, *c.MaxLength))
		}
	}
}

func enumContains(allowed []string, value string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return true
		}
	}
	return false
}
