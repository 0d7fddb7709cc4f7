package schema

// load.go parses additional validation schemas from YAML, so deployments can
// extend or override the built-in report types without a rebuild.
//
// Document shape (one top-level key per report type):
//
//	custom-report:
//	  required: [record_id, amount]
//	  fields:
//	    record_id: {type: string, pattern: "^[A-Za-z0-9-_]+$"}
//	    amount:    {type: number, min: 0}
//	    status:    {type: string, enum: [Open, Closed], enumSeverity: error}
//	split-report:
//	  subtypes:
//	    daily:  {required: [report_date], fields: {report_date: {type: date}}}
//	    weekly: {required: [week_start], fields: {week_start: {type: date}}}
//
// YAML-loaded rule sets carry field rules only; cross-field business rules
// are code and stay with the built-in schemas.

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/arclend/lenddash/internal/validation"
	"gopkg.in/yaml.v3"
)

type fileField struct {
	Type         string   `yaml:"type"`
	Min          *float64 `yaml:"min"`
	Max          *float64 `yaml:"max"`
	Enum         []string `yaml:"enum"`
	EnumSeverity string   `yaml:"enumSeverity"`
	Pattern      string   `yaml:"pattern"`
	MinLength    *int     `yaml:"minLength"`
	MaxLength    *int     `yaml:"maxLength"`
}

type fileRuleSet struct {
	Required []string               `yaml:"required"`
	Fields   map[string]fileField   `yaml:"fields"`
	SubTypes map[string]fileRuleSet `yaml:"subtypes"`
}

// Load parses a YAML schema document into report-type keyed schemas.
func Load(r io.Reader) (map[string]validation.Schema, error) {
	var doc map[string]fileRuleSet
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}

	out := make(map[string]validation.Schema, len(doc))
	for reportType, frs := range doc {
		s, err := buildSchema(frs)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", reportType, err)
		}
		out[reportType] = s
	}
	return out, nil
}

// LoadFile reads and parses a YAML schema file.
func LoadFile(path string) (map[string]validation.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// RegisterFile loads a YAML schema file and registers its schemas on the
// engine, overwriting any existing registration for the same keys.
func RegisterFile(e *validation.Engine, path string) error {
	schemas, err := LoadFile(path)
	if err != nil {
		return err
	}
	for reportType, s := range schemas {
		e.RegisterSchema(reportType, s)
	}
	return nil
}

func buildSchema(frs fileRuleSet) (validation.Schema, error) {
	if len(frs.SubTypes) > 0 {
		subs := make(map[string]*validation.RuleSet, len(frs.SubTypes))
		for name, sub := range frs.SubTypes {
			if len(sub.SubTypes) > 0 {
				return validation.Schema{}, fmt.Errorf("sub-type %q: nested sub-types are not supported", name)
			}
			rs, err := buildRuleSet(sub)
			if err != nil {
				return validation.Schema{}, fmt.Errorf("sub-type %q: %w", name, err)
			}
			subs[name] = rs
		}
		return validation.WithSubTypes(subs), nil
	}
	rs, err := buildRuleSet(frs)
	if err != nil {
		return validation.Schema{}, err
	}
	return validation.Flat(rs), nil
}

func buildRuleSet(frs fileRuleSet) (*validation.RuleSet, error) {
	rs := &validation.RuleSet{
		Required:    frs.Required,
		Fields:      make(map[string]validation.FieldType, len(frs.Fields)),
		Constraints: make(map[string]validation.Constraint),
	}

	for name, ff := range frs.Fields {
		ft, err := parseFieldType(ff.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		rs.Fields[name] = ft

		c := validation.Constraint{
			Min:       ff.Min,
			Max:       ff.Max,
			Enum:      ff.Enum,
			MinLength: ff.MinLength,
			MaxLength: ff.MaxLength,
		}
		switch ff.EnumSeverity {
		case "", "warning":
			c.EnumSeverity = validation.SeverityWarning
		case "error":
			c.EnumSeverity = validation.SeverityError
		default:
			return nil, fmt.Errorf("field %q: unknown enumSeverity %q", name, ff.EnumSeverity)
		}
		if ff.Pattern != "" {
			re, err := regexp.Compile(ff.Pattern)
			if err != nil {
				return nil, fmt.Errorf("field %q: invalid pattern: %w", name, err)
			}
			c.Pattern = re
		}
		if c.Min != nil || c.Max != nil || len(c.Enum) > 0 || c.Pattern != nil || c.MinLength != nil || c.MaxLength != nil {
			rs.Constraints[name] = c
		}
	}

	return rs, nil
}

func parseFieldType(s string) (validation.FieldType, error) {
	switch s {
	case "string":
		return validation.TypeString, nil
	case "number":
		return validation.TypeNumber, nil
	case "integer":
		return validation.TypeInteger, nil
	case "date":
		return validation.TypeDate, nil
	case "datetime":
		return validation.TypeDateTime, nil
	case "percentage":
		return validation.TypePercentage, nil
	case "boolean":
		return validation.TypeBool, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}
