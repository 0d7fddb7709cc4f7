package schema

import (
	"math"

	"github.com/arclend/lenddash/internal/validation"
)

var (
	complaintStatuses = []string{"Open", "In Progress", "Resolved", "Closed"}
	// Severity levels drive SLA reporting, so the vocabulary is closed.
	complaintSeverities = []string{"Low", "Medium", "High", "Critical"}
	complaintChannels   = []string{"Phone", "Email", "Letter", "Web", "Branch"}
)

func complaints() *validation.RuleSet {
	return &validation.RuleSet{
		Required: []string{"complaint_id", "received_date", "category"},
		Fields: map[string]validation.FieldType{
			"complaint_id":    validation.TypeString,
			"customer_id":     validation.TypeString,
			"category":        validation.TypeString,
			"received_date":   validation.TypeDate,
			"resolved_date":   validation.TypeDate,
			"days_to_resolve": validation.TypeInteger,
			"status":          validation.TypeString,
			"severity":        validation.TypeString,
			"decision":        validation.TypeString,
			"channel":         validation.TypeString,
		},
		Constraints: map[string]validation.Constraint{
			"complaint_id":    {Pattern: idPattern, MaxLength: ip(40)},
			"days_to_resolve": {Min: fp(0)},
			"status":          {Enum: complaintStatuses},
			"severity":        {Enum: complaintSeverities, EnumSeverity: validation.SeverityError},
			"channel":         {Enum: complaintChannels},
		},
		Rules: []validation.BusinessRule{
			{
				Name:     "resolved-before-received",
				Severity: validation.SeverityError,
				Check: func(r validation.Record) string {
					received, ok1 := r.Date("received_date")
					resolved, ok2 := r.Date("resolved_date")
					if !ok1 || !ok2 {
						return ""
					}
					if resolved.Before(received) {
						return "Resolved date cannot be before received date"
					}
					return ""
				},
			},
			{
				Name:     "days-to-resolve-mismatch",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					days, ok1 := r.Number("days_to_resolve")
					received, ok2 := r.Date("received_date")
					resolved, ok3 := r.Date("resolved_date")
					if !ok1 || !ok2 || !ok3 {
						return ""
					}
					actual := resolved.Sub(received).Hours() / 24
					if math.Abs(days-actual) > 1 {
						return "Days to resolve does not match the recorded dates"
					}
					return ""
				},
			},
			{
				Name:     "resolved-without-decision",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					if !r.Present("resolved_date") {
						return ""
					}
					if !r.Present("decision") {
						return "Resolved complaint has no decision recorded"
					}
					return ""
				},
			},
			{
				Name:     "critical-resolved-slowly",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					severity, ok1 := r.Text("severity")
					status, ok2 := r.Text("status")
					days, ok3 := r.Number("days_to_resolve")
					if !ok1 || !ok2 || !ok3 {
						return ""
					}
					if severity == "Critical" && status == "Resolved" && days > 7 {
						return "Critical complaint took more than 7 days to resolve"
					}
					return ""
				},
			},
		},
	}
}
