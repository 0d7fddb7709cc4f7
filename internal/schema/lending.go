package schema

import (
	"fmt"

	"github.com/arclend/lenddash/internal/validation"
)

// loanStages is the expected loan lifecycle vocabulary. New stages show up
// in source exports from time to time, so violations stay advisory.
var loanStages = []string{"Applied", "Approved", "Funded", "Active", "Repaid", "Defaulted", "Written Off"}

var arrearsBands = []string{"1-29", "30-59", "60-89", "90+"}

func lendingVolume() *validation.RuleSet {
	return &validation.RuleSet{
		Required: []string{"customer_id", "stage", "stage_date", "issued_amount"},
		Fields: map[string]validation.FieldType{
			"customer_id":     validation.TypeString,
			"customer_name":   validation.TypeString,
			"stage":           validation.TypeString,
			"stage_date":      validation.TypeDate,
			"funded_date":     validation.TypeDate,
			"issued_amount":   validation.TypeNumber,
			"total_due":       validation.TypeNumber,
			"interest_rate":   validation.TypePercentage,
			"term_months":     validation.TypeInteger,
			"is_restructured": validation.TypeBool,
		},
		Constraints: map[string]validation.Constraint{
			"customer_id":   {Pattern: idPattern, MaxLength: ip(40)},
			"stage":         {Enum: loanStages},
			"issued_amount": {Min: fp(0)},
			"total_due":     {Min: fp(0)},
			"term_months":   {Min: fp(1), Max: fp(120)},
		},
		Rules: loanLifecycleRules(),
	}
}

func arrears() *validation.RuleSet {
	rules := loanLifecycleRules()
	rules = append(rules, validation.BusinessRule{
		Name:     "stale-overdue-balance",
		Severity: validation.SeverityWarning,
		Check: func(r validation.Record) string {
			days, ok1 := r.Number("days_overdue")
			out, ok2 := r.Number("outstanding_amount")
			if !ok1 || !ok2 {
				return ""
			}
			if days > 90 && out < 100 {
				return "Account more than 90 days overdue with outstanding balance under 100"
			}
			return ""
		},
	})

	return &validation.RuleSet{
		Required: []string{"customer_id", "stage", "stage_date"},
		Fields: map[string]validation.FieldType{
			"customer_id":        validation.TypeString,
			"stage":              validation.TypeString,
			"stage_date":         validation.TypeDate,
			"funded_date":        validation.TypeDate,
			"issued_amount":      validation.TypeNumber,
			"total_due":          validation.TypeNumber,
			"days_overdue":       validation.TypeInteger,
			"outstanding_amount": validation.TypeNumber,
			"arrears_band":       validation.TypeString,
		},
		Constraints: map[string]validation.Constraint{
			"customer_id":        {Pattern: idPattern, MaxLength: ip(40)},
			"stage":              {Enum: loanStages},
			"days_overdue":       {Min: fp(0)},
			"outstanding_amount": {Min: fp(0)},
			"arrears_band":       {Enum: arrearsBands},
		},
		Rules: rules,
	}
}

// loanLifecycleRules are shared between the lending-volume and arrears
// report types.
func loanLifecycleRules() []validation.BusinessRule {
	return []validation.BusinessRule{
		{
			Name:     "funded-before-stage-date",
			Severity: validation.SeverityWarning,
			Check: func(r validation.Record) string {
				funded, ok1 := r.Date("funded_date")
				stage, ok2 := r.Date("stage_date")
				if !ok1 || !ok2 {
					return ""
				}
				if funded.Before(stage) {
					return fmt.Sprintf("Funded date %s is before stage date %s", funded.Format("2006-01-02"), stage.Format("2006-01-02"))
				}
				return ""
			},
		},
		{
			Name:     "total-due-below-issued",
			Severity: validation.SeverityWarning,
			Check: func(r validation.Record) string {
				total, ok1 := r.Number("total_due")
				issued, ok2 := r.Number("issued_amount")
				stage, ok3 := r.Text("stage")
				if !ok1 || !ok2 || !ok3 {
					return ""
				}
				if stage != "Repaid" && total < issued {
					return "Total due is less than issued amount for a loan that is not repaid"
				}
				return ""
			},
		},
	}
}
