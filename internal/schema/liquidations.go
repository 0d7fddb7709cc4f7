package schema

import (
	"math"

	"github.com/arclend/lenddash/internal/validation"
)

func liquidations() *validation.RuleSet {
	return &validation.RuleSet{
		Required: []string{"customer_id"},
		Fields: map[string]validation.FieldType{
			"customer_id":             validation.TypeString,
			"funded":                  validation.TypeNumber,
			"collected":               validation.TypeNumber,
			"actual_liquidation_rate": validation.TypePercentage,
			"recovery_amount":         validation.TypeNumber,
			"liquidation_amount":      validation.TypeNumber,
			"liquidation_date":        validation.TypeDate,
		},
		Constraints: map[string]validation.Constraint{
			"customer_id":        {Pattern: idPattern, MaxLength: ip(40)},
			"funded":             {Min: fp(0)},
			"collected":          {Min: fp(0)},
			"recovery_amount":    {Min: fp(0)},
			"liquidation_amount": {Min: fp(0)},
		},
		Rules: []validation.BusinessRule{
			{
				Name:     "collection-rate-over-100",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					funded, ok1 := r.Number("funded")
					collected, ok2 := r.Number("collected")
					if !ok1 || !ok2 || funded == 0 {
						return ""
					}
					if collected/funded > 1.0 {
						return "Collection rate exceeds 100%"
					}
					return ""
				},
			},
			{
				Name:     "liquidation-rate-mismatch",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					funded, ok1 := r.Number("funded")
					collected, ok2 := r.Number("collected")
					recorded, ok3 := r.Number("actual_liquidation_rate")
					if !ok1 || !ok2 || !ok3 || funded == 0 {
						return ""
					}
					calculated := collected / funded * 100
					if math.Abs(calculated-recorded) > 1 {
						return "Recorded liquidation rate differs from calculated rate by more than 1 point"
					}
					return ""
				},
			},
			{
				Name:     "recovery-exceeds-liquidation",
				Severity: validation.SeverityError,
				Check: func(r validation.Record) string {
					recovery, ok1 := r.Number("recovery_amount")
					liquidation, ok2 := r.Number("liquidation_amount")
					if !ok1 || !ok2 {
						return ""
					}
					if recovery > liquidation {
						return "Recovery amount exceeds liquidation amount"
					}
					return ""
				},
			},
		},
	}
}
