package schema

import "github.com/arclend/lenddash/internal/validation"

// Call-center data ships as four sub-reports, each with its own schema:
// the per-call log, a daily aggregate, agent interaction scores, and
// queue-level statistics.

// dispositions is a closed telephony vocabulary, so violations are errors.
var dispositions = []string{"Answered", "Missed", "Abandoned", "Voicemail", "Busy"}

func callLog() *validation.RuleSet {
	return &validation.RuleSet{
		Required: []string{"call_id", "date_time"},
		Fields: map[string]validation.FieldType{
			"call_id":            validation.TypeString,
			"date_time":          validation.TypeDateTime,
			"answered_date_time": validation.TypeDateTime,
			"disposition":        validation.TypeString,
			"talk_time":          validation.TypeNumber,
			"agent_id":           validation.TypeString,
			"customer_id":        validation.TypeString,
		},
		Constraints: map[string]validation.Constraint{
			"call_id":     {Pattern: idPattern, MaxLength: ip(40)},
			"disposition": {Enum: dispositions, EnumSeverity: validation.SeverityError},
			"talk_time":   {Min: fp(0)},
		},
		Rules: []validation.BusinessRule{
			{
				Name:     "answered-before-call-start",
				Severity: validation.SeverityError,
				Check: func(r validation.Record) string {
					answered, ok1 := r.Date("answered_date_time")
					started, ok2 := r.Date("date_time")
					if !ok1 || !ok2 {
						return ""
					}
					if answered.Before(started) {
						return "Answered time is before call start time"
					}
					return ""
				},
			},
			{
				Name:     "answered-without-talk-time",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					disp, ok := r.Text("disposition")
					if !ok || disp != "Answered" {
						return ""
					}
					if talk, ok := r.Number("talk_time"); !ok || talk == 0 {
						return "Answered call has no talk time"
					}
					return ""
				},
			},
		},
	}
}

func dailyAggregate() *validation.RuleSet {
	return &validation.RuleSet{
		Required: []string{"report_date", "total_calls"},
		Fields: map[string]validation.FieldType{
			"report_date":      validation.TypeDate,
			"total_calls":      validation.TypeInteger,
			"inbound_calls":    validation.TypeInteger,
			"outbound_calls":   validation.TypeInteger,
			"answered_calls":   validation.TypeInteger,
			"abandoned_calls":  validation.TypeInteger,
			"avg_wait_seconds": validation.TypeNumber,
		},
		Constraints: map[string]validation.Constraint{
			"total_calls":      {Min: fp(0)},
			"inbound_calls":    {Min: fp(0)},
			"outbound_calls":   {Min: fp(0)},
			"answered_calls":   {Min: fp(0)},
			"abandoned_calls":  {Min: fp(0)},
			"avg_wait_seconds": {Min: fp(0)},
		},
		Rules: []validation.BusinessRule{
			{
				Name:     "call-totals-mismatch",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					total, ok1 := r.Number("total_calls")
					in, ok2 := r.Number("inbound_calls")
					out, ok3 := r.Number("outbound_calls")
					if !ok1 || !ok2 || !ok3 {
						return ""
					}
					if total != in+out {
						return "Total calls do not equal inbound plus outbound calls"
					}
					return ""
				},
			},
		},
	}
}

func agentInteractions() *validation.RuleSet {
	return &validation.RuleSet{
		Required: []string{"interaction_id", "agent_id"},
		Fields: map[string]validation.FieldType{
			"interaction_id":     validation.TypeString,
			"agent_id":           validation.TypeString,
			"customer_id":        validation.TypeString,
			"duration_minutes":   validation.TypeNumber,
			"satisfaction_score": validation.TypeInteger,
			"resolved":           validation.TypeBool,
		},
		Constraints: map[string]validation.Constraint{
			"interaction_id":     {Pattern: idPattern, MaxLength: ip(40)},
			"duration_minutes":   {Min: fp(0)},
			"satisfaction_score": {Min: fp(1), Max: fp(5)},
		},
		Rules: []validation.BusinessRule{
			{
				Name:     "long-call-low-satisfaction",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					dur, ok1 := r.Number("duration_minutes")
					score, ok2 := r.Number("satisfaction_score")
					if !ok1 || !ok2 {
						return ""
					}
					if dur > 30 && score <= 2 {
						return "Call longer than 30 minutes with satisfaction score of 2 or below"
					}
					return ""
				},
			},
		},
	}
}

func queueStats() *validation.RuleSet {
	return &validation.RuleSet{
		Required: []string{"queue_name", "report_date"},
		Fields: map[string]validation.FieldType{
			"queue_name":           validation.TypeString,
			"report_date":          validation.TypeDate,
			"calls_offered":        validation.TypeInteger,
			"calls_handled":        validation.TypeInteger,
			"service_level":        validation.TypePercentage,
			"longest_wait_seconds": validation.TypeNumber,
		},
		Constraints: map[string]validation.Constraint{
			"queue_name":           {MinLength: ip(1), MaxLength: ip(80)},
			"calls_offered":        {Min: fp(0)},
			"calls_handled":        {Min: fp(0)},
			"longest_wait_seconds": {Min: fp(0)},
		},
		Rules: []validation.BusinessRule{
			{
				Name:     "handled-exceeds-offered",
				Severity: validation.SeverityWarning,
				Check: func(r validation.Record) string {
					offered, ok1 := r.Number("calls_offered")
					handled, ok2 := r.Number("calls_handled")
					if !ok1 || !ok2 {
						return ""
					}
					if handled > offered {
						return "Calls handled exceeds calls offered"
					}
					return ""
				},
			},
		},
	}
}
