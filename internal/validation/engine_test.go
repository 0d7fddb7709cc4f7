package validation

import (
	"strings"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

// testEngine returns an engine with a fixed clock and one flat schema
// registered under "accounts".
func testEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	e.Now = func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	e.RegisterSchema("accounts", Flat(&RuleSet{
		Required: []string{"account_id", "balance"},
		Fields: map[string]FieldType{
			"account_id":  TypeString,
			"balance":     TypeNumber,
			"opened_date": TypeDate,
			"utilization": TypePercentage,
			"term":        TypeInteger,
			"active":      TypeBool,
			"status":      TypeString,
			"tier":        TypeString,
		},
		Constraints: map[string]Constraint{
			"balance": {Min: fp(0), Max: fp(1000000)},
			"status":  {Enum: []string{"Open", "Closed"}},
			"tier":    {Enum: []string{"Gold", "Silver"}, EnumSeverity: SeverityError},
		},
		Rules: []BusinessRule{
			{
				Name:     "closed-with-balance",
				Severity: SeverityWarning,
				Check: func(r Record) string {
					status, ok := r.Text("status")
					if !ok || status != "Closed" {
						return ""
					}
					if bal, ok := r.Number("balance"); ok && bal > 0 {
						return "Closed account still carries a balance"
					}
					return ""
				},
			},
		},
	}))
	return e
}

func validRecord() Record {
	return Record{
		"account_id": StringValue("ACC-001"),
		"balance":    StringValue("1,250.00"),
		"status":     StringValue("Open"),
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	e := testEngine(t)

	res := e.ValidateRecord(validRecord(), "accounts", "", nil)
	if !res.Valid {
		t.Fatalf("expected valid, got errors %v", res.Errors)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Errorf("expected no findings, got errors %v warnings %v", res.Errors, res.Warnings)
	}
	if res.Sanitized == nil {
		t.Error("expected sanitized record")
	}
}

func TestValidateRecord_RequiredFields(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		name    string
		rec     Record
		wantMsg string
	}{
		{
			name:    "missing field",
			rec:     Record{"balance": StringValue("100")},
			wantMsg: "Required field 'account_id' is missing or empty",
		},
		{
			name: "empty string counts as missing",
			rec: Record{
				"account_id": StringValue("   "),
				"balance":    StringValue("100"),
			},
			wantMsg: "Required field 'account_id' is missing or empty",
		},
		{
			name: "null counts as missing",
			rec: Record{
				"account_id": NullValue,
				"balance":    StringValue("100"),
			},
			wantMsg: "Required field 'account_id' is missing or empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.ValidateRecord(tt.rec, "accounts", "", nil)
			if res.Valid {
				t.Fatal("expected invalid")
			}
			if !containsMsg(res.Errors, tt.wantMsg) {
				t.Errorf("errors %v missing %q", res.Errors, tt.wantMsg)
			}
		})
	}
}

func TestValidateRecord_AllowPartial(t *testing.T) {
	e := testEngine(t)

	res := e.ValidateRecord(Record{"balance": StringValue("100")}, "accounts", "", &Options{AllowPartial: true})
	if !res.Valid {
		t.Fatalf("expected valid with AllowPartial, got errors %v", res.Errors)
	}
}

func TestValidateRecord_TypeChecks(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		name     string
		field    string
		value    Value
		wantErr  string
		wantWarn string
	}{
		{
			name:    "bad number",
			field:   "balance",
			value:   StringValue("not-a-number"),
			wantErr: "Field 'balance' must be a number",
		},
		{
			name:    "fractional integer",
			field:   "term",
			value:   StringValue("12.5"),
			wantErr: "Field 'term' must be a whole number",
		},
		{
			name:    "bad date",
			field:   "opened_date",
			value:   StringValue("junk"),
			wantErr: "Field 'opened_date' is not a valid date",
		},
		{
			name:    "percentage over 100",
			field:   "utilization",
			value:   StringValue("150"),
			wantErr: "Field 'utilization' must be between 0 and 100",
		},
		{
			name:    "bad boolean",
			field:   "active",
			value:   StringValue("maybe"),
			wantErr: "Field 'active' must be a boolean",
		},
		{
			name:     "non-string for text field coerces with warning",
			field:    "account_id",
			value:    NumberValue(12345),
			wantWarn: "Field 'account_id' expected text",
		},
		{
			name:     "old date draws window warning",
			field:    "opened_date",
			value:    StringValue("2010-01-01"),
			wantWarn: "Date in field 'opened_date' is more than 5 years in the past",
		},
		{
			name:     "future date draws window warning",
			field:    "opened_date",
			value:    StringValue("2026-01-01"),
			wantWarn: "Date in field 'opened_date' is more than 1 year in the future",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			rec[tt.field] = tt.value
			res := e.ValidateRecord(rec, "accounts", "", nil)

			if tt.wantErr != "" {
				if res.Valid {
					t.Fatal("expected invalid")
				}
				if !containsMsg(res.Errors, tt.wantErr) {
					t.Errorf("errors %v missing %q", res.Errors, tt.wantErr)
				}
			}
			if tt.wantWarn != "" {
				if !res.Valid {
					t.Fatalf("expected valid, got errors %v", res.Errors)
				}
				if !containsMsg(res.Warnings, tt.wantWarn) {
					t.Errorf("warnings %v missing %q", res.Warnings, tt.wantWarn)
				}
			}
		})
	}
}

func TestValidateRecord_Constraints(t *testing.T) {
	e := testEngine(t)

	t.Run("below min", func(t *testing.T) {
		rec := validRecord()
		rec["balance"] = StringValue("-50")
		res := e.ValidateRecord(rec, "accounts", "", nil)
		if res.Valid {
			t.Fatal("expected invalid")
		}
		if !containsMsg(res.Errors, "Field 'balance' must be at least 0") {
			t.Errorf("errors %v missing min violation", res.Errors)
		}
	})

	t.Run("above max", func(t *testing.T) {
		rec := validRecord()
		rec["balance"] = StringValue("2000000")
		res := e.ValidateRecord(rec, "accounts", "", nil)
		if res.Valid {
			t.Fatal("expected invalid")
		}
		if !containsMsg(res.Errors, "Field 'balance' must be at most") {
			t.Errorf("errors %v missing max violation", res.Errors)
		}
	})

	t.Run("enum violation defaults to warning", func(t *testing.T) {
		rec := validRecord()
		rec["status"] = StringValue("Frozen")
		res := e.ValidateRecord(rec, "accounts", "", nil)
		if !res.Valid {
			t.Fatalf("enum warning must not reject, got errors %v", res.Errors)
		}
		if !containsMsg(res.Warnings, "Field 'status' has unexpected value 'Frozen'") {
			t.Errorf("warnings %v missing enum violation", res.Warnings)
		}
	})

	t.Run("enum match is case-insensitive", func(t *testing.T) {
		rec := validRecord()
		rec["status"] = StringValue("open")
		res := e.ValidateRecord(rec, "accounts", "", nil)
		if len(res.Warnings) != 0 {
			t.Errorf("unexpected warnings %v", res.Warnings)
		}
	})

	t.Run("error severity enum rejects", func(t *testing.T) {
		rec := validRecord()
		rec["tier"] = StringValue("Bronze")
		res := e.ValidateRecord(rec, "accounts", "", nil)
		if res.Valid {
			t.Fatal("expected invalid")
		}
		if !containsMsg(res.Errors, "Field 'tier' has unexpected value 'Bronze'") {
			t.Errorf("errors %v missing enum violation", res.Errors)
		}
	})
}

func TestValidateRecord_BusinessRules(t *testing.T) {
	e := testEngine(t)

	rec := validRecord()
	rec["status"] = StringValue("Closed")
	res := e.ValidateRecord(rec, "accounts", "", nil)
	if !res.Valid {
		t.Fatalf("warning rule must not reject, got errors %v", res.Errors)
	}
	if !containsMsg(res.Warnings, "Closed account still carries a balance") {
		t.Errorf("warnings %v missing rule violation", res.Warnings)
	}

	// Rule self-skips when its fields are absent.
	res = e.ValidateRecord(Record{
		"account_id": StringValue("ACC-002"),
		"balance":    StringValue("0"),
	}, "accounts", "", nil)
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", res.Warnings)
	}
}

func TestValidateRecord_UnknownReportType(t *testing.T) {
	e := testEngine(t)

	res := e.ValidateRecord(validRecord(), "nonexistent", "", nil)
	if res.Valid {
		t.Fatal("strict default must reject unknown report types")
	}
	if !containsMsg(res.Errors, "No validation schema registered for report type 'nonexistent'") {
		t.Errorf("errors %v missing schema-not-found message", res.Errors)
	}

	res = e.ValidateRecord(validRecord(), "nonexistent", "", &Options{Lenient: true})
	if !res.Valid {
		t.Fatalf("lenient mode must accept, got errors %v", res.Errors)
	}
	if !containsMsg(res.Warnings, "No validation schema registered") {
		t.Errorf("warnings %v missing schema-not-found message", res.Warnings)
	}
}

func TestValidateRecord_CustomRulesOverride(t *testing.T) {
	e := testEngine(t)

	custom := &RuleSet{Required: []string{"only_field"}}
	res := e.ValidateRecord(validRecord(), "accounts", "", &Options{CustomRules: custom})
	if res.Valid {
		t.Fatal("expected invalid against override rule set")
	}
	if !containsMsg(res.Errors, "Required field 'only_field' is missing or empty") {
		t.Errorf("errors %v missing override requirement", res.Errors)
	}
}

func TestValidateRecord_UnknownFieldsPassThrough(t *testing.T) {
	e := testEngine(t)

	rec := validRecord()
	rec["free_text"] = StringValue("anything at all !!!")
	res := e.ValidateRecord(rec, "accounts", "", nil)
	if !res.Valid {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if got, _ := res.Sanitized["free_text"].AsString(); got != "anything at all !!!" {
		t.Errorf("unknown field changed during sanitization: %q", got)
	}
}

func TestValidateRecord_PanicRecovery(t *testing.T) {
	e := testEngine(t)
	e.RegisterSchema("panicky", Flat(&RuleSet{
		Rules: []BusinessRule{{
			Name:     "explodes",
			Severity: SeverityError,
			Check:    func(Record) string { panic("boom") },
		}},
	}))

	res := e.ValidateRecord(Record{"x": StringValue("1")}, "panicky", "", nil)
	if res.Valid {
		t.Fatal("expected invalid after panic")
	}
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "Validation error:") {
		t.Errorf("want single Validation error entry, got %v", res.Errors)
	}
}

func TestEngine_SubTypeResolution(t *testing.T) {
	e := NewEngine()
	e.RegisterSchema("split", WithSubTypes(map[string]*RuleSet{
		"a": {Required: []string{"field_a"}},
		"b": {Required: []string{"field_b"}},
	}))

	res := e.ValidateRecord(Record{"field_a": StringValue("x")}, "split", "a", nil)
	if !res.Valid {
		t.Fatalf("sub-type a: unexpected errors %v", res.Errors)
	}

	res = e.ValidateRecord(Record{"field_a": StringValue("x")}, "split", "b", nil)
	if res.Valid {
		t.Fatal("sub-type b requires field_b")
	}

	// Unknown sub-type is a schema-not-found.
	res = e.ValidateRecord(Record{"field_a": StringValue("x")}, "split", "zzz", nil)
	if res.Valid {
		t.Fatal("unknown sub-type must reject")
	}
	if !containsMsg(res.Errors, "sub-type 'zzz'") {
		t.Errorf("errors %v missing sub-type message", res.Errors)
	}

	if got := e.SubTypes("split"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("SubTypes = %v, want [a b]", got)
	}
}

func TestEngine_ReportTypes(t *testing.T) {
	e := testEngine(t)
	e.RegisterSchema("alpha", Flat(&RuleSet{}))

	got := e.ReportTypes()
	if len(got) != 2 || got[0] != "accounts" || got[1] != "alpha" {
		t.Errorf("ReportTypes = %v, want sorted [accounts alpha]", got)
	}
}

func TestEngine_CustomValidators(t *testing.T) {
	e := testEngine(t)

	err := e.AddCustomValidator("always-warn", func(rec Record, opts *Options) Result {
		return Result{Valid: true, Warnings: []string{"custom says hi"}, Sanitized: rec.Clone()}
	})
	if err != nil {
		t.Fatalf("AddCustomValidator: %v", err)
	}

	res, err := e.ValidateWithCustom("always-warn", validRecord(), nil)
	if err != nil {
		t.Fatalf("ValidateWithCustom: %v", err)
	}
	if !res.Valid || !containsMsg(res.Warnings, "custom says hi") {
		t.Errorf("unexpected result %+v", res)
	}

	if _, err := e.ValidateWithCustom("unknown", validRecord(), nil); err == nil {
		t.Error("expected error for unregistered validator")
	}

	if err := e.AddCustomValidator("nil-fn", nil); err == nil {
		t.Error("expected error for nil validator")
	}

	e.RemoveCustomValidator("always-warn")
	if _, err := e.ValidateWithCustom("always-warn", validRecord(), nil); err == nil {
		t.Error("expected error after removal")
	}
}

func containsMsg(msgs []string, substr string) bool {
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
