// Package schema defines the default validation schemas for the five
// supported report types and registers them on a validation engine.
//
// Schemas are static reference data built once at startup. Additional or
// override schemas can be loaded from YAML at runtime via RegisterFile.
package schema

import (
	"regexp"

	"github.com/arclend/lenddash/internal/validation"
)

// Report-type keys.
const (
	ReportLendingVolume = "lending-volume"
	ReportArrears       = "arrears"
	ReportLiquidations  = "liquidations"
	ReportCallCenter    = "call-center"
	ReportComplaints    = "complaints"
)

// Call-center sub-type keys.
const (
	SubCallLog           = "report1"
	SubDailyAggregate    = "report2"
	SubAgentInteractions = "report3"
	SubQueueStats        = "report4"
)

// idPattern matches customer/complaint/call identifiers.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9-_]+$`)

// Register installs the default schemas for all report types, overwriting
// any previous registration.
func Register(e *validation.Engine) {
	e.RegisterSchema(ReportLendingVolume, validation.Flat(lendingVolume()))
	e.RegisterSchema(ReportArrears, validation.Flat(arrears()))
	e.RegisterSchema(ReportLiquidations, validation.Flat(liquidations()))
	e.RegisterSchema(ReportCallCenter, validation.WithSubTypes(map[string]*validation.RuleSet{
		SubCallLog:           callLog(),
		SubDailyAggregate:    dailyAggregate(),
		SubAgentInteractions: agentInteractions(),
		SubQueueStats:        queueStats(),
	}))
	e.RegisterSchema(ReportComplaints, validation.Flat(complaints()))
}

// NewEngine returns a validation engine with the default schemas installed.
func NewEngine() *validation.Engine {
	e := validation.NewEngine()
	Register(e)
	return e
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
