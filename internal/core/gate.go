package core

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/ports"
)

type GateCheckResult struct {
	Name   string
	Passed bool
	Err    error
}

type GateReport struct {
	Passed   bool
	Skipped  bool
	Checks   []GateCheckResult
	Failures []string
}

// PreflightGate runs every registered check. A check that errors counts as
// failed.
type PreflightGate struct {
	Checks   []ports.GateCheck
	Disabled bool
}

func NewPreflightGate(checks ...ports.GateCheck) PreflightGate {
	return PreflightGate{Checks: checks}
}

func (g PreflightGate) Check(ctx context.Context) GateReport {
	if g.Disabled {
		log.Warn().Msg("preflight gate disabled, team-first checks were not run")
		return GateReport{Passed: true, Skipped: true}
	}
	report := GateReport{Passed: true}
	for _, check := range g.Checks {
		passed, err := check.Passed(ctx)
		if err != nil {
			log.Error().Str("check", check.Name()).Err(err).Msg("gate check errored")
			passed = false
		}
		report.Checks = append(report.Checks, GateCheckResult{Name: check.Name(), Passed: passed, Err: err})
		if !passed {
			report.Passed = false
			report.Failures = append(report.Failures, check.Name())
		}
	}
	return report
}

// Err returns nil for a passing report, otherwise a FailedPrecondition error
// naming every failed check.
func (r GateReport) Err() error {
	if r.Passed {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("preflight gate blocked: " + strings.Join(r.Failures, ", "))
}
