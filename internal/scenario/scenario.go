// Package scenario sequences step actions into independently verified scenarios
// and runs a suite of them against one shared browser session.
package scenario

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/steps"
)

// Env is what a scenario may touch. The same Env, and with it the same
// session, is handed to every scenario of a run; scenarios see each other's
// side effects.
type Env struct {
	RunID   string
	Session browser.Session
	Actions *steps.Actions
	Logger  *zap.Logger
}

// StepFunc is one unit of scenario work.
type StepFunc func(ctx context.Context, env *Env) error

// Step is a named StepFunc.
type Step struct {
	Name string
	Run  StepFunc
}

// Scenario is built once at suite definition time and not modified afterwards.
type Scenario struct {
	Name        string
	Description string
	// Precondition establishes and verifies the state the steps rely on. Optional.
	Precondition StepFunc
	Steps        []Step
	// Assert checks the final state. Optional.
	Assert StepFunc
}

// Outcome is the pass/fail verdict of a scenario.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// Result is the record of one scenario execution.
type Result struct {
	RunID   string
	Name    string
	Outcome Outcome
	// State is the last state the scenario reached before it terminated.
	State State
	// Step names the failing step, if the failure happened inside one.
	Step  string
	Err   error
	Cause string
	// Kind classifies Err, see Classify.
	Kind      string
	StartedAt time.Time
	Duration  time.Duration
}

// Passed reports whether the scenario passed.
func (r Result) Passed() bool { return r.Outcome == OutcomePassed }
