package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/routeflow/internal/locator"
	"github.com/xkilldash9x/routeflow/internal/smscode"
	"github.com/xkilldash9x/routeflow/internal/steps"
	"github.com/xkilldash9x/routeflow/internal/wait"
)

var (
	// ErrPreconditionFailed matches every *PreconditionError.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrAssertionFailed matches every *AssertionError.
	ErrAssertionFailed = errors.New("assertion failed")
	// ErrSessionSetup matches every *SessionSetupError. It is fatal to a run.
	ErrSessionSetup = errors.New("session setup failed")
	// ErrSessionTeardown matches every *SessionTeardownError. It is fatal to a run.
	ErrSessionTeardown = errors.New("session teardown failed")
	// ErrMisconfigured matches every *MisconfigurationError. It is fatal to a run.
	ErrMisconfigured = errors.New("locator registry misconfigured")
	// ErrUnknownScenario is returned by Select for names not in the suite.
	ErrUnknownScenario = errors.New("unknown scenario")
)

// PreconditionError reports a value that did not read back as it was set.
type PreconditionError struct {
	Field string
	Want  string
	Got   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s reads back %q, want %q", ErrPreconditionFailed, e.Field, e.Got, e.Want)
}

func (e *PreconditionError) Is(target error) bool { return target == ErrPreconditionFailed }

// AssertionError reports a final scenario check that did not hold.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string { return fmt.Sprintf("%s: %s", ErrAssertionFailed, e.Msg) }

func (e *AssertionError) Is(target error) bool { return target == ErrAssertionFailed }

// SessionSetupError wraps the failure to open the shared session.
type SessionSetupError struct {
	Err error
}

func (e *SessionSetupError) Error() string        { return fmt.Sprintf("%s: %v", ErrSessionSetup, e.Err) }
func (e *SessionSetupError) Is(target error) bool { return target == ErrSessionSetup }
func (e *SessionSetupError) Unwrap() error        { return e.Err }

// SessionTeardownError wraps the failure to close the shared session.
type SessionTeardownError struct {
	Err error
}

func (e *SessionTeardownError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSessionTeardown, e.Err)
}
func (e *SessionTeardownError) Is(target error) bool { return target == ErrSessionTeardown }
func (e *SessionTeardownError) Unwrap() error        { return e.Err }

// MisconfigurationError stops a run when a scenario looks up a name the
// registry does not hold. Err still matches locator.ErrUnknownLocator.
type MisconfigurationError struct {
	Scenario string
	Err      error
}

func (e *MisconfigurationError) Error() string {
	return fmt.Sprintf("%s in scenario %q: %v", ErrMisconfigured, e.Scenario, e.Err)
}
func (e *MisconfigurationError) Is(target error) bool { return target == ErrMisconfigured }
func (e *MisconfigurationError) Unwrap() error        { return e.Err }

// StepError locates a failure inside a scenario.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %q: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// PanicError is a panic recovered from a step.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Assertf returns nil when cond holds and an *AssertionError otherwise.
func Assertf(cond bool, format string, args ...interface{}) error {
	if cond {
		return nil
	}
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// Failure kinds reported by Classify.
const (
	KindUnknownLocator      = "unknown_locator"
	KindWaitTimeout         = "wait_timeout"
	KindInvalidDisplayState = "invalid_display_state"
	KindPreconditionFailed  = "precondition_failed"
	KindAssertionFailed     = "assertion_failed"
	KindCodeNotFound        = "code_not_found"
	KindPanic               = "panic"
	KindScenarioTimeout     = "scenario_timeout"
	KindCanceled            = "canceled"
	KindError               = "error"
)

// Classify names the kind of a scenario failure. It returns "" for nil.
func Classify(err error) string {
	var pe *PanicError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, locator.ErrUnknownLocator):
		return KindUnknownLocator
	case errors.Is(err, wait.ErrTimeout):
		return KindWaitTimeout
	case errors.Is(err, steps.ErrInvalidDisplayState):
		return KindInvalidDisplayState
	case errors.Is(err, ErrPreconditionFailed):
		return KindPreconditionFailed
	case errors.Is(err, ErrAssertionFailed):
		return KindAssertionFailed
	case errors.Is(err, smscode.ErrCodeNotFound):
		return KindCodeNotFound
	case errors.As(err, &pe):
		return KindPanic
	case errors.Is(err, context.DeadlineExceeded):
		return KindScenarioTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindError
	}
}
