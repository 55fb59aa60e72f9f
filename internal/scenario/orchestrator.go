package scenario

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/observability"
)

// Orchestrator executes one scenario through its state machine:
// NotStarted -> PreconditionVerified -> StepsExecuting -> Asserted -> Passed,
// with a move to Failed from any state on the first error. Nothing is retried.
type Orchestrator struct {
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewOrchestrator returns an orchestrator bounding every scenario by timeout
// (unbounded when zero).
func NewOrchestrator(logger *zap.Logger, timeout time.Duration) *Orchestrator {
	return &Orchestrator{logger: logger.Named("orchestrator"), timeout: timeout, now: time.Now}
}

// execution tracks the state of a single Execute call.
type execution struct {
	state State
	step  string
}

func (e *execution) advance(to State) {
	if !CanTransition(e.state, to) {
		panic(fmt.Sprintf("illegal scenario transition %s -> %s", e.state, to))
	}
	e.state = to
}

// Execute runs sc and converts every failure, including panics raised by
// steps, into a failed Result. It never returns an error.
func (o *Orchestrator) Execute(ctx context.Context, env *Env, sc Scenario) Result {
	res := Result{RunID: env.RunID, Name: sc.Name, StartedAt: o.now()}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	log := observability.WithScenario(observability.WithRun(o.logger, env.RunID), sc.Name)

	ex := &execution{state: StateNotStarted}
	err := o.phases(ctx, env, sc, ex, log)

	res.Duration = o.now().Sub(res.StartedAt)
	res.State = ex.state
	res.Step = ex.step
	if err != nil {
		ex.advance(StateFailed)
		res.Outcome = OutcomeFailed
		res.Err = err
		res.Cause = err.Error()
		res.Kind = Classify(err)
		return res
	}
	ex.advance(StatePassed)
	res.Outcome = OutcomePassed
	return res
}

func (o *Orchestrator) phases(ctx context.Context, env *Env, sc Scenario, ex *execution, log *zap.Logger) error {
	if sc.Precondition != nil {
		ex.step = "precondition"
		if err := o.call(ctx, env, sc.Precondition); err != nil {
			return &StepError{Step: ex.step, Err: err}
		}
	}
	ex.advance(StatePreconditionVerified)
	log.Debug("Precondition verified.")

	ex.advance(StateStepsExecuting)
	for _, st := range sc.Steps {
		ex.step = st.Name
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("scenario timed out after %v: %w", o.timeout, err)
			}
			return &StepError{Step: st.Name, Err: err}
		}
		log.Debug("Executing step.", observability.Step(st.Name))
		if err := o.call(ctx, env, st.Run); err != nil {
			return &StepError{Step: st.Name, Err: err}
		}
	}

	ex.step = ""
	if sc.Assert != nil {
		ex.step = "assert"
		err := o.call(ctx, env, sc.Assert)
		ex.advance(StateAsserted)
		if err != nil {
			return &StepError{Step: ex.step, Err: err}
		}
		ex.step = ""
	} else {
		ex.advance(StateAsserted)
	}
	return nil
}

// call runs fn, turning a panic into a *PanicError.
func (o *Orchestrator) call(ctx context.Context, env *Env, fn StepFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx, env)
}
