package scenario

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/locator"
	"github.com/xkilldash9x/routeflow/internal/observability"
	"github.com/xkilldash9x/routeflow/internal/steps"
	"github.com/xkilldash9x/routeflow/internal/wait"
)

// SessionOpener acquires the session a run shares between its scenarios.
type SessionOpener func(ctx context.Context) (browser.Session, error)

// Runner executes a suite strictly in order against one session.
type Runner struct {
	open         SessionOpener
	registry     *locator.Registry
	policy       wait.Policy
	orchestrator *Orchestrator
	logger       *zap.Logger
	onResult     func(Result)
	newRunID     func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithResultHook calls fn with each result as soon as its scenario finishes.
func WithResultHook(fn func(Result)) RunnerOption { return func(r *Runner) { r.onResult = fn } }

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) { r.newRunID = func() string { return id } }
}

// NewRunner creates a runner. Sessions come from open; step actions resolve
// names against registry and wait according to policy.
func NewRunner(open SessionOpener, registry *locator.Registry, policy wait.Policy, orch *Orchestrator, logger *zap.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		open:         open,
		registry:     registry,
		policy:       policy,
		orchestrator: orch,
		logger:       logger.Named("runner"),
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes suite and returns one result per executed scenario, in order.
//
// A failing scenario does not stop the run, unless it failed on a name the
// registry does not hold: that returns the results so far, the offending one
// included, with a *MisconfigurationError. Failing to open or to close the
// session is fatal too: setup failure returns a *SessionSetupError and no
// results, teardown failure returns the results with a *SessionTeardownError.
// When ctx is canceled between scenarios the results so far are returned with
// ctx's error.
func (r *Runner) Run(ctx context.Context, suite []Scenario) (results []Result, err error) {
	runID := r.newRunID()
	log := observability.WithRun(r.logger, runID)

	sess, err := r.open(ctx)
	if err != nil {
		log.Error("Failed to open browser session.", zap.Error(err))
		return nil, &SessionSetupError{Err: err}
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			log.Error("Failed to close browser session.", zap.Error(cerr))
			err = errors.Join(err, &SessionTeardownError{Err: cerr})
		}
	}()

	env := &Env{
		RunID:   runID,
		Session: sess,
		Actions: steps.New(sess, r.registry, r.policy, log),
		Logger:  log,
	}

	log.Info("Starting suite.", zap.Int("scenarios", len(suite)), zap.String(observability.FieldSessionID, sess.ID()))
	results = make([]Result, 0, len(suite))
	for _, sc := range suite {
		if ctx.Err() != nil {
			log.Warn("Run interrupted.", zap.Int("completed", len(results)), zap.Error(ctx.Err()))
			return results, ctx.Err()
		}

		res := r.orchestrator.Execute(ctx, env, sc)
		if res.Passed() {
			log.Info("Scenario passed.", observability.Scenario(res.Name), zap.Duration("duration", res.Duration))
		} else {
			log.Error("Scenario failed.", observability.Scenario(res.Name), zap.Stringer("state", res.State), observability.Step(res.Step), zap.String("cause", res.Cause))
		}
		results = append(results, res)
		if r.onResult != nil {
			r.onResult(res)
		}
		if errors.Is(res.Err, locator.ErrUnknownLocator) {
			log.Error("Locator registry is misconfigured, stopping the run.", observability.Scenario(res.Name), zap.Int("skipped", len(suite)-len(results)))
			return results, &MisconfigurationError{Scenario: res.Name, Err: res.Err}
		}
	}

	sum := Summarize(results)
	log.Info("Suite finished.", zap.Int("passed", sum.Passed), zap.Int("failed", sum.Failed), zap.Strings("failures", sum.FailedNames()))
	return results, nil
}
