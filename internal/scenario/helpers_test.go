package scenario_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/browser/fakebrowser"
	"github.com/xkilldash9x/routeflow/internal/locator"
	"github.com/xkilldash9x/routeflow/internal/scenario"
	"github.com/xkilldash9x/routeflow/internal/steps"
	"github.com/xkilldash9x/routeflow/internal/wait"
	"github.com/xkilldash9x/routeflow/internal/wait/waittest"
)

var (
	fromField = locator.ByID("from_field", "from")
	toField   = locator.ByID("to_field", "to")
)

func newRegistry(t *testing.T) *locator.Registry {
	t.Helper()
	reg, err := locator.NewRegistry(fromField, toField)
	require.NoError(t, err)
	return reg
}

func newPolicy() wait.Policy {
	return wait.NewPolicy(time.Second, 100*time.Millisecond, wait.WithClock(waittest.NewManualClock()))
}

// newEnv wires an Env over a fake page the same way the runner does.
func newEnv(t *testing.T, page *fakebrowser.Page) *scenario.Env {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return &scenario.Env{
		RunID:   "run-1",
		Session: page,
		Actions: steps.New(page, newRegistry(t), newPolicy(), logger),
		Logger:  logger,
	}
}

// ok and fail are trivial step bodies.
func ok(context.Context, *scenario.Env) error { return nil }

func fail(err error) scenario.StepFunc {
	return func(context.Context, *scenario.Env) error { return err }
}

// record returns a step that appends name to log.
func record(log *[]string, name string) scenario.StepFunc {
	return func(context.Context, *scenario.Env) error {
		*log = append(*log, name)
		return nil
	}
}

func opener(s browser.Session, err error) (scenario.SessionOpener, *int) {
	calls := 0
	return func(context.Context) (browser.Session, error) {
		calls++
		if err != nil {
			return nil, err
		}
		return s, nil
	}, &calls
}
