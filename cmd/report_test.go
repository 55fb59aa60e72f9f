// File: cmd/report_test.go
package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/mocks"
	"github.com/xkilldash9x/routeflow/internal/scenario"
	"github.com/xkilldash9x/routeflow/internal/store"
)

func storedResults(runID string) []scenario.Result {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []scenario.Result{
		{RunID: runID, Name: "set_route", Outcome: scenario.OutcomePassed, State: scenario.StateAsserted, StartedAt: start, Duration: time.Second},
		{
			RunID: runID, Name: "search_taxi", Outcome: scenario.OutcomeFailed, State: scenario.StateStepsExecuting,
			Step: "await_modal", Kind: scenario.KindWaitTimeout, Cause: "order_modal not visible after 40s",
			StartedAt: start.Add(time.Second), Duration: 40 * time.Second,
		},
	}
}

func TestRunReport(t *testing.T) {
	ctx := context.Background()

	t.Run("renders the latest run when no run ID is given", func(t *testing.T) {
		resetForTest(t)
		cfg := new(mocks.MockConfig)
		repo := new(mocks.MockRepository)
		provider := new(mocks.MockStoreProvider)
		output := filepath.Join(t.TempDir(), "report.txt")
		cleaned := false

		provider.On("Create", mock.Anything, cfg).Return(repo, func() { cleaned = true }, nil)
		repo.On("LatestRunID", mock.Anything).Return("run-9", nil)
		repo.On("LoadRun", mock.Anything, "run-9").Return(storedResults("run-9"), nil)

		err := runReport(ctx, zaptest.NewLogger(t), cfg, "", output, "text", provider)

		require.NoError(t, err)
		assert.True(t, cleaned)
		repo.AssertExpectations(t)

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(data), "2 scenarios, 1 passed, 1 failed")
		assert.Contains(t, string(data), "run run-9")
		assert.Contains(t, string(data), "kind:  wait_timeout")
	})

	t.Run("renders an explicit run as junit", func(t *testing.T) {
		resetForTest(t)
		cfg := new(mocks.MockConfig)
		repo := new(mocks.MockRepository)
		provider := new(mocks.MockStoreProvider)
		output := filepath.Join(t.TempDir(), "report.xml")

		provider.On("Create", mock.Anything, cfg).Return(repo, nil, nil)
		repo.On("LoadRun", mock.Anything, "run-3").Return(storedResults("run-3"), nil)

		err := runReport(ctx, zaptest.NewLogger(t), cfg, "run-3", output, "junit", provider)

		require.NoError(t, err)
		repo.AssertNotCalled(t, "LatestRunID", mock.Anything)
		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(data), `tests="2"`)
		assert.Contains(t, string(data), `type="wait_timeout"`)
	})

	t.Run("an unknown run is an error", func(t *testing.T) {
		resetForTest(t)
		repo := new(mocks.MockRepository)
		provider := new(mocks.MockStoreProvider)
		provider.On("Create", mock.Anything, mock.Anything).Return(repo, nil, nil)
		repo.On("LoadRun", mock.Anything, "nope").Return(nil, store.ErrRunNotFound)

		err := runReport(ctx, zaptest.NewLogger(t), new(mocks.MockConfig), "nope", "", "json", provider)

		require.ErrorIs(t, err, store.ErrRunNotFound)
		assert.Contains(t, err.Error(), "failed to load run nope")
	})

	t.Run("an empty store has no latest run", func(t *testing.T) {
		resetForTest(t)
		repo := new(mocks.MockRepository)
		provider := new(mocks.MockStoreProvider)
		provider.On("Create", mock.Anything, mock.Anything).Return(repo, nil, nil)
		repo.On("LatestRunID", mock.Anything).Return("", store.ErrRunNotFound)

		err := runReport(ctx, zaptest.NewLogger(t), new(mocks.MockConfig), "", "", "json", provider)

		require.ErrorIs(t, err, store.ErrRunNotFound)
		repo.AssertNotCalled(t, "LoadRun", mock.Anything, mock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		resetForTest(t)
		provider := new(mocks.MockStoreProvider)
		dbErr := errors.New("connection refused")
		provider.On("Create", mock.Anything, mock.Anything).Return(nil, nil, dbErr)

		err := runReport(ctx, zaptest.NewLogger(t), new(mocks.MockConfig), "run-1", "", "json", provider)

		require.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to initialize store")
	})

	t.Run("unsupported format", func(t *testing.T) {
		resetForTest(t)
		repo := new(mocks.MockRepository)
		provider := new(mocks.MockStoreProvider)
		provider.On("Create", mock.Anything, mock.Anything).Return(repo, nil, nil)
		repo.On("LoadRun", mock.Anything, "run-1").Return(storedResults("run-1"), nil)

		err := runReport(ctx, zaptest.NewLogger(t), new(mocks.MockConfig), "run-1", "", "sarif", provider)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format")
	})
}

func TestReportCmd_UsesConfiguredFormat(t *testing.T) {
	resetForTest(t)
	output := filepath.Join(t.TempDir(), "report.json")
	path := createTempConfig(t, "report:\n  format: json\n  output: "+output+"\n")

	repo := new(mocks.MockRepository)
	provider := new(mocks.MockStoreProvider)
	provider.On("Create", mock.Anything, mock.Anything).Return(repo, nil, nil)
	repo.On("LoadRun", mock.Anything, "run-5").Return(storedResults("run-5"), nil)

	_, err := executeCommand(t, newRootCommand(staticOpener(nil), provider), "--config", path, "report", "--run-id", "run-5")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id"`)
	assert.Contains(t, string(data), "run-5")
}

func TestDefaultStoreProvider_RequiresURL(t *testing.T) {
	resetForTest(t)
	cfg := new(mocks.MockConfig)
	cfg.On("Database").Return(config.DatabaseConfig{})

	_, _, err := NewStoreProvider().Create(context.Background(), cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROUTEFLOW_DATABASE_URL")
	cfg.AssertExpectations(t)
}
