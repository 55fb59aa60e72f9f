// File: cmd/run_test.go
package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/browser/fakebrowser"
	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/mocks"
	"github.com/xkilldash9x/routeflow/internal/pages/urbanroutes"
	"github.com/xkilldash9x/routeflow/internal/pages/urbanroutes/urbanroutestest"
	"github.com/xkilldash9x/routeflow/internal/scenario"
	"github.com/xkilldash9x/routeflow/internal/suite"
)

// jsonSummary is the part of the JSON report the run tests inspect.
type jsonSummary struct {
	Summary struct {
		Total  int `json:"total"`
		Passed int `json:"passed"`
		Failed int `json:"failed"`
	} `json:"summary"`
	Scenarios []struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	} `json:"scenarios"`
}

func readReport(t *testing.T, cfg config.Interface) jsonSummary {
	t.Helper()
	data, err := os.ReadFile(cfg.Report().Output)
	require.NoError(t, err)
	var doc jsonSummary
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestRunSuite(t *testing.T) {
	ctx := context.Background()

	t.Run("all scenarios pass and the run is persisted", func(t *testing.T) {
		resetForTest(t)
		cfg := newTestConfig(t)
		booking := urbanroutestest.NewBooking()
		repo := new(mocks.MockRepository)
		provider := new(mocks.MockStoreProvider)
		cleaned := false

		provider.On("Create", mock.Anything, cfg).Return(repo, func() { cleaned = true }, nil)
		repo.On("EnsureSchema", mock.Anything).Return(nil)
		repo.On("SaveRun", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(rs []scenario.Result) bool {
			return len(rs) == 8 && scenario.Summarize(rs).OK()
		})).Return(nil)

		err := runSuite(ctx, zaptest.NewLogger(t), cfg, nil, true, staticOpener(func(context.Context) (browser.Session, error) { return booking, nil }), provider)

		require.NoError(t, err)
		assert.True(t, cleaned)
		assert.Equal(t, 1, booking.Closes())
		provider.AssertExpectations(t)
		repo.AssertExpectations(t)

		report := readReport(t, cfg)
		assert.Equal(t, 8, report.Summary.Passed)
		require.Len(t, report.Scenarios, 8)
		assert.Equal(t, suite.SearchTaxi, report.Scenarios[7].Name)
	})

	t.Run("named scenarios narrow the run", func(t *testing.T) {
		resetForTest(t)
		cfg := newTestConfig(t)
		booking := urbanroutestest.NewBooking()

		err := runSuite(ctx, zaptest.NewLogger(t), cfg, []string{suite.RequestIceCream, suite.SetRoute}, false, staticOpener(func(context.Context) (browser.Session, error) { return booking, nil }), new(mocks.MockStoreProvider))

		require.NoError(t, err)
		assert.Len(t, booking.Navigations(), 2)
		report := readReport(t, cfg)
		assert.Equal(t, 2, report.Summary.Total)
		require.Len(t, report.Scenarios, 2)
		assert.Equal(t, suite.SetRoute, report.Scenarios[0].Name, "suite order wins over argument order")
	})

	t.Run("configured scenarios apply when none are named", func(t *testing.T) {
		resetForTest(t)
		cfg := newTestConfig(t)
		cfg.SuiteCfg.Scenarios = []string{suite.WriteMessage}
		booking := urbanroutestest.NewBooking()

		err := runSuite(ctx, zaptest.NewLogger(t), cfg, nil, false, staticOpener(func(context.Context) (browser.Session, error) { return booking, nil }), new(mocks.MockStoreProvider))

		require.NoError(t, err)
		assert.Equal(t, 1, readReport(t, cfg).Summary.Total)
	})

	t.Run("an unknown scenario fails before the browser starts", func(t *testing.T) {
		resetForTest(t)
		cfg := newTestConfig(t)
		opener := new(mocks.MockSessionOpener)

		err := runSuite(ctx, zaptest.NewLogger(t), cfg, []string{"book_helicopter"}, false, staticOpener(opener.Open), new(mocks.MockStoreProvider))

		require.ErrorIs(t, err, scenario.ErrUnknownScenario)
		opener.AssertNotCalled(t, "Open", mock.Anything)
	})

	t.Run("failed scenarios are reported and fail the command", func(t *testing.T) {
		resetForTest(t)
		cfg := newTestConfig(t)
		booking := urbanroutestest.NewBooking()
		booking.Replace(urbanroutes.FromField, fakebrowser.NewElement().OnKeys(func(e *fakebrowser.Element, keys string) {
			e.SetProp("value", keys+", Springfield")
		}))

		err := runSuite(ctx, zaptest.NewLogger(t), cfg, []string{suite.SetRoute, suite.WriteMessage}, false, staticOpener(func(context.Context) (browser.Session, error) { return booking, nil }), new(mocks.MockStoreProvider))

		require.ErrorIs(t, err, errScenariosFailed)
		assert.Contains(t, err.Error(), "2 of 2")
		report := readReport(t, cfg)
		assert.Equal(t, 2, report.Summary.Failed)
		for _, sc := range report.Scenarios {
			assert.Equal(t, scenario.KindPreconditionFailed, sc.Kind, sc.Name)
		}
	})

	t.Run("session setup failure is fatal", func(t *testing.T) {
		resetForTest(t)
		cfg := newTestConfig(t)
		opener := new(mocks.MockSessionOpener)
		opener.On("Open", mock.Anything).Return(nil, errors.New("chrome not found"))

		err := runSuite(ctx, zaptest.NewLogger(t), cfg, nil, false, staticOpener(opener.Open), new(mocks.MockStoreProvider))

		require.ErrorIs(t, err, scenario.ErrSessionSetup)
		assert.Contains(t, err.Error(), "chrome not found")
		assert.Zero(t, readReport(t, cfg).Summary.Total)
		opener.AssertExpectations(t)
	})

	t.Run("store failure aborts before the browser starts", func(t *testing.T) {
		resetForTest(t)
		cfg := newTestConfig(t)
		opener := new(mocks.MockSessionOpener)
		provider := new(mocks.MockStoreProvider)
		provider.On("Create", mock.Anything, cfg).Return(nil, nil, errors.New("connection refused"))

		err := runSuite(ctx, zaptest.NewLogger(t), cfg, nil, true, staticOpener(opener.Open), provider)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize store")
		opener.AssertNotCalled(t, "Open", mock.Anything)
	})

	t.Run("a failed save is returned with the results reported", func(t *testing.T) {
		resetForTest(t)
		cfg := newTestConfig(t)
		booking := urbanroutestest.NewBooking()
		repo := new(mocks.MockRepository)
		provider := new(mocks.MockStoreProvider)
		saveErr := errors.New("disk full")

		provider.On("Create", mock.Anything, cfg).Return(repo, nil, nil)
		repo.On("EnsureSchema", mock.Anything).Return(nil)
		repo.On("SaveRun", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(saveErr)

		err := runSuite(ctx, zaptest.NewLogger(t), cfg, []string{suite.SetRoute}, true, staticOpener(func(context.Context) (browser.Session, error) { return booking, nil }), provider)

		require.ErrorIs(t, err, saveErr)
		assert.Equal(t, 1, readReport(t, cfg).Summary.Passed)
	})
}

func TestRunSuite_Canceled(t *testing.T) {
	resetForTest(t)
	cfg := newTestConfig(t)
	booking := urbanroutestest.NewBooking()
	repo := new(mocks.MockRepository)
	provider := new(mocks.MockStoreProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Cancel once the first scenario has navigated; the run stops before the next one.
	// This replaces the form reset, which only one scenario would need anyway.
	booking.OnNavigate(func(string) { cancel() })

	provider.On("Create", mock.Anything, cfg).Return(repo, nil, nil)
	repo.On("EnsureSchema", mock.Anything).Return(nil)
	repo.On("SaveRun", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(rs []scenario.Result) bool {
		return len(rs) == 1
	})).Return(nil)

	err := runSuite(ctx, zaptest.NewLogger(t), cfg, nil, true, staticOpener(func(context.Context) (browser.Session, error) { return booking, nil }), provider)

	require.ErrorIs(t, err, context.Canceled)
	repo.AssertExpectations(t)
}

func TestRunCmd_FlagOverrides(t *testing.T) {
	resetForTest(t)
	output := filepath.Join(t.TempDir(), "report.xml")
	booking := urbanroutestest.NewBooking()

	var browserCfg config.BrowserConfig
	open := func(cfg config.BrowserConfig, _ *zap.Logger) scenario.SessionOpener {
		browserCfg = cfg
		return func(context.Context) (browser.Session, error) { return booking, nil }
	}
	root := newRootCommand(open, new(mocks.MockStoreProvider))

	_, err := executeCommand(t, root,
		"--config", createTempConfig(t, "{}"),
		"run", suite.SetRoute,
		"--format", "junit", "--output", output, "--headed",
	)
	require.NoError(t, err)

	assert.False(t, browserCfg.Headless)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testcase name="set_route"`)
}

func TestApplyRunFlagOverrides(t *testing.T) {
	cfg := new(mocks.MockConfig)
	cfg.On("SetReportFormat", "text").Return()

	cmd := newRunCmd(staticOpener(nil), new(mocks.MockStoreProvider))
	require.NoError(t, cmd.Flags().Set("format", "text"))

	applyRunFlagOverrides(cmd, cfg, runOptions{format: "text"})

	cfg.AssertExpectations(t)
	cfg.AssertNotCalled(t, "SetReportOutput", mock.Anything)
	cfg.AssertNotCalled(t, "SetBrowserHeadless", mock.Anything)
}
