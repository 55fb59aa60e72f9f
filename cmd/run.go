// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/browser/session"
	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/observability"
	"github.com/xkilldash9x/routeflow/internal/pages/urbanroutes"
	"github.com/xkilldash9x/routeflow/internal/reporting"
	"github.com/xkilldash9x/routeflow/internal/scenario"
	"github.com/xkilldash9x/routeflow/internal/smscode"
	"github.com/xkilldash9x/routeflow/internal/store"
	"github.com/xkilldash9x/routeflow/internal/suite"
	"github.com/xkilldash9x/routeflow/internal/wait"
)

// errScenariosFailed makes the process exit non-zero when any scenario failed.
var errScenariosFailed = errors.New("scenarios failed")

// persistTimeout bounds saving a run, which still happens after an interrupt.
const persistTimeout = 15 * time.Second

// sessionOpenerFactory binds browser settings to a scenario.SessionOpener.
type sessionOpenerFactory func(cfg config.BrowserConfig, logger *zap.Logger) scenario.SessionOpener

// defaultSessionOpener launches the real browser.
func defaultSessionOpener(cfg config.BrowserConfig, logger *zap.Logger) scenario.SessionOpener {
	return func(ctx context.Context) (browser.Session, error) {
		s, err := session.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// runOptions carries the run command's flags.
type runOptions struct {
	format  string
	output  string
	headed  bool
	persist bool
}

// newRunCmd creates and configures the `run` command.
func newRunCmd(open sessionOpenerFactory, provider storeProvider) *cobra.Command {
	var opts runOptions

	runCmd := &cobra.Command{
		Use:   "run [scenarios...]",
		Short: "Runs the booking scenarios, all of them or the ones named",
		Long: `Opens one browser session and runs the selected scenarios in order against it.
Each scenario reports its own outcome; a failing scenario never stops the ones after it.
The command exits non-zero when any scenario failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			applyRunFlagOverrides(cmd, cfg, opts)

			return runSuite(ctx, logger, cfg, args, opts.persist, open, provider)
		},
	}

	runCmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format: text, json or junit. (Overrides config/env)")
	runCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Report destination, a file path or 'stdout'. (Overrides config/env)")
	runCmd.Flags().BoolVar(&opts.headed, "headed", false, "Show the browser window.")
	runCmd.Flags().BoolVar(&opts.persist, "persist", false, "Save the results to the database.")

	return runCmd
}

// applyRunFlagOverrides copies explicitly set flags onto the config.
func applyRunFlagOverrides(cmd *cobra.Command, cfg config.Interface, opts runOptions) {
	if cmd.Flags().Changed("format") {
		cfg.SetReportFormat(opts.format)
	}
	if cmd.Flags().Changed("output") {
		cfg.SetReportOutput(opts.output)
	}
	if cmd.Flags().Changed("headed") {
		cfg.SetBrowserHeadless(!opts.headed)
	}
}

// runSuite contains the core, testable logic of the run command.
func runSuite(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	names []string,
	persist bool,
	open sessionOpenerFactory,
	provider storeProvider,
) error {
	// 1. Build the suite.
	registry, err := urbanroutes.NewRegistry(cfg.Locators())
	if err != nil {
		return fmt.Errorf("failed to build locator registry: %w", err)
	}
	if len(names) == 0 {
		names = cfg.Suite().Scenarios
	}
	selected, err := scenario.Select(suite.New(suite.Deps{
		Fixtures:     cfg.Fixtures(),
		Codes:        smscode.New(cfg.SMS(), logger),
		ModalTimeout: cfg.Wait().ModalTimeout,
	}), names...)
	if err != nil {
		return err
	}

	// 2. Persistence is optional, but a broken database fails before the browser starts.
	var repo store.Repository
	if persist {
		r, cleanup, err := provider.Create(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		if cleanup != nil {
			defer cleanup()
		}
		if err := r.EnsureSchema(ctx); err != nil {
			return err
		}
		repo = r
	}

	report := cfg.Report()
	reporter, err := reporting.New(report.Format, report.Output, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}

	// 3. Run.
	runID := uuid.NewString()
	policy := wait.NewPolicy(cfg.Wait().Timeout, cfg.Wait().PollInterval, wait.WithLogger(logger))
	runner := scenario.NewRunner(
		open(cfg.Browser(), logger),
		registry,
		policy,
		scenario.NewOrchestrator(logger, cfg.Suite().ScenarioTimeout),
		logger,
		scenario.WithRunID(runID),
		scenario.WithResultHook(func(res scenario.Result) {
			if err := reporter.Write(res); err != nil {
				logger.Warn("Failed to write result to report.", observability.Scenario(res.Name), zap.Error(err))
			}
		}),
	)

	logger.Info("Starting run", observability.RunID(runID), zap.Int("scenarios", len(selected)))
	results, runErr := runner.Run(ctx, selected)

	// 4. Report and persist whatever completed, even after an interrupt.
	if err := reporter.Close(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if repo != nil && len(results) > 0 {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := repo.SaveRun(saveCtx, runID, results); err != nil {
			logger.Error("Failed to persist run", observability.RunID(runID), zap.Error(err))
			runErr = errors.Join(runErr, err)
		} else {
			logger.Info("Run persisted", observability.RunID(runID))
		}
	}
	if runErr != nil {
		return runErr
	}

	if sum := scenario.Summarize(results); !sum.OK() {
		return fmt.Errorf("%w: %d of %d", errScenariosFailed, sum.Failed, sum.Total)
	}
	return nil
}
