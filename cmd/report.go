// File: cmd/report.go
package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/observability"
	"github.com/xkilldash9x/routeflow/internal/reporting"
	"github.com/xkilldash9x/routeflow/internal/store"
)

// storeProvider defines an interface for components that can create a run
// store. Tests inject a mock store instead of a live database connection.
type storeProvider interface {
	// Create initializes and returns a store.Repository, a cleanup function to release
	// resources, and an error if the creation fails.
	Create(ctx context.Context, cfg config.Interface) (store.Repository, func(), error)
}

// defaultStoreProvider connects to PostgreSQL.
type defaultStoreProvider struct{}

// NewStoreProvider is a factory function that creates a new defaultStoreProvider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create connects to the PostgreSQL database using the provided configuration,
// initializes the store service, and returns it along with a cleanup function
// to close the database connection pool.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (store.Repository, func(), error) {
	logger := observability.GetLogger()
	if cfg.Database().URL == "" {
		return nil, nil, fmt.Errorf("database URL is not configured (ROUTEFLOW_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, cfg.Database().URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storeService, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize store service: %w", err)
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return storeService, cleanup, nil
}

// newReportCmd creates and configures the `report` command.
func newReportCmd(provider storeProvider) *cobra.Command {
	var runID string
	var outputPath string
	var format string

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Renders the report of a persisted run",
		Long: `Loads the results of a run saved with 'run --persist' and renders them
in the requested format. Without --run-id the most recent run is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.Report().Format
			}
			if !cmd.Flags().Changed("output") {
				outputPath = cfg.Report().Output
			}

			// Delegate to the testable core logic function.
			return runReport(ctx, logger, cfg, runID, outputPath, format, provider)
		},
	}

	reportCmd.Flags().StringVar(&runID, "run-id", "", "The run to report on (default is the latest run)")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path or 'stdout'. (Overrides config/env)")
	reportCmd.Flags().StringVarP(&format, "format", "f", "", "Report format: text, json or junit. (Overrides config/env)")

	return reportCmd
}

// runReport contains the core, testable logic for rendering a stored run.
func runReport(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	runID, outputPath, format string,
	provider storeProvider,
) error {
	repo, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	// Mocks may not provide a cleanup.
	if cleanup != nil {
		defer cleanup()
	}

	if runID == "" {
		runID, err = repo.LatestRunID(ctx)
		if err != nil {
			return fmt.Errorf("failed to find the latest run: %w", err)
		}
	}
	logger.Info("Starting report generation", observability.RunID(runID))

	results, err := repo.LoadRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	reporter, err := reporting.New(format, outputPath, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	for _, res := range results {
		if err := reporter.Write(res); err != nil {
			reporter.Close()
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if err := reporter.Close(); err != nil {
		return err
	}

	logger.Info("Report written", observability.RunID(runID), zap.String("output", outputPath), zap.Int("scenarios", len(results)))
	return nil
}
