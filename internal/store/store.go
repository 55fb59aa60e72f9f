// Package store persists run results in PostgreSQL so reports can be rendered
// after the browser session is gone.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/observability"
	"github.com/xkilldash9x/routeflow/internal/scenario"
)

// ErrRunNotFound is returned when no results are stored for a run.
var ErrRunNotFound = errors.New("run not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is the run persistence used by the CLI.
type Repository interface {
	EnsureSchema(ctx context.Context) error
	SaveRun(ctx context.Context, runID string, results []scenario.Result) error
	LoadRun(ctx context.Context, runID string) ([]scenario.Result, error)
	LatestRunID(ctx context.Context) (string, error)
}

// Store provides PostgreSQL persistence for runs.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ Repository = (*Store)(nil)

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const schemaSQL = `
        CREATE TABLE IF NOT EXISTS runs (
            id          TEXT PRIMARY KEY,
            started_at  TIMESTAMPTZ NOT NULL,
            duration_ms BIGINT NOT NULL,
            total       INTEGER NOT NULL,
            passed      INTEGER NOT NULL,
            failed      INTEGER NOT NULL
        );
        CREATE TABLE IF NOT EXISTS scenario_results (
            run_id      TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
            position    INTEGER NOT NULL,
            name        TEXT NOT NULL,
            outcome     TEXT NOT NULL,
            state       TEXT NOT NULL,
            step        TEXT NOT NULL,
            kind        TEXT NOT NULL,
            cause       TEXT NOT NULL,
            started_at  TIMESTAMPTZ NOT NULL,
            duration_ms BIGINT NOT NULL,
            PRIMARY KEY (run_id, position)
        );
    `

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

var resultColumns = []string{"run_id", "position", "name", "outcome", "state", "step", "kind", "cause", "started_at", "duration_ms"}

// SaveRun stores the results of one run in a single transaction.
func (s *Store) SaveRun(ctx context.Context, runID string, results []scenario.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful commit returns pgx.ErrTxClosed, which is not an error here.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	sum := scenario.Summarize(results)
	startedAt := time.Now().UTC()
	if len(results) > 0 {
		startedAt = results[0].StartedAt.UTC()
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO runs (id, started_at, duration_ms, total, passed, failed)
        VALUES ($1, $2, $3, $4, $5, $6);
    `, runID, startedAt, sum.Duration.Milliseconds(), sum.Total, sum.Passed, sum.Failed)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", runID, err)
	}

	if len(results) > 0 {
		rows := make([][]interface{}, len(results))
		for i, r := range results {
			rows[i] = []interface{}{
				runID, i, r.Name, string(r.Outcome), r.State.String(), r.Step, r.Kind, r.Cause,
				r.StartedAt.UTC(), r.Duration.Milliseconds(),
			}
		}
		copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"scenario_results"}, resultColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy scenario results: %w", err)
		}
		if int(copyCount) != len(results) {
			return fmt.Errorf("mismatch in copied results count: expected %d, got %d", len(results), copyCount)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Run persisted.", observability.RunID(runID), zap.Int("results", len(results)))
	return nil
}

// LoadRun returns the results of a run in execution order. Err is not
// persisted; Cause and Kind carry the failure.
func (s *Store) LoadRun(ctx context.Context, runID string) ([]scenario.Result, error) {
	query := `
        SELECT name, outcome, state, step, kind, cause, started_at, duration_ms
        FROM scenario_results
        WHERE run_id = $1
        ORDER BY position ASC;
    `
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario results: %w", err)
	}
	defer rows.Close()

	var results []scenario.Result
	for rows.Next() {
		var (
			r          scenario.Result
			outcome    string
			state      string
			durationMS int64
		)
		if err := rows.Scan(&r.Name, &outcome, &state, &r.Step, &r.Kind, &r.Cause, &r.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan scenario result row: %w", err)
		}
		if r.State, err = scenario.ParseState(state); err != nil {
			return nil, err
		}
		r.RunID = runID
		r.Outcome = scenario.Outcome(outcome)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return results, nil
}

// LatestRunID returns the ID of the most recently started run.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT id FROM runs ORDER BY started_at DESC LIMIT 1;`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest run: %w", err)
	}
	return id, nil
}
