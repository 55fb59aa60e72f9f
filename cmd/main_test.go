// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/observability"
	"github.com/xkilldash9x/routeflow/internal/scenario"
)

// resetForTest silences the global logger. It must run before any command so
// the root command's logger initialization becomes a no-op.
func resetForTest(t *testing.T) {
	t.Helper()
	observability.ResetForTest()
	observability.InitializeLogger(config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"})
	t.Cleanup(observability.ResetForTest)
}

// executeCommand runs the command tree with args and returns its combined output.
func executeCommand(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// createTempConfig writes content to a config file in a temp dir.
func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newTestConfig returns the default configuration tuned for fast fake-browser runs.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.WaitCfg.Timeout = 500 * time.Millisecond
	cfg.WaitCfg.PollInterval = 50 * time.Millisecond
	cfg.WaitCfg.ModalTimeout = 500 * time.Millisecond
	cfg.ReportCfg.Format = "json"
	cfg.ReportCfg.Output = filepath.Join(t.TempDir(), "report.json")
	return cfg
}

// staticOpener ignores the browser settings and opens sessions with open.
func staticOpener(open scenario.SessionOpener) sessionOpenerFactory {
	return func(config.BrowserConfig, *zap.Logger) scenario.SessionOpener { return open }
}
