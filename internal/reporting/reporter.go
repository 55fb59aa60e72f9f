// Package reporting renders scenario results. Reporters receive results as
// they are produced and write the finished report on Close.
package reporting

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/observability"
	"github.com/xkilldash9x/routeflow/internal/scenario"
)

// ToolName identifies the suite in machine readable reports.
const ToolName = "routeflow"

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "junit"}

// Reporter defines the interface for writing scenario results to an output.
type Reporter interface {
	// Write records a single scenario result.
	Write(result scenario.Result) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
func New(format, outputPath, toolVersion string) (Reporter, error) {
	if !supported(format) {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewWithWriter(format, writer, toolVersion)
}

// NewWithWriter creates a reporter that takes ownership of writer.
func NewWithWriter(format string, writer io.WriteCloser, toolVersion string) (Reporter, error) {
	switch format {
	case "text":
		return NewTextReporter(writer), nil
	case "json":
		return NewJSONReporter(writer, toolVersion), nil
	case "junit":
		return NewJUnitReporter(writer), nil
	default:
		writer.Close()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func supported(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

var errClosed = errors.New("reporter is closed")

// collector buffers results for reporters that render on Close.
type collector struct {
	writer  io.WriteCloser
	logger  *zap.Logger
	mu      sync.Mutex
	results []scenario.Result
	closed  bool
}

func newCollector(writer io.WriteCloser, name string) collector {
	return collector{writer: writer, logger: observability.GetLogger().Named(name)}
}

func (c *collector) add(r scenario.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	c.results = append(c.results, r)
	return nil
}

// finish renders the buffered results and closes the writer. The writer is
// closed even when rendering fails.
func (c *collector) finish(render func(w io.Writer, results []scenario.Result) error) error {
	startTime := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	c.logger.Debug("Finalizing report", zap.Int("total_results", len(c.results)))

	renderErr := render(c.writer, c.results)
	// Always attempt to close the writer, regardless of rendering success.
	closeErr := c.writer.Close()

	if renderErr != nil {
		c.logger.Error("Failed to render report", zap.Error(renderErr))
		return fmt.Errorf("failed to render report: %w", renderErr)
	}
	if closeErr != nil {
		c.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	c.logger.Debug("Successfully wrote report", zap.Duration("duration_ms", time.Since(startTime)))
	return nil
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
