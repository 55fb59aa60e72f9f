// internal/browser/session/session_test.go
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/locator"
)

const (
	maxTestBrowsers      = 2
	browserTestTimeout   = 60 * time.Second
	semaphoreWaitTimeout = 30 * time.Second
)

var (
	browserSemaphore     *semaphore.Weighted
	browserSemaphoreOnce sync.Once
)

func getBrowserSemaphore() *semaphore.Weighted {
	browserSemaphoreOnce.Do(func() { browserSemaphore = semaphore.NewWeighted(maxTestBrowsers) })
	return browserSemaphore
}

// findChrome returns a Chrome executable, preferring ROUTEFLOW_TEST_CHROME.
func findChrome() string {
	if p := os.Getenv("ROUTEFLOW_TEST_CHROME"); p != "" {
		return p
	}
	for _, name := range []string{"headless-shell", "google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// newTestSession starts a headless session, skipping the test when no browser is available.
func newTestSession(t *testing.T) (context.Context, *Session) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in -short mode")
	}
	chrome := findChrome()
	if chrome == "" {
		t.Skip("no Chrome executable found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), browserTestTimeout)
	t.Cleanup(cancel)

	acquireCtx, acquireCancel := context.WithTimeout(ctx, semaphoreWaitTimeout)
	defer acquireCancel()
	sem := getBrowserSemaphore()
	require.NoError(t, sem.Acquire(acquireCtx, 1), "timed out waiting for a browser slot")
	t.Cleanup(func() { sem.Release(1) })

	cfg := config.NewDefaultConfig().Browser()
	cfg.Headless = true
	cfg.ExecPath = chrome
	cfg.Args = []string{"--no-sandbox", "--disable-dev-shm-usage", "--user-data-dir=" + t.TempDir()}

	s, err := New(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return ctx, s
}

const testPage = `<!doctype html>
<html><body>
  <input id="from" name="from" value="">
  <button id="go" class="button round" onclick="document.getElementById('status').textContent = 'ordered'; fetch('/api/v1/number?number=+11231231212')">Call a taxi</button>
  <div id="status">idle</div>
  <div id="hidden" style="display:none">secret</div>
  <button id="disabled" disabled>Disabled</button>
  <input id="agree" type="checkbox" checked>
  <div class="counter-value">0</div>
</body></html>`

// findElement returns the first element matching loc, or browser.ErrNoSuchElement.
func findElement(ctx context.Context, d browser.Driver, loc locator.Locator) (browser.Element, error) {
	els, err := d.FindElements(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, browser.ErrNoSuchElement
	}
	return els[0], nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testPage)
	})
	mux.HandleFunc("/api/v1/number", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code":"1234"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSession_Integration(t *testing.T) {
	ctx, s := newTestSession(t)
	srv := newTestServer(t)
	require.NotEmpty(t, s.ID())
	require.NoError(t, s.Navigate(ctx, srv.URL))

	t.Run("lookups by every strategy", func(t *testing.T) {
		for _, loc := range []locator.Locator{
			locator.ByID("from", "from"),
			locator.ByName("from_name", "from"),
			locator.ByCSS("go", "button.round"),
			locator.ByXPath("go_xpath", "//button[contains(text(),'Call a taxi')]"),
		} {
			els, err := s.FindElements(ctx, loc)
			require.NoError(t, err, loc.String())
			assert.Len(t, els, 1, loc.String())
		}

		els, err := s.FindElements(ctx, locator.ByID("missing", "nope"))
		require.NoError(t, err)
		assert.Empty(t, els)
	})

	t.Run("typing and reading back", func(t *testing.T) {
		el, err := findElement(ctx, s, locator.ByID("from", "from"))
		require.NoError(t, err)
		require.NoError(t, el.SendKeys(ctx, "East 2nd Street, 601"))
		require.NoError(t, el.SendKeys(ctx, kb.Tab))

		value, err := el.Property(ctx, "value")
		require.NoError(t, err)
		assert.Equal(t, "East 2nd Street, 601", value)

		name, ok, err := el.Attribute(ctx, "name")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "from", name)

		_, ok, err = el.Attribute(ctx, "data-missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("state predicates", func(t *testing.T) {
		hidden, err := findElement(ctx, s, locator.ByID("hidden", "hidden"))
		require.NoError(t, err)
		displayed, err := hidden.Displayed(ctx)
		require.NoError(t, err)
		assert.False(t, displayed)

		disabled, err := findElement(ctx, s, locator.ByID("disabled", "disabled"))
		require.NoError(t, err)
		enabled, err := disabled.Enabled(ctx)
		require.NoError(t, err)
		assert.False(t, enabled)

		agree, err := findElement(ctx, s, locator.ByID("agree", "agree"))
		require.NoError(t, err)
		selected, err := agree.Selected(ctx)
		require.NoError(t, err)
		assert.True(t, selected)
	})

	t.Run("click updates the page and the network log", func(t *testing.T) {
		btn, err := findElement(ctx, s, locator.ByID("go", "go"))
		require.NoError(t, err)
		require.NoError(t, btn.Click(ctx))

		status, err := findElement(ctx, s, locator.ByID("status", "status"))
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			text, err := status.Text(ctx)
			return err == nil && text == "ordered"
		}, 5*time.Second, 50*time.Millisecond)

		var entries []browser.NetworkEntry
		require.Eventually(t, func() bool {
			entries = s.Responses("api/v1/number?number")
			return len(entries) == 1
		}, 5*time.Second, 50*time.Millisecond)

		require.Eventually(t, func() bool {
			body, err := s.ResponseBody(ctx, entries[0].RequestID)
			return err == nil && string(body) == `{"code":"1234"}`
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("closed sessions reject work", func(t *testing.T) {
		require.NoError(t, s.Close(ctx))
		require.NoError(t, s.Close(ctx), "Close is idempotent")
		_, err := s.FindElements(ctx, locator.ByID("from", "from"))
		assert.True(t, errors.Is(err, browser.ErrSessionClosed))
	})
}

func TestMapNodeError(t *testing.T) {
	assert.NoError(t, mapNodeError(nil))

	err := mapNodeError(errors.New("could not find node with given id (-32000)"))
	assert.ErrorIs(t, err, browser.ErrStaleElement)

	other := errors.New("invalid box model")
	assert.Equal(t, other, mapNodeError(other))
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, 1, newLimiter(0).Burst())
	l := newLimiter(2.5)
	assert.Equal(t, 3, l.Burst())
	assert.InDelta(t, 2.5, float64(l.Limit()), 1e-9)
}

func TestAllocatorOptions(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser()
	base := len(AllocatorOptions(config.BrowserConfig{}))

	cfg.Headless = true
	cfg.IgnoreTLSErrors = true
	cfg.ExecPath = "/usr/bin/chromium"
	cfg.Args = []string{"--no-sandbox", "--lang=en-US"}
	// headless, tls, exec path, window size and two args.
	assert.Len(t, AllocatorOptions(cfg), base+6)
}
