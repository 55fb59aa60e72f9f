// internal/browser/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/config"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	defaultLookupTimeout     = 5 * time.Second
	closeTimeout             = 15 * time.Second
)

// Session is a browser.Session driving one Chrome tab over CDP.
type Session struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger

	navigationTimeout time.Duration
	lookupTimeout     time.Duration
	limiter           *rate.Limiter
	harvester         *Harvester

	closed    atomic.Bool
	closeOnce sync.Once
}

var (
	_ browser.Session = (*Session)(nil)
	_ ActionExecutor  = (*Session)(nil)
)

// New launches (or attaches to) a browser and opens the tab the session drives.
// The browser lives until Close is called or ctx is canceled.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	id := uuid.New().String()
	log := logger.Named("session").With(zap.String("session_id", id))

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg)...)
	}

	sugar := log.Named("cdp").Sugar()
	ctxOpts := []chromedp.ContextOption{chromedp.WithErrorf(sugar.Warnf)}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(sugar.Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		id:                id,
		ctx:               tabCtx,
		cancel:            tabCancel,
		allocCancel:       allocCancel,
		logger:            log,
		navigationTimeout: orDefault(cfg.NavigationTimeout, defaultNavigationTimeout),
		lookupTimeout:     orDefault(cfg.LookupTimeout, defaultLookupTimeout),
		limiter:           newLimiter(cfg.EngineRPS),
	}
	s.harvester = NewHarvester(log, s)
	s.harvester.Start(tabCtx)

	// The first Run allocates the browser, so it runs on the tab context itself.
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info("Browser session started.", zap.Bool("headless", cfg.Headless), zap.Bool("remote", cfg.RemoteURL != ""))
	return s, nil
}

// AllocatorOptions maps the browser configuration onto chromedp launch flags.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.Flag("enable-automation", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-popup-blocking", true),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), int(math.Max(1, math.Ceil(rps))))
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// RunActions implements ActionExecutor. Calls are paced by the engine rate limit.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed.Load() {
		return browser.ErrSessionClosed
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		// Report the caller's deadline rather than the cancellation it caused.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return browser.ErrSessionClosed
		}
	}
	return err
}

func (s *Session) withLookupTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.lookupTimeout)
}

// Responses implements browser.NetworkLog.
func (s *Session) Responses(substr string) []browser.NetworkEntry {
	return s.harvester.Responses(substr)
}

// ResponseBody implements browser.NetworkLog.
func (s *Session) ResponseBody(ctx context.Context, requestID string) ([]byte, error) {
	return s.harvester.ResponseBody(ctx, requestID)
}

// Close shuts the browser down. It still gets closeTimeout to do so when ctx is
// already canceled, which is the usual case after an interrupted run.
func (s *Session) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		shutdownCtx, cancel := context.WithTimeout(Detach(ctx), closeTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()

		select {
		case err = <-done:
			if errors.Is(err, context.Canceled) {
				err = nil
			}
		case <-shutdownCtx.Done():
			err = fmt.Errorf("browser did not shut down within %v", closeTimeout)
		}

		s.cancel()
		s.allocCancel()
		if err != nil {
			s.logger.Warn("Browser session closed with errors.", zap.Error(err))
			return
		}
		s.logger.Info("Browser session closed.")
	})
	return err
}
