// Package smscode recovers the SMS confirmation code the application sends after
// a phone number is submitted, by reading it from the captured network traffic.
package smscode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/wait"
)

// ErrCodeNotFound is returned when no captured response carried a code.
var ErrCodeNotFound = errors.New("confirmation code not found")

// Retriever scans the network log for the response of the code endpoint.
type Retriever struct {
	pattern  string
	attempts int
	interval time.Duration
	clock    wait.Clock
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithClock replaces the wall clock used between attempts.
func WithClock(c wait.Clock) Option { return func(r *Retriever) { r.clock = c } }

// New creates a retriever from the sms configuration section.
func New(cfg config.SMSConfig, logger *zap.Logger, opts ...Option) *Retriever {
	r := &Retriever{
		pattern:  cfg.URLPattern,
		attempts: cfg.Attempts,
		interval: cfg.Interval,
		clock:    wait.SystemClock(),
		logger:   logger.Named("smscode"),
	}
	if r.attempts < 1 {
		r.attempts = 1
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the code from the newest matching response. The response
// may not have arrived (or finished loading) yet, so the log is rescanned up
// to the configured number of attempts.
func (r *Retriever) Retrieve(ctx context.Context, log browser.NetworkLog) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		code, err := r.scan(ctx, log)
		if err == nil {
			r.logger.Debug("Confirmation code retrieved.", zap.Int("attempt", attempt))
			return code, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err

		if attempt < r.attempts {
			if err := r.clock.Sleep(ctx, r.interval); err != nil {
				return "", err
			}
		}
	}

	r.logger.Warn("No confirmation code found.", zap.String("pattern", r.pattern), zap.Int("attempts", r.attempts), zap.Error(lastErr))
	return "", fmt.Errorf("%w in responses matching %q after %d attempts", ErrCodeNotFound, r.pattern, r.attempts)
}

func (r *Retriever) scan(ctx context.Context, log browser.NetworkLog) (string, error) {
	entries := log.Responses(r.pattern)
	if len(entries) == 0 {
		return "", ErrCodeNotFound
	}

	var lastErr error = ErrCodeNotFound
	for i := len(entries) - 1; i >= 0; i-- {
		body, err := log.ResponseBody(ctx, entries[i].RequestID)
		if err != nil {
			lastErr = err
			continue
		}
		if code := ExtractDigits(string(body)); code != "" {
			return code, nil
		}
	}
	return "", lastErr
}

// ExtractDigits returns the decimal digits of s in order.
func ExtractDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
