// Package wait implements explicit, bounded waits on asynchronous page state.
//
// Every wait is a poll loop. With deadline = start + timeout, one iteration
// evaluates the predicate, and if it does not hold and now >= deadline the wait
// fails; otherwise it sleeps min(interval, deadline-now) and repeats. The last
// evaluation therefore happens at the deadline itself, so a predicate that holds
// at any poll up to and including the deadline succeeds, and the loop never
// polls faster than the interval.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/locator"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 250 * time.Millisecond
)

// ErrTimeout matches every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("wait timed out")

// TimeoutError reports a condition that never held within its timeout.
type TimeoutError struct {
	Target    string
	Condition Condition
	Timeout   time.Duration
	// LastErr is the last transient lookup error seen, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %v waiting for %s to be %s", e.Timeout, e.Target, e.Condition)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
func (e *TimeoutError) Unwrap() error        { return e.LastErr }

// Policy is the wait configuration shared by all step actions of a run.
type Policy struct {
	timeout  time.Duration
	interval time.Duration
	clock    Clock
	logger   *zap.Logger
}

// Option configures a Policy.
type Option func(*Policy)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option { return func(p *Policy) { p.clock = c } }

// WithLogger attaches a logger for timeout diagnostics.
func WithLogger(l *zap.Logger) Option { return func(p *Policy) { p.logger = l.Named("wait") } }

// NewPolicy creates a policy. Non-positive values fall back to the package defaults.
func NewPolicy(timeout, interval time.Duration, opts ...Option) Policy {
	p := Policy{timeout: timeout, interval: interval, clock: SystemClock(), logger: zap.NewNop()}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p Policy) Timeout() time.Duration  { return p.timeout }
func (p Policy) Interval() time.Duration { return p.interval }

// Await polls d until an element matching loc satisfies cond.
// On success the returned element is never nil.
func (p Policy) Await(ctx context.Context, d browser.Driver, loc locator.Locator, cond Condition) (browser.Element, error) {
	els, err := p.AwaitAll(ctx, d, loc, cond, 1)
	if err != nil {
		return nil, err
	}
	return els[0], nil
}

// AwaitAll polls d until at least min elements matching loc satisfy cond, and returns all of those that do.
func (p Policy) AwaitAll(ctx context.Context, d browser.Driver, loc locator.Locator, cond Condition, min int) ([]browser.Element, error) {
	if min < 1 {
		min = 1
	}
	var matched []browser.Element
	check := func(ctx context.Context) (bool, error) {
		els, err := d.FindElements(ctx, loc)
		if err != nil {
			return false, err
		}
		matched = matched[:0]
		var lastErr error
		for _, el := range els {
			ok, err := cond.holds(ctx, el)
			if err != nil {
				if !browser.IsTransient(err) {
					return false, err
				}
				lastErr = err
				continue
			}
			if ok {
				matched = append(matched, el)
			}
		}
		if len(matched) >= min {
			return true, nil
		}
		if len(els) == 0 {
			return false, browser.ErrNoSuchElement
		}
		return false, lastErr
	}

	timeout := p.effective(cond.Timeout)
	if err := p.poll(ctx, timeout, check); err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			te.Target, te.Condition = loc.String(), cond
			p.logger.Debug("Wait timed out.", zap.String("locator", loc.Name), zap.Stringer("condition", cond), zap.Duration("timeout", timeout))
		}
		return nil, err
	}
	return append([]browser.Element(nil), matched...), nil
}

// Until polls pred until it returns true. Transient browser errors are retried; any other error aborts the wait.
// desc names the awaited state in the timeout error.
func (p Policy) Until(ctx context.Context, desc string, timeout time.Duration, pred func(ctx context.Context) (bool, error)) error {
	err := p.poll(ctx, p.effective(timeout), pred)
	var te *TimeoutError
	if errors.As(err, &te) {
		te.Target, te.Condition = desc, Condition{Kind: Present}
	}
	return err
}

func (p Policy) effective(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return p.timeout
}

// poll is the deadline loop described in the package comment.
func (p Policy) poll(ctx context.Context, timeout time.Duration, check func(context.Context) (bool, error)) error {
	deadline := p.clock.Now().Add(timeout)
	var lastErr error

	for {
		ok, err := check(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			if !browser.IsTransient(err) {
				return err
			}
			lastErr = err
		} else {
			lastErr = nil
		}

		now := p.clock.Now()
		if !now.Before(deadline) {
			return &TimeoutError{Timeout: timeout, LastErr: lastErr}
		}

		sleep := p.interval
		if remaining := deadline.Sub(now); remaining < sleep {
			sleep = remaining
		}
		if err := p.clock.Sleep(ctx, sleep); err != nil {
			return err
		}
	}
}
