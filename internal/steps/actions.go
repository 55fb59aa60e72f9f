// Package steps holds the atomic UI operations scenarios are built from. Every
// action resolves a named locator, waits for the state the interaction needs and
// then interacts exactly once.
package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/locator"
	"github.com/xkilldash9x/routeflow/internal/wait"
)

// maxStaleRetries bounds how often an interaction is re-aimed at a fresh handle
// after the element it found was re-rendered. Only the lookup is repeated; an
// interaction that reached the page is never sent twice.
const maxStaleRetries = 2

// Actions performs step actions against one driver.
type Actions struct {
	driver   browser.Driver
	registry *locator.Registry
	policy   wait.Policy
	logger   *zap.Logger
}

// New creates the step actions for a session.
func New(d browser.Driver, reg *locator.Registry, policy wait.Policy, logger *zap.Logger) *Actions {
	return &Actions{driver: d, registry: reg, policy: policy, logger: logger.Named("steps")}
}

// Policy returns the wait policy the actions use.
func (a *Actions) Policy() wait.Policy { return a.policy }

// Registry returns the locator registry the actions resolve against.
func (a *Actions) Registry() *locator.Registry { return a.registry }

// Navigate loads url.
func (a *Actions) Navigate(ctx context.Context, url string) error {
	a.logger.Debug("Navigate.", zap.String("url", url))
	return a.driver.Navigate(ctx, url)
}

// Click waits for name to be clickable and clicks it.
func (a *Actions) Click(ctx context.Context, name string) error {
	return a.with(ctx, "click", name, wait.ForClickable(), func(el browser.Element) error {
		return el.Click(ctx)
	})
}

// Fill types text into name once it is present.
func (a *Actions) Fill(ctx context.Context, name, text string) error {
	return a.with(ctx, "fill", name, wait.ForPresent(), func(el browser.Element) error {
		return el.SendKeys(ctx, text)
	})
}

// PressKey sends a special key (a chromedp/kb constant) to name.
func (a *Actions) PressKey(ctx context.Context, name, key string) error {
	return a.with(ctx, "press_key", name, wait.ForPresent(), func(el browser.Element) error {
		return el.SendKeys(ctx, key)
	})
}

// ReadText returns the rendered text of name once it is visible.
func (a *Actions) ReadText(ctx context.Context, name string) (string, error) {
	var text string
	err := a.with(ctx, "read_text", name, wait.ForVisible(), func(el browser.Element) (err error) {
		text, err = el.Text(ctx)
		return err
	})
	return text, err
}

// ReadValue returns the DOM value property of name, which reflects typed input.
func (a *Actions) ReadValue(ctx context.Context, name string) (string, error) {
	return a.ReadProperty(ctx, name, "value")
}

// ReadProperty returns a DOM property of name. Like the other non-text reads
// it only waits for presence, so hidden inputs such as the blanket checkbox
// can be read.
func (a *Actions) ReadProperty(ctx context.Context, name, prop string) (string, error) {
	var v string
	err := a.with(ctx, "read_property", name, wait.ForPresent(), func(el browser.Element) (err error) {
		v, err = el.Property(ctx, prop)
		return err
	})
	return v, err
}

// ReadAttribute returns an attribute of name and whether it is set.
func (a *Actions) ReadAttribute(ctx context.Context, name, attr string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := a.with(ctx, "read_attribute", name, wait.ForPresent(), func(el browser.Element) (err error) {
		v, ok, err = el.Attribute(ctx, attr)
		return err
	})
	return v, ok, err
}

// ReadInt reads the visible text of name as a base-10 integer. Empty or
// non-numeric text is an *InvalidDisplayStateError.
func (a *Actions) ReadInt(ctx context.Context, name string) (int, error) {
	text, err := a.ReadText(ctx, name)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(text)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &InvalidDisplayStateError{Locator: name, Raw: text, Expected: "an integer", Err: err}
	}
	return n, nil
}

// IsEnabled reports whether name is enabled.
func (a *Actions) IsEnabled(ctx context.Context, name string) (bool, error) {
	return a.predicate(ctx, "is_enabled", name, wait.ForPresent(), browser.Element.Enabled)
}

// IsSelected reports whether name is a checked checkbox or selected option.
func (a *Actions) IsSelected(ctx context.Context, name string) (bool, error) {
	return a.predicate(ctx, "is_selected", name, wait.ForPresent(), browser.Element.Selected)
}

// IsDisplayed reports whether name is currently rendered.
func (a *Actions) IsDisplayed(ctx context.Context, name string) (bool, error) {
	return a.predicate(ctx, "is_displayed", name, wait.ForPresent(), browser.Element.Displayed)
}

// AwaitVisible waits for name to become visible. A zero timeout uses the policy default.
func (a *Actions) AwaitVisible(ctx context.Context, name string, timeout time.Duration) error {
	return a.with(ctx, "await_visible", name, wait.ForVisible().WithTimeout(timeout), func(browser.Element) error { return nil })
}

// AwaitCount waits until at least min elements named name satisfy cond and returns them.
func (a *Actions) AwaitCount(ctx context.Context, name string, cond wait.Condition, min int) ([]browser.Element, error) {
	loc, err := a.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Step.", zap.String("action", "await_count"), zap.String("locator", name), zap.Int("min", min))
	return a.policy.AwaitAll(ctx, a.driver, loc, cond, min)
}

func (a *Actions) predicate(ctx context.Context, action, name string, cond wait.Condition, read func(browser.Element, context.Context) (bool, error)) (bool, error) {
	var v bool
	err := a.with(ctx, action, name, cond, func(el browser.Element) (err error) {
		v, err = read(el, ctx)
		return err
	})
	return v, err
}

// with runs fn against the element named name once it satisfies cond.
func (a *Actions) with(ctx context.Context, action, name string, cond wait.Condition, fn func(browser.Element) error) error {
	loc, err := a.registry.Resolve(name)
	if err != nil {
		return err
	}
	a.logger.Debug("Step.", zap.String("action", action), zap.String("locator", name), zap.Stringer("condition", cond))

	for attempt := 0; ; attempt++ {
		el, err := a.policy.Await(ctx, a.driver, loc, cond)
		if err != nil {
			return err
		}
		err = fn(el)
		if err == nil {
			return nil
		}
		if !errors.Is(err, browser.ErrStaleElement) || attempt >= maxStaleRetries {
			return fmt.Errorf("%s %s: %w", action, name, err)
		}
		a.logger.Debug("Element went stale, locating it again.", zap.String("locator", name), zap.Int("attempt", attempt+1))
	}
}
