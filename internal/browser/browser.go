// internal/browser/browser.go
//
// Package browser defines the boundary between the scenario framework and the
// automation engine. Everything above this package talks to these interfaces;
// the chromedp implementation lives in internal/browser/session and an
// in-memory double in internal/browser/fakebrowser.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/xkilldash9x/routeflow/internal/locator"
)

var (
	// ErrNoSuchElement reports that a lookup matched nothing. Lookups are expected to
	// race page updates, so callers waiting on an element treat it as transient.
	ErrNoSuchElement = errors.New("no such element")
	// ErrStaleElement reports that a handle no longer refers to a node in the document.
	ErrStaleElement = errors.New("stale element reference")
	// ErrSessionClosed is returned by every operation on a closed session.
	ErrSessionClosed = errors.New("browser session closed")
)

// IsTransient reports whether err is a lookup failure that a later poll may not repeat.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNoSuchElement) || errors.Is(err, ErrStaleElement)
}

// Element is a handle to one DOM node.
type Element interface {
	Click(ctx context.Context) error
	// SendKeys types text into the element after focusing it. Special keys use the
	// chromedp/kb constants (e.g. kb.Tab).
	SendKeys(ctx context.Context, text string) error
	// Attribute returns the attribute value and whether the attribute exists.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// Property returns a DOM property (such as "value") rendered as a string.
	Property(ctx context.Context, name string) (string, error)
	Text(ctx context.Context) (string, error)
	Enabled(ctx context.Context) (bool, error)
	Selected(ctx context.Context) (bool, error)
	Displayed(ctx context.Context) (bool, error)
}

// Driver is the part of the engine used to navigate and look elements up.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// FindElements returns every element currently matching loc. An empty slice
	// with a nil error means nothing matched; it must not block waiting for matches.
	FindElements(ctx context.Context, loc locator.Locator) ([]Element, error)
}

// NetworkEntry is one response observed by the session.
type NetworkEntry struct {
	RequestID  string
	URL        string
	Status     int64
	ReceivedAt time.Time
}

// NetworkLog exposes the network traffic captured during a session.
type NetworkLog interface {
	// Responses returns the captured responses whose URL contains substr, oldest first.
	Responses(substr string) []NetworkEntry
	ResponseBody(ctx context.Context, requestID string) ([]byte, error)
}

// Session is the single live browser context shared by the scenarios of a run.
type Session interface {
	Driver
	NetworkLog
	ID() string
	Close(ctx context.Context) error
}
