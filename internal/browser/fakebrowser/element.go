// Package fakebrowser is an in-memory implementation of browser.Session for tests.
// Pages are assembled from scripted elements keyed by selector; behavior on click
// and typing is supplied by the test.
package fakebrowser

import (
	"context"
	"strings"
	"sync"

	"github.com/xkilldash9x/routeflow/internal/browser"
)

// Element is a scripted DOM node. New elements are displayed and enabled.
type Element struct {
	mu        sync.Mutex
	text      string
	attrs     map[string]string
	props     map[string]string
	enabled   bool
	selected  bool
	displayed bool
	stale     bool

	onClick func(e *Element)
	onKeys  func(e *Element, keys string)

	clicks int
	typed  []string
}

var _ browser.Element = (*Element)(nil)

// NewElement returns a visible, enabled element.
func NewElement() *Element {
	return &Element{
		attrs:     make(map[string]string),
		props:     make(map[string]string),
		enabled:   true,
		displayed: true,
	}
}

// -- Builders --

func (e *Element) WithText(s string) *Element    { e.SetText(s); return e }
func (e *Element) WithAttr(k, v string) *Element { e.SetAttr(k, v); return e }
func (e *Element) WithProp(k, v string) *Element { e.SetProp(k, v); return e }
func (e *Element) Hidden() *Element              { e.SetDisplayed(false); return e }
func (e *Element) Disabled() *Element            { e.SetEnabled(false); return e }
func (e *Element) Checked() *Element             { e.SetSelected(true); return e }

func (e *Element) OnClick(fn func(*Element)) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onClick = fn
	return e
}

// OnKeys replaces the default typing behavior, which appends printable input to the "value" property.
func (e *Element) OnKeys(fn func(e *Element, keys string)) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onKeys = fn
	return e
}

// -- State setters, safe to call from click handlers --

func (e *Element) SetText(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = s
}

func (e *Element) SetAttr(k, v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[k] = v
}

func (e *Element) SetProp(k, v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props[k] = v
}

func (e *Element) SetDisplayed(b bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.displayed = b
}

func (e *Element) SetEnabled(b bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = b
}

func (e *Element) SetSelected(b bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = b
}

// MarkStale detaches the element; every later call fails with browser.ErrStaleElement.
func (e *Element) MarkStale() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stale = true
}

// -- Inspection --

func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *Element) Typed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.typed...)
}

// -- browser.Element --

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	if err := e.usable(ctx); err != nil {
		e.mu.Unlock()
		return err
	}
	e.clicks++
	fn := e.onClick
	e.mu.Unlock()

	if fn != nil {
		fn(e)
	}
	return nil
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	e.mu.Lock()
	if err := e.usable(ctx); err != nil {
		e.mu.Unlock()
		return err
	}
	e.typed = append(e.typed, text)
	fn := e.onKeys
	if fn == nil {
		if printable(text) {
			e.props["value"] += text
		}
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	fn(e, text)
	return nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(ctx); err != nil {
		return "", false, err
	}
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *Element) Property(ctx context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(ctx); err != nil {
		return "", err
	}
	return e.props[name], nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(ctx); err != nil {
		return "", err
	}
	return e.text, nil
}

func (e *Element) Enabled(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(ctx); err != nil {
		return false, err
	}
	return e.enabled, nil
}

func (e *Element) Selected(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(ctx); err != nil {
		return false, err
	}
	return e.selected, nil
}

func (e *Element) Displayed(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(ctx); err != nil {
		return false, err
	}
	return e.displayed, nil
}

// usable must be called with e.mu held.
func (e *Element) usable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.stale {
		return browser.ErrStaleElement
	}
	return nil
}

// printable reports whether keys is ordinary text rather than a control key such as kb.Tab.
func printable(keys string) bool {
	return keys != "" && !strings.ContainsAny(keys, "\t\r\n")
}
