// internal/browser/session/element.go
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/routeflow/internal/browser"
)

// Scripts run with `this` bound to the element's node.
const (
	jsText = `function() {
		const t = this.innerText !== undefined ? this.innerText : this.textContent;
		return (t || "").trim();
	}`
	jsAttribute = `function(name) {
		return this.hasAttribute(name) ? {present: true, value: this.getAttribute(name)} : {present: false, value: ""};
	}`
	jsProperty = `function(name) {
		const v = this[name];
		return v === undefined || v === null ? "" : String(v);
	}`
	jsEnabled   = `function() { return !this.disabled; }`
	jsSelected  = `function() { return !!(this.checked || this.selected); }`
	jsDisplayed = `function() {
		if (!this.isConnected) return false;
		const rect = this.getBoundingClientRect();
		const style = window.getComputedStyle(this);
		return rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0';
	}`
)

// element is a browser.Element backed by a CDP node.
type element struct {
	node *cdp.Node
	s    *Session
}

var _ browser.Element = (*element)(nil)

func (e *element) run(ctx context.Context, action chromedp.Action) error {
	opCtx, cancel := e.s.withLookupTimeout(ctx)
	defer cancel()
	return mapNodeError(e.s.RunActions(opCtx, action))
}

func (e *element) call(ctx context.Context, fn string, res interface{}, args ...interface{}) error {
	return e.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return chromedp.CallFunctionOnNode(c, e.node, fn, res, args...)
	}))
}

func (e *element) Click(ctx context.Context) error {
	return e.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.run(ctx, chromedp.KeyEventNode(e.node, text))
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var res struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	if err := e.call(ctx, jsAttribute, &res, name); err != nil {
		return "", false, err
	}
	return res.Value, res.Present, nil
}

func (e *element) Property(ctx context.Context, name string) (string, error) {
	var res string
	err := e.call(ctx, jsProperty, &res, name)
	return res, err
}

func (e *element) Text(ctx context.Context) (string, error) {
	var res string
	err := e.call(ctx, jsText, &res)
	return res, err
}

func (e *element) Enabled(ctx context.Context) (bool, error)   { return e.bool(ctx, jsEnabled) }
func (e *element) Selected(ctx context.Context) (bool, error)  { return e.bool(ctx, jsSelected) }
func (e *element) Displayed(ctx context.Context) (bool, error) { return e.bool(ctx, jsDisplayed) }

func (e *element) bool(ctx context.Context, fn string) (bool, error) {
	var res bool
	err := e.call(ctx, fn, &res)
	return res, err
}

// staleMarkers are CDP error fragments reported for nodes that left the document.
var staleMarkers = []string{
	"no node with given id",
	"could not find node with given id",
	"node with given id does not belong to the document",
	"cannot find context with specified id",
	"node is detached from document",
}

// mapNodeError classifies engine errors about vanished nodes as browser.ErrStaleElement.
func mapNodeError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, m := range staleMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
		}
	}
	return err
}
