// internal/browser/session/interaction.go
package session

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/locator"
)

// Navigate loads url in the tab and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.navigationTimeout)
	defer cancel()

	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.RunActions(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return fmt.Errorf("navigation to %s timed out after %v", url, s.navigationTimeout)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// FindElements returns the elements currently matching loc without waiting for
// more to appear. XPath selectors go through DOM search; everything else is a
// querySelectorAll.
func (s *Session) FindElements(ctx context.Context, loc locator.Locator) ([]browser.Element, error) {
	opCtx, cancel := s.withLookupTimeout(ctx)
	defer cancel()

	var by chromedp.QueryOption = chromedp.ByQueryAll
	if loc.Strategy == locator.XPath {
		by = chromedp.BySearch
	}

	var nodes []*cdp.Node
	if err := s.RunActions(opCtx, chromedp.Nodes(loc.Selector(), &nodes, by, chromedp.AtLeast(0))); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if opCtx.Err() != nil {
			// The document was busy, typically mid-navigation; a later poll can retry.
			return nil, fmt.Errorf("%w: lookup of %s exceeded %v", browser.ErrNoSuchElement, loc, s.lookupTimeout)
		}
		return nil, mapNodeError(err)
	}

	els := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &element{node: n, s: s})
	}
	return els, nil
}
