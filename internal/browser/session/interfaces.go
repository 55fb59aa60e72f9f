// internal/browser/session/interfaces.go
package session

import (
	"context"

	"github.com/chromedp/chromedp"
)

// ActionExecutor runs chromedp actions against a live browser tab. The element
// handles and the network log go through it instead of holding the tab context
// themselves, so every engine call is paced and bound to the session lifetime.
type ActionExecutor interface {
	// RunActions executes actions under the operational ctx combined with the
	// session context that carries the CDP connection.
	RunActions(ctx context.Context, actions ...chromedp.Action) error
}
