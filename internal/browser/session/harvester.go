// internal/browser/session/harvester.go
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/routeflow/internal/browser"
)

// Harvester records the responses received by a tab so later steps can look
// them up by URL and fetch their bodies on demand.
type Harvester struct {
	logger   *zap.Logger
	executor ActionExecutor

	mu      sync.RWMutex
	entries []browser.NetworkEntry
	index   map[network.RequestID]int
	now     func() time.Time
}

// NewHarvester creates a harvester that fetches bodies through executor.
func NewHarvester(logger *zap.Logger, executor ActionExecutor) *Harvester {
	if executor == nil {
		panic("Harvester created with nil ActionExecutor reference")
	}
	return &Harvester{
		logger:   logger.Named("harvester"),
		executor: executor,
		index:    make(map[network.RequestID]int),
		now:      time.Now,
	}
}

// Start subscribes to network events on the tab context. It may be called
// before the tab is allocated; chromedp attaches the listener once it is.
func (h *Harvester) Start(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if ev, ok := ev.(*network.EventResponseReceived); ok {
			h.handleResponseReceived(ev)
		}
	})
}

// handleResponseReceived runs on the chromedp event loop and must not block.
func (h *Harvester) handleResponseReceived(ev *network.EventResponseReceived) {
	if ev == nil || ev.Response == nil {
		return
	}
	entry := browser.NetworkEntry{
		RequestID:  string(ev.RequestID),
		URL:        ev.Response.URL,
		Status:     ev.Response.Status,
		ReceivedAt: h.now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if i, ok := h.index[ev.RequestID]; ok {
		h.entries[i] = entry
		return
	}
	h.index[ev.RequestID] = len(h.entries)
	h.entries = append(h.entries, entry)
}

// Responses returns the recorded responses whose URL contains substr, oldest first.
func (h *Harvester) Responses(substr string) []browser.NetworkEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []browser.NetworkEntry
	for _, e := range h.entries {
		if strings.Contains(e.URL, substr) {
			out = append(out, e)
		}
	}
	return out
}

// ResponseBody fetches the body of a recorded response from the browser.
// Chrome only keeps bodies of requests that finished loading, so a fresh
// response may fail here and succeed on a later call.
func (h *Harvester) ResponseBody(ctx context.Context, requestID string) ([]byte, error) {
	var body []byte
	err := h.executor.RunActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		body, err = network.GetResponseBody(network.RequestID(requestID)).Do(c)
		return err
	}))
	if err != nil {
		h.logger.Debug("Failed to fetch response body.", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("fetching body of request %s: %w", requestID, err)
	}
	return body, nil
}
