// internal/browser/session/harvester_test.go
package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubExecutor records the actions it is asked to run and fails with err.
type stubExecutor struct {
	err     error
	actions int
}

func (s *stubExecutor) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	s.actions += len(actions)
	return s.err
}

func responseEvent(id, url string, status int64) *network.EventResponseReceived {
	return &network.EventResponseReceived{
		RequestID: network.RequestID(id),
		Response:  &network.Response{URL: url, Status: status},
	}
}

func TestHarvester_Responses(t *testing.T) {
	h := NewHarvester(zaptest.NewLogger(t), &stubExecutor{})
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	h.handleResponseReceived(responseEvent("1", "http://localhost/api/v1/number?number=+11231231212", 200))
	h.handleResponseReceived(responseEvent("2", "http://localhost/static/app.js", 200))
	h.handleResponseReceived(responseEvent("3", "http://localhost/api/v1/number?number=+11231231212", 200))
	h.handleResponseReceived(nil)
	h.handleResponseReceived(&network.EventResponseReceived{RequestID: "4"})

	got := h.Responses("api/v1/number?number")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].RequestID)
	assert.Equal(t, "3", got[1].RequestID)
	assert.Equal(t, fixed, got[0].ReceivedAt)
	assert.Len(t, h.Responses(""), 3)

	t.Run("a repeated request ID replaces its entry", func(t *testing.T) {
		h.handleResponseReceived(responseEvent("2", "http://localhost/static/app.js", 304))
		all := h.Responses("app.js")
		require.Len(t, all, 1)
		assert.Equal(t, int64(304), all[0].Status)
	})
}

func TestHarvester_ResponseBody(t *testing.T) {
	exec := &stubExecutor{err: errors.New("No resource with given identifier found")}
	h := NewHarvester(zaptest.NewLogger(t), exec)

	_, err := h.ResponseBody(context.Background(), "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.err)
	assert.Contains(t, err.Error(), "request 42")
	assert.Equal(t, 1, exec.actions)
}

func TestNewHarvester_NilExecutorPanics(t *testing.T) {
	assert.Panics(t, func() { NewHarvester(zaptest.NewLogger(t), nil) })
}
