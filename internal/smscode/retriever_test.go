package smscode_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/browser/fakebrowser"
	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/smscode"
	"github.com/xkilldash9x/routeflow/internal/wait/waittest"
)

const numberURL = "http://localhost:8080/api/v1/number?number=+11231231212"

func newRetriever(t *testing.T, clock *waittest.ManualClock) *smscode.Retriever {
	t.Helper()
	cfg := config.NewDefaultConfig().SMS()
	return smscode.New(cfg, zaptest.NewLogger(t), smscode.WithClock(clock))
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the newest matching response", func(t *testing.T) {
		clock := waittest.NewManualClock()
		page := fakebrowser.NewPage()
		page.AddResponse(numberURL, []byte(`{"code":"1111"}`))
		page.AddResponse("http://localhost:8080/api/v1/orders", []byte(`{"id":99}`))
		page.AddResponse(numberURL, []byte(`{"code":"2468"}`))

		code, err := newRetriever(t, clock).Retrieve(ctx, page)
		require.NoError(t, err)
		assert.Equal(t, "2468", code)
		assert.Empty(t, clock.Sleeps())
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		clock := waittest.NewManualClock()
		page := fakebrowser.NewPage()
		page.AddResponse("http://localhost:8080/static/app.js", []byte("var a = 1234;"))

		_, err := newRetriever(t, clock).Retrieve(ctx, page)
		require.ErrorIs(t, err, smscode.ErrCodeNotFound)
		// Ten attempts, one second apart.
		assert.Len(t, clock.Sleeps(), 9)
		for _, d := range clock.Sleeps() {
			assert.Equal(t, time.Second, d)
		}
	})

	t.Run("waits for the response to arrive", func(t *testing.T) {
		clock := waittest.NewManualClock()
		log := &delayedLog{Page: fakebrowser.NewPage(), arriveAfter: 3}

		code, err := newRetriever(t, clock).Retrieve(ctx, log)
		require.NoError(t, err)
		assert.Equal(t, "5309", code)
		assert.Len(t, clock.Sleeps(), 3)
	})

	t.Run("skips responses whose body is not available", func(t *testing.T) {
		clock := waittest.NewManualClock()
		log := &unreadableNewest{Page: fakebrowser.NewPage()}
		log.AddResponse(numberURL, []byte(`{"code":"7777"}`))
		log.newest = log.AddResponse(numberURL, nil)

		code, err := newRetriever(t, clock).Retrieve(ctx, log)
		require.NoError(t, err)
		assert.Equal(t, "7777", code)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := newRetriever(t, waittest.NewManualClock()).Retrieve(cctx, fakebrowser.NewPage())
		require.ErrorIs(t, err, context.Canceled)
	})
}

// delayedLog publishes the code response once Responses was called arriveAfter times.
type delayedLog struct {
	*fakebrowser.Page
	arriveAfter int
	calls       int
}

func (d *delayedLog) Responses(substr string) []browser.NetworkEntry {
	d.calls++
	if d.calls == d.arriveAfter+1 {
		d.Page.AddResponse(numberURL, []byte(`{"code":"5309"}`))
	}
	return d.Page.Responses(substr)
}

// unreadableNewest fails body fetches for the newest response.
type unreadableNewest struct {
	*fakebrowser.Page
	newest string
}

func (u *unreadableNewest) ResponseBody(ctx context.Context, id string) ([]byte, error) {
	if id == u.newest {
		return nil, errors.New("No data found for resource with given identifier")
	}
	return u.Page.ResponseBody(ctx, id)
}

func TestExtractDigits(t *testing.T) {
	cases := map[string]string{
		`{"code":"1234"}`: "1234",
		"abc":             "",
		"":                "",
		"1 2-3":           "123",
		"٣٤":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, smscode.ExtractDigits(in), in)
	}
}
