// internal/browser/session/context_utils_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestCombineContext(t *testing.T) {
	const key ctxKey = "tab"

	t.Run("inherits values from primary", func(t *testing.T) {
		primary := context.WithValue(context.Background(), key, "cdp")
		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		assert.Equal(t, "cdp", combined.Value(key))
		assert.NoError(t, combined.Err())
	})

	t.Run("canceled by primary", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		cancelPrimary()
		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("canceled when the secondary deadline passes", func(t *testing.T) {
		primary, cancelPrimary := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelPrimary()
		secondary, cancelSecondary := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancelSecondary()

		combined, cancel := CombineContext(primary, secondary)
		defer cancel()

		select {
		case <-combined.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("combined context outlived the secondary deadline")
		}
		// The combined context is canceled, not expired, since the deadline belonged to secondary.
		assert.ErrorIs(t, combined.Err(), context.Canceled)
		require.NoError(t, primary.Err())
	})

	t.Run("explicit cancel", func(t *testing.T) {
		combined, cancel := CombineContext(context.Background(), context.Background())
		cancel()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	const key ctxKey = "tab"
	parent, cancelParent := context.WithTimeout(context.WithValue(context.Background(), key, "cdp"), time.Hour)
	detached := Detach(parent)
	cancelParent()

	require.ErrorIs(t, parent.Err(), context.Canceled)
	assert.Equal(t, "cdp", detached.Value(key))
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, ok := detached.Deadline()
	assert.False(t, ok)

	derived, cancel := context.WithTimeout(detached, 20*time.Millisecond)
	defer cancel()
	<-derived.Done()
	assert.ErrorIs(t, derived.Err(), context.DeadlineExceeded)
}
