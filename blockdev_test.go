package readyset

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestBlockDeviceRejectsInvalidID(t *testing.T) {
	r, _ := newTestRegistry()
	_, err := NewBlockDevice(r, MaxBlockDevices)
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestBlockDeviceAcquireUntilExhausted(t *testing.T) {
	r, _ := newTestRegistry()
	dev, err := NewBlockDevice(r, 3)
	require.NoError(t, err)

	for want := TokenID(0); want < MaxBlockTokens; want++ {
		tok, err := dev.Acquire()
		require.NoError(t, err)
		require.Equal(t, want, tok)
	}
	assert.Equal(t, MaxBlockTokens, dev.InFlight())
	_, err = dev.Acquire()
	require.ErrorIs(t, err, ErrTokensExhausted)

	require.NoError(t, dev.Complete(17))
	require.NoError(t, dev.Release(17))
	tok, err := dev.Acquire()
	require.NoError(t, err)
	assert.Equal(t, TokenID(17), tok)
}

func TestBlockDeviceCompletionLifecycle(t *testing.T) {
	r, _ := newTestRegistry()
	dev, err := NewBlockDevice(r, 3)
	require.NoError(t, err)

	tok, err := dev.Acquire()
	require.NoError(t, err)
	assert.Equal(t, None(), r.Yield(0))

	require.NoError(t, dev.Complete(tok))
	assert.Equal(t, Block(3, tok), r.Yield(0))

	require.NoError(t, dev.Release(tok))
	assert.Equal(t, None(), r.Yield(0))
	assert.Equal(t, 0, dev.InFlight())
}

func TestBlockDeviceUnacquiredToken(t *testing.T) {
	r, _ := newTestRegistry()
	dev, err := NewBlockDevice(r, 0)
	require.NoError(t, err)

	require.ErrorIs(t, dev.Complete(5), ErrTokenNotAcquired)
	require.ErrorIs(t, dev.Release(5), ErrTokenNotAcquired)
	require.ErrorIs(t, dev.Complete(MaxBlockTokens), ErrInvalidID)

	ready, err := r.IsBlockReady(0, 5)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestBlockDeviceConcurrentCompleteAndRelease(t *testing.T) {
	r, _ := newTestRegistry()
	dev, err := NewBlockDevice(r, 2)
	require.NoError(t, err)

	for i := 0; i < 2000; i++ {
		tok, err := dev.Acquire()
		require.NoError(t, err)

		completed := make(chan error, 1)
		go func() {
			completed <- dev.Complete(tok)
		}()
		require.NoError(t, dev.Release(tok))
		if err := <-completed; err != nil {
			// the release freed the token before the completion
			require.ErrorIs(t, err, ErrTokenNotAcquired)
		}
		ready, err := r.IsBlockReady(2, tok)
		require.NoError(t, err)
		require.False(t, ready, "token %d left ready after release", tok)
		require.Equal(t, 0, dev.InFlight())
	}
	assert.Equal(t, None(), r.Yield(0))
}

func TestBlockDeviceReleaseFreesTokenForCompletion(t *testing.T) {
	r, _ := newTestRegistry()
	dev, err := NewBlockDevice(r, 1)
	require.NoError(t, err)

	tok, err := dev.Acquire()
	require.NoError(t, err)
	require.NoError(t, dev.Release(tok))
	require.ErrorIs(t, dev.Complete(tok), ErrTokenNotAcquired)

	again, err := dev.Acquire()
	require.NoError(t, err)
	assert.Equal(t, tok, again)
	ready, err := r.IsBlockReady(1, again)
	require.NoError(t, err)
	assert.False(t, ready)
}
