package readyset

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func newTestRegistry() (*Registry, *FakeClock) {
	clock := NewFakeClock(Timespec{Sec: 100})
	return NewRegistry(RegistryConfig{Clock: clock}), clock
}

func TestRegistryRejectsInvalidIDs(t *testing.T) {
	r, _ := newTestRegistry()
	badDevices := []DeviceID{MaxNetDevices, 17, 62, 63, 64, 1 << 31}
	badTokens := []TokenID{MaxBlockTokens, 63, 64, 1 << 31}

	for _, dev := range badDevices {
		require.ErrorIs(t, r.MarkNetworkReady(dev), ErrInvalidID)
		require.ErrorIs(t, r.ClearNetworkEmpty(dev), ErrInvalidID)
		ready, err := r.IsNetworkReady(dev)
		require.ErrorIs(t, err, ErrInvalidID)
		assert.False(t, ready)

		require.ErrorIs(t, r.MarkBlockReady(dev, 0), ErrInvalidID)
		require.ErrorIs(t, r.ClearBlockCompleted(dev, 0), ErrInvalidID)
		_, err = r.IsBlockReady(dev, 0)
		require.ErrorIs(t, err, ErrInvalidID)
	}
	for _, tok := range badTokens {
		require.ErrorIs(t, r.MarkBlockReady(0, tok), ErrInvalidID)
		require.ErrorIs(t, r.ClearBlockCompleted(0, tok), ErrInvalidID)
		_, err := r.IsBlockReady(0, tok)
		require.ErrorIs(t, err, ErrInvalidID)
	}

	assert.Equal(t, None(), r.Yield(0))
	stats := r.Stats()
	assert.Zero(t, stats.NetMarks)
	assert.Zero(t, stats.BlockMarks)
}

func TestRegistryAcceptsBoundaryIDs(t *testing.T) {
	r, _ := newTestRegistry()
	require.NoError(t, r.MarkNetworkReady(MaxNetDevices-1))
	require.NoError(t, r.MarkBlockReady(MaxBlockDevices-1, MaxBlockTokens-1))

	ready, err := r.IsNetworkReady(MaxNetDevices - 1)
	require.NoError(t, err)
	assert.True(t, ready)
	ready, err = r.IsBlockReady(MaxBlockDevices-1, MaxBlockTokens-1)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestRegistryMarkThenClear(t *testing.T) {
	r, _ := newTestRegistry()
	require.NoError(t, r.MarkNetworkReady(4))
	require.NoError(t, r.ClearNetworkEmpty(4))

	ready, err := r.IsNetworkReady(4)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, None(), r.Yield(0))
}

func TestRegistryClearIsScopedToOneBit(t *testing.T) {
	r, _ := newTestRegistry()
	require.NoError(t, r.MarkBlockReady(2, 10))
	require.NoError(t, r.MarkBlockReady(2, 11))
	require.NoError(t, r.ClearBlockCompleted(2, 10))

	ready, err := r.IsBlockReady(2, 10)
	require.NoError(t, err)
	assert.False(t, ready)
	ready, err = r.IsBlockReady(2, 11)
	require.NoError(t, err)
	assert.True(t, ready)

	require.NoError(t, r.ClearBlockCompleted(2, 11))
	require.NoError(t, r.ClearBlockCompleted(2, 11))
	assert.Equal(t, None(), r.Yield(0))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, _ := newTestRegistry()
	b, _ := newTestRegistry()
	require.NoError(t, a.MarkNetworkReady(1))
	assert.Equal(t, Net(1), a.Yield(0))
	assert.Equal(t, None(), b.Yield(0))
}

func TestMarkWithoutWaiterDoesNotAllocateWake(t *testing.T) {
	r, _ := newTestRegistry()
	require.NoError(t, r.MarkNetworkReady(0))
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Nil(t, r.wake)
}
