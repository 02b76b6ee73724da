package readyset

import (
	"context"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestDispatcherDispatchesInPriorityOrder(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	require.NoError(t, r.MarkBlockReady(1, 5))
	require.NoError(t, r.MarkNetworkReady(2))

	var calls []Selection
	d := NewDispatcher(r, DispatcherConfig{Name: "test", Deadline: 10 * time.Millisecond})
	handler := HandlerFuncs{
		OnNet: func(dev DeviceID) error {
			calls = append(calls, Net(dev))
			return r.ClearNetworkEmpty(dev)
		},
		OnBlock: func(dev DeviceID, tok TokenID) error {
			calls = append(calls, Block(dev, tok))
			return r.ClearBlockCompleted(dev, tok)
		},
		OnIdle: func() error {
			calls = append(calls, None())
			d.Stop()
			return nil
		},
	}
	require.NoError(t, d.Run(context.Background(), handler))
	assert.Equal(t, []Selection{Net(2), Block(1, 5), None()}, calls)
	assert.False(t, d.IsRunning())
}

func TestDispatcherKeepsRunningAfterHandlerError(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	require.NoError(t, r.MarkNetworkReady(0))

	netCalls := 0
	d := NewDispatcher(r, DispatcherConfig{Name: "test", Deadline: time.Millisecond})
	handler := HandlerFuncs{
		OnNet: func(dev DeviceID) error {
			netCalls++
			if netCalls == 1 {
				return errors.New("drain failed")
			}
			return r.ClearNetworkEmpty(dev)
		},
		OnIdle: func() error {
			d.Stop()
			return nil
		},
	}
	require.NoError(t, d.Run(context.Background(), handler))
	assert.Equal(t, 2, netCalls)
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	d := NewDispatcher(r, DispatcherConfig{Name: "test", Deadline: time.Hour, LockOsThread: true})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, HandlerFuncs{})
	}()
	require.Eventually(t, d.IsRunning, 5*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher ignored cancellation")
	}
}

func TestHandlerFuncsDefaults(t *testing.T) {
	var h HandlerFuncs
	assert.NoError(t, h.NetReady(0))
	assert.NoError(t, h.BlockReady(0, 0))
	assert.NoError(t, h.Idle())
}

func TestDispatcherStopBeforeRun(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	require.NoError(t, r.MarkNetworkReady(1))
	d := NewDispatcher(r, DispatcherConfig{Name: "test", Deadline: time.Hour})
	d.Stop()

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- d.Run(context.Background(), HandlerFuncs{
			OnNet: func(dev DeviceID) error {
				calls++
				return nil
			},
		})
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop before Run was lost")
	}
	assert.Zero(t, calls)
	assert.False(t, d.IsRunning())
}
