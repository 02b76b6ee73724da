package readyset

import (
	"github.com/rs/zerolog/log"
	"sync"
)

const (
	MaxNetDevices   = 16
	MaxBlockDevices = 16
	MaxBlockTokens  = 62
)

type DeviceID uint32

type TokenID uint32

type RegistryConfig struct {
	// Clock defaults to MonotonicClock.
	Clock Clock
}

// Registry holds the readiness bits of every network device and block token.
// Producers mark and clear bits from any goroutine; a consumer waits for them
// with Yield.
type Registry struct {
	clock Clock
	stats Stats

	mu sync.Mutex
	// wake is closed by the next mark. It is created lazily by a waiter while
	// holding mu, so a mark can never slip between a scan and the wait.
	wake  chan struct{}
	net   bitSet
	block [MaxBlockDevices]bitSet
}

func NewRegistry(config RegistryConfig) *Registry {
	clock := config.Clock
	if clock == nil {
		clock = MonotonicClock{}
	}
	return &Registry{clock: clock}
}

func (r *Registry) Clock() Clock {
	return r.clock
}

func (r *Registry) Stats() StatsSnapshot {
	return r.stats.Snapshot()
}

func (r *Registry) MarkNetworkReady(id DeviceID) error {
	if id >= MaxNetDevices {
		return invalidNetDevice(id)
	}
	r.mu.Lock()
	r.net.set(uint32(id))
	r.broadcastLocked()
	r.mu.Unlock()
	r.stats.NetMarks.Inc()
	if log.Debug().Enabled() {
		log.Debug().Msgf("net device %d ready", id)
	}
	return nil
}

func (r *Registry) ClearNetworkEmpty(id DeviceID) error {
	if id >= MaxNetDevices {
		return invalidNetDevice(id)
	}
	r.mu.Lock()
	r.net.clear(uint32(id))
	r.mu.Unlock()
	return nil
}

func (r *Registry) IsNetworkReady(id DeviceID) (bool, error) {
	if id >= MaxNetDevices {
		return false, invalidNetDevice(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.net.has(uint32(id)), nil
}

func (r *Registry) MarkBlockReady(dev DeviceID, tok TokenID) error {
	if err := validateBlock(dev, tok); err != nil {
		return err
	}
	r.mu.Lock()
	r.block[dev].set(uint32(tok))
	r.broadcastLocked()
	r.mu.Unlock()
	r.stats.BlockMarks.Inc()
	if log.Debug().Enabled() {
		log.Debug().Msgf("block device %d token %d completed", dev, tok)
	}
	return nil
}

func (r *Registry) ClearBlockCompleted(dev DeviceID, tok TokenID) error {
	if err := validateBlock(dev, tok); err != nil {
		return err
	}
	r.mu.Lock()
	r.block[dev].clear(uint32(tok))
	r.mu.Unlock()
	return nil
}

func (r *Registry) IsBlockReady(dev DeviceID, tok TokenID) (bool, error) {
	if err := validateBlock(dev, tok); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.block[dev].has(uint32(tok)), nil
}

func validateBlock(dev DeviceID, tok TokenID) error {
	if dev >= MaxBlockDevices {
		return invalidBlockDevice(dev)
	}
	if tok >= MaxBlockTokens {
		return invalidToken(dev, tok)
	}
	return nil
}

// broadcastLocked wakes every goroutine waiting in Yield.
func (r *Registry) broadcastLocked() {
	if r.wake != nil {
		close(r.wake)
		r.wake = nil
	}
}

func (r *Registry) waiterLocked() <-chan struct{} {
	if r.wake == nil {
		r.wake = make(chan struct{})
	}
	return r.wake
}

// scanLocked picks the lowest ready network device, then the lowest ready
// token of the lowest block device.
func (r *Registry) scanLocked() (Selection, bool) {
	if id, ok := r.net.lowest(MaxNetDevices); ok {
		return Net(DeviceID(id)), true
	}
	for dev := range r.block {
		if r.block[dev].empty() {
			continue
		}
		if tok, ok := r.block[dev].lowest(MaxBlockTokens); ok {
			return Block(DeviceID(dev), TokenID(tok)), true
		}
	}
	return None(), false
}
