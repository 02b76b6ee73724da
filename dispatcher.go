package readyset

import (
	"context"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
	"runtime"
	"time"
)

const defaultDispatchDeadline = time.Second

// Handler reacts to selections made by a Dispatcher. Handlers own consuming
// readiness: NetReady must call ClearNetworkEmpty and drain the device,
// BlockReady must clear (or release) the token, otherwise the same selection
// is returned again on the next iteration.
type Handler interface {
	NetReady(dev DeviceID) error
	BlockReady(dev DeviceID, tok TokenID) error
	Idle() error
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are no-ops.
type HandlerFuncs struct {
	OnNet   func(dev DeviceID) error
	OnBlock func(dev DeviceID, tok TokenID) error
	OnIdle  func() error
}

func (h HandlerFuncs) NetReady(dev DeviceID) error {
	if h.OnNet == nil {
		return nil
	}
	return h.OnNet(dev)
}

func (h HandlerFuncs) BlockReady(dev DeviceID, tok TokenID) error {
	if h.OnBlock == nil {
		return nil
	}
	return h.OnBlock(dev, tok)
}

func (h HandlerFuncs) Idle() error {
	if h.OnIdle == nil {
		return nil
	}
	return h.OnIdle()
}

type DispatcherConfig struct {
	Name         string
	Deadline     time.Duration
	LockOsThread bool
}

// Dispatcher is the single consumer of a Registry. A stopped dispatcher
// stays stopped: Run after Stop returns immediately.
type Dispatcher struct {
	Name         string
	deadline     uint64
	lockOsThread bool
	isRunning    *atomic.Bool
	isStopped    *atomic.Bool
	registry     *Registry
}

func NewDispatcher(registry *Registry, config DispatcherConfig) *Dispatcher {
	if log.Debug().Enabled() {
		log.Debug().Msgf("init dispatcher:%+v", config)
	} else {
		log.Info().Msgf("init dispatcher:%s", config.Name)
	}
	deadline := config.Deadline
	if deadline <= 0 {
		deadline = defaultDispatchDeadline
	}
	return &Dispatcher{
		Name:         config.Name,
		deadline:     uint64(deadline),
		lockOsThread: config.LockOsThread,
		isRunning:    atomic.NewBool(false),
		isStopped:    atomic.NewBool(false),
		registry:     registry,
	}
}

// Run yields and dispatches until ctx is done or Stop is called. Handler
// errors are logged and do not stop the loop.
func (d *Dispatcher) Run(ctx context.Context, handler Handler) error {
	if d.lockOsThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	d.isRunning.Store(true)
	defer d.isRunning.Store(false)
	for !d.isStopped.Load() {
		sel, err := d.registry.YieldContext(ctx, d.deadline)
		if err != nil {
			log.Info().Msgf("stopping dispatcher:%s", d.Name)
			return err
		}
		if err := d.dispatch(handler, sel); err != nil {
			log.Error().Msgf("[%s] handler failed on %s: %+v", d.Name, sel, err)
		}
	}
	log.Info().Msgf("stopped dispatcher:%s", d.Name)
	return nil
}

// Stop makes Run return after the current Yield completes, or right away if
// Run has not started yet.
func (d *Dispatcher) Stop() {
	d.isStopped.Store(true)
}

func (d *Dispatcher) IsRunning() bool {
	return d.isRunning.Load()
}

func (d *Dispatcher) dispatch(handler Handler, sel Selection) error {
	switch sel.Kind {
	case SelectNet:
		return handler.NetReady(sel.Device)
	case SelectBlock:
		return handler.BlockReady(sel.Device, sel.Token)
	default:
		return handler.Idle()
	}
}
