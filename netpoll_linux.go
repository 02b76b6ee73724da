//go:build linux

package readyset

import (
	"context"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
	"os"
	"sync"
)

const (
	readEvents  = unix.EPOLLPRI | unix.EPOLLIN | unix.EPOLLET
	errorEvents = unix.EPOLLERR | unix.EPOLLHUP | unix.EPOLLRDHUP
)

// NetPoller turns edge-triggered read readiness of file descriptors into
// network readiness bits. Consumers call ClearNetworkEmpty first and then
// drain the fd until EAGAIN; draining first can swallow the only edge.
type NetPoller struct {
	fd       int
	timeout  int
	events   []unix.EpollEvent
	registry *Registry

	mu      sync.Mutex
	devices map[int32]DeviceID
}

func OpenNetPoller(registry *Registry, config NetPollerConfig) (*NetPoller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	bufferSize := config.EventBufferSize
	if bufferSize <= 0 {
		bufferSize = defaultEventBufferSize
	}
	timeout := int(config.Timeout.Milliseconds())
	if timeout <= 0 {
		timeout = defaultPollTimeoutMs
	}
	return &NetPoller{
		fd:       fd,
		timeout:  timeout,
		events:   make([]unix.EpollEvent, bufferSize),
		registry: registry,
		devices:  make(map[int32]DeviceID),
	}, nil
}

func (p *NetPoller) Close() error {
	return os.NewSyscallError("close", unix.Close(p.fd))
}

// Attach reports read readiness of fd as readiness of network device dev.
func (p *NetPoller) Attach(fd int, dev DeviceID) error {
	if dev >= MaxNetDevices {
		return invalidNetDevice(dev)
	}
	if log.Debug().Enabled() {
		log.Debug().Msgf("attach fd %d to net device %d", fd, dev)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Fd: int32(fd), Events: readEvents | errorEvents})
	if err != nil {
		return os.NewSyscallError("epoll_ctl add", err)
	}
	p.devices[int32(fd)] = dev
	return nil
}

func (p *NetPoller) Detach(fd int) error {
	if log.Debug().Enabled() {
		log.Debug().Msgf("detach fd %d", fd)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.devices, int32(fd))
	err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
	if err != nil {
		return os.NewSyscallError("epoll_ctl del", err)
	}
	return nil
}

// Poll waits up to timeoutMsec (-1 blocks, 0 returns immediately) and marks
// every device whose fd became readable or failed. It returns the number of
// epoll events handled.
func (p *NetPoller) Poll(timeoutMsec int) (int, error) {
	n, err := unix.EpollWait(p.fd, p.events, timeoutMsec)
	if err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, os.NewSyscallError("epoll_wait", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < n; i++ {
		ev := p.events[i]
		dev, ok := p.devices[ev.Fd]
		if !ok {
			continue
		}
		if errorEvents&ev.Events != 0 {
			log.Warn().Msgf("[%d] net device %d reported error events 0x%x", ev.Fd, dev, ev.Events)
		}
		if err := p.registry.MarkNetworkReady(dev); err != nil {
			return i, errors.Wrapf(err, "fd %d", ev.Fd)
		}
	}
	return n, nil
}

// Run polls until ctx is done.
func (p *NetPoller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := p.Poll(p.timeout)
		if err != nil {
			log.Error().Msgf("got error while waiting for the net events: %+v", err)
			return err
		}
		if n > 0 && log.Debug().Enabled() {
			log.Debug().Msgf("processed %d netpoll events", n)
		}
	}
}
