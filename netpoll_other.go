//go:build !linux

package readyset

import "context"

type NetPoller struct{}

func OpenNetPoller(registry *Registry, config NetPollerConfig) (*NetPoller, error) {
	return nil, ErrPollerUnsupported
}

func (p *NetPoller) Close() error {
	return ErrPollerUnsupported
}

func (p *NetPoller) Attach(fd int, dev DeviceID) error {
	return ErrPollerUnsupported
}

func (p *NetPoller) Detach(fd int) error {
	return ErrPollerUnsupported
}

func (p *NetPoller) Poll(timeoutMsec int) (int, error) {
	return 0, ErrPollerUnsupported
}

func (p *NetPoller) Run(ctx context.Context) error {
	return ErrPollerUnsupported
}
