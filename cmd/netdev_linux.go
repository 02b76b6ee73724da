//go:build linux

package main

import (
	"context"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
	"net"
	"os"
	"readyset"
	"strconv"
)

const (
	datagramBufferSize = 64 * 1024
	socketRecvBuffer   = 256 * 1024
)

type netDevices struct {
	registry *readyset.Registry
	poller   *readyset.NetPoller
	fds      map[readyset.DeviceID]int
	buffer   []byte
}

func attachNetDevices(ctx context.Context, registry *readyset.Registry, config *readyset.Config) (*netDevices, error) {
	poller, err := readyset.OpenNetPoller(registry, readyset.NetPollerConfig{
		EventBufferSize: config.Poller.EventBufferSize,
		Timeout:         config.PollTimeout(),
	})
	if err != nil {
		return nil, err
	}
	devices := &netDevices{
		registry: registry,
		poller:   poller,
		fds:      make(map[readyset.DeviceID]int),
		buffer:   make([]byte, datagramBufferSize),
	}
	for _, devConfig := range config.NetDevices {
		if devConfig.Address == "" {
			continue
		}
		fd, err := openUDPSocket(devConfig.Address)
		if err != nil {
			devices.Close()
			return nil, errors.Wrapf(err, "net device %q", devConfig.Name)
		}
		devices.fds[devConfig.ID] = fd
		if err := poller.Attach(fd, devConfig.ID); err != nil {
			devices.Close()
			return nil, errors.Wrapf(err, "net device %q", devConfig.Name)
		}
		log.Info().Msgf("net device %d (%s) listening on udp %s", devConfig.ID, devConfig.Name, devConfig.Address)
	}
	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Msgf("net poller stopped: %+v", err)
		}
	}()
	return devices, nil
}

// Drain clears the readiness of dev before reading, so a datagram arriving
// after the last read raises a fresh edge.
func (n *netDevices) Drain(dev readyset.DeviceID) error {
	if err := n.registry.ClearNetworkEmpty(dev); err != nil {
		return err
	}
	fd, ok := n.fds[dev]
	if !ok {
		return nil
	}
	for {
		size, from, err := unix.Recvfrom(fd, n.buffer, 0)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return nil
		case err != nil:
			return os.NewSyscallError("recvfrom", err)
		}
		log.Info().Msgf("net device %d: %d bytes from %s", dev, size, sockaddrString(from))
	}
}

func (n *netDevices) Close() {
	for dev, fd := range n.fds {
		if err := unix.Close(fd); err != nil {
			log.Error().Msgf("net device %d: close: %+v", dev, err)
		}
	}
	if err := n.poller.Close(); err != nil {
		log.Error().Msgf("got error while closing epoll: %+v", err)
	}
}

func openUDPSocket(address string) (int, error) {
	addr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return -1, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	setSocketOptions(fd)
	sa := &unix.SockaddrInet4{Port: addr.Port}
	if ip := addr.IP.To4(); ip != nil {
		copy(sa.Addr[:], ip)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, os.NewSyscallError("bind", err)
	}
	return fd, nil
}

func setSocketOptions(fd int) {
	err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if err != nil {
		log.Error().Msgf("got error while setting socket options SO_REUSEADDR: %+v", err)
	}
	err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, socketRecvBuffer)
	if err != nil {
		log.Error().Msgf("got error while setting socket options SO_RCVBUF: %+v", err)
	}
}

func sockaddrString(sa unix.Sockaddr) string {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return net.JoinHostPort(net.IP(in4.Addr[:]).String(), strconv.Itoa(in4.Port))
	}
	return "unknown"
}
