//go:build !linux

package main

import (
	"context"
	"github.com/rs/zerolog/log"
	"readyset"
)

type netDevices struct {
	registry *readyset.Registry
}

func attachNetDevices(ctx context.Context, registry *readyset.Registry, config *readyset.Config) (*netDevices, error) {
	for _, devConfig := range config.NetDevices {
		if devConfig.Address != "" {
			log.Warn().Msgf("net device %q: %v", devConfig.Name, readyset.ErrPollerUnsupported)
		}
	}
	return &netDevices{registry: registry}, nil
}

func (n *netDevices) Drain(dev readyset.DeviceID) error {
	return n.registry.ClearNetworkEmpty(dev)
}

func (n *netDevices) Close() {}
