package main

import (
	"context"
	"flag"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"math/rand"
	"os"
	"os/signal"
	"readyset"
	"syscall"
	"time"
)

func initLog(config *readyset.Config) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(config.Global.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "global.log_level")
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

func main() {
	configFilePath := flag.String("c", "cmd/config.toml", "path to configuration file.")
	flag.Parse()
	config, err := readyset.LoadConfig(*configFilePath)
	if err != nil {
		log.Fatal().Msgf("can't load config: %+v", err)
	}
	if err := initLog(config); err != nil {
		log.Fatal().Msgf("can't init logging: %+v", err)
	}
	log.Info().Msg("starting readyd...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := readyset.NewRegistry(readyset.RegistryConfig{})
	netDevices, err := attachNetDevices(ctx, registry, config)
	if err != nil {
		log.Fatal().Msgf("can't attach net devices: %+v", err)
	}
	defer netDevices.Close()

	blockDevices := make(map[readyset.DeviceID]*readyset.BlockDevice)
	for _, blockConfig := range config.BlockDevices {
		dev, err := readyset.NewBlockDevice(registry, blockConfig.ID)
		if err != nil {
			log.Fatal().Msgf("can't init block device %q: %+v", blockConfig.Name, err)
		}
		blockDevices[blockConfig.ID] = dev
		if blockConfig.LatencyMs > 0 {
			go simulateCompletions(ctx, dev, time.Duration(blockConfig.LatencyMs)*time.Millisecond)
		}
	}

	dispatcher := readyset.NewDispatcher(registry, readyset.DispatcherConfig{
		Name:         "readyd",
		Deadline:     config.Deadline(),
		LockOsThread: config.Yield.LockOsThread,
	})
	handler := readyset.HandlerFuncs{
		OnNet: netDevices.Drain,
		OnBlock: func(dev readyset.DeviceID, tok readyset.TokenID) error {
			blockDevice, ok := blockDevices[dev]
			if !ok {
				return registry.ClearBlockCompleted(dev, tok)
			}
			log.Info().Msgf("block device %d: request %d completed", dev, tok)
			return blockDevice.Release(tok)
		},
		OnIdle: func() error {
			if log.Debug().Enabled() {
				log.Debug().Msgf("idle, stats: %+v", registry.Stats())
			}
			return nil
		},
	}
	err = dispatcher.Run(ctx, handler)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Msgf("dispatcher stopped: %+v", err)
	}
	log.Info().Msgf("stopped, stats: %+v", registry.Stats())
}

// simulateCompletions keeps one request in flight on dev, completing each
// after roughly latency.
func simulateCompletions(ctx context.Context, dev *readyset.BlockDevice, latency time.Duration) {
	for {
		wait := latency/2 + time.Duration(rand.Int63n(int64(latency)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		tok, err := dev.Acquire()
		if errors.Is(err, readyset.ErrTokensExhausted) {
			continue
		}
		if err != nil {
			log.Error().Msgf("block device %d: %+v", dev.ID, err)
			return
		}
		if err := dev.Complete(tok); err != nil {
			log.Error().Msgf("block device %d: %+v", dev.ID, err)
		}
	}
}
