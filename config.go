package readyset

import (
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
	"time"
)

const (
	defaultDeadlineMs      = 1000
	defaultEventBufferSize = 64
	defaultPollTimeoutMs   = 100
)

type Global struct {
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

type YieldConfig struct {
	DeadlineMs   int  `yaml:"deadline_ms" toml:"deadline_ms"`
	LockOsThread bool `yaml:"lock_os_thread" toml:"lock_os_thread"`
}

type PollerConfig struct {
	EventBufferSize int `yaml:"event_buffer_size" toml:"event_buffer_size"`
	TimeoutMs       int `yaml:"timeout_ms" toml:"timeout_ms"`
}

type NetDeviceConfig struct {
	Name    string   `yaml:"name" toml:"name"`
	ID      DeviceID `yaml:"id" toml:"id"`
	Address string   `yaml:"address" toml:"address"`
}

type BlockDeviceConfig struct {
	Name      string   `yaml:"name" toml:"name"`
	ID        DeviceID `yaml:"id" toml:"id"`
	LatencyMs int      `yaml:"latency_ms" toml:"latency_ms"`
}

type Config struct {
	Global       Global              `yaml:"global" toml:"global"`
	Yield        YieldConfig         `yaml:"yield" toml:"yield"`
	Poller       PollerConfig        `yaml:"poller" toml:"poller"`
	NetDevices   []NetDeviceConfig   `yaml:"net_devices" toml:"net_devices"`
	BlockDevices []BlockDeviceConfig `yaml:"block_devices" toml:"block_devices"`
}

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", filePath)
	}
	config := &Config{}
	switch {
	case strings.HasSuffix(filePath, ".toml"):
		err = toml.Unmarshal(file, config)
	case strings.HasSuffix(filePath, ".yaml"), strings.HasSuffix(filePath, ".yml"):
		err = yaml.Unmarshal(file, config)
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown config format: %s", filePath)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode config %s", filePath)
	}
	applyDefaults(config)
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Deadline() time.Duration {
	return time.Duration(c.Yield.DeadlineMs) * time.Millisecond
}

func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Poller.TimeoutMs) * time.Millisecond
}

func applyDefaults(config *Config) {
	if config.Global.LogLevel == "" {
		config.Global.LogLevel = "info"
	}
	if config.Yield.DeadlineMs == 0 {
		config.Yield.DeadlineMs = defaultDeadlineMs
	}
	if config.Poller.EventBufferSize == 0 {
		config.Poller.EventBufferSize = defaultEventBufferSize
	}
	if config.Poller.TimeoutMs == 0 {
		config.Poller.TimeoutMs = defaultPollTimeoutMs
	}
}

func validateConfig(config *Config) error {
	if config.Yield.DeadlineMs < 0 {
		return errors.Wrapf(ErrInvalidConfig, "yield.deadline_ms must not be negative: %d", config.Yield.DeadlineMs)
	}
	if config.Poller.EventBufferSize < 0 || config.Poller.TimeoutMs < 0 {
		return errors.Wrapf(ErrInvalidConfig, "poller settings must not be negative: %+v", config.Poller)
	}
	seen := make(map[DeviceID]string)
	for _, dev := range config.NetDevices {
		if dev.ID >= MaxNetDevices {
			return errors.Wrapf(invalidNetDevice(dev.ID), "net device %q", dev.Name)
		}
		if other, ok := seen[dev.ID]; ok {
			return errors.Wrapf(ErrDuplicateDevice, "net devices %q and %q share id %d", other, dev.Name, dev.ID)
		}
		seen[dev.ID] = dev.Name
	}
	seen = make(map[DeviceID]string)
	for _, dev := range config.BlockDevices {
		if dev.ID >= MaxBlockDevices {
			return errors.Wrapf(invalidBlockDevice(dev.ID), "block device %q", dev.Name)
		}
		if other, ok := seen[dev.ID]; ok {
			return errors.Wrapf(ErrDuplicateDevice, "block devices %q and %q share id %d", other, dev.Name, dev.ID)
		}
		if dev.LatencyMs < 0 {
			return errors.Wrapf(ErrInvalidConfig, "block device %q: latency_ms must not be negative", dev.Name)
		}
		seen[dev.ID] = dev.Name
	}
	return nil
}
