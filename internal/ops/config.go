// Package ops loads the daemon's JSON file configuration.
package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"main/internal/registry"
	"main/pkg/conn"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Registry  RegistryConfig  `json:"registry"`
	Feeds     FeedsConfig     `json:"feeds"`
	Relay     RelayConfig     `json:"relay"`
	Transport TransportConfig `json:"transport"`
	Profiling ProfilingConfig `json:"profiling"`
}

// RegistryConfig defines the watched symbols and presets, inline or
// from Postgres.
type RegistryConfig struct {
	Postgres *conn.Option      `json:"postgres,omitempty"`
	Symbols  []registry.Symbol `json:"symbols"`
	Presets  []registry.Preset `json:"presets"`
}

// FeedsConfig carries feed-actor tunables shared by every feed.
type FeedsConfig struct {
	QueueCapacity    int   `json:"queueCapacity"`
	ReconnectDelayMs int64 `json:"reconnectDelayMs"`
	IdleTimeoutMs    int64 `json:"idleTimeoutMs"`
}

// RelayConfig bounds per-subscriber backlog.
type RelayConfig struct {
	BacklogCeilingBytes int64 `json:"backlogCeilingBytes"`
}

// TransportConfig describes the fan-out websocket endpoint.
type TransportConfig struct {
	Addr          string `json:"addr"`
	Path          string `json:"path"`
	QueueSize     int    `json:"queueSize"`
	IdleTimeoutMs int64  `json:"idleTimeoutMs"`
}

// ProfilingConfig enables the optional pyroscope profiler.
type ProfilingConfig struct {
	Enabled       bool   `json:"enabled"`
	ServerAddress string `json:"serverAddress"`
	AppName       string `json:"appName"`
}

// Default returns the built-in configuration: one synthetic feed so a
// bare `sigd` run produces output without venue connectivity.
func Default() FileConfig {
	return FileConfig{
		Registry: RegistryConfig{
			Symbols: []registry.Symbol{
				{Name: "SYNUSDT", Venue: "synthetic", Mode: "top_of_book"},
			},
		},
		Feeds: FeedsConfig{
			QueueCapacity:    1024,
			ReconnectDelayMs: 3000,
			IdleTimeoutMs:    30000,
		},
		Relay: RelayConfig{
			BacklogCeilingBytes: 0,
		},
		Transport: TransportConfig{
			Addr:          ":8081",
			Path:          "/ws",
			QueueSize:     256,
			IdleTimeoutMs: 20000,
		},
	}
}

// Load reads and validates a config file, filling defaults for omitted
// sections.
func Load(path string) (FileConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c FileConfig) validate() error {
	if len(c.Registry.Symbols) == 0 && c.Registry.Postgres == nil {
		return fmt.Errorf("config: no symbols configured and no registry database")
	}
	for _, s := range c.Registry.Symbols {
		if s.Name == "" || s.Venue == "" {
			return fmt.Errorf("config: symbol entries need name and venue")
		}
		switch s.Mode {
		case "", "top_of_book", "depth":
		default:
			return fmt.Errorf("config: unknown feed mode %q for %s", s.Mode, s.Name)
		}
	}
	if c.Transport.Addr == "" {
		return fmt.Errorf("config: transport addr is required")
	}
	return nil
}
