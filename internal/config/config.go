package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server runtime configuration. Every tunable of the
// synchronization engine lives here so tests and deployments can vary them
// without touching code.
type Config struct {
	Addr string `yaml:"addr"`

	// Simulation
	TickRate         int     `yaml:"tick_rate"`          // ticks per second
	CountdownSeconds int     `yaml:"countdown_seconds"`  // pre-round countdown
	RoundSeconds     float64 `yaml:"round_seconds"`      // round time limit
	RoundsToWin      int     `yaml:"rounds_to_win"`      // score limit ending the game
	RoundOverSeconds float64 `yaml:"round_over_seconds"` // pause between rounds
	SuddenDeathAt    float64 `yaml:"sudden_death_at"`    // seconds remaining that arm sudden death
	PickupInterval   float64 `yaml:"pickup_interval"`    // seconds between pickup spawns

	// State broadcast
	StaticResendTicks int `yaml:"static_resend_ticks"` // full resend cadence for obstacles/pickups/hazards
	FullSnapshotTicks int `yaml:"full_snapshot_ticks"` // full (non-delta) snapshot cadence

	// Lag compensation
	HistorySeconds float64 `yaml:"history_seconds"` // rewind retention window

	// Session lifecycle
	IdleTimeout    time.Duration `yaml:"idle_timeout"`    // empty/idle session reclaim
	RejoinGrace    time.Duration `yaml:"rejoin_grace"`    // held side after a disconnect
	ProbeInterval  time.Duration `yaml:"probe_interval"`  // latency probe cadence
	MaxSessions    int           `yaml:"max_sessions"`
	DBPath         string        `yaml:"db_path"`         // match archive; empty disables
	PublicURL      string        `yaml:"public_url"`      // base URL in invite QR codes
	TokenSecretHex string        `yaml:"token_secret"`    // rejoin token HMAC secret; empty generates one
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Addr:              ":8080",
		TickRate:          30,
		CountdownSeconds:  3,
		RoundSeconds:      120,
		RoundsToWin:       3,
		RoundOverSeconds:  3,
		SuddenDeathAt:     30,
		PickupInterval:    10,
		StaticResendTicks: 30,
		FullSnapshotTicks: 90,
		HistorySeconds:    1.0,
		IdleTimeout:       5 * time.Minute,
		RejoinGrace:       15 * time.Second,
		ProbeInterval:     2 * time.Second,
		MaxSessions:       100,
	}
}

// Load reads configuration from an optional yaml file layered over the
// defaults. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with
func (c Config) Validate() error {
	if c.TickRate < 1 || c.TickRate > 240 {
		return fmt.Errorf("tick_rate must be in [1, 240], got %d", c.TickRate)
	}
	if c.RoundsToWin < 1 {
		return fmt.Errorf("rounds_to_win must be >= 1, got %d", c.RoundsToWin)
	}
	if c.RoundSeconds <= 0 {
		return fmt.Errorf("round_seconds must be > 0, got %v", c.RoundSeconds)
	}
	if c.StaticResendTicks < 1 {
		return fmt.Errorf("static_resend_ticks must be >= 1, got %d", c.StaticResendTicks)
	}
	if c.FullSnapshotTicks < 1 {
		return fmt.Errorf("full_snapshot_ticks must be >= 1, got %d", c.FullSnapshotTicks)
	}
	if c.HistorySeconds <= 0 {
		return fmt.Errorf("history_seconds must be > 0, got %v", c.HistorySeconds)
	}
	return nil
}

// TickDuration returns the fixed step duration
func (c Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// HistoryTicks returns the lag compensation window in ticks
func (c Config) HistoryTicks() int {
	n := int(c.HistorySeconds * float64(c.TickRate))
	if n < 1 {
		n = 1
	}
	return n
}
