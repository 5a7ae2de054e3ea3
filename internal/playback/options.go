package playback

import (
	"log/slog"
	"time"

	"github.com/linuxmatters/jiveplay/internal/config"
	"github.com/linuxmatters/jiveplay/internal/output"
)

// Config tunes a Player. Zero fields take the package defaults.
type Config struct {
	Backend           string
	BlockSize         int           // decoded bytes per loop iteration, rounded down to whole frames
	DeviceBuffer      int           // output queue capacity in bytes
	ThreadSleep       time.Duration // delay between loop iterations, 0 for none
	SkipTolerance     int64         // acceptable seek inaccuracy in bytes
	MaxSkipIterations int
	SeekTimeout       time.Duration
	PausePoll         time.Duration // longest a paused loop waits between state checks
	HandoffWait       time.Duration // one wait cycle for a stale loop in Play
	HandoffCycles     int           // cycles waited before the stale loop is cancelled
}

// DefaultConfig returns the built-in engine settings.
func DefaultConfig() Config {
	return Config{
		Backend:           config.DefaultBackend,
		BlockSize:         config.BlockSize,
		DeviceBuffer:      config.DeviceBuffer,
		SkipTolerance:     config.SkipTolerance,
		MaxSkipIterations: config.MaxSkipIterations,
		SeekTimeout:       config.SeekTimeout,
		PausePoll:         config.PausePoll,
		HandoffWait:       config.HandoffWait,
		HandoffCycles:     config.HandoffCycles,
	}
}

// ConfigFromSettings builds an engine config from loaded settings.
func ConfigFromSettings(s config.Settings) Config {
	cfg := DefaultConfig()
	cfg.Backend = s.Backend
	cfg.BlockSize = s.BlockSize
	cfg.DeviceBuffer = s.DeviceBuffer
	cfg.ThreadSleep = s.ThreadSleep
	cfg.SkipTolerance = s.SkipTolerance
	cfg.SeekTimeout = s.SeekTimeout
	return cfg
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.BlockSize <= 0 {
		c.BlockSize = d.BlockSize
	}
	if c.DeviceBuffer <= 0 {
		c.DeviceBuffer = d.DeviceBuffer
	}
	if c.ThreadSleep < 0 {
		c.ThreadSleep = 0
	}
	if c.SkipTolerance < 0 {
		c.SkipTolerance = d.SkipTolerance
	}
	if c.MaxSkipIterations <= 0 {
		c.MaxSkipIterations = d.MaxSkipIterations
	}
	if c.SeekTimeout <= 0 {
		c.SeekTimeout = d.SeekTimeout
	}
	if c.PausePoll <= 0 {
		c.PausePoll = d.PausePoll
	}
	if c.HandoffWait <= 0 {
		c.HandoffWait = d.HandoffWait
	}
	if c.HandoffCycles <= 0 {
		c.HandoffCycles = d.HandoffCycles
	}
	return c
}

// Option configures a Player.
type Option func(*Player)

// WithDevice plays through d instead of a device created from the backend name.
func WithDevice(d output.Device) Option {
	return func(p *Player) {
		p.device = d
	}
}

// WithLogger sets the logger; the player id is added to every record.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) {
		p.logger = l
	}
}
