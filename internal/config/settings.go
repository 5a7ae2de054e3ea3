package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override settings,
// e.g. JIVEPLAY_BLOCK_SIZE=8192.
const EnvPrefix = "JIVEPLAY"

// Settings holds the user-tunable configuration. Zero values are never
// meaningful; Load always starts from Defaults.
type Settings struct {
	Backend       string        `mapstructure:"backend"`
	BlockSize     int           `mapstructure:"block_size"`
	DeviceBuffer  int           `mapstructure:"device_buffer"`
	ThreadSleep   time.Duration `mapstructure:"thread_sleep"`
	SkipTolerance int64         `mapstructure:"skip_tolerance"`
	SeekTimeout   time.Duration `mapstructure:"seek_timeout"`
	FrameRate     int           `mapstructure:"frame_rate"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFile       string        `mapstructure:"log_file"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Backend:       DefaultBackend,
		BlockSize:     BlockSize,
		DeviceBuffer:  DeviceBuffer,
		ThreadSleep:   0,
		SkipTolerance: SkipTolerance,
		SeekTimeout:   SeekTimeout,
		FrameRate:     FrameRate,
		LogLevel:      LogLevel,
		LogFile:       "",
	}
}

// Load reads settings from an optional config file and the environment.
// With an empty path it looks for jiveplay.{yaml,toml,json} in the user
// config directory and the working directory; a missing file is not an error.
func Load(path string) (Settings, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("block_size", defaults.BlockSize)
	v.SetDefault("device_buffer", defaults.DeviceBuffer)
	v.SetDefault("thread_sleep", defaults.ThreadSleep)
	v.SetDefault("skip_tolerance", defaults.SkipTolerance)
	v.SetDefault("seek_timeout", defaults.SeekTimeout)
	v.SetDefault("frame_rate", defaults.FrameRate)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_file", defaults.LogFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("jiveplay")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "jiveplay"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports the first out-of-range setting.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendOto, BackendMalgo, BackendNull:
	default:
		return fmt.Errorf("invalid backend %q (must be %s, %s or %s)", s.Backend, BackendOto, BackendMalgo, BackendNull)
	}
	if s.BlockSize < 4 {
		return fmt.Errorf("invalid block size %d (must be at least 4 bytes)", s.BlockSize)
	}
	if s.DeviceBuffer < s.BlockSize {
		return fmt.Errorf("invalid device buffer %d (must hold at least one %d byte block)", s.DeviceBuffer, s.BlockSize)
	}
	if s.ThreadSleep < 0 {
		return fmt.Errorf("invalid thread sleep %v", s.ThreadSleep)
	}
	if s.SkipTolerance < 0 {
		return fmt.Errorf("invalid skip tolerance %d", s.SkipTolerance)
	}
	if s.SeekTimeout <= 0 {
		return fmt.Errorf("invalid seek timeout %v", s.SeekTimeout)
	}
	if s.FrameRate < 1 || s.FrameRate > 240 {
		return fmt.Errorf("invalid frame rate %d (must be 1-240)", s.FrameRate)
	}
	return nil
}
