// Package conf defines the shipwatch runtime settings and loads them from
// defaults, an optional config file, environment variables, and flags
// (bound by the cmd layer), in ascending precedence.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/tphakala/shipwatch-go/internal/errors"
)

// Built-in example reference position, used when nothing else is supplied.
const (
	DefaultLatitude  = 25.82392
	DefaultLongitude = -15.74592
)

// The two radius/margin presets of the scan. Narrow is the default pair;
// the wide pair is applied by the --wide flag.
const (
	NarrowRadiusNM  = 25.0
	NarrowMarginDeg = 0.5
	WideRadiusNM    = 100.0
	WideMarginDeg   = 1.0
)

// ReferenceSettings is the reference position in decimal degrees.
type ReferenceSettings struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// WatchSettings configures the live collection session.
type WatchSettings struct {
	Radius  float64 `mapstructure:"radius"`  // nautical miles
	Collect int     `mapstructure:"collect"` // seconds
	Margin  float64 `mapstructure:"margin"`  // subscription box half-width, degrees
	Wide    bool    `mapstructure:"wide"`    // apply the wide radius/margin pair
	APIKey  string  `mapstructure:"apikey"`
	URL     string  `mapstructure:"url"`
}

// PresenceSettings configures the optional secondary lookup.
type PresenceSettings struct {
	Token    string `mapstructure:"token"`
	Endpoint string `mapstructure:"endpoint"`
	Dataset  string `mapstructure:"dataset"`
}

// Settings is the full runtime configuration.
type Settings struct {
	Debug     bool              `mapstructure:"debug"`
	Reference ReferenceSettings `mapstructure:"reference"`
	Watch     WatchSettings     `mapstructure:"watch"`
	Presence  PresenceSettings  `mapstructure:"presence"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings instance. A missing config file is not an error.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// Setting returns the loaded settings instance, or nil before Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// ApplyPreset switches the radius/margin pair to the wide preset when the
// wide option is enabled. Explicit radius or margin values given by the
// caller keep their precedence through viper before this runs.
func (s *Settings) ApplyPreset() {
	if s.Watch.Wide {
		s.Watch.Radius = WideRadiusNM
		s.Watch.Margin = WideMarginDeg
	}
}

// ValidateSettings rejects values the collection loop cannot work with.
func ValidateSettings(s *Settings) error {
	if s.Watch.Radius <= 0 {
		return errors.Newf("watch radius must be positive, got %g", s.Watch.Radius).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if s.Watch.Collect <= 0 {
		return errors.Newf("collection duration must be positive, got %d", s.Watch.Collect).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if s.Watch.Margin <= 0 {
		return errors.Newf("bounding box margin must be positive, got %g", s.Watch.Margin).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// initViper initializes viper with defaults, env bindings and the optional
// config file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range configPaths() {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	// Credentials come from the environment unless given as flags.
	_ = viper.BindEnv("watch.apikey", "AISSTREAM_API_KEY")
	_ = viper.BindEnv("presence.token", "GFW_API_TOKEN")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// configPaths returns the directories searched for config.yaml.
func configPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "shipwatch"))
	}
	return paths
}
