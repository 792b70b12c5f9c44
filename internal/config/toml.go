// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Calendar CalendarConfig `toml:"calendar"`
}

// CalendarConfig maps calendar view settings.
type CalendarConfig struct {
	Style            *string  `toml:"style"`
	DynamicRows      *bool    `toml:"dynamic-rows"`
	WeekStart        *string  `toml:"week-start"`
	MinDaysFirstWeek *int     `toml:"min-days-first-week"`
	Axis             *string  `toml:"axis"`
	From             *string  `toml:"from"`
	To               *string  `toml:"to"`
	TZ               *string  `toml:"tz"`
	EdgeDistance     *int     `toml:"edge-distance"`
	MaxBounded       *int     `toml:"max-bounded-sections"`
	RowSpacing       *float64 `toml:"row-spacing"`
	ColumnSpacing    *float64 `toml:"column-spacing"`
	SectionPadding   *float64 `toml:"section-padding"`
	LogLevel         *string  `toml:"log-level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
