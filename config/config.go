// Package config loads the settings shared by the commands: the move picker
// parameters, the search options and the log level.
//
// Defaults come from the packages that own the settings. A YAML file may
// override any subset of them, and MOVEPICK_<SECTION>_<KEY> environment
// variables override the file, e.g. MOVEPICK_PICKER_CHECK_BONUS=12000.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"chess-movepick/movepick"
	"chess-movepick/search"
)

var ErrInvalidSettings = errors.New("invalid settings")

const envPrefix = "MOVEPICK"

type Settings struct {
	Picker   movepick.Params `mapstructure:"picker" yaml:"picker"`
	Search   search.Options  `mapstructure:"search" yaml:"search"`
	LogLevel string          `mapstructure:"log_level" yaml:"log_level"`
}

func Default() Settings {
	return Settings{
		Picker:   movepick.DefaultParams(),
		Search:   search.DefaultOptions(),
		LogLevel: zerolog.InfoLevel.String(),
	}
}

// Load resolves the settings from the defaults, the file at path (skipped
// when path is empty) and the environment, and validates the result.
func Load(path string) (Settings, error) {
	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return Settings{}, fmt.Errorf("rendering default settings: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Settings{}, fmt.Errorf("loading default settings: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Settings{}, fmt.Errorf("%w: reading %s: %w", ErrInvalidSettings, path, err)
		}
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("merged settings file")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if err := s.Picker.Validate(); err != nil {
		return fmt.Errorf("%w: picker: %w", ErrInvalidSettings, err)
	}
	if err := s.Search.Validate(); err != nil {
		return fmt.Errorf("%w: search: %w", ErrInvalidSettings, err)
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Level returns the configured log level, or info if it does not parse.
func (s *Settings) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Dump renders s as YAML in the format Load reads.
func (s *Settings) Dump() ([]byte, error) {
	return yaml.Marshal(s)
}
