package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/BurntSushi/xdg"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the predatorkey daemon.
//
// Every field has a default equal to the behaviour of the stock tool, so the
// daemon runs without any config file. A file (YAML, or TOML by extension)
// and command-line flags can override individual values.
type Config struct {
	Device   DeviceConfig   `yaml:"device" toml:"device"`
	Commands CommandsConfig `yaml:"commands" toml:"commands"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

type DeviceConfig struct {
	GuessPath    string   `yaml:"guess_path" toml:"guess_path"`       // Tried first, accepted if it opens
	NameContains string   `yaml:"name_contains" toml:"name_contains"` // Device name substring
	Enumerator   string   `yaml:"enumerator" toml:"enumerator"`       // "evdev" or "udev"
	Strategies   []string `yaml:"strategies" toml:"strategies"`       // Locate order
}

type CommandsConfig struct {
	Primary    string   `yaml:"primary" toml:"primary"`
	Extra      []string `yaml:"extra" toml:"extra"`
	DebounceMS int      `yaml:"debounce_ms" toml:"debounce_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{
			GuessPath:    defaultGuessPath,
			NameContains: defaultNameContains,
			Enumerator:   defaultEnumerator,
			Strategies:   slices.Clone(knownStrategies),
		},
		Commands: CommandsConfig{
			Primary:    defaultPrimaryCommand,
			Extra:      []string{},
			DebounceMS: defaultDebounceMS,
		},
		Logging: LoggingConfig{
			Level: string(LogLevelInfo),
		},
	}
}

// LoadConfigFile reads and parses a config file on top of the defaults.
//
// Files ending in ".toml" are decoded as TOML, anything else as YAML. Unknown
// fields are rejected in both formats to catch typos.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	path = ExpandPath(path)

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return loadTOMLConfig(path)
	}
	return loadYAMLConfig(path)
}

func loadYAMLConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

func loadTOMLConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode config toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("decode config toml: unknown fields: %s", strings.Join(keys, ", "))
	}

	return cfg, nil
}

// defaultConfigPath looks for config.yaml in the XDG config directories
// (usually ~/.config/predatorkey). An empty string means no file was found.
func defaultConfigPath() string {
	paths := xdg.Paths{XDGSuffix: "predatorkey"}
	path, err := paths.ConfigFile("config.yaml")
	if err != nil {
		return ""
	}
	return path
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// Each override is only applied if its pointer is non-nil (i.e. the flag was
// set on the command line), even if it holds a zero value.
type FlagOverrides struct {
	DevicePath *string
	Enumerator *string

	PrimaryCommand *string
	ExtraCommands  []string // nil means unset
	DebounceMS     *int

	LogLevel *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.DevicePath != nil {
		cfg.Device.GuessPath = *o.DevicePath
	}
	if o.Enumerator != nil {
		cfg.Device.Enumerator = *o.Enumerator
	}
	if o.PrimaryCommand != nil {
		cfg.Commands.Primary = *o.PrimaryCommand
	}
	if o.ExtraCommands != nil {
		cfg.Commands.Extra = slices.Clone(o.ExtraCommands)
	}
	if o.DebounceMS != nil {
		cfg.Commands.DebounceMS = *o.DebounceMS
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Device
	if len(c.Device.Strategies) == 0 {
		return errors.New("device.strategies must not be empty")
	}
	seen := make(map[string]bool, len(c.Device.Strategies))
	for i, s := range c.Device.Strategies {
		if !slices.Contains(knownStrategies, s) {
			return fmt.Errorf("device.strategies[%d]: unknown strategy %q (must be one of %s)",
				i, s, strings.Join(knownStrategies, ", "))
		}
		if seen[s] {
			return fmt.Errorf("device.strategies[%d]: duplicate strategy %q", i, s)
		}
		seen[s] = true
	}
	if seen[strategyGuessPath] && c.Device.GuessPath == "" {
		return errors.New("device.guess_path must not be empty when the guess_path strategy is enabled")
	}
	if seen[strategyName] && c.Device.NameContains == "" {
		return errors.New("device.name_contains must not be empty when the name strategy is enabled")
	}
	if c.Device.Enumerator != enumeratorEvdev && c.Device.Enumerator != enumeratorUdev {
		return fmt.Errorf("device.enumerator must be %q or %q", enumeratorEvdev, enumeratorUdev)
	}

	// Commands
	if c.Commands.DebounceMS < 0 {
		return errors.New("commands.debounce_ms must be >= 0")
	}
	if len(c.ToDispatchConfig().Commands.All()) == 0 {
		return errors.New("commands.primary or commands.extra must contain at least one command")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ToDispatchConfig converts the file config into the dispatcher's value object.
func (c *Config) ToDispatchConfig() DispatchConfig {
	return DispatchConfig{
		Commands: CommandSpec{
			Primary: c.Commands.Primary,
			Extra:   slices.Clone(c.Commands.Extra),
		},
		Debounce: time.Duration(c.Commands.DebounceMS) * time.Millisecond,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
