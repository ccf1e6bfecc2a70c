// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package config loads engine options from a TOML file.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/dacapoday/stm"
)

// Duration wraps time.Duration so it can be written as a string
// ("100ms", "2s") in the configuration file.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config mirrors stm.Options in file form.
type Config struct {
	MaxAttempts uint32   `toml:"max-attempts"`
	BaseDelay   Duration `toml:"base-delay"`
	MaxDelay    Duration `toml:"max-delay"`
	Strategy    string   `toml:"strategy"`
	Mode        string   `toml:"mode"`
}

// NewDefault returns a Config holding the engine defaults.
func NewDefault() *Config {
	def := stm.DefaultOptions()
	return &Config{
		MaxAttempts: def.MaxAttempts,
		BaseDelay:   Duration{def.BaseDelay},
		MaxDelay:    Duration{def.MaxDelay},
		Strategy:    def.Strategy.String(),
		Mode:        def.Mode.String(),
	}
}

// Load reads the TOML file at path, fills unset fields with defaults and
// validates the result.
func Load(path string) (*Config, error) {
	c := new(Config)
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	c.Adjust()
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// Adjust fills zero fields with defaults.
func (c *Config) Adjust() {
	def := NewDefault()
	adjustUint32(&c.MaxAttempts, def.MaxAttempts)
	adjustDuration(&c.BaseDelay, def.BaseDelay.Duration)
	adjustDuration(&c.MaxDelay, def.MaxDelay.Duration)
	adjustString(&c.Strategy, def.Strategy)
	adjustString(&c.Mode, def.Mode)
}

// Validate rejects configurations the engine would silently clamp.
func (c *Config) Validate() error {
	if c.MaxAttempts < 1 {
		return errors.New("max-attempts must be at least 1")
	}
	if c.BaseDelay.Duration < time.Millisecond {
		return errors.New("base-delay must be at least 1ms")
	}
	if c.MaxDelay.Duration < time.Millisecond {
		return errors.New("max-delay must be at least 1ms")
	}
	if c.MaxDelay.Duration < c.BaseDelay.Duration {
		return errors.New("max-delay must not be smaller than base-delay")
	}
	if _, err := stm.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := stm.ParseMode(c.Mode); err != nil {
		return err
	}
	return nil
}

// Options converts the Config into engine options.
func (c *Config) Options() (stm.Options, error) {
	strategy, err := stm.ParseStrategy(c.Strategy)
	if err != nil {
		return stm.Options{}, err
	}
	mode, err := stm.ParseMode(c.Mode)
	if err != nil {
		return stm.Options{}, err
	}
	return stm.Options{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay.Duration,
		MaxDelay:    c.MaxDelay.Duration,
		Strategy:    strategy,
		Mode:        mode,
	}, nil
}

func adjustUint32(v *uint32, def uint32) {
	if *v == 0 {
		*v = def
	}
}

func adjustDuration(v *Duration, def time.Duration) {
	if v.Duration == 0 {
		v.Duration = def
	}
}

func adjustString(v *string, def string) {
	if len(*v) == 0 {
		*v = def
	}
}
