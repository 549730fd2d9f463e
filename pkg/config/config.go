// lcdmon
// Copyright (c) 2026 The lcdmon Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of lcdmon.
//
// lcdmon is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// lcdmon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with lcdmon.  If not, see <http://www.gnu.org/licenses/>.

// Package config holds the app configuration (TOML, written back to disk)
// and the theme definitions (YAML, read-only). App config is connection and
// device policy; themes describe what the screen shows.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lcdmon/lcdmon/pkg/helpers/syncutil"
	"github.com/lcdmon/lcdmon/pkg/lcd/codec"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "LCDMON_CFG"
	CfgFile       = "config.toml"

	// Display revisions selectable in config.
	RevisionWeActA    = "A_320x480"
	RevisionSimulated = "SIMU_320x480"
)

// Values is the full app configuration as stored on disk.
type Values struct {
	Display      Display `toml:"display"`
	Theme        Theme   `toml:"theme"`
	ConfigSchema int     `toml:"config_schema"`
	DebugLogging bool    `toml:"debug_logging"`
}

// Display is the device section.
type Display struct {
	Revision          string `toml:"revision"`
	Port              string `toml:"port"`
	Orientation       string `toml:"orientation"`
	Reverse           bool   `toml:"reverse"`
	Brightness        int    `toml:"brightness"`
	BrightnessFadeMs  int    `toml:"brightness_fade_ms"`
	Compress          bool   `toml:"compress"`
	FreeOff           bool   `toml:"free_off"`
	HumitureReportMs  int    `toml:"humiture_report_ms"`
}

// Theme is the theme section.
type Theme struct {
	Path string `toml:"path"`
}

// BaseDefaults is a fresh install's configuration.
var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Display: Display{
		Revision:         RevisionWeActA,
		Port:             "AUTO",
		Orientation:      "portrait",
		Brightness:       80,
		BrightnessFadeMs: 1000,
		Compress:         true,
		FreeOff:          true,
		HumitureReportMs: 2000,
	},
	Theme: Theme{
		Path: "themes/default",
	},
}

// Instance is the live configuration, safe for concurrent use.
type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top so fields not
	// present in the file retain their default values.
	newVals := c.defaults
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema, SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if _, err := parseOrientation(newVals.Display.Orientation); err != nil {
		return err
	}
	if newVals.Display.Brightness < 0 || newVals.Display.Brightness > 100 {
		return fmt.Errorf("brightness %d%% out of range 0..100", newVals.Display.Brightness)
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) Revision() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.Revision
}

func (c *Instance) Port() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.Port
}

// SetPort overrides the serial port for this run. Not persisted unless the
// caller also saves.
func (c *Instance) SetPort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display.Port = port
}

// SetRevision overrides the display revision for this run.
func (c *Instance) SetRevision(rev string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display.Revision = rev
}

// Orientation resolves the configured orientation with the reverse flag
// applied.
func (c *Instance) Orientation() codec.Orientation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	o, err := parseOrientation(c.vals.Display.Orientation)
	if err != nil {
		// Load validated it; stale only if mutated unsafely.
		o = codec.Portrait
	}
	if !c.vals.Display.Reverse {
		return o
	}
	switch o {
	case codec.Portrait:
		return codec.ReversePortrait
	case codec.ReversePortrait:
		return codec.Portrait
	case codec.Landscape:
		return codec.ReverseLandscape
	case codec.ReverseLandscape:
		return codec.Landscape
	case codec.OrientationAny:
		return o
	default:
		return o
	}
}

// BrightnessLevel rescales the configured 0-100% brightness to the 0-255
// wire range.
func (c *Instance) BrightnessLevel() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pct := c.vals.Display.Brightness
	return (pct*codec.MaxBrightness + 50) / 100
}

func (c *Instance) BrightnessFadeMillis() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.BrightnessFadeMs
}

func (c *Instance) Compress() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.Compress
}

// FreeOff reports whether shutdown should hand the panel back to its idle
// screen instead of leaving the last frame.
func (c *Instance) FreeOff() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.FreeOff
}

func (c *Instance) HumitureReportMillis() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.HumitureReportMs
}

func (c *Instance) ThemePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Theme.Path
}

func (c *Instance) SetThemePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Theme.Path = path
}

func parseOrientation(s string) (codec.Orientation, error) {
	switch s {
	case "portrait", "":
		return codec.Portrait, nil
	case "reverse_portrait":
		return codec.ReversePortrait, nil
	case "landscape":
		return codec.Landscape, nil
	case "reverse_landscape":
		return codec.ReverseLandscape, nil
	default:
		return 0, fmt.Errorf("unknown orientation: %s", s)
	}
}
