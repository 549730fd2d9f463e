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

package config

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lcdmon/lcdmon/pkg/lcd/codec"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ThemeFile is the definition file inside a theme directory.
const ThemeFile = "theme.yaml"

// ThemeDef is one loaded theme. Asset paths are resolved against the theme
// directory at load time.
type ThemeDef struct {
	StaticImages  map[string]StaticImage  `yaml:"static_images"`
	StaticTexts   map[string]StaticText   `yaml:"static_texts"`
	Stats         map[string]Widget       `yaml:"stats"`
	DynamicImages map[int]DynamicImage    `yaml:"dynamic_images"`
	DynamicTexts  map[int]DynamicText     `yaml:"dynamic_texts"`
	Display       ThemeDisplay            `yaml:"display"`
	PhotoAlbum    PhotoAlbum              `yaml:"photo_album"`
	Dir           string                  `yaml:"-"`
}

// ThemeDisplay is the screen the theme was authored for.
type ThemeDisplay struct {
	Size            string `yaml:"size"` // "WxH"
	Orientation     string `yaml:"orientation"`
	BackgroundImage string `yaml:"background_image"`
	BackgroundColor string `yaml:"background_color"`
}

// StaticImage is drawn once at startup and after every theme reload.
type StaticImage struct {
	Path   string `yaml:"path"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Radius int    `yaml:"radius"`
}

// StaticText is drawn once at startup and after every theme reload.
type StaticText struct {
	Text            string `yaml:"text"`
	Font            string `yaml:"font"`
	FontColor       string `yaml:"font_color"`
	BackgroundColor string `yaml:"background_color"`
	BackgroundImage string `yaml:"background_image"`
	Anchor          string `yaml:"anchor"`
	Align           string `yaml:"align"`
	X               int    `yaml:"x"`
	Y               int    `yaml:"y"`
	FontSize        int    `yaml:"font_size"`
}

// Widget is one periodic stats widget. Which fields matter depends on Type.
type Widget struct {
	Type              string  `yaml:"type"`   // text, progress_bar, radial, line_graph
	Source            string  `yaml:"source"` // metric key, defaults to the widget name
	Device            string  `yaml:"device"` // disk mount point or network interface
	Format            string  `yaml:"format"`
	Font              string  `yaml:"font"`
	FontColor         string  `yaml:"font_color"`
	BackgroundColor   string  `yaml:"background_color"`
	BackgroundImage   string  `yaml:"background_image"`
	Anchor            string  `yaml:"anchor"`
	Align             string  `yaml:"align"`
	BarColor          string  `yaml:"bar_color"`
	BarBackground     string  `yaml:"bar_background_color"`
	LineColor         string  `yaml:"line_color"`
	AxisColor         string  `yaml:"axis_color"`
	AxisFont          string  `yaml:"axis_font"`
	BarDecoration     string  `yaml:"bar_decoration"`
	Show              bool    `yaml:"show"`
	IntervalSec       int     `yaml:"interval_sec"`
	X                 int     `yaml:"x"`
	Y                 int     `yaml:"y"`
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	FontSize          int     `yaml:"font_size"`
	MinValue          float64 `yaml:"min_value"`
	MaxValue          float64 `yaml:"max_value"`
	BarOutline        bool    `yaml:"bar_outline"`
	Radius            int     `yaml:"radius"`
	BarWidth          int     `yaml:"bar_width"`
	AngleStart        float64 `yaml:"angle_start"`
	AngleEnd          float64 `yaml:"angle_end"`
	AngleSep          float64 `yaml:"angle_sep"`
	AngleSteps        int     `yaml:"angle_steps"`
	Clockwise         bool    `yaml:"clockwise"`
	ShowText          bool    `yaml:"show_text"`
	DrawBarBackground bool    `yaml:"draw_bar_background"`
	LineWidth         float64 `yaml:"line_width"`
	Autoscale         bool    `yaml:"autoscale"`
	Axis              bool    `yaml:"axis"`
	AxisFontSize      int     `yaml:"axis_font_size"`
	HistoryLen        int     `yaml:"history_len"`
}

// DynamicImage is one slide of the rotating image slot. Intervals are
// deciseconds, the granularity of the rotation tick.
type DynamicImage struct {
	Path       string `yaml:"path"`
	X          int    `yaml:"x"`
	Y          int    `yaml:"y"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	IntervalDs int    `yaml:"interval_ds"`
}

// DynamicText is one slide of the rotating text slot.
type DynamicText struct {
	Text            string `yaml:"text"`
	Font            string `yaml:"font"`
	FontColor       string `yaml:"font_color"`
	BackgroundColor string `yaml:"background_color"`
	BackgroundImage string `yaml:"background_image"`
	X               int    `yaml:"x"`
	Y               int    `yaml:"y"`
	FontSize        int    `yaml:"font_size"`
	IntervalDs      int    `yaml:"interval_ds"`
}

// PhotoAlbum cycles photos from a directory into a fixed frame.
type PhotoAlbum struct {
	Path        string `yaml:"path"`
	X           int    `yaml:"x"`
	Y           int    `yaml:"y"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	IntervalDs  int    `yaml:"interval_ds"`
	Enabled     bool   `yaml:"enabled"`
	Random      bool   `yaml:"random"`
	AutoRefresh bool   `yaml:"auto_refresh"`
}

// LoadTheme reads and validates dir/theme.yaml, resolving asset paths
// against dir.
func LoadTheme(fs afero.Fs, dir string) (*ThemeDef, error) {
	data, err := afero.ReadFile(fs, filepath.Join(dir, ThemeFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read theme: %w", err)
	}

	var def ThemeDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse theme: %w", err)
	}
	def.Dir = dir

	if _, _, err := def.Size(); err != nil {
		return nil, err
	}
	if _, err := parseOrientation(def.Display.Orientation); err != nil {
		return nil, err
	}

	def.resolvePaths()
	return &def, nil
}

// Size parses the theme's "WxH" display size.
func (t *ThemeDef) Size() (width, height int, err error) {
	return ParseSize(t.Display.Size)
}

// Orientation parses the theme's orientation.
func (t *ThemeDef) Orientation() codec.Orientation {
	o, _ := parseOrientation(t.Display.Orientation)
	return o
}

// resolvePaths rewrites relative asset paths to live under the theme dir.
func (t *ThemeDef) resolvePaths() {
	res := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(t.Dir, p)
	}

	t.Display.BackgroundImage = res(t.Display.BackgroundImage)
	for k, v := range t.StaticImages {
		v.Path = res(v.Path)
		t.StaticImages[k] = v
	}
	for k, v := range t.StaticTexts {
		v.Font = res(v.Font)
		v.BackgroundImage = res(v.BackgroundImage)
		t.StaticTexts[k] = v
	}
	for k, v := range t.Stats {
		v.Font = res(v.Font)
		v.AxisFont = res(v.AxisFont)
		v.BackgroundImage = res(v.BackgroundImage)
		t.Stats[k] = v
	}
	for k, v := range t.DynamicImages {
		v.Path = res(v.Path)
		t.DynamicImages[k] = v
	}
	for k, v := range t.DynamicTexts {
		v.Font = res(v.Font)
		v.BackgroundImage = res(v.BackgroundImage)
		t.DynamicTexts[k] = v
	}
	t.PhotoAlbum.Path = res(t.PhotoAlbum.Path)
}

// ParseSize parses a "WxH" display size string.
func ParseSize(s string) (width, height int, err error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad display size: %q", s)
	}
	width, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad display width: %q", s)
	}
	height, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad display height: %q", s)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("bad display size: %q", s)
	}
	return width, height, nil
}

// ParseColor parses "R, G, B" byte triples and "#RRGGBB" hex. An empty
// string is no color (nil), letting widgets fall back to their defaults.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil //nolint:nilnil // no color is a valid result
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 {
			return nil, fmt.Errorf("bad hex color: %q", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("bad hex color: %q", s)
		}
		return color.RGBA{
			R: uint8(v >> 16),
			G: uint8(v >> 8),
			B: uint8(v),
			A: 0xFF,
		}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("bad color triple: %q", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return nil, fmt.Errorf("bad color triple: %q", s)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xFF}, nil
}
