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
	"testing"

	"github.com/lcdmon/lcdmon/pkg/lcd/codec"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const themeYAML = `
display:
  size: "320x480"
  orientation: portrait
  background_image: background.png

static_images:
  logo:
    path: img/logo.png
    x: 10
    y: 10
    width: 100
    height: 40

static_texts:
  title:
    text: SYSTEM
    font: fonts/bold.ttf
    font_size: 24
    font_color: "255, 255, 255"
    x: 160
    y: 30
    anchor: mm

stats:
  cpu_percent:
    type: radial
    show: true
    interval_sec: 1
    x: 80
    y: 120
    radius: 50
    bar_width: 10
    min_value: 0
    max_value: 100
    angle_start: 130
    angle_end: 50
    clockwise: true
    show_text: true
    font: fonts/bold.ttf
    font_size: 20
  mem_percent:
    type: progress_bar
    show: true
    interval_sec: 2
    x: 20
    y: 200
    width: 280
    height: 20
    bar_color: "0, 255, 0"
    bar_outline: true
  cpu_history:
    type: line_graph
    show: true
    interval_sec: 1
    x: 20
    y: 240
    width: 280
    height: 60
    autoscale: true
    axis: true
    history_len: 60

dynamic_images:
  2:
    path: img/slide_a.png
    x: 0
    y: 320
    width: 320
    height: 80
    interval_ds: 10
  5:
    path: img/slide_b.png
    x: 0
    y: 320
    width: 320
    height: 80
    interval_ds: 20

photo_album:
  enabled: true
  path: Photos
  x: 0
  y: 400
  width: 320
  height: 80
  interval_ds: 50
  random: true
  auto_refresh: true
`

func TestLoadTheme(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "themes/default/theme.yaml", []byte(themeYAML), 0o644))

	def, err := LoadTheme(fs, "themes/default")
	require.NoError(t, err)

	w, h, err := def.Size()
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	assert.Equal(t, 480, h)
	assert.Equal(t, codec.Portrait, def.Orientation())

	// Asset paths resolve against the theme dir.
	assert.Equal(t, "themes/default/background.png", def.Display.BackgroundImage)
	assert.Equal(t, "themes/default/img/logo.png", def.StaticImages["logo"].Path)
	assert.Equal(t, "themes/default/fonts/bold.ttf", def.StaticTexts["title"].Font)
	assert.Equal(t, "themes/default/Photos", def.PhotoAlbum.Path)

	cpu := def.Stats["cpu_percent"]
	assert.Equal(t, "radial", cpu.Type)
	assert.True(t, cpu.Show)
	assert.Equal(t, 1, cpu.IntervalSec)
	assert.Equal(t, 50, cpu.Radius)

	assert.Len(t, def.DynamicImages, 2)
	assert.Equal(t, 10, def.DynamicImages[2].IntervalDs)
	assert.Equal(t, "themes/default/img/slide_b.png", def.DynamicImages[5].Path)

	assert.True(t, def.PhotoAlbum.Random)
	assert.True(t, def.PhotoAlbum.AutoRefresh)
}

func TestLoadThemeMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadTheme(afero.NewMemMapFs(), "themes/none")
	assert.Error(t, err)
}

func TestLoadThemeRejectsBadSize(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "t/theme.yaml",
		[]byte("display:\n  size: huge\n"), 0o644))

	_, err := LoadTheme(fs, "t")
	assert.Error(t, err)
}

func TestLoadThemeAbsolutePathsKept(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "t/theme.yaml", []byte(
		"display:\n  size: \"320x480\"\n  background_image: /srv/shared/bg.png\n"), 0o644))

	def, err := LoadTheme(fs, "t")
	require.NoError(t, err)
	assert.Equal(t, "/srv/shared/bg.png", def.Display.BackgroundImage)
}
