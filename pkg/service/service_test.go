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

package service

import (
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lcdmon/lcdmon/pkg/config"
	"github.com/lcdmon/lcdmon/pkg/lcd"
	"github.com/lcdmon/lcdmon/pkg/lcd/codec"
	"github.com/lcdmon/lcdmon/pkg/service/queue"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

const serviceThemeYAML = `
display:
  size: "320x480"
  orientation: portrait
  background_color: "0, 0, 0"

stats:
  clock:
    type: text
    source: time
    show: true
    interval_sec: 1
    x: 10
    y: 10
    font: fonts/regular.ttf
    font_size: 24
    font_color: "255, 255, 255"
`

func testConfig(t *testing.T) *config.Instance {
	t.Helper()

	dir := t.TempDir()
	t.Setenv(config.CfgEnv, filepath.Join(dir, config.CfgFile))

	defaults := config.BaseDefaults
	defaults.Display.Revision = config.RevisionSimulated
	defaults.Display.Port = "127.0.0.1:0"
	defaults.Display.HumitureReportMs = 0

	cfg, err := config.NewConfig(dir, defaults)
	require.NoError(t, err)
	return cfg
}

func testThemeFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs,
		"themes/default/theme.yaml", []byte(serviceThemeYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs,
		"themes/default/fonts/regular.ttf", goregular.TTF, 0o644))
	return fs
}

func TestNewRejectsUnknownRevision(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.CfgEnv, filepath.Join(dir, config.CfgFile))

	defaults := config.BaseDefaults
	defaults.Display.Revision = "B_999x999"
	cfg, err := config.NewConfig(dir, defaults)
	require.NoError(t, err)

	_, err = New(cfg, afero.NewMemMapFs(), clockwork.NewRealClock())
	assert.Error(t, err)
}

func TestServiceStartStop(t *testing.T) {
	cfg := testConfig(t)

	svc, err := New(cfg, testThemeFs(t), clockwork.NewFakeClock())
	require.NoError(t, err)

	require.NoError(t, svc.Start())
	assert.Equal(t, "simulated", svc.Driver().Name())

	// The clock widget renders once at startup; white glyphs end up on the
	// black frame once the queue has worked through the blit.
	sim, ok := svc.Driver().(*lcd.Simulated)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		frame := sim.Snapshot()
		b := frame.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := frame.At(x, y).RGBA()
				if r != 0 || g != 0 || bl != 0 {
					return true
				}
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, svc.Stop())
}

func TestServiceStartFailsOnMissingTheme(t *testing.T) {
	cfg := testConfig(t)

	svc, err := New(cfg, afero.NewMemMapFs(), clockwork.NewFakeClock())
	require.NoError(t, err)

	assert.Error(t, svc.Start())
}

// failingDriver opens fine and then refuses a configuration write.
type failingDriver struct {
	orientErr error
	brightErr error
	fakeDriver
	closed bool
}

func (d *failingDriver) SetOrientation(codec.Orientation) error { return d.orientErr }
func (d *failingDriver) SetBrightness(int, int) error           { return d.brightErr }

func (d *failingDriver) Close() error {
	d.closed = true
	return nil
}

func TestServiceStartFailureClosesDeviceAndQueue(t *testing.T) {
	tests := []struct {
		drv  *failingDriver
		name string
	}{
		{name: "orientation", drv: &failingDriver{orientErr: errors.New("panel fault")}},
		{name: "brightness", drv: &failingDriver{brightErr: errors.New("panel fault")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			svc, err := New(cfg, testThemeFs(t), clockwork.NewFakeClock())
			require.NoError(t, err)
			svc.drv = tt.drv

			require.Error(t, svc.Start())
			assert.True(t, tt.drv.closed, "device left open after failed start")
			assert.ErrorIs(t,
				svc.q.Submit("late", func() error { return nil }),
				queue.ErrStopping)
		})
	}
}

func TestThemeReloadStartsNewWidgetTasks(t *testing.T) {
	cfg := testConfig(t)
	fs := testThemeFs(t)

	svc, err := New(cfg, fs, clockwork.NewFakeClock())
	require.NoError(t, err)
	drv := &fakeDriver{}
	svc.drv = drv

	require.NoError(t, svc.Start())
	defer func() { require.NoError(t, svc.Stop()) }()

	require.Eventually(t, func() bool { return drv.blitCount() > 0 },
		time.Second, 10*time.Millisecond)

	reloaded := serviceThemeYAML + `
  banner:
    type: text
    source: time
    show: true
    interval_sec: 1
    x: 10
    y: 200
    font: fonts/regular.ttf
    font_size: 24
    font_color: "255, 255, 255"
`
	require.NoError(t, afero.WriteFile(fs,
		"themes/default/theme.yaml", []byte(reloaded), 0o644))
	svc.reloadTheme()

	// The widget added by the reload gets its own task and renders.
	require.Eventually(t, func() bool {
		drv.mu.Lock()
		defer drv.mu.Unlock()
		for _, p := range drv.blits {
			if p == (image.Point{X: 10, Y: 200}) {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestHumitureIntervalFromTheme(t *testing.T) {
	t.Parallel()

	theme := &config.ThemeDef{
		Stats: map[string]config.Widget{
			"temperature_c": {Show: true, IntervalSec: 5},
			"humidity_pct":  {Show: true, IntervalSec: 2},
			"cpu_percent":   {Show: true, IntervalSec: 1},
			"hidden_temp":   {Source: "temperature_c", IntervalSec: 1},
		},
	}
	// Smallest visible humiture widget wins; other widgets don't count.
	assert.Equal(t, 2000, humitureInterval(theme, 9999))

	assert.Equal(t, 9999, humitureInterval(&config.ThemeDef{}, 9999))
}

func TestServiceRenderWidgetSkipsHidden(t *testing.T) {
	cfg := testConfig(t)

	svc, err := New(cfg, testThemeFs(t), clockwork.NewFakeClock())
	require.NoError(t, err)

	drv := &fakeDriver{}
	svc.drv = drv
	svc.theme = &config.ThemeDef{
		Stats: map[string]config.Widget{
			"hidden": {Type: "text", Source: "time", Show: false},
		},
	}
	svc.q.Start()
	defer svc.q.Stop()

	svc.renderWidget("hidden")
	svc.renderWidget("unknown")
	assert.Zero(t, drv.blitCount())
}
