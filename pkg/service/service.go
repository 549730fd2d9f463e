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

// Package service wires the display driver, renderer, update queue and stat
// producers into one running monitor.
package service

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lcdmon/lcdmon/pkg/config"
	"github.com/lcdmon/lcdmon/pkg/helpers/syncutil"
	"github.com/lcdmon/lcdmon/pkg/lcd"
	"github.com/lcdmon/lcdmon/pkg/render"
	"github.com/lcdmon/lcdmon/pkg/service/queue"
	"github.com/lcdmon/lcdmon/pkg/stats"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ThemeReloadDebounce is how long the theme watcher waits for the directory
// to go quiet before reloading.
const ThemeReloadDebounce = 500 * time.Millisecond

// errNoHumiture reports a humiture widget polled before the first sensor
// report arrived.
var errNoHumiture = errors.New("no humiture report yet")

// Service is the running monitor. Construct with New, then Start, then Stop
// exactly once.
type Service struct {
	cfg       *config.Instance
	fs        afero.Fs
	clock     clockwork.Clock
	q         *queue.Queue
	drv       lcd.Driver
	r         *render.Renderer
	sched     *Scheduler
	stats     *stats.Provider
	watcher   *Watcher
	theme     *config.ThemeDef
	histories map[string]*render.History
	images    *ImageRotator
	texts     *TextRotator
	album     *AlbumRotator
	mu        syncutil.Mutex
}

// New builds a service from config. The driver is chosen by the configured
// display revision; nothing touches the device until Start.
func New(cfg *config.Instance, fs afero.Fs, clock clockwork.Clock) (*Service, error) {
	q := queue.New()

	var drv lcd.Driver
	switch cfg.Revision() {
	case config.RevisionWeActA:
		drv = lcd.NewWeActA(q, cfg.Compress())
	case config.RevisionSimulated:
		drv = lcd.NewSimulated(q, lcd.WeActNativeWidth, lcd.WeActNativeHeight)
	default:
		return nil, fmt.Errorf("unknown display revision: %s", cfg.Revision())
	}

	return &Service{
		cfg:       cfg,
		fs:        fs,
		clock:     clock,
		q:         q,
		drv:       drv,
		r:         render.New(fs, lcd.WeActNativeWidth, lcd.WeActNativeHeight),
		stats:     stats.New(),
		histories: make(map[string]*render.History),
	}, nil
}

// Driver exposes the display for status queries.
func (s *Service) Driver() lcd.Driver {
	return s.drv
}

// Start opens the display, draws the theme's static layer and launches the
// periodic producers.
func (s *Service) Start() error {
	theme, err := config.LoadTheme(s.fs, s.cfg.ThemePath())
	if err != nil {
		return err
	}

	s.q.Start()

	port := s.cfg.Port()
	if err := s.drv.Open(port); err != nil {
		s.q.Stop()
		return fmt.Errorf("failed to open display: %w", err)
	}
	log.Info().Msgf("display %s open on %s", s.drv.Name(), port)

	if err := s.drv.SetOrientation(s.cfg.Orientation()); err != nil {
		s.abortStart()
		return fmt.Errorf("failed to set orientation: %w", err)
	}
	if err := s.drv.SetBrightness(s.cfg.BrightnessLevel(), s.cfg.BrightnessFadeMillis()); err != nil {
		s.abortStart()
		return fmt.Errorf("failed to set brightness: %w", err)
	}
	if ms := humitureInterval(theme, s.cfg.HumitureReportMillis()); ms > 0 {
		if err := s.drv.EnableHumitureReport(ms); err != nil {
			log.Warn().Err(err).Msg("humiture reporting unavailable")
		}
	}

	s.mu.Lock()
	s.applyTheme(theme)
	s.mu.Unlock()

	s.sched = NewScheduler(s.clock)
	s.startTasks()

	w, err := WatchTheme(theme.Dir, ThemeReloadDebounce, s.reloadTheme)
	if err != nil {
		log.Warn().Err(err).Msg("theme watching disabled")
	} else {
		s.watcher = w
	}

	return nil
}

// abortStart unwinds a partially completed Start: the queue drains while
// the device is still open, then the device closes.
func (s *Service) abortStart() {
	s.q.Stop()
	if err := s.drv.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close display")
	}
}

// Stop shuts the monitor down: producers first, then the screen is blanked
// or freed, the queue drained and the device closed.
func (s *Service) Stop() error {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close theme watcher")
		}
		s.watcher = nil
	}
	if s.sched != nil {
		s.sched.Stop()
		s.sched = nil
	}

	if s.cfg.FreeOff() {
		if err := s.drv.Free(); err != nil {
			log.Warn().Err(err).Msg("failed to free display")
		}
	} else {
		if err := s.drv.Fill(color.Black); err != nil {
			log.Warn().Err(err).Msg("failed to blank display")
		}
		if err := s.drv.ScreenOff(); err != nil {
			log.Warn().Err(err).Msg("failed to switch backlight off")
		}
	}

	if err := s.q.WaitEmpty(queue.DefaultWaitEmpty); err != nil {
		log.Warn().Err(err).Msg("update queue still busy at shutdown")
	}
	s.q.Stop()

	if err := s.drv.Close(); err != nil {
		return fmt.Errorf("failed to close display: %w", err)
	}
	return nil
}

// applyTheme swaps in a theme: renderer caches are dropped, the static
// layer redrawn and the rotators rebuilt. Caller holds s.mu.
func (s *Service) applyTheme(theme *config.ThemeDef) {
	s.theme = theme
	s.r.Reset()
	s.r.SetScreenSize(s.drv.Width(), s.drv.Height())

	s.histories = make(map[string]*render.History)
	for key, w := range theme.Stats {
		if w.Type == "line_graph" && w.Show {
			s.histories[key] = render.NewHistory(historyLen(w))
		}
	}

	s.images = NewImageRotator(s.r, s.drv, s.q, theme.DynamicImages)
	s.texts = NewTextRotator(s.r, s.drv, s.q, theme.DynamicTexts)
	s.album = NewAlbumRotator(s.r, s.drv, s.q, theme.PhotoAlbum)

	s.drawStatics(theme)
}

// humitureInterval picks the report interval in milliseconds: the smallest
// positive refresh among the theme's humiture-sourced widgets, else the
// configured fallback.
func humitureInterval(theme *config.ThemeDef, fallbackMs int) int {
	best := 0
	for key, w := range theme.Stats {
		if !w.Show {
			continue
		}
		source := w.Source
		if source == "" {
			source = key
		}
		if source != "temperature_c" && source != "humidity_pct" {
			continue
		}
		if w.IntervalSec > 0 && (best == 0 || w.IntervalSec*1000 < best) {
			best = w.IntervalSec * 1000
		}
	}
	if best == 0 {
		return fallbackMs
	}
	return best
}

func historyLen(w config.Widget) int {
	if w.HistoryLen > 0 {
		return w.HistoryLen
	}
	if w.Width > 0 {
		return w.Width
	}
	return 60
}

// drawStatics paints the background, static images and static texts.
func (s *Service) drawStatics(theme *config.ThemeDef) {
	sw, sh := s.r.ScreenSize()

	bg := color.Color(color.Black)
	if c, err := config.ParseColor(theme.Display.BackgroundColor); err == nil && c != nil {
		bg = c
	}
	if err := s.drv.Fill(bg); err != nil {
		log.Error().Err(err).Msg("background fill failed")
	}

	if theme.Display.BackgroundImage != "" {
		tile, err := s.r.Image(0, 0, render.ImageOptions{
			Path:      theme.Display.BackgroundImage,
			MaxWidth:  sw,
			MaxHeight: sh,
			Align:     render.AlignCenter,
		})
		if err != nil {
			log.Error().Err(err).Msg("background image render failed")
		} else if err := s.drv.DisplayImage(tile.X, tile.Y, tile.Image); err != nil {
			log.Error().Err(err).Msg("background image display failed")
		}
	}

	for name, img := range theme.StaticImages {
		tile, err := s.r.Image(img.X, img.Y, render.ImageOptions{
			Path:      img.Path,
			MaxWidth:  img.Width,
			MaxHeight: img.Height,
			Radius:    img.Radius,
			Align:     render.AlignCenter,
		})
		if err != nil {
			log.Error().Err(err).Msgf("static image %s render failed", name)
			continue
		}
		if err := s.drv.DisplayImage(tile.X, tile.Y, tile.Image); err != nil {
			log.Error().Err(err).Msgf("static image %s display failed", name)
		}
	}

	for name, txt := range theme.StaticTexts {
		fontColor, _ := config.ParseColor(txt.FontColor)
		bgColor, _ := config.ParseColor(txt.BackgroundColor)
		tile, err := s.r.Text(txt.X, txt.Y, txt.Text, render.TextOptions{
			Font:            txt.Font,
			Size:            float64(txt.FontSize),
			Color:           fontColor,
			Background:      bgColor,
			BackgroundImage: txt.BackgroundImage,
			Anchor:          render.Anchor(txt.Anchor),
			Align:           parseAlign(txt.Align),
		})
		if err != nil {
			log.Error().Err(err).Msgf("static text %s render failed", name)
			continue
		}
		if err := s.drv.DisplayImage(tile.X, tile.Y, tile.Image); err != nil {
			log.Error().Err(err).Msgf("static text %s display failed", name)
		}
	}
}

// reloadTheme re-reads the theme from disk. A broken theme keeps the
// previous one on screen.
func (s *Service) reloadTheme() {
	theme, err := config.LoadTheme(s.fs, s.cfg.ThemePath())
	if err != nil {
		log.Error().Err(err).Msg("theme reload failed, keeping current theme")
		return
	}

	// The widget tasks were created from the old theme's keys. Stop them
	// before swapping, then relaunch from the new set; holding s.mu across
	// the stop would deadlock against a tick waiting for the lock.
	s.sched.Stop()

	s.mu.Lock()
	s.applyTheme(theme)
	s.mu.Unlock()

	s.sched = NewScheduler(s.clock)
	s.startTasks()
	log.Info().Msgf("theme reloaded: %s", theme.Dir)
}

// startTasks launches one scheduler task per visible stats widget plus the
// shared rotation tick.
func (s *Service) startTasks() {
	s.mu.Lock()
	theme := s.theme
	s.mu.Unlock()

	for key, w := range theme.Stats {
		if !w.Show {
			continue
		}
		interval := time.Duration(w.IntervalSec) * time.Second
		if interval <= 0 {
			interval = time.Second
		}
		s.sched.Every(key, interval, func() { s.renderWidget(key) })
	}

	s.sched.Every("rotation", RotationTick, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.images.Tick()
		s.texts.Tick()
		s.album.Tick()
	})
}

// renderWidget reads the widget's metric and redraws it. The theme is
// re-read under the lock each tick, so a render racing a reload draws the
// freshly loaded definition.
func (s *Service) renderWidget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.theme.Stats[key]
	if !ok || !w.Show {
		return
	}
	if s.q.Overloaded() {
		log.Debug().Msgf("widget %s skipped, queue overloaded", key)
		return
	}

	source := w.Source
	if source == "" {
		source = key
	}

	var tile render.Tile
	var err error
	switch w.Type {
	case "text", "":
		tile, err = s.renderTextWidget(source, w)
	case "progress_bar":
		tile, err = s.renderBarWidget(source, w)
	case "radial":
		tile, err = s.renderRadialWidget(source, w)
	case "line_graph":
		tile, err = s.renderGraphWidget(key, source, w)
	default:
		log.Error().Msgf("widget %s has unknown type %s", key, w.Type)
		return
	}
	if err != nil {
		log.Error().Err(err).Msgf("widget %s render failed", key)
		return
	}

	if err := s.drv.DisplayImage(tile.X, tile.Y, tile.Image); err != nil {
		log.Error().Err(err).Msgf("widget %s display failed", key)
	}
}

func (s *Service) renderTextWidget(source string, w config.Widget) (render.Tile, error) {
	text, err := s.textValue(source, w)
	if err != nil {
		return render.Tile{}, err
	}

	fontColor, _ := config.ParseColor(w.FontColor)
	bgColor, _ := config.ParseColor(w.BackgroundColor)
	return s.r.Text(w.X, w.Y, text, render.TextOptions{
		Font:            w.Font,
		Size:            float64(w.FontSize),
		Color:           fontColor,
		Background:      bgColor,
		BackgroundImage: w.BackgroundImage,
		Anchor:          render.Anchor(w.Anchor),
		Align:           parseAlign(w.Align),
		Width:           w.Width,
		Height:          w.Height,
	})
}

func (s *Service) renderBarWidget(source string, w config.Widget) (render.Tile, error) {
	v, err := s.metricValue(source, w.Device)
	if err != nil {
		return render.Tile{}, err
	}

	barColor, _ := config.ParseColor(w.BarColor)
	bgColor, _ := config.ParseColor(w.BackgroundColor)
	return s.r.ProgressBar(w.X, w.Y, w.Width, w.Height, render.BarOptions{
		Color:           barColor,
		Background:      bgColor,
		BackgroundImage: w.BackgroundImage,
		Min:             w.MinValue,
		Max:             w.MaxValue,
		Value:           v,
		Outline:         w.BarOutline,
	})
}

func (s *Service) renderRadialWidget(source string, w config.Widget) (render.Tile, error) {
	v, err := s.metricValue(source, w.Device)
	if err != nil {
		return render.Tile{}, err
	}

	barColor, _ := config.ParseColor(w.BarColor)
	barBg, _ := config.ParseColor(w.BarBackground)
	bgColor, _ := config.ParseColor(w.BackgroundColor)
	fontColor, _ := config.ParseColor(w.FontColor)
	return s.r.RadialGauge(w.X, w.Y, w.Radius, render.RadialOptions{
		BarColor:          barColor,
		BarBackground:     barBg,
		Background:        bgColor,
		TextColor:         fontColor,
		Font:              w.Font,
		BackgroundImage:   w.BackgroundImage,
		Min:               w.MinValue,
		Max:               w.MaxValue,
		Value:             v,
		AngleStart:        w.AngleStart,
		AngleEnd:          w.AngleEnd,
		AngleSep:          w.AngleSep,
		AngleSteps:        w.AngleSteps,
		FontSize:          float64(w.FontSize),
		BarWidth:          float64(w.BarWidth),
		Clockwise:         w.Clockwise,
		ShowText:          w.ShowText,
		DrawBarBackground: w.DrawBarBackground,
		CapDots:           w.BarDecoration == "cap_dots",
	})
}

func (s *Service) renderGraphWidget(key, source string, w config.Widget) (render.Tile, error) {
	v, err := s.metricValue(source, w.Device)
	if err != nil {
		return render.Tile{}, err
	}

	hist, ok := s.histories[key]
	if !ok {
		hist = render.NewHistory(historyLen(w))
		s.histories[key] = hist
	}
	hist.Push(v)

	lineColor, _ := config.ParseColor(w.LineColor)
	axisColor, _ := config.ParseColor(w.AxisColor)
	bgColor, _ := config.ParseColor(w.BackgroundColor)
	return s.r.LineGraph(w.X, w.Y, w.Width, w.Height, hist.Values(), render.GraphOptions{
		LineColor:       lineColor,
		AxisColor:       axisColor,
		Background:      bgColor,
		AxisFont:        w.AxisFont,
		BackgroundImage: w.BackgroundImage,
		Min:             w.MinValue,
		Max:             w.MaxValue,
		LineWidth:       w.LineWidth,
		AxisFontSize:    float64(w.AxisFontSize),
		Autoscale:       w.Autoscale,
		Axis:            w.Axis,
	})
}

// metricValue reads a numeric source, routing the humiture keys to the
// device sensor and everything else to the host.
func (s *Service) metricValue(source, device string) (float64, error) {
	switch source {
	case "temperature_c":
		h, ok := s.drv.Humiture()
		if !ok {
			return 0, errNoHumiture
		}
		return h.TemperatureC, nil
	case "humidity_pct":
		h, ok := s.drv.Humiture()
		if !ok {
			return 0, errNoHumiture
		}
		return h.HumidityPct, nil
	default:
		return s.stats.Value(source, device)
	}
}

// textValue renders a source as display text. Clock sources use Format as
// a time layout; numeric sources use it as a Sprintf verb.
func (s *Service) textValue(source string, w config.Widget) (string, error) {
	switch source {
	case "date":
		layout := w.Format
		if layout == "" {
			layout = "2006-01-02"
		}
		return s.clock.Now().Format(layout), nil
	case "time":
		layout := w.Format
		if layout == "" {
			layout = "15:04:05"
		}
		return s.clock.Now().Format(layout), nil
	case "uptime":
		up, err := s.stats.Uptime()
		if err != nil {
			return "", err
		}
		return stats.FormatUptime(up), nil
	default:
		v, err := s.metricValue(source, w.Device)
		if err != nil {
			return "", err
		}
		format := w.Format
		if format == "" {
			format = "%.0f"
		}
		return fmt.Sprintf(format, v), nil
	}
}

func parseAlign(s string) render.Align {
	switch s {
	case "center":
		return render.AlignCenter
	case "right":
		return render.AlignRight
	default:
		return render.AlignLeft
	}
}
