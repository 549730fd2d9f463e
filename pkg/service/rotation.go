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
	"io/fs"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/lcdmon/lcdmon/pkg/config"
	"github.com/lcdmon/lcdmon/pkg/lcd"
	"github.com/lcdmon/lcdmon/pkg/render"
	"github.com/lcdmon/lcdmon/pkg/service/queue"
	"github.com/rs/zerolog/log"
)

// RotationTick is the granularity of content rotation. Slide intervals are
// configured in deciseconds, one tick each.
const RotationTick = 100 * time.Millisecond

// overloadChecker is the queue-depth signal rotators consult before doing
// any work.
type overloadChecker interface {
	Overloaded() bool
}

var _ overloadChecker = (*queue.Queue)(nil)

// ImageRotator cycles the theme's dynamic image slides in ascending id
// order, each for its own interval.
type ImageRotator struct {
	r     *render.Renderer
	drv   lcd.Driver
	q     overloadChecker
	items map[int]config.DynamicImage
	ids   []int
	pos   int
	ticks int
	shown bool
}

// NewImageRotator returns a rotator over the theme's dynamic images. With
// no items every Tick is a no-op.
func NewImageRotator(r *render.Renderer, drv lcd.Driver, q overloadChecker,
	items map[int]config.DynamicImage,
) *ImageRotator {
	ids := make([]int, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return &ImageRotator{r: r, drv: drv, q: q, items: items, ids: ids}
}

// Tick advances the rotation clock by one decisecond. A slide whose
// interval has elapsed yields to the next id, wrapping to the smallest.
// An overloaded queue skips the whole tick so a slow device never
// accumulates backlog.
func (ir *ImageRotator) Tick() {
	if len(ir.ids) == 0 {
		return
	}
	if ir.q.Overloaded() {
		return
	}

	if !ir.shown {
		ir.shown = true
		ir.ticks = 0
		ir.show()
		return
	}

	ir.ticks++
	if ir.ticks < ir.items[ir.ids[ir.pos]].IntervalDs {
		return
	}
	ir.pos = (ir.pos + 1) % len(ir.ids)
	ir.ticks = 0
	ir.show()
}

func (ir *ImageRotator) show() {
	item := ir.items[ir.ids[ir.pos]]
	tile, err := ir.r.Image(item.X, item.Y, render.ImageOptions{
		Path:     item.Path,
		ID:       ir.ids[ir.pos],
		MaxWidth: item.Width, MaxHeight: item.Height,
		Align: render.AlignCenter,
	})
	if err != nil {
		log.Error().Err(err).Msgf("dynamic image %d render failed", ir.ids[ir.pos])
		return
	}
	if err := ir.drv.DisplayImage(tile.X, tile.Y, tile.Image); err != nil {
		log.Error().Err(err).Msgf("dynamic image %d display failed", ir.ids[ir.pos])
	}
}

// TextRotator cycles the theme's dynamic text slides, same pattern as the
// image rotator.
type TextRotator struct {
	r     *render.Renderer
	drv   lcd.Driver
	q     overloadChecker
	items map[int]config.DynamicText
	ids   []int
	pos   int
	ticks int
	shown bool
}

// NewTextRotator returns a rotator over the theme's dynamic texts.
func NewTextRotator(r *render.Renderer, drv lcd.Driver, q overloadChecker,
	items map[int]config.DynamicText,
) *TextRotator {
	ids := make([]int, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return &TextRotator{r: r, drv: drv, q: q, items: items, ids: ids}
}

// Tick advances the rotation clock by one decisecond.
func (tr *TextRotator) Tick() {
	if len(tr.ids) == 0 {
		return
	}
	if tr.q.Overloaded() {
		return
	}

	if !tr.shown {
		tr.shown = true
		tr.ticks = 0
		tr.show()
		return
	}

	tr.ticks++
	if tr.ticks < tr.items[tr.ids[tr.pos]].IntervalDs {
		return
	}
	tr.pos = (tr.pos + 1) % len(tr.ids)
	tr.ticks = 0
	tr.show()
}

func (tr *TextRotator) show() {
	item := tr.items[tr.ids[tr.pos]]
	fontColor, _ := config.ParseColor(item.FontColor)
	bgColor, _ := config.ParseColor(item.BackgroundColor)

	tile, err := tr.r.Text(item.X, item.Y, item.Text, render.TextOptions{
		Font:            item.Font,
		Size:            float64(item.FontSize),
		Color:           fontColor,
		Background:      bgColor,
		BackgroundImage: item.BackgroundImage,
	})
	if err != nil {
		log.Error().Err(err).Msgf("dynamic text %d render failed", tr.ids[tr.pos])
		return
	}
	if err := tr.drv.DisplayImage(tile.X, tile.Y, tile.Image); err != nil {
		log.Error().Err(err).Msgf("dynamic text %d display failed", tr.ids[tr.pos])
	}
}

// photoExtensions are the files the album picks up.
var photoExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// AlbumRotator cycles photos from a directory into a fixed frame, either
// sequentially or at random. With AutoRefresh the directory is re-scanned
// on every advance, so dropped-in photos appear without a restart.
type AlbumRotator struct {
	r      *render.Renderer
	drv    lcd.Driver
	q      overloadChecker
	rnd    *rand.Rand
	photos []string
	cfg    config.PhotoAlbum
	pos    int
	ticks  int
	shown  bool
}

// NewAlbumRotator returns a rotator over cfg.Path. The initial directory
// scan happens here; a disabled album scans nothing.
func NewAlbumRotator(r *render.Renderer, drv lcd.Driver, q overloadChecker,
	cfg config.PhotoAlbum,
) *AlbumRotator {
	a := &AlbumRotator{
		r: r, drv: drv, q: q, cfg: cfg,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // slide shuffle, not crypto
	}
	if cfg.Enabled {
		a.photos = scanPhotos(cfg.Path)
	}
	return a
}

// Photos returns the current scan result, oldest path order.
func (a *AlbumRotator) Photos() []string {
	return a.photos
}

// Tick advances the album clock by one decisecond.
func (a *AlbumRotator) Tick() {
	if !a.cfg.Enabled {
		return
	}
	if a.q.Overloaded() {
		return
	}

	if !a.shown {
		if len(a.photos) == 0 {
			return
		}
		a.shown = true
		a.ticks = 0
		a.show()
		return
	}

	a.ticks++
	if a.ticks < a.cfg.IntervalDs {
		return
	}
	a.ticks = 0
	a.advance()
}

func (a *AlbumRotator) advance() {
	if a.cfg.AutoRefresh {
		a.photos = scanPhotos(a.cfg.Path)
		if a.pos >= len(a.photos) {
			a.pos = 0
		}
	}
	if len(a.photos) == 0 {
		return
	}

	if a.cfg.Random && len(a.photos) > 1 {
		// Avoid showing the same photo twice in a row.
		next := a.rnd.Intn(len(a.photos) - 1)
		if next >= a.pos {
			next++
		}
		a.pos = next
	} else {
		a.pos = (a.pos + 1) % len(a.photos)
	}
	a.show()
}

func (a *AlbumRotator) show() {
	tile, err := a.r.Image(a.cfg.X, a.cfg.Y, render.ImageOptions{
		Path:     a.photos[a.pos],
		MaxWidth: a.cfg.Width, MaxHeight: a.cfg.Height,
		Align: render.AlignCenter,
	})
	if err != nil {
		log.Error().Err(err).Msgf("photo render failed: %s", a.photos[a.pos])
		return
	}
	if err := a.drv.DisplayImage(tile.X, tile.Y, tile.Image); err != nil {
		log.Error().Err(err).Msgf("photo display failed: %s", a.photos[a.pos])
	}
}

// scanPhotos walks dir for image files, sorted for a stable sequential
// order.
func scanPhotos(dir string) []string {
	var mu sync.Mutex
	var photos []string
	conf := fastwalk.Config{Sort: fastwalk.SortFilesFirst}
	// fastwalk runs the callback concurrently.
	err := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.IsDir() {
			return nil
		}
		if photoExtensions[strings.ToLower(filepath.Ext(path))] {
			mu.Lock()
			photos = append(photos, path)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msgf("photo scan failed: %s", dir)
	}
	sort.Strings(photos)
	return photos
}
