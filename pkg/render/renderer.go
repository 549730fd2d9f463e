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

// Package render turns themed widget descriptors into raster tiles. It never
// touches the device: every widget call returns a Tile the caller hands to a
// driver. Image and font decoding is memoized; the caches live until the
// next theme reload.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/golang/freetype/truetype"
	"github.com/lcdmon/lcdmon/pkg/helpers/syncutil"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/image/font"
)

var (
	// ErrBadGeometry reports widget geometry that does not fit the screen.
	// This is a theme-authoring bug, not a runtime condition.
	ErrBadGeometry = errors.New("widget geometry out of screen bounds")

	// ErrNoFont reports an unreadable or unparsable font file.
	ErrNoFont = errors.New("font not usable")
)

// Tile is a rendered raster and the screen position it belongs at.
type Tile struct {
	Image *image.RGBA
	X     int
	Y     int
}

// Align is horizontal text/image alignment within a budgeted box.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

type faceKey struct {
	path string
	size float64
}

type imageKey struct {
	path string
	id   int
}

// Renderer produces tiles for one screen. Safe for concurrent use by many
// producer goroutines; the caches are read-mostly, Reset takes them
// exclusively.
type Renderer struct {
	fs      afero.Fs
	images  map[imageKey]image.Image
	fonts   map[string]*truetype.Font
	faces   map[faceKey]font.Face
	mu      syncutil.RWMutex
	screenW int
	screenH int
}

// New returns a renderer for a screen of the given effective size.
func New(fs afero.Fs, screenW, screenH int) *Renderer {
	return &Renderer{
		fs:      fs,
		screenW: screenW,
		screenH: screenH,
		images:  make(map[imageKey]image.Image),
		fonts:   make(map[string]*truetype.Font),
		faces:   make(map[faceKey]font.Face),
	}
}

// SetScreenSize updates the effective dimensions after an orientation
// change.
func (r *Renderer) SetScreenSize(w, h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screenW = w
	r.screenH = h
}

// ScreenSize returns the effective screen dimensions.
func (r *Renderer) ScreenSize() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.screenW, r.screenH
}

// Reset drops every cached image and font. Called on theme reload so edited
// assets are picked up.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = make(map[imageKey]image.Image)
	r.fonts = make(map[string]*truetype.Font)
	r.faces = make(map[faceKey]font.Face)
	log.Debug().Msg("render caches reset")
}

// OpenImage decodes and caches an image. Variants of the same file (e.g. a
// photo scaled for different slots) are kept apart by id. When maxW and maxH
// are positive the decoded image is scaled to fit before caching. A missing
// or undecodable asset yields a placeholder instead of an error.
func (r *Renderer) OpenImage(path string, maxW, maxH, id int) image.Image {
	key := imageKey{path: path, id: id}

	r.mu.RLock()
	img, ok := r.images[key]
	r.mu.RUnlock()
	if ok {
		return img
	}

	img = r.loadImage(path, maxW, maxH)

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.images[key]; ok {
		return cached
	}
	r.images[key] = img
	return img
}

// StoreImage replaces a cache entry, used when a background accumulates
// overlay draws.
func (r *Renderer) StoreImage(path string, id int, img image.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[imageKey{path: path, id: id}] = img
}

func (r *Renderer) loadImage(path string, maxW, maxH int) image.Image {
	f, err := r.fs.Open(path)
	if err != nil {
		log.Warn().Err(err).Msgf("missing image asset: %s", path)
		return placeholder()
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		log.Warn().Err(err).Msgf("undecodable image asset: %s", path)
		return placeholder()
	}

	if maxW > 0 && maxH > 0 {
		img = fitWithin(img, maxW, maxH)
	}
	return img
}

// fitWithin scales img down to fit a box, preserving aspect ratio. Images
// already inside the box are untouched.
func fitWithin(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() > maxW {
		img = resize.Resize(uint(maxW), 0, img, resize.Lanczos3)
		b = img.Bounds()
	}
	if b.Dy() > maxH {
		img = resize.Resize(0, uint(maxH), img, resize.Lanczos3)
	}
	return img
}

// placeholder is what missing assets render as: a gray field with a darker
// cross, visibly wrong without crashing a background worker.
func placeholder() image.Image {
	const side = 32
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	bg := color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xFF}
	fg := color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for i := 0; i < side; i++ {
		img.Set(i, i, fg)
		img.Set(i, side-1-i, fg)
	}
	return img
}

// face returns a cached font face for path at size.
func (r *Renderer) face(path string, size float64) (font.Face, error) {
	key := faceKey{path: path, size: size}

	r.mu.RLock()
	f, ok := r.faces[key]
	r.mu.RUnlock()
	if ok {
		return f, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f, nil
	}

	tf, ok := r.fonts[path]
	if !ok {
		data, err := afero.ReadFile(r.fs, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoFont, path, err)
		}
		tf, err = truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoFont, path, err)
		}
		r.fonts[path] = tf
	}

	f = truetype.NewFace(tf, &truetype.Options{Size: size})
	r.faces[key] = f
	return f, nil
}

// checkBounds validates a widget region against the screen.
func (r *Renderer) checkBounds(x, y, w, h int) error {
	sw, sh := r.ScreenSize()
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > sw || y+h > sh {
		return fmt.Errorf("%w: %dx%d at (%d,%d) on %dx%d", ErrBadGeometry, w, h, x, y, sw, sh)
	}
	return nil
}

// background builds the w x h backdrop of a widget: either a solid fill or
// the matching crop of a cached background image, so the widget appears
// transparent over the theme background.
func (r *Renderer) background(x, y, w, h int, solid color.Color, imagePath string) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if imagePath == "" {
		if solid == nil {
			solid = color.White
		}
		draw.Draw(out, out.Bounds(), image.NewUniform(solid), image.Point{}, draw.Src)
		return out
	}

	bg := r.OpenImage(imagePath, 0, 0, -1)
	draw.Draw(out, out.Bounds(), bg, bg.Bounds().Min.Add(image.Pt(x, y)), draw.Src)
	return out
}
