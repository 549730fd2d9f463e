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

package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
)

// ImageOptions style one image slot.
type ImageOptions struct {
	Fill            color.Color
	Background      color.Color
	Path            string
	BackgroundImage string
	Align           Align
	ID              int
	MaxWidth        int
	MaxHeight       int
	Radius          int
	Alpha           uint8
}

// Image renders an image slot at (x, y). With a Path the source is decoded,
// cached by (path, id), scaled to fit the slot, and pasted with an optional
// rounded-corner alpha mask; without one the slot renders as a solid
// rounded rectangle of Fill. The tile always covers the full slot so stale
// pixels from the previous frame are overwritten.
func (r *Renderer) Image(x, y int, opts ImageOptions) (Tile, error) {
	if opts.Alpha == 0 {
		opts.Alpha = 255
	}
	slotW, slotH := opts.MaxWidth, opts.MaxHeight
	if err := r.checkBounds(x, y, slotW, slotH); err != nil {
		return Tile{}, err
	}

	canvas := r.background(x, y, slotW, slotH, opts.Background, opts.BackgroundImage)

	if opts.Path == "" {
		if opts.Fill == nil {
			opts.Fill = color.White
		}
		dc := gg.NewContextForRGBA(canvas)
		nr, ng, nb, _ := opts.Fill.RGBA()
		dc.SetRGBA255(int(nr>>8), int(ng>>8), int(nb>>8), int(opts.Alpha))
		dc.DrawRoundedRectangle(0, 0, float64(slotW), float64(slotH), float64(opts.Radius))
		dc.Fill()
		return Tile{Image: canvas, X: x, Y: y}, nil
	}

	src := r.OpenImage(opts.Path, slotW, slotH, opts.ID)
	masked := maskRounded(src, opts.Radius, opts.Alpha)

	w, h := masked.Bounds().Dx(), masked.Bounds().Dy()
	dx, dy := 0, 0
	switch opts.Align {
	case AlignRight:
		dx = slotW - w
	case AlignCenter:
		dx = (slotW - w) / 2
		dy = (slotH - h) / 2
	}

	dst := image.Rect(dx, dy, dx+w, dy+h)
	draw.Draw(canvas, dst, masked, masked.Bounds().Min, draw.Over)

	return Tile{Image: canvas, X: x, Y: y}, nil
}

// maskRounded applies a rounded-corner alpha mask over src. Radius 0 with
// full alpha is the identity apart from format conversion.
func maskRounded(src image.Image, radius int, alpha uint8) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	mask := gg.NewContext(w, h)
	mask.SetRGBA255(255, 255, 255, int(alpha))
	mask.DrawRoundedRectangle(0, 0, float64(w), float64(h), float64(radius))
	mask.Fill()

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.DrawMask(out, out.Bounds(), src, b.Min, mask.Image(), image.Point{}, draw.Over)
	return out
}
