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
	"image/color"

	"github.com/fogleman/gg"
)

// BarOptions style one progress bar.
type BarOptions struct {
	Color           color.Color
	Background      color.Color
	BackgroundImage string
	Min             float64
	Max             float64
	Value           float64
	Outline         bool
}

// ProgressBar renders a horizontal bar filled proportionally to Value within
// [Min, Max]. Out-of-range values clamp.
func (r *Renderer) ProgressBar(x, y, w, h int, opts BarOptions) (Tile, error) {
	if err := r.checkBounds(x, y, w, h); err != nil {
		return Tile{}, err
	}
	if opts.Max <= opts.Min {
		opts.Min, opts.Max = 0, 100
	}

	value := clamp(opts.Value, opts.Min, opts.Max)
	frac := (value - opts.Min) / (opts.Max - opts.Min)

	canvas := r.background(x, y, w, h, opts.Background, opts.BackgroundImage)
	dc := gg.NewContextForRGBA(canvas)
	if opts.Color == nil {
		opts.Color = color.Black
	}
	dc.SetColor(opts.Color)

	filled := frac * float64(w)
	if filled > 0 {
		dc.DrawRectangle(0, 0, filled, float64(h))
		dc.Fill()
	}

	if opts.Outline {
		dc.SetColor(opts.Color)
		dc.SetLineWidth(1)
		dc.DrawRectangle(0.5, 0.5, float64(w)-1, float64(h)-1)
		dc.Stroke()
	}

	return Tile{Image: canvas, X: x, Y: y}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
