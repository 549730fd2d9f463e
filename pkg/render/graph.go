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
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// History is the fixed-length rolling window a line graph plots. Slots
// start as NaN and are skipped when plotting, so a graph fills in from the
// left as samples arrive.
type History struct {
	values []float64
}

// NewHistory returns a window of n slots, all NaN.
func NewHistory(n int) *History {
	h := &History{values: make([]float64, n)}
	for i := range h.values {
		h.values[i] = math.NaN()
	}
	return h
}

// Push appends a sample, dropping the oldest.
func (h *History) Push(v float64) {
	copy(h.values, h.values[1:])
	h.values[len(h.values)-1] = v
}

// Values returns the window oldest-first. The caller must not modify it.
func (h *History) Values() []float64 {
	return h.values
}

// GraphOptions style one line graph.
type GraphOptions struct {
	LineColor       color.Color
	AxisColor       color.Color
	Background      color.Color
	AxisFont        string
	BackgroundImage string
	Min             float64
	Max             float64
	LineWidth       float64
	AxisFontSize    float64
	Autoscale       bool
	Axis            bool
}

// LineGraph plots values as a polyline. With Autoscale the plotted range
// zooms to the observed samples, padded by 5 on each side but never past
// [Min, Max]. NaN samples (unfilled history) are skipped.
func (r *Renderer) LineGraph(x, y, w, h int, values []float64, opts GraphOptions) (Tile, error) {
	if err := r.checkBounds(x, y, w, h); err != nil {
		return Tile{}, err
	}
	if len(values) == 0 {
		return Tile{}, fmt.Errorf("%w: no samples to plot", ErrBadGeometry)
	}
	if opts.Max <= opts.Min {
		opts.Min, opts.Max = 0, 100
	}

	minV, maxV := opts.Min, opts.Max
	if opts.Autoscale {
		lo, hi := maxV, minV
		for _, v := range values {
			if math.IsNaN(v) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if lo != maxV && hi != minV {
			minV = math.Max(lo-5, opts.Min)
			maxV = math.Min(hi+5, opts.Max)
		}
	}

	canvas := r.background(x, y, w, h, opts.Background, opts.BackgroundImage)
	dc := gg.NewContextForRGBA(canvas)

	if opts.LineColor == nil {
		opts.LineColor = color.Black
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 2
	}

	step := float64(w) / float64(len(values))
	yScale := float64(h) / (maxV - minV)

	dc.SetColor(opts.LineColor)
	dc.SetLineWidth(opts.LineWidth)
	count := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		v = clamp(v, minV, maxV)
		px := float64(count) * step
		py := float64(h) - (v-minV)*yScale
		dc.LineTo(px, py)
		count++
	}
	if count > 1 {
		dc.Stroke()
	} else {
		dc.ClearPath()
	}

	if opts.Axis {
		if opts.AxisColor == nil {
			opts.AxisColor = color.Black
		}
		dc.SetColor(opts.AxisColor)
		dc.SetLineWidth(1)
		dc.DrawLine(0, float64(h)-0.5, float64(w), float64(h)-0.5)
		dc.DrawLine(0.5, 0, 0.5, float64(h))
		dc.Stroke()

		if opts.AxisFont != "" && opts.AxisFontSize > 0 {
			face, err := r.face(opts.AxisFont, opts.AxisFontSize)
			if err != nil {
				return Tile{}, err
			}
			dc.SetFontFace(face)
			ascent := face.Metrics().Ascent.Ceil()

			maxLabel := fmt.Sprintf("%d", int(maxV))
			dc.DrawString(maxLabel, 2, float64(ascent))

			minLabel := fmt.Sprintf("%d", int(minV))
			lw := measureWidth(face, minLabel)
			dc.DrawString(minLabel, float64(w-1-lw), float64(h-2))
		}
	}

	return Tile{Image: canvas, X: x, Y: y}, nil
}
