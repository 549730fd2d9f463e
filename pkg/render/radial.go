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
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// RadialOptions style one radial gauge. Angles are degrees in screen
// convention: 0 at 3 o'clock, growing clockwise.
type RadialOptions struct {
	BarColor          color.Color
	BarBackground     color.Color
	Background        color.Color
	TextColor         color.Color
	Font              string
	Text              string
	BackgroundImage   string
	TextOffset        image.Point
	Min               float64
	Max               float64
	Value             float64
	AngleStart        float64
	AngleEnd          float64
	AngleSep          float64
	AngleSteps        int
	FontSize          float64
	BarWidth          float64
	Clockwise         bool
	ShowText          bool
	DrawBarBackground bool
	CapDots           bool
}

// RadialGauge renders an arc gauge centered at (xc, yc). AngleSep zero
// draws one continuous arc; otherwise the sweep splits into AngleSteps
// segments separated by AngleSep degrees. CapDots rounds the ends with
// filled dots. The tile covers the gauge's bounding square.
func (r *Renderer) RadialGauge(xc, yc, radius int, opts RadialOptions) (Tile, error) {
	diameter := 2 * radius
	if err := r.checkBounds(xc-radius, yc-radius, diameter, diameter); err != nil {
		return Tile{}, err
	}
	if opts.BarWidth <= 0 || opts.BarWidth > float64(radius) {
		return Tile{}, fmt.Errorf("%w: bar width %.0f on radius %d", ErrBadGeometry, opts.BarWidth, radius)
	}
	if opts.AngleSteps <= 0 {
		opts.AngleSteps = 1
	}
	if opts.Max <= opts.Min {
		opts.Min, opts.Max = 0, 100
	}

	// A full-circle gauge needs start and end nudged apart.
	if math.Mod(opts.AngleStart, 360) == math.Mod(opts.AngleEnd, 360) {
		if opts.Clockwise {
			opts.AngleStart += 0.1
		} else {
			opts.AngleEnd += 0.1
		}
	}

	value := clamp(opts.Value, opts.Min, opts.Max)
	pct := (value - opts.Min) / (opts.Max - opts.Min)

	start := math.Mod(opts.AngleStart, 360)
	end := math.Mod(opts.AngleEnd, 360)

	var sweep float64
	if opts.Clockwise {
		sweep = end - start
		if end < start {
			sweep = 360 - start + end
		}
	} else {
		sweep = start - end
		if end > start {
			sweep = 360 - end + start
		}
	}

	canvas := r.background(xc-radius, yc-radius, diameter, diameter, opts.Background, opts.BackgroundImage)
	dc := gg.NewContextForRGBA(canvas)

	if opts.BarColor == nil {
		opts.BarColor = color.Black
	}
	if opts.BarBackground == nil {
		opts.BarBackground = color.Black
	}

	cx, cy := float64(radius), float64(radius)
	arcRadius := float64(radius) - opts.BarWidth/2

	strokeArc := func(fromDeg, toDeg float64, c color.Color) {
		if toDeg == fromDeg {
			return
		}
		dc.SetColor(c)
		dc.SetLineWidth(opts.BarWidth)
		dc.DrawArc(cx, cy, arcRadius, gg.Radians(fromDeg), gg.Radians(toDeg))
		dc.Stroke()
	}

	dir := 1.0
	if !opts.Clockwise {
		dir = -1
	}
	valueEnd := start + dir*pct*sweep

	if opts.DrawBarBackground {
		strokeArc(start, start+dir*sweep, opts.BarBackground)
	}

	if opts.CapDots {
		drawCapDot(dc, cx, cy, arcRadius, start+dir*sweep, opts.BarWidth, opts.BarBackground)
		drawCapDot(dc, cx, cy, arcRadius, start, opts.BarWidth, opts.BarColor)
		drawCapDot(dc, cx, cy, arcRadius, valueEnd, opts.BarWidth, opts.BarColor)
	}

	if opts.AngleSep == 0 {
		strokeArc(start, valueEnd, opts.BarColor)
	} else {
		segment := sweep / float64(opts.AngleSteps)
		whole := int(pct * sweep / segment)
		for i := 0; i < whole; i++ {
			from := start + dir*float64(i)*segment
			to := start + dir*(float64(i+1)*segment-opts.AngleSep)
			strokeArc(from, to, opts.BarColor)
		}
		strokeArc(start+dir*float64(whole)*segment, valueEnd, opts.BarColor)
	}

	if opts.ShowText {
		text := opts.Text
		if text == "" {
			text = fmt.Sprintf("%d%%", int(pct*100+0.5))
		}
		face, err := r.face(opts.Font, opts.FontSize)
		if err != nil {
			return Tile{}, err
		}
		dc.SetFontFace(face)
		if opts.TextColor == nil {
			opts.TextColor = color.Black
		}
		dc.SetColor(opts.TextColor)
		tx := cx + float64(opts.TextOffset.X)
		ty := cy + float64(opts.TextOffset.Y)
		dc.DrawStringAnchored(text, tx, ty, 0.5, 0.5)
	}

	return Tile{Image: canvas, X: xc - radius, Y: yc - radius}, nil
}

// drawCapDot fills a dot of the bar's width centered on the arc centerline
// at the given angle, rounding the end of the sweep.
func drawCapDot(dc *gg.Context, cx, cy, arcRadius, deg, barWidth float64, c color.Color) {
	rad := gg.Radians(deg)
	x := cx + math.Cos(rad)*arcRadius
	y := cy + math.Sin(rad)*arcRadius
	dc.SetColor(c)
	dc.DrawCircle(x, y, barWidth/2)
	dc.Fill()
}
