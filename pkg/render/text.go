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
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// Anchor places a text block relative to its (x, y) origin. Two letters:
// horizontal l/m/r, then vertical t/m/b ("a", the font-ascender form, is
// accepted as t).
type Anchor string

const (
	AnchorTopLeft Anchor = "lt"
	AnchorCenter  Anchor = "mm"
)

func (a Anchor) horizontal() byte {
	if len(a) < 1 {
		return 'l'
	}
	return a[0]
}

func (a Anchor) vertical() byte {
	if len(a) < 2 {
		return 't'
	}
	if a[1] == 'a' {
		return 't'
	}
	return a[1]
}

// TextOptions style one text widget.
type TextOptions struct {
	Color           color.Color
	Background      color.Color
	Font            string
	BackgroundImage string
	Align           Align
	Anchor          Anchor
	Size            float64
	Rotation        float64
	Width           int
	Height          int
}

// Text renders a text block anchored at (x, y). Lines wrap greedily against
// the width budget (the remaining screen width when no budget is set);
// explicit newlines always break. The tile's box is the union of each
// line's measured box, so multi-line blocks center the way they look, not
// the way nominal font metrics say.
func (r *Renderer) Text(x, y int, text string, opts TextOptions) (Tile, error) {
	if text == "" {
		return Tile{}, errors.New("text must not be empty")
	}
	if opts.Size <= 0 {
		return Tile{}, errors.New("font size must be > 0")
	}
	sw, sh := r.ScreenSize()
	if x < 0 || y < 0 || x > sw || y > sh {
		return Tile{}, ErrBadGeometry
	}

	face, err := r.face(opts.Font, opts.Size)
	if err != nil {
		return Tile{}, err
	}

	budget := opts.Width
	if budget <= 0 {
		budget = sw - x
	}
	lines := wrapText(text, face, budget)

	lineHeight := int(opts.Size)
	textW := 0
	for _, line := range lines {
		if w := measureWidth(face, line); w > textW {
			textW = w
		}
	}
	textH := len(lines) * lineHeight

	boxW, boxH := textW, textH
	if opts.Width > boxW {
		boxW = opts.Width
	}
	if opts.Height > boxH {
		boxH = opts.Height
	}

	block := r.drawTextBlock(lines, face, textW, textH, opts)

	if opts.Rotation != 0 {
		block = rotate(block, opts.Rotation)
		textW, textH = block.Bounds().Dx(), block.Bounds().Dy()
		if boxW < textW {
			boxW = textW
		}
		if boxH < textH {
			boxH = textH
		}
	}

	// Tile origin from the anchor.
	tileX, tileY := x, y
	switch opts.Anchor.horizontal() {
	case 'm':
		tileX -= boxW / 2
	case 'r':
		tileX -= boxW
	}
	switch opts.Anchor.vertical() {
	case 'm':
		tileY -= boxH / 2
	case 'b':
		tileY -= boxH
	}
	if tileX < 0 {
		tileX = 0
	}
	if tileY < 0 {
		tileY = 0
	}
	if tileX+boxW > sw || tileY+boxH > sh {
		return Tile{}, ErrBadGeometry
	}

	canvas := r.background(tileX, tileY, boxW, boxH, opts.Background, opts.BackgroundImage)

	// Block position inside the box, also from the anchor.
	bx, by := 0, 0
	switch opts.Anchor.horizontal() {
	case 'm':
		bx = (boxW - textW) / 2
	case 'r':
		bx = boxW - textW
	}
	switch opts.Anchor.vertical() {
	case 'm':
		by = (boxH - textH) / 2
	case 'b':
		by = boxH - textH
	}

	dst := image.Rect(bx, by, bx+textW, by+textH)
	drawOver(canvas, dst, block)

	return Tile{Image: canvas, X: tileX, Y: tileY}, nil
}

// drawTextBlock rasters the wrapped lines onto a transparent canvas of the
// tight text size, applying alignment per line.
func (r *Renderer) drawTextBlock(lines []string, face font.Face, textW, textH int, opts TextOptions) *image.RGBA {
	lineHeight := int(opts.Size)
	dc := gg.NewContext(textW, textH)
	dc.SetFontFace(face)
	if opts.Color == nil {
		dc.SetRGB(0, 0, 0)
	} else {
		dc.SetColor(opts.Color)
	}

	ascent := face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		lw := measureWidth(face, line)
		lx := 0
		switch opts.Align {
		case AlignCenter:
			lx = (textW - lw) / 2
		case AlignRight:
			lx = textW - lw
		}
		dc.DrawString(line, float64(lx), float64(i*lineHeight+ascent))
	}

	out, _ := dc.Image().(*image.RGBA)
	return out
}

// wrapText splits text greedily: runes accumulate until the next one would
// push the measured line width past the budget. A single rune wider than
// the budget still gets its own line.
func wrapText(text string, face font.Face, budget int) []string {
	var lines []string
	current := ""
	for _, ch := range text {
		if ch == '\n' {
			lines = append(lines, current)
			current = ""
			continue
		}
		test := current + string(ch)
		if current != "" && measureWidth(face, test) > budget {
			lines = append(lines, current)
			current = string(ch)
			continue
		}
		current = test
	}
	if current != "" || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines
}

func measureWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// rotate returns img rotated by deg degrees counter-clockwise, expanded to
// fit.
func rotate(img *image.RGBA, deg float64) *image.RGBA {
	rad := gg.Radians(deg)
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	rw := int(math.Round(w*cos + h*sin))
	rh := int(math.Round(w*sin + h*cos))

	dc := gg.NewContext(rw, rh)
	// gg angles grow clockwise with y pointing down.
	dc.RotateAbout(-rad, float64(rw)/2, float64(rh)/2)
	dc.DrawImageAnchored(img, rw/2, rh/2, 0.5, 0.5)
	out, _ := dc.Image().(*image.RGBA)
	return out
}

// drawOver alpha-composites src over dst in the given rectangle.
func drawOver(dst *image.RGBA, rect image.Rectangle, src image.Image) {
	draw.Draw(dst, rect, src, src.Bounds().Min, draw.Over)
}
