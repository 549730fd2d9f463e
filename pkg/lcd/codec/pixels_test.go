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

package codec

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRGB565(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   color.Color
		want RGB565
	}{
		{name: "black", in: color.RGBA{A: 255}, want: 0x0000},
		{name: "white", in: color.RGBA{R: 255, G: 255, B: 255, A: 255}, want: 0xFFFF},
		{name: "red", in: color.RGBA{R: 255, A: 255}, want: 0xF800},
		{name: "green", in: color.RGBA{G: 255, A: 255}, want: 0x07E0},
		{name: "blue", in: color.RGBA{B: 255, A: 255}, want: 0x001F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ToRGB565(tt.in))
		})
	}
}

func TestRGB565RoundTrip(t *testing.T) {
	t.Parallel()

	// Packing is lossy, but packing an already-packed color is identity.
	for _, p := range []RGB565{0x0000, 0xFFFF, 0xF800, 0x07E0, 0x001F, 0x8430, 0x1234} {
		assert.Equal(t, p, ToRGB565(p))
	}
}

func testRaster(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 8 % 256),
				G: uint8(y * 8 % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestPackPixelsLayout(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})

	// Row-major, little-endian: red 0xF800 then blue 0x001F.
	assert.Equal(t, []byte{0x00, 0xF8, 0x1F, 0x00}, PackPixels(img))
}

func TestChunkRawPreservesBytes(t *testing.T) {
	t.Parallel()

	img := testRaster(320, 40)
	pixels := PackPixels(img)
	lineBytes := 320 * 2

	chunks, err := ChunkRaw(pixels, lineBytes)
	require.NoError(t, err)

	// Reassembling the chunks is the identity on the raw raster.
	var joined []byte
	for _, c := range chunks {
		assert.Zero(t, len(c)%lineBytes, "chunks must hold whole lines")
		joined = append(joined, c...)
	}
	assert.Equal(t, pixels, joined)
}

func TestChunkRawRejectsBadLineSize(t *testing.T) {
	t.Parallel()

	_, err := ChunkRaw(make([]byte, 640), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ChunkRaw(make([]byte, 641), 640)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ChunkRaw(make([]byte, 8192), maxChunkBytes+2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestChunkCompressedRoundTrip(t *testing.T) {
	t.Parallel()

	img := testRaster(320, 48)
	pixels := PackPixels(img)
	lineBytes := 320 * 2

	chunks, err := ChunkCompressed(pixels, lineBytes)
	require.NoError(t, err)

	// The compressed path must reproduce exactly the bytes the raw path
	// would have sent.
	var joined []byte
	for _, c := range chunks {
		raw, err := DecodeCompressedChunk(c)
		require.NoError(t, err)
		joined = append(joined, raw...)
	}
	assert.True(t, bytes.Equal(pixels, joined))
}

func TestDecodeCompressedChunkValidation(t *testing.T) {
	t.Parallel()

	_, err := DecodeCompressedChunk([]byte{0x01})
	assert.ErrorIs(t, err, ErrShortResponse)

	// Header declares more compressed bytes than present.
	_, err = DecodeCompressedChunk([]byte{0x04, 0x00, 0x10, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
