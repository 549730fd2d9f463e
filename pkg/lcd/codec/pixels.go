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
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

// RGB565 is a packed 16-bit pixel: 5 bits red, 6 bits green, 5 bits blue.
// It is transmitted little-endian.
type RGB565 uint16

// ToRGB565 packs a color to 16 bits, truncating the low channel bits.
func ToRGB565(c color.Color) RGB565 {
	r, g, b, _ := c.RGBA()
	return RGB565((r>>11)<<11 | (g>>10)<<5 | b>>11)
}

// RGBA implements color.Color, expanding the packed channels back to 8 bits
// by bit replication.
func (p RGB565) RGBA() (r, g, b, a uint32) {
	r5 := uint32(p>>11) & 0x1F
	g6 := uint32(p>>5) & 0x3F
	b5 := uint32(p) & 0x1F
	r = (r5<<3 | r5>>2) * 0x101
	g = (g6<<2 | g6>>4) * 0x101
	b = (b5<<3 | b5>>2) * 0x101
	a = 0xFFFF
	return r, g, b, a
}

// maxChunkBytes bounds a single pixel chunk on the wire. Chunks always hold
// whole raster lines.
const maxChunkBytes = 4096

// PackPixels converts an image to the device raster: row-major RGB565,
// little-endian, no padding.
func PackPixels(img image.Image) []byte {
	bounds := img.Bounds()
	buf := make([]byte, 0, bounds.Dx()*bounds.Dy()*2)
	var tmp [2]byte
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			binary.LittleEndian.PutUint16(tmp[:], uint16(ToRGB565(img.At(x, y))))
			buf = append(buf, tmp[0], tmp[1])
		}
	}
	return buf
}

// ChunkRaw splits a packed raster into line-aligned chunks no larger than
// the wire chunk limit. lineBytes is the packed size of one raster line.
func ChunkRaw(pixels []byte, lineBytes int) ([][]byte, error) {
	if lineBytes <= 0 || lineBytes > maxChunkBytes {
		return nil, fmt.Errorf("%w: line size %d bytes", ErrInvalidArgument, lineBytes)
	}
	if len(pixels)%lineBytes != 0 {
		return nil, fmt.Errorf("%w: %d pixel bytes not a multiple of line size %d",
			ErrInvalidArgument, len(pixels), lineBytes)
	}

	linesPerChunk := maxChunkBytes / lineBytes
	chunkBytes := linesPerChunk * lineBytes

	chunks := make([][]byte, 0, (len(pixels)+chunkBytes-1)/chunkBytes)
	for off := 0; off < len(pixels); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pixels) {
			end = len(pixels)
		}
		chunks = append(chunks, pixels[off:end])
	}
	return chunks, nil
}

// ChunkCompressed splits a packed raster into line-aligned chunks and
// compresses each with FastLZ. Each returned chunk is framed as
// (rawLen u16le, compLen u16le, compressed bytes). The framing is a fixed
// wire contract with deployed firmware.
func ChunkCompressed(pixels []byte, lineBytes int) ([][]byte, error) {
	raw, err := ChunkRaw(pixels, lineBytes)
	if err != nil {
		return nil, err
	}

	chunks := make([][]byte, 0, len(raw))
	for _, block := range raw {
		compressed := Compress(block)
		if len(compressed) > 0xFFFF {
			return nil, fmt.Errorf("%w: compressed chunk %d bytes", ErrInvalidArgument, len(compressed))
		}
		framed := make([]byte, 4+len(compressed))
		binary.LittleEndian.PutUint16(framed[0:], uint16(len(block)))
		binary.LittleEndian.PutUint16(framed[2:], uint16(len(compressed)))
		copy(framed[4:], compressed)
		chunks = append(chunks, framed)
	}
	return chunks, nil
}

// DecodeCompressedChunk unframes and decompresses one compressed chunk.
// It is the inverse of a ChunkCompressed element.
func DecodeCompressedChunk(chunk []byte) ([]byte, error) {
	if len(chunk) < 4 {
		return nil, fmt.Errorf("%w: compressed chunk header", ErrShortResponse)
	}
	rawLen := int(binary.LittleEndian.Uint16(chunk[0:]))
	compLen := int(binary.LittleEndian.Uint16(chunk[2:]))
	if len(chunk) != 4+compLen {
		return nil, fmt.Errorf("%w: declared %d compressed bytes, got %d",
			ErrLengthMismatch, compLen, len(chunk)-4)
	}
	raw, err := Decompress(chunk[4:], rawLen)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
