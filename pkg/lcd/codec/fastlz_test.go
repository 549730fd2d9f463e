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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "single byte", data: []byte{0x42}},
		{name: "short literal", data: []byte("abc")},
		{name: "all zero line", data: make([]byte, 640)},
		{name: "repeating pattern", data: bytes.Repeat([]byte{0xAA, 0x55}, 500)},
		{name: "long run then tail", data: append(bytes.Repeat([]byte{0x10}, 300), 1, 2, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			compressed := Compress(tt.data)
			out, err := Decompress(compressed, len(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.data, out)
		})
	}
}

func TestCompressShrinksUniformRaster(t *testing.T) {
	t.Parallel()

	// A flat-color raster line must compress far below its raw size, or
	// the compressed transfer path is pointless.
	line := bytes.Repeat([]byte{0x1F, 0xF8}, 320)
	compressed := Compress(line)
	assert.Less(t, len(compressed), len(line)/4)
}

func TestDecompressRejectsCorruptStreams(t *testing.T) {
	t.Parallel()

	t.Run("literal run past end", func(t *testing.T) {
		t.Parallel()
		_, err := Decompress([]byte{31, 0x00}, 32)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("match before window start", func(t *testing.T) {
		t.Parallel()
		// One literal, then a match with distance 2.
		_, err := Decompress([]byte{0, 0x42, 1<<5 | 0, 1}, 4)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("declared length mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := Decompress(Compress([]byte("abcd")), 5)
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})
}

func TestCompressRoundTripRapid(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 8192).Draw(t, "data")
		out, err := Decompress(Compress(data), len(data))
		if err != nil {
			t.Fatalf("round trip failed: %v", err)
		}
		if !bytes.Equal(data, out) {
			t.Fatalf("round trip mismatch: %d in, %d out", len(data), len(out))
		}
	})
}

func TestCompressRoundTripLowEntropyRapid(t *testing.T) {
	t.Parallel()

	// Raster data is dominated by short alphabets and long runs; bias the
	// generator toward that shape to exercise the match encoder.
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 4096).Draw(t, "n")
		alphabet := rapid.SliceOfN(rapid.Byte(), 1, 4).Draw(t, "alphabet")
		data := make([]byte, n)
		for i := range data {
			data[i] = alphabet[rapid.IntRange(0, len(alphabet)-1).Draw(t, "pick")]
		}
		out, err := Decompress(Compress(data), len(data))
		if err != nil {
			t.Fatalf("round trip failed: %v", err)
		}
		if !bytes.Equal(data, out) {
			t.Fatal("round trip mismatch")
		}
	})
}
