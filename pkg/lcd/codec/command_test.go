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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrames(t *testing.T) {
	t.Parallel()

	orientCmd, err := SetOrientation(Landscape)
	require.NoError(t, err)
	brightCmd, err := SetBrightness(128, 1000)
	require.NoError(t, err)
	reportCmd, err := SetHumitureReport(2000)
	require.NoError(t, err)
	headerCmd, err := BitmapHeader(10, 20, 300, 400)
	require.NoError(t, err)

	tests := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{
			name: "who am i read",
			cmd:  WhoAmI(),
			want: []byte{0x81, 0x0A},
		},
		{
			name: "system reset",
			cmd:  SystemReset(),
			want: []byte{0x40, 0x0A},
		},
		{
			name: "free",
			cmd:  Free(),
			want: []byte{0x07, 0x0A},
		},
		{
			name: "set orientation landscape",
			cmd:  orientCmd,
			want: []byte{0x02, 0x02, 0x0A},
		},
		{
			name: "get orientation",
			cmd:  GetOrientation(),
			want: []byte{0x82, 0x0A},
		},
		{
			name: "set brightness with fade",
			cmd:  brightCmd,
			want: []byte{0x03, 128, 0xE8, 0x03, 0x0A},
		},
		{
			name: "humiture report 2s",
			cmd:  reportCmd,
			want: []byte{0x06, 0xD0, 0x07, 0x0A},
		},
		{
			// End coordinates are inclusive window addresses:
			// xe = 10+300-1 = 309, ye = 20+400-1 = 419.
			name: "bitmap header little endian",
			cmd:  headerCmd,
			want: []byte{0x05, 10, 0, 20, 0, 0x35, 0x01, 0xA3, 0x01, 0x0A},
		},
		{
			name: "version read",
			cmd:  SystemVersion(),
			want: []byte{0xC2, 0x0A},
		},
		{
			name: "serial read",
			cmd:  SystemSerialNum(),
			want: []byte{0xC3, 0x0A},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cmd.Encode())
		})
	}
}

func TestBitmapHeaderWindowAddresses(t *testing.T) {
	t.Parallel()

	// A 100x50 block at (10,20) addresses the window (10,20)..(109,69).
	cmd, err := BitmapHeader(10, 20, 100, 50)
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{0x05, 0x0A, 0x00, 0x14, 0x00, 0x6D, 0x00, 0x45, 0x00, 0x0A},
		cmd.Encode())

	// The compressed variant frames the same window.
	comp, err := CompressedBitmapHeader(10, 20, 100, 50)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0x15}, cmd.Encode()[1:]...), comp.Encode())

	// A single-pixel block starts and ends on the same address.
	one, err := BitmapHeader(0, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0, 0, 0, 0, 0, 0, 0, 0, 0x0A}, one.Encode())

	_, err = BitmapHeader(0, 0, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = BitmapHeader(-1, 0, 10, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = BitmapHeader(0xFFFF, 0, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetBrightnessRange(t *testing.T) {
	t.Parallel()

	for level := 0; level <= MaxBrightness; level++ {
		cmd, err := SetBrightness(level, 0)
		require.NoError(t, err)

		// Round-trip through the response decoder for the same opcode.
		got, err := DecodeBrightness([]byte{cmd.Payload[0], CmdEnd})
		require.NoError(t, err)
		assert.Equal(t, level, got)
	}

	// 256 was accepted by a legacy host tool; it is an off-by-one, not a
	// valid level.
	_, err := SetBrightness(256, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SetBrightness(-1, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SetBrightness(100, 5001)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetOrientationRejectsWildcard(t *testing.T) {
	t.Parallel()

	_, err := SetOrientation(OrientationAny)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// The wildcard is fine for the unconnected-orientation setting.
	cmd, err := SetUnconnectOrientation(OrientationAny)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 4, 0x0A}, cmd.Encode())
}

func TestSetHumitureReportRange(t *testing.T) {
	t.Parallel()

	cmd, err := SetHumitureReport(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06, 0, 0, 0x0A}, cmd.Encode())

	_, err = SetHumitureReport(499)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SetHumitureReport(0x10000)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDecodeResponses(t *testing.T) {
	t.Parallel()

	t.Run("identity string", func(t *testing.T) {
		t.Parallel()
		s, err := DecodeString(append([]byte("WeAct Studio Display"), CmdEnd))
		require.NoError(t, err)
		assert.Equal(t, "WeAct Studio Display", s)
	})

	t.Run("missing terminator", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeString([]byte("V1.0"))
		assert.ErrorIs(t, err, ErrBadTerminator)
	})

	t.Run("short", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeString([]byte{CmdEnd})
		assert.ErrorIs(t, err, ErrShortResponse)
	})

	t.Run("orientation", func(t *testing.T) {
		t.Parallel()
		o, err := DecodeOrientation([]byte{2, CmdEnd})
		require.NoError(t, err)
		assert.Equal(t, Landscape, o)
		assert.True(t, o.IsLandscape())

		_, err = DecodeOrientation([]byte{9, CmdEnd})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("humiture", func(t *testing.T) {
		t.Parallel()
		// 25.3C, 48.0%
		h, err := DecodeHumiture([]byte{0xFD, 0x00, 0xE0, 0x01, CmdEnd})
		require.NoError(t, err)
		assert.InDelta(t, 25.3, h.TemperatureC, 0.001)
		assert.InDelta(t, 48.0, h.HumidityPct, 0.001)
	})

	t.Run("humiture negative temperature is out of range of the sensor", func(t *testing.T) {
		t.Parallel()
		// Humidity is the signed field.
		h, err := DecodeHumiture([]byte{0x00, 0x00, 0xFF, 0xFF, CmdEnd})
		require.NoError(t, err)
		assert.InDelta(t, -0.1, h.HumidityPct, 0.001)
	})

	t.Run("humiture wrong length", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeHumiture([]byte{0x00, 0x00, CmdEnd})
		assert.ErrorIs(t, err, ErrShortResponse)
	})
}
