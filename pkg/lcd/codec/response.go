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
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a value outside the range the protocol
	// can carry.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrShortResponse reports a response frame shorter than its fixed
	// layout requires.
	ErrShortResponse = errors.New("short response")

	// ErrBadTerminator reports a response frame not ending in the frame
	// terminator byte.
	ErrBadTerminator = errors.New("bad frame terminator")

	// ErrLengthMismatch reports a declared length that disagrees with the
	// actual data.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrCorrupt reports an undecodable compressed stream.
	ErrCorrupt = errors.New("corrupt compressed data")
)

// HumitureOpcode is the wire opcode of unsolicited sensor report frames.
const HumitureOpcode = CmdEnableHumitureReport | ReadFlag

// HumiturePayloadLen is the byte count following a humiture opcode:
// temperature u16le, humidity i16le, terminator.
const HumiturePayloadLen = 5

// Humiture is one decoded sensor report. The device sends tenths of a
// degree Celsius and tenths of a percent relative humidity.
type Humiture struct {
	TemperatureC float64
	HumidityPct  float64
}

// DecodeString decodes a newline-terminated string response (identity,
// version, serial number). raw is everything after the echoed opcode,
// including the terminator.
func DecodeString(raw []byte) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("%w: %d bytes", ErrShortResponse, len(raw))
	}
	if raw[len(raw)-1] != CmdEnd {
		return "", fmt.Errorf("%w: 0x%02x", ErrBadTerminator, raw[len(raw)-1])
	}
	return string(raw[:len(raw)-1]), nil
}

// DecodeByte decodes a fixed single-value response (orientation,
// brightness). raw is everything after the echoed opcode.
func DecodeByte(raw []byte) (byte, error) {
	if len(raw) != 2 {
		return 0, fmt.Errorf("%w: %d bytes, want 2", ErrShortResponse, len(raw))
	}
	if raw[1] != CmdEnd {
		return 0, fmt.Errorf("%w: 0x%02x", ErrBadTerminator, raw[1])
	}
	return raw[0], nil
}

// DecodeOrientation decodes an orientation query response.
func DecodeOrientation(raw []byte) (Orientation, error) {
	v, err := DecodeByte(raw)
	if err != nil {
		return 0, err
	}
	if v > byte(OrientationAny) {
		return 0, fmt.Errorf("%w: orientation %d", ErrInvalidArgument, v)
	}
	return Orientation(v), nil
}

// DecodeBrightness decodes a brightness query response.
func DecodeBrightness(raw []byte) (int, error) {
	v, err := DecodeByte(raw)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// DecodeHumiture decodes the payload of an unsolicited sensor report frame.
func DecodeHumiture(raw []byte) (Humiture, error) {
	if len(raw) != HumiturePayloadLen {
		return Humiture{}, fmt.Errorf("%w: %d bytes, want %d",
			ErrShortResponse, len(raw), HumiturePayloadLen)
	}
	if raw[4] != CmdEnd {
		return Humiture{}, fmt.Errorf("%w: 0x%02x", ErrBadTerminator, raw[4])
	}
	temp := binary.LittleEndian.Uint16(raw[0:])
	humid := int16(binary.LittleEndian.Uint16(raw[2:]))
	return Humiture{
		TemperatureC: float64(temp) / 10,
		HumidityPct:  float64(humid) / 10,
	}, nil
}
