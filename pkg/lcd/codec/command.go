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

// Package codec translates typed display operations to and from the wire
// format of WeAct Studio USB-serial screens. Every frame is a single opcode
// byte, an optional payload with little-endian integers, and a terminator
// byte. Read variants of an opcode set the high bit. The package performs no
// I/O.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Protocol opcodes.
const (
	CmdWhoAmI                 byte = 0x01
	CmdSetOrientation         byte = 0x02
	CmdSetBrightness          byte = 0x03
	CmdFull                   byte = 0x04
	CmdSetBitmap              byte = 0x05
	CmdEnableHumitureReport   byte = 0x06
	CmdFree                   byte = 0x07
	CmdSetUnconnectBrightness byte = 0x10
	CmdSetUnconnectOrient     byte = 0x11
	CmdSetBitmapFastLZ        byte = 0x15
	CmdSystemReset            byte = 0x40
	CmdSystemVersion          byte = 0x42
	CmdSystemSerialNum        byte = 0x43

	// CmdEnd terminates every frame in both directions.
	CmdEnd byte = 0x0A

	// ReadFlag marks the read variant of an opcode.
	ReadFlag byte = 0x80
)

// Limits enforced at encode time.
const (
	MaxBrightness    = 255
	MaxFadeMillis    = 5000
	MinReportMillis  = 500
	MaxReportMillis  = 0xFFFF
	maxCoord         = 0xFFFF
	orientationCount = 4
)

// Orientation is the logical rotation of the panel. The values are the wire
// encoding. Portrait-family orientations keep the native width/height,
// landscape-family swap them.
type Orientation byte

const (
	Portrait         Orientation = 0
	ReversePortrait  Orientation = 1
	Landscape        Orientation = 2
	ReverseLandscape Orientation = 3

	// OrientationAny (wire value 4) means "unspecified" and is only valid
	// in capability queries, never in a live SetOrientation.
	OrientationAny Orientation = 4
)

// IsLandscape reports whether the orientation swaps width and height.
func (o Orientation) IsLandscape() bool {
	return o == Landscape || o == ReverseLandscape
}

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case ReversePortrait:
		return "reverse_portrait"
	case Landscape:
		return "landscape"
	case ReverseLandscape:
		return "reverse_landscape"
	case OrientationAny:
		return "any"
	default:
		return fmt.Sprintf("orientation(%d)", byte(o))
	}
}

// Command is one protocol operation ready to be serialized.
type Command struct {
	Payload []byte
	Opcode  byte
	Read    bool
}

// Encode serializes the command to wire bytes.
func (c Command) Encode() []byte {
	op := c.Opcode
	if c.Read {
		op |= ReadFlag
	}
	buf := make([]byte, 0, len(c.Payload)+2)
	buf = append(buf, op)
	buf = append(buf, c.Payload...)
	return append(buf, CmdEnd)
}

// WireOpcode returns the opcode byte as it appears on the wire, including
// the read bit.
func (c Command) WireOpcode() byte {
	if c.Read {
		return c.Opcode | ReadFlag
	}
	return c.Opcode
}

// WhoAmI queries the device identity string.
func WhoAmI() Command {
	return Command{Opcode: CmdWhoAmI, Read: true}
}

// SystemVersion queries the firmware version string.
func SystemVersion() Command {
	return Command{Opcode: CmdSystemVersion, Read: true}
}

// SystemSerialNum queries the device serial number string.
func SystemSerialNum() Command {
	return Command{Opcode: CmdSystemSerialNum, Read: true}
}

// SystemReset reboots the device.
func SystemReset() Command {
	return Command{Opcode: CmdSystemReset}
}

// Free releases the panel back to its idle screen.
func Free() Command {
	return Command{Opcode: CmdFree}
}

// SetOrientation rotates the live display. OrientationAny is rejected: the
// wildcard value is only meaningful in queries.
func SetOrientation(o Orientation) (Command, error) {
	if o >= orientationCount {
		return Command{}, fmt.Errorf("%w: orientation %d", ErrInvalidArgument, o)
	}
	return Command{Opcode: CmdSetOrientation, Payload: []byte{byte(o)}}, nil
}

// GetOrientation queries the live orientation.
func GetOrientation() Command {
	return Command{Opcode: CmdSetOrientation, Read: true}
}

// SetBrightness sets the backlight level with an optional fade time. The
// valid level range is strictly 0..255; 256, accepted by a legacy host tool,
// is an off-by-one and is rejected here.
func SetBrightness(level, fadeMillis int) (Command, error) {
	if level < 0 || level > MaxBrightness {
		return Command{}, fmt.Errorf("%w: brightness %d", ErrInvalidArgument, level)
	}
	if fadeMillis < 0 || fadeMillis > MaxFadeMillis {
		return Command{}, fmt.Errorf("%w: fade time %dms", ErrInvalidArgument, fadeMillis)
	}
	payload := make([]byte, 3)
	payload[0] = byte(level)
	binary.LittleEndian.PutUint16(payload[1:], uint16(fadeMillis))
	return Command{Opcode: CmdSetBrightness, Payload: payload}, nil
}

// GetBrightness queries the live backlight level.
func GetBrightness() Command {
	return Command{Opcode: CmdSetBrightness, Read: true}
}

// Full fills the whole screen with one color.
func Full(c RGB565) Command {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, uint16(c))
	return Command{Opcode: CmdFull, Payload: payload}
}

// SetUnconnectBrightness sets the backlight level used while no host is
// connected.
func SetUnconnectBrightness(level int) (Command, error) {
	if level < 0 || level > MaxBrightness {
		return Command{}, fmt.Errorf("%w: brightness %d", ErrInvalidArgument, level)
	}
	return Command{Opcode: CmdSetUnconnectBrightness, Payload: []byte{byte(level)}}, nil
}

// GetUnconnectBrightness queries the unconnected backlight level.
func GetUnconnectBrightness() Command {
	return Command{Opcode: CmdSetUnconnectBrightness, Read: true}
}

// SetUnconnectOrientation sets the orientation used while no host is
// connected. OrientationAny is valid here and means the device keeps its
// last orientation.
func SetUnconnectOrientation(o Orientation) (Command, error) {
	if o > OrientationAny {
		return Command{}, fmt.Errorf("%w: orientation %d", ErrInvalidArgument, o)
	}
	return Command{Opcode: CmdSetUnconnectOrient, Payload: []byte{byte(o)}}, nil
}

// GetUnconnectOrientation queries the unconnected orientation.
func GetUnconnectOrientation() Command {
	return Command{Opcode: CmdSetUnconnectOrient, Read: true}
}

// SetHumitureReport enables periodic temperature/humidity reporting every
// millis milliseconds, or disables it with 0. The firmware rejects intervals
// below 500ms.
func SetHumitureReport(millis int) (Command, error) {
	if millis != 0 && (millis < MinReportMillis || millis > MaxReportMillis) {
		return Command{}, fmt.Errorf("%w: report interval %dms", ErrInvalidArgument, millis)
	}
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, uint16(millis))
	return Command{Opcode: CmdEnableHumitureReport, Payload: payload}, nil
}

// BitmapHeader announces a raw pixel block transfer for the given region.
// The pixel chunks follow the header on the wire.
func BitmapHeader(x, y, width, height int) (Command, error) {
	return bitmapHeader(CmdSetBitmap, x, y, width, height)
}

// CompressedBitmapHeader announces a FastLZ pixel block transfer for the
// given region.
func CompressedBitmapHeader(x, y, width, height int) (Command, error) {
	return bitmapHeader(CmdSetBitmapFastLZ, x, y, width, height)
}

// bitmapHeader frames a region as its corner addresses: start, then
// inclusive end (x+w-1, y+h-1). The firmware takes window addresses, not a
// size.
func bitmapHeader(opcode byte, x, y, width, height int) (Command, error) {
	if x < 0 || y < 0 || x > maxCoord || y > maxCoord {
		return Command{}, fmt.Errorf("%w: bitmap origin (%d,%d)", ErrInvalidArgument, x, y)
	}
	if width <= 0 || height <= 0 || x+width-1 > maxCoord || y+height-1 > maxCoord {
		return Command{}, fmt.Errorf("%w: bitmap size %dx%d", ErrInvalidArgument, width, height)
	}
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint16(payload[0:], uint16(x))
	binary.LittleEndian.PutUint16(payload[2:], uint16(y))
	binary.LittleEndian.PutUint16(payload[4:], uint16(x+width-1))
	binary.LittleEndian.PutUint16(payload[6:], uint16(y+height-1))
	return Command{Opcode: opcode, Payload: payload}, nil
}
