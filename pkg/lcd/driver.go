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

// Package lcd drives smart screens. The real driver talks the WeAct serial
// protocol through the update queue; the simulated driver renders the same
// operations to an in-memory framebuffer served over HTTP. Callers hold the
// Driver interface and never see which one they got.
package lcd

import (
	"errors"
	"image"
	"image/color"

	"github.com/lcdmon/lcdmon/pkg/lcd/codec"
)

var (
	// ErrOutOfBounds reports a draw region that does not fit the screen at
	// its current orientation.
	ErrOutOfBounds = errors.New("region out of screen bounds")

	// ErrNotOpen reports an operation against a closed driver.
	ErrNotOpen = errors.New("display not open")
)

// Driver is one smart screen.
type Driver interface {
	// Open connects to the device. port is driver-specific: a serial port
	// name (or AUTO) for real hardware, a listen address for the simulator.
	Open(port string) error
	// Close blanks nothing and frees the device link. Pending queue jobs
	// are the caller's concern.
	Close() error

	// Name identifies the driver for logs.
	Name() string

	// Width and Height are the effective dimensions at the current
	// orientation.
	Width() int
	Height() int

	Orientation() codec.Orientation
	SetOrientation(o codec.Orientation) error

	// SetBrightness sets the backlight to level 0..255, fading over
	// fadeMillis milliseconds. Nonzero levels are remembered for ScreenOn.
	SetBrightness(level, fadeMillis int) error

	// ScreenOff turns the backlight off; ScreenOn restores the last
	// nonzero brightness.
	ScreenOff() error
	ScreenOn() error

	// SetBackplateLED sets the rear accent LED color on panels that have
	// one. Revisions without an LED accept and ignore it.
	SetBackplateLED(r, g, b uint8) error

	// Fill paints the whole screen one color.
	Fill(c color.Color) error

	// Clear paints the screen white.
	Clear() error

	// DisplayImage blits img with its top-left corner at (x, y). The
	// whole transfer is one queue job.
	DisplayImage(x, y int, img image.Image) error

	// Free releases the panel back to its built-in idle screen.
	Free() error

	// Reset reboots the device.
	Reset() error

	// EnableHumitureReport asks the device to push sensor reports every
	// millis milliseconds; 0 disables them.
	EnableHumitureReport(millis int) error

	// Humiture returns the last sensor report, if any arrived.
	Humiture() (codec.Humiture, bool)
}
