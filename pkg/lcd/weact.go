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

package lcd

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lcdmon/lcdmon/pkg/helpers/syncutil"
	"github.com/lcdmon/lcdmon/pkg/lcd/codec"
	"github.com/lcdmon/lcdmon/pkg/lcd/transport"
	"github.com/lcdmon/lcdmon/pkg/service/queue"
	"github.com/rs/zerolog/log"
)

// Native panel dimensions of the WeAct revision A screen, in portrait.
const (
	WeActNativeWidth  = 320
	WeActNativeHeight = 480
)

// fixedByteResponse is the frame length of single-value query responses:
// echoed opcode, value, terminator.
const fixedByteResponse = 3

// WeActA drives a WeAct Studio 3.5" revision A display over USB serial.
// Every wire write goes through the update queue, so transfers from
// different producers never interleave.
type WeActA struct {
	tr       *transport.Transport
	q        *queue.Queue
	mu       syncutil.RWMutex
	orient   codec.Orientation
	bright   int
	fade     int
	compress bool
}

// NewWeActA returns a driver submitting to q. When compress is set, bitmap
// transfers use the FastLZ opcode.
func NewWeActA(q *queue.Queue, compress bool) *WeActA {
	return &WeActA{
		tr:       transport.New(),
		q:        q,
		orient:   codec.Portrait,
		bright:   codec.MaxBrightness,
		compress: compress,
	}
}

// newWeActAWithTransport is the test seam.
func newWeActAWithTransport(tr *transport.Transport, q *queue.Queue, compress bool) *WeActA {
	return &WeActA{
		tr: tr, q: q,
		orient:   codec.Portrait,
		bright:   codec.MaxBrightness,
		compress: compress,
	}
}

var _ Driver = (*WeActA)(nil)

func (d *WeActA) Name() string { return "weact_a" }

// Open connects the serial link. port may be AUTO for auto-detection.
func (d *WeActA) Open(port string) error {
	if err := d.tr.Open(port); err != nil {
		return err
	}
	log.Info().Msgf("display open on %s", d.tr.PortName())
	return nil
}

// Close drops the serial link. Idempotent.
func (d *WeActA) Close() error {
	return d.tr.Close()
}

// Connected reports whether the serial link is up.
func (d *WeActA) Connected() bool {
	return d.tr.Connected()
}

// Width returns the effective width at the current orientation.
func (d *WeActA) Width() int {
	if d.Orientation().IsLandscape() {
		return WeActNativeHeight
	}
	return WeActNativeWidth
}

// Height returns the effective height at the current orientation.
func (d *WeActA) Height() int {
	if d.Orientation().IsLandscape() {
		return WeActNativeWidth
	}
	return WeActNativeHeight
}

// Orientation returns the rotation last set on this driver.
func (d *WeActA) Orientation() codec.Orientation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.orient
}

// SetOrientation rotates the panel and updates the effective dimensions.
func (d *WeActA) SetOrientation(o codec.Orientation) error {
	cmd, err := codec.SetOrientation(o)
	if err != nil {
		return err
	}
	if err := d.submitWrite("set orientation", cmd); err != nil {
		return err
	}
	d.mu.Lock()
	d.orient = o
	d.mu.Unlock()
	return nil
}

// SetBrightness fades the backlight to level over fadeMillis milliseconds.
// Nonzero levels are remembered so ScreenOn can restore them.
func (d *WeActA) SetBrightness(level, fadeMillis int) error {
	cmd, err := codec.SetBrightness(level, fadeMillis)
	if err != nil {
		return err
	}
	if err := d.submitWrite("set brightness", cmd); err != nil {
		return err
	}
	if level > 0 {
		d.mu.Lock()
		d.bright, d.fade = level, fadeMillis
		d.mu.Unlock()
	}
	return nil
}

// ScreenOff turns the backlight off without forgetting the working level.
func (d *WeActA) ScreenOff() error {
	cmd, err := codec.SetBrightness(0, 0)
	if err != nil {
		return err
	}
	return d.submitWrite("screen off", cmd)
}

// ScreenOn restores the last nonzero brightness.
func (d *WeActA) ScreenOn() error {
	d.mu.RLock()
	level, fade := d.bright, d.fade
	d.mu.RUnlock()
	return d.SetBrightness(level, fade)
}

// SetBackplateLED is a no-op: revision A panels carry no accent LED.
func (d *WeActA) SetBackplateLED(_, _, _ uint8) error {
	return nil
}

// Fill paints the whole panel one color using the device-side fill, which
// beats transferring a full-screen bitmap.
func (d *WeActA) Fill(c color.Color) error {
	return d.submitWrite("fill", codec.Full(codec.ToRGB565(c)))
}

// Clear paints the panel white, the blank-canvas state themes draw onto.
func (d *WeActA) Clear() error {
	return d.Fill(color.White)
}

// Free releases the panel back to its built-in idle screen.
func (d *WeActA) Free() error {
	return d.submitWrite("free", codec.Free())
}

// Reset reboots the device. The serial link usually drops right after; the
// caller is expected to close and reopen.
func (d *WeActA) Reset() error {
	return d.submitWrite("system reset", codec.SystemReset())
}

// EnableHumitureReport asks the firmware to push sensor frames every millis
// milliseconds; 0 disables them.
func (d *WeActA) EnableHumitureReport(millis int) error {
	cmd, err := codec.SetHumitureReport(millis)
	if err != nil {
		return err
	}
	return d.submitWrite("humiture report", cmd)
}

// Humiture returns the last unsolicited sensor report.
func (d *WeActA) Humiture() (codec.Humiture, bool) {
	return d.tr.Humiture()
}

// SetUnconnectBrightness sets the backlight used while no host is attached.
func (d *WeActA) SetUnconnectBrightness(level int) error {
	cmd, err := codec.SetUnconnectBrightness(level)
	if err != nil {
		return err
	}
	return d.submitWrite("set unconnect brightness", cmd)
}

// SetUnconnectOrientation sets the rotation used while no host is attached.
func (d *WeActA) SetUnconnectOrientation(o codec.Orientation) error {
	cmd, err := codec.SetUnconnectOrientation(o)
	if err != nil {
		return err
	}
	return d.submitWrite("set unconnect orientation", cmd)
}

// DisplayImage transfers img so its top-left corner lands at (x, y). The
// header and every pixel chunk are sent inside a single queue job, so a
// transfer is atomic with respect to other producers.
func (d *WeActA) DisplayImage(x, y int, img image.Image) error {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	if x < 0 || y < 0 || x+w > d.Width() || y+h > d.Height() {
		return fmt.Errorf("%w: %dx%d at (%d,%d) on %dx%d",
			ErrOutOfBounds, w, h, x, y, d.Width(), d.Height())
	}

	pixels := codec.PackPixels(img)
	lineBytes := w * 2

	var header codec.Command
	var chunks [][]byte
	var err error
	if d.compress {
		header, err = codec.CompressedBitmapHeader(x, y, w, h)
		if err != nil {
			return err
		}
		chunks, err = codec.ChunkCompressed(pixels, lineBytes)
	} else {
		header, err = codec.BitmapHeader(x, y, w, h)
		if err != nil {
			return err
		}
		chunks, err = codec.ChunkRaw(pixels, lineBytes)
	}
	if err != nil {
		return err
	}

	name := fmt.Sprintf("bitmap %dx%d at (%d,%d)", w, h, x, y)
	return d.q.Submit(name, func() error {
		if err := d.tr.Write(header.Encode()); err != nil {
			return err
		}
		for _, chunk := range chunks {
			if err := d.tr.Write(chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

// Identity asks the device who it is.
func (d *WeActA) Identity() (string, error) {
	raw, err := d.roundTrip("who am i", codec.WhoAmI(), 0)
	if err != nil {
		return "", err
	}
	return codec.DecodeString(raw)
}

// Version asks the device for its firmware version.
func (d *WeActA) Version() (string, error) {
	raw, err := d.roundTrip("system version", codec.SystemVersion(), 0)
	if err != nil {
		return "", err
	}
	return codec.DecodeString(raw)
}

// SerialNumber asks the device for its serial number.
func (d *WeActA) SerialNumber() (string, error) {
	raw, err := d.roundTrip("serial number", codec.SystemSerialNum(), 0)
	if err != nil {
		return "", err
	}
	return codec.DecodeString(raw)
}

// QueryOrientation reads the rotation the device itself reports.
func (d *WeActA) QueryOrientation() (codec.Orientation, error) {
	raw, err := d.roundTrip("get orientation", codec.GetOrientation(), fixedByteResponse)
	if err != nil {
		return 0, err
	}
	return codec.DecodeOrientation(raw)
}

// QueryBrightness reads the backlight level the device itself reports.
func (d *WeActA) QueryBrightness() (int, error) {
	raw, err := d.roundTrip("get brightness", codec.GetBrightness(), fixedByteResponse)
	if err != nil {
		return 0, err
	}
	return codec.DecodeBrightness(raw)
}

func (d *WeActA) submitWrite(name string, cmd codec.Command) error {
	frame := cmd.Encode()
	return d.q.Submit(name, func() error {
		return d.tr.Write(frame)
	})
}

// roundTrip registers for the response, writes the read command through the
// queue, then waits outside the queue so long transfers ahead of the read
// delay but never deadlock it.
func (d *WeActA) roundTrip(name string, cmd codec.Command, fixedLen int) ([]byte, error) {
	pending, err := d.tr.Await(cmd.WireOpcode(), fixedLen)
	if err != nil {
		return nil, err
	}
	if err := d.submitWrite(name, cmd); err != nil {
		pending.Cancel()
		return nil, err
	}
	return pending.Wait(transport.DefaultResponseTimeout)
}
