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
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lcdmon/lcdmon/pkg/helpers/syncutil"
	"github.com/lcdmon/lcdmon/pkg/lcd/codec"
	"github.com/lcdmon/lcdmon/pkg/service/queue"
	"github.com/rs/zerolog/log"
)

// DefaultSimulatedAddr is where the simulator listens when Open gets an
// empty or AUTO port.
const DefaultSimulatedAddr = "localhost:5678"

const simulatedPage = `<!DOCTYPE html>
<html>
<head><title>lcdmon simulated display</title>
<meta http-equiv="refresh" content="1"></head>
<body style="background:#222;margin:0;display:flex;justify-content:center">
<img src="/image" alt="screen"/>
</body>
</html>`

// Simulated renders display operations into an in-memory framebuffer and
// serves it over HTTP so a theme can be developed without hardware. The
// page at / refreshes itself; /image is the current frame as PNG.
type Simulated struct {
	q        *queue.Queue
	srv      *http.Server
	frame    *image.RGBA
	mu       syncutil.RWMutex
	width    int
	height   int
	orient   codec.Orientation
	bright   int
	lastOn   int
	humiture codec.Humiture
	humOK    bool
	open     bool
}

// NewSimulated returns a simulated driver with the given native panel size,
// submitting to q like the real driver does.
func NewSimulated(q *queue.Queue, nativeWidth, nativeHeight int) *Simulated {
	d := &Simulated{
		q:      q,
		width:  nativeWidth,
		height: nativeHeight,
		orient: codec.Portrait,
		bright: codec.MaxBrightness,
		lastOn: codec.MaxBrightness,
	}
	d.frame = image.NewRGBA(image.Rect(0, 0, d.Width(), d.Height()))
	return d
}

var _ Driver = (*Simulated)(nil)

func (d *Simulated) Name() string { return "simulated" }

// Open starts the HTTP server on addr, or the default address when addr is
// empty or AUTO.
func (d *Simulated) Open(addr string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil
	}
	if addr == "" || addr == "AUTO" {
		addr = DefaultSimulatedAddr
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", d.handlePage)
	r.Get("/image", d.handleImage)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	d.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := d.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("simulated display server failed")
		}
	}()

	d.open = true
	log.Info().Msgf("simulated display at http://%s", addr)
	return nil
}

// Close stops the HTTP server. Idempotent.
func (d *Simulated) Close() error {
	d.mu.Lock()
	srv := d.srv
	d.srv = nil
	d.open = false
	d.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Close()
}

// Width returns the effective width at the current orientation.
func (d *Simulated) Width() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, _ := d.effectiveSize()
	return w
}

// Height returns the effective height at the current orientation.
func (d *Simulated) Height() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, h := d.effectiveSize()
	return h
}

// effectiveSize is the native panel size, swapped for landscape. Callers
// hold d.mu.
func (d *Simulated) effectiveSize() (int, int) {
	if d.orient.IsLandscape() {
		return d.height, d.width
	}
	return d.width, d.height
}

// Orientation returns the rotation last set.
func (d *Simulated) Orientation() codec.Orientation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.orient
}

// SetOrientation rotates the panel. The framebuffer is recreated blank at
// the new dimensions, like the hardware does.
func (d *Simulated) SetOrientation(o codec.Orientation) error {
	if _, err := codec.SetOrientation(o); err != nil {
		return err
	}
	return d.q.Submit("set orientation", func() error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.orient = o
		w, h := d.effectiveSize()
		d.frame = image.NewRGBA(image.Rect(0, 0, w, h))
		return nil
	})
}

// SetBrightness records the backlight level; the page dims accordingly.
func (d *Simulated) SetBrightness(level, fadeMillis int) error {
	if _, err := codec.SetBrightness(level, fadeMillis); err != nil {
		return err
	}
	return d.q.Submit("set brightness", func() error {
		d.mu.Lock()
		d.bright = level
		if level > 0 {
			d.lastOn = level
		}
		d.mu.Unlock()
		return nil
	})
}

// ScreenOff turns the simulated backlight off.
func (d *Simulated) ScreenOff() error {
	return d.q.Submit("screen off", func() error {
		d.mu.Lock()
		d.bright = 0
		d.mu.Unlock()
		return nil
	})
}

// ScreenOn restores the last nonzero brightness.
func (d *Simulated) ScreenOn() error {
	return d.q.Submit("screen on", func() error {
		d.mu.Lock()
		d.bright = d.lastOn
		d.mu.Unlock()
		return nil
	})
}

// SetBackplateLED is accepted and ignored, like the real panel.
func (d *Simulated) SetBackplateLED(_, _, _ uint8) error {
	return nil
}

// Fill paints the whole framebuffer one color.
func (d *Simulated) Fill(c color.Color) error {
	// Round through the wire pixel format so the simulator shows the same
	// colors the panel would.
	rgb := d.toFrameColor(c)
	return d.q.Submit("fill", func() error {
		d.mu.Lock()
		defer d.mu.Unlock()
		draw.Draw(d.frame, d.frame.Bounds(), image.NewUniform(rgb), image.Point{}, draw.Src)
		return nil
	})
}

// Clear paints the framebuffer white.
func (d *Simulated) Clear() error {
	return d.Fill(color.White)
}

// Free blanks the framebuffer, standing in for the idle screen.
func (d *Simulated) Free() error {
	return d.Fill(color.Black)
}

// Reset blanks the framebuffer and resets orientation and brightness.
func (d *Simulated) Reset() error {
	return d.q.Submit("system reset", func() error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.orient = codec.Portrait
		d.bright = codec.MaxBrightness
		d.lastOn = codec.MaxBrightness
		d.frame = image.NewRGBA(image.Rect(0, 0, d.width, d.height))
		return nil
	})
}

// EnableHumitureReport makes the simulator report a fixed comfortable room.
func (d *Simulated) EnableHumitureReport(millis int) error {
	if _, err := codec.SetHumitureReport(millis); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if millis == 0 {
		d.humOK = false
		return nil
	}
	d.humiture = codec.Humiture{TemperatureC: 21.5, HumidityPct: 45.0}
	d.humOK = true
	return nil
}

// Humiture returns the synthetic sensor reading, if reporting is on.
func (d *Simulated) Humiture() (codec.Humiture, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.humiture, d.humOK
}

// DisplayImage blits img into the framebuffer at (x, y), through the queue
// like the real transfer path.
func (d *Simulated) DisplayImage(x, y int, img image.Image) error {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	if x < 0 || y < 0 || x+w > d.Width() || y+h > d.Height() {
		return fmt.Errorf("%w: %dx%d at (%d,%d) on %dx%d",
			ErrOutOfBounds, w, h, x, y, d.Width(), d.Height())
	}

	name := fmt.Sprintf("bitmap %dx%d at (%d,%d)", w, h, x, y)
	return d.q.Submit(name, func() error {
		d.mu.Lock()
		defer d.mu.Unlock()
		dst := image.Rect(x, y, x+w, y+h)
		draw.Draw(d.frame, dst, img, bounds.Min, draw.Src)
		return nil
	})
}

// Snapshot returns a copy of the current framebuffer. Test hook.
func (d *Simulated) Snapshot() *image.RGBA {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cp := image.NewRGBA(d.frame.Bounds())
	copy(cp.Pix, d.frame.Pix)
	return cp
}

// toFrameColor quantizes c the way the panel would store it.
func (d *Simulated) toFrameColor(c color.Color) color.Color {
	return codec.ToRGB565(c)
}

func (d *Simulated) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(simulatedPage))
}

func (d *Simulated) handleImage(w http.ResponseWriter, _ *http.Request) {
	frame := d.Snapshot()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, frame); err != nil {
		log.Debug().Err(err).Msg("failed to encode simulated frame")
	}
}
