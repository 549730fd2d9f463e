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

// Package transport owns the USB-serial link to the display. It opens and
// auto-detects the port, runs the reader loop that resolves outstanding read
// commands and unsolicited sensor reports, and demotes the handle to closed
// on I/O errors. Reconnection policy belongs to the caller.
package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lcdmon/lcdmon/pkg/helpers/syncutil"
	"github.com/lcdmon/lcdmon/pkg/lcd/codec"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// BaudRate of the WeAct revision A panels.
	BaudRate = 1152000

	// AutoPort requests port auto-detection on open.
	AutoPort = "AUTO"

	// productMatch is the substring of the USB product description that
	// identifies the display.
	productMatch = "AB"

	// readPollTimeout is the serial read timeout inside the reader loop.
	readPollTimeout = 50 * time.Millisecond

	// frameReadTimeout bounds reading the remainder of a frame once its
	// opcode byte has arrived.
	frameReadTimeout = time.Second

	// DefaultResponseTimeout bounds waiting for a read-command response.
	DefaultResponseTimeout = 2 * time.Second
)

var (
	// ErrPortNotFound means auto-detection found no matching device.
	ErrPortNotFound = errors.New("display serial port not found")

	// ErrNotOpen means the operation requires an open port.
	ErrNotOpen = errors.New("serial port not open")

	// ErrAwaitBusy means a read command is already awaiting its response.
	// The link supports exactly one outstanding read at a time.
	ErrAwaitBusy = errors.New("read command already in flight")

	// ErrResponseTimeout means the device did not answer in time.
	ErrResponseTimeout = errors.New("timed out waiting for device response")
)

// Port is the subset of a serial port the transport uses. Narrowed for
// test fakes.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(d time.Duration) error
}

// ConnectFunc opens and configures a serial port by name.
type ConnectFunc func(name string) (Port, error)

func connect(name string) (Port, error) {
	log.Debug().Msgf("opening serial port %s", name)
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return port, nil
}

type awaitResult struct {
	data []byte
	err  error
}

type pendingRead struct {
	result chan awaitResult
	// fixedLen is the total response length including the echoed opcode
	// and terminator; 0 means newline-terminated.
	fixedLen int
	opcode   byte
}

// Transport is the open-connection state of one display.
type Transport struct {
	connectFn ConnectFunc
	port      Port
	pending   *pendingRead
	name      string
	humiture  codec.Humiture
	mu        syncutil.RWMutex // protects port, name, reading
	pendMu    syncutil.Mutex   // protects pending
	humMu     syncutil.RWMutex // protects humiture, humitureOK
	reading   bool
	humOK     bool
}

// New returns a transport using the real serial stack.
func New() *Transport {
	return &Transport{connectFn: connect}
}

// NewWithConnect returns a transport with a custom port opener, for tests.
func NewWithConnect(fn ConnectFunc) *Transport {
	return &Transport{connectFn: fn}
}

// AutoDetect enumerates serial ports and returns the first whose USB product
// description identifies the display.
func AutoDetect() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	for _, p := range ports {
		if strings.Contains(p.Product, productMatch) {
			log.Debug().Msgf("auto detected display port: %s (%s)", p.Name, p.Product)
			return p.Name, nil
		}
	}

	return "", ErrPortNotFound
}

// Open connects to the named port, or auto-detects one when name is AUTO or
// empty, and starts the reader loop. Opening an already-open transport is a
// no-op.
func (t *Transport) Open(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port != nil {
		return nil
	}

	if name == "" || strings.EqualFold(name, AutoPort) {
		detected, err := AutoDetect()
		if err != nil {
			return err
		}
		name = detected
	}

	port, err := t.connectFn(name)
	if err != nil {
		return err
	}

	t.port = port
	t.name = name
	t.reading = true

	go t.readLoop(port)

	log.Info().Msgf("serial port open: %s", name)
	return nil
}

// Close stops the reader loop and closes the port. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	port := t.port
	t.port = nil
	t.reading = false
	t.mu.Unlock()

	t.failPending(ErrNotOpen)

	if port == nil {
		return nil
	}
	if err := port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	log.Info().Msg("serial port closed")
	return nil
}

// Connected reports whether the port is open.
func (t *Transport) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.port != nil
}

// PortName returns the name of the open port, or an empty string.
func (t *Transport) PortName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// Write sends raw frame bytes to the device. A write error demotes the
// transport to closed; the caller owns any reconnect policy.
func (t *Transport) Write(data []byte) error {
	t.mu.RLock()
	port := t.port
	t.mu.RUnlock()

	if port == nil {
		return ErrNotOpen
	}

	if _, err := port.Write(data); err != nil {
		log.Error().Err(err).Msg("serial write failed, closing port")
		_ = t.Close()
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

// Await registers interest in the response to a read command before it is
// written. fixedLen is the total response frame length including the echoed
// opcode and terminator, or 0 for newline-terminated string responses. Only
// one read may be outstanding at a time.
func (t *Transport) Await(opcode byte, fixedLen int) (*Pending, error) {
	if !t.Connected() {
		return nil, ErrNotOpen
	}

	t.pendMu.Lock()
	defer t.pendMu.Unlock()
	if t.pending != nil {
		return nil, ErrAwaitBusy
	}

	p := &pendingRead{
		opcode:   opcode,
		fixedLen: fixedLen,
		result:   make(chan awaitResult, 1),
	}
	t.pending = p
	return &Pending{t: t, p: p}, nil
}

// Pending is one outstanding read-command response.
type Pending struct {
	t *Transport
	p *pendingRead
}

// Wait blocks until the response arrives or the timeout elapses. The
// returned bytes are everything after the echoed opcode, terminator
// included.
func (p *Pending) Wait(timeout time.Duration) ([]byte, error) {
	select {
	case res := <-p.p.result:
		return res.data, res.err
	case <-time.After(timeout):
		p.t.clearPending(p.p)
		return nil, ErrResponseTimeout
	}
}

// Cancel abandons the outstanding read.
func (p *Pending) Cancel() {
	p.t.clearPending(p.p)
}

func (t *Transport) clearPending(p *pendingRead) {
	t.pendMu.Lock()
	if t.pending == p {
		t.pending = nil
	}
	t.pendMu.Unlock()
}

func (t *Transport) failPending(err error) {
	t.pendMu.Lock()
	if t.pending != nil {
		t.pending.result <- awaitResult{err: err}
		t.pending = nil
	}
	t.pendMu.Unlock()
}

// Humiture returns the last unsolicited sensor report, if any was received.
func (t *Transport) Humiture() (codec.Humiture, bool) {
	t.humMu.RLock()
	defer t.humMu.RUnlock()
	return t.humiture, t.humOK
}

func (t *Transport) readLoop(port Port) {
	buf := make([]byte, 1)
	for {
		t.mu.RLock()
		reading := t.reading
		t.mu.RUnlock()
		if !reading {
			return
		}

		n, err := port.Read(buf)
		if err != nil {
			t.mu.RLock()
			stillOurs := t.port == port
			t.mu.RUnlock()
			if stillOurs {
				log.Error().Err(err).Msg("serial read failed, closing port")
				_ = t.Close()
			}
			return
		}
		if n == 0 {
			// Poll timeout; check the stop flag again.
			continue
		}

		opcode := buf[0]
		switch {
		case opcode == codec.HumitureOpcode:
			t.handleHumiture(port)
		case t.matchPending(opcode):
			t.handleResponse(port)
		default:
			// Unsolicited noise between frames is dropped.
			log.Trace().Msgf("discarding unexpected byte 0x%02x", opcode)
		}
	}
}

func (t *Transport) matchPending(opcode byte) bool {
	t.pendMu.Lock()
	defer t.pendMu.Unlock()
	return t.pending != nil && t.pending.opcode == opcode
}

func (t *Transport) handleHumiture(port Port) {
	payload, err := t.readFull(port, codec.HumiturePayloadLen)
	if err != nil {
		// A torn sensor frame must not destabilize the reader loop.
		log.Debug().Err(err).Msg("short humiture frame, ignoring")
		return
	}

	h, err := codec.DecodeHumiture(payload)
	if err != nil {
		log.Debug().Err(err).Msg("bad humiture frame, ignoring")
		return
	}

	t.humMu.Lock()
	t.humiture = h
	t.humOK = true
	t.humMu.Unlock()
}

func (t *Transport) handleResponse(port Port) {
	t.pendMu.Lock()
	p := t.pending
	t.pendMu.Unlock()
	if p == nil {
		return
	}

	var data []byte
	var err error
	if p.fixedLen > 0 {
		// The opcode byte has already been consumed.
		data, err = t.readFull(port, p.fixedLen-1)
	} else {
		data, err = t.readLine(port)
	}

	t.pendMu.Lock()
	if t.pending == p {
		t.pending = nil
		p.result <- awaitResult{data: data, err: err}
	}
	t.pendMu.Unlock()
}

func (t *Transport) readFull(port Port, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	deadline := time.Now().Add(frameReadTimeout)
	for got < n {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %d of %d bytes", ErrResponseTimeout, got, n)
		}
		read, err := port.Read(buf[got:])
		if err != nil {
			return nil, fmt.Errorf("serial read failed: %w", err)
		}
		got += read
	}
	return buf, nil
}

func (t *Transport) readLine(port Port) ([]byte, error) {
	var line []byte
	buf := make([]byte, 1)
	deadline := time.Now().Add(frameReadTimeout)
	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: line read", ErrResponseTimeout)
		}
		n, err := port.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("serial read failed: %w", err)
		}
		if n == 0 {
			continue
		}
		line = append(line, buf[0])
		if buf[0] == codec.CmdEnd {
			return line, nil
		}
	}
}
