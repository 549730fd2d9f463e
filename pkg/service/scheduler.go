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

package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Scheduler runs periodic producer tasks, one goroutine per task. Stopping
// is cooperative: a task in the middle of a tick finishes it, then stops
// being rescheduled.
type Scheduler struct {
	clock  clockwork.Clock
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler returns a scheduler on the given clock. Production passes
// clockwork.NewRealClock; tests a fake.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{clock: clock, ctx: ctx, cancel: cancel}
}

// Every runs fn now and then once per interval until Stop.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Debug().Msgf("task %s every %s", name, interval)
		fn()

		ticker := s.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				log.Debug().Msgf("task %s stopped", name)
				return
			case <-ticker.Chan():
				fn()
			}
		}
	}()
}

// Stop halts rescheduling and waits for in-flight ticks to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
