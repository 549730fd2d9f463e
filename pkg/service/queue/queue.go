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

// Package queue serializes display updates. Many producers submit jobs, one
// consumer runs them in submission order, so every byte written to the device
// flows through a single goroutine. A job is atomic from the wire's point of
// view: a multi-chunk bitmap transfer is one job, never interleaved with
// another.
package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lcdmon/lcdmon/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

const (
	// OverloadThreshold is the queue depth above which producers of
	// best-effort updates should skip a cycle.
	OverloadThreshold = 50

	// waitEmptyPoll is the poll interval of WaitEmpty.
	waitEmptyPoll = 100 * time.Millisecond

	// DefaultWaitEmpty bounds a WaitEmpty call with no explicit budget.
	DefaultWaitEmpty = 5 * time.Second
)

var (
	// ErrStopping reports a submit against a queue that no longer accepts
	// work.
	ErrStopping = errors.New("queue is stopping")

	// ErrNotEmpty reports that WaitEmpty ran out of time.
	ErrNotEmpty = errors.New("queue did not drain in time")
)

// Job is one unit of display work.
type Job func() error

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopping
	stateDrained
)

type namedJob struct {
	run  Job
	name string
}

// Queue is a many-producer, single-consumer FIFO of display jobs.
type Queue struct {
	cond *sync.Cond
	done chan struct{}
	jobs []namedJob
	mu   syncutil.Mutex
	st   state
	busy bool
}

// New returns a queue; call Start before submitting.
func New() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the consumer goroutine. Starting twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.st != stateIdle {
		return
	}
	q.st = stateRunning
	go q.consume()
}

// Submit appends a job to the queue. The name is only used in logs.
func (q *Queue) Submit(name string, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.st != stateRunning {
		return fmt.Errorf("%w: cannot submit %s", ErrStopping, name)
	}
	q.jobs = append(q.jobs, namedJob{name: name, run: job})
	q.cond.Signal()
	return nil
}

// Len returns the number of jobs waiting to run. The job currently running
// is not counted.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Overloaded reports whether producers of best-effort updates should skip
// their current cycle.
func (q *Queue) Overloaded() bool {
	return q.Len() > OverloadThreshold
}

// Stop rejects further submits, drains the jobs already queued, and returns
// once the consumer has exited. Stopping twice is safe.
func (q *Queue) Stop() {
	q.mu.Lock()
	switch q.st {
	case stateIdle:
		q.st = stateDrained
		close(q.done)
		q.mu.Unlock()
		return
	case stateStopping, stateDrained:
		q.mu.Unlock()
		<-q.done
		return
	case stateRunning:
	}
	q.st = stateStopping
	q.cond.Signal()
	q.mu.Unlock()

	<-q.done
}

// WaitEmpty blocks until the queue is empty and idle, polling at a fixed
// interval, or until the timeout elapses. A non-positive timeout uses the
// default budget.
func (q *Queue) WaitEmpty(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitEmpty
	}
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		empty := len(q.jobs) == 0 && !q.busy
		q.mu.Unlock()
		if empty {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrNotEmpty
		}
		time.Sleep(waitEmptyPoll)
	}
}

func (q *Queue) consume() {
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && q.st == stateRunning {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.st = stateDrained
			q.mu.Unlock()
			close(q.done)
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.busy = true
		q.mu.Unlock()

		if err := job.run(); err != nil {
			log.Error().Err(err).Msgf("display job failed: %s", job.name)
		}

		q.mu.Lock()
		q.busy = false
		q.mu.Unlock()
	}
}
