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

package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobsRunInSubmissionOrder(t *testing.T) {
	t.Parallel()

	q := New()
	q.Start()

	var mu sync.Mutex
	var ran []int
	for i := 0; i < 20; i++ {
		i := i
		require.NoError(t, q.Submit("job", func() error {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
			return nil
		}))
	}

	q.Stop()

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, ran)
}

func TestConcurrentProducersKeepTheirOwnOrder(t *testing.T) {
	t.Parallel()

	const producers = 8
	const perProducer = 50

	q := New()
	q.Start()

	var mu sync.Mutex
	ran := make(map[int][]int, producers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for seq := 0; seq < perProducer; seq++ {
				seq := seq
				assert.NoError(t, q.Submit("tagged", func() error {
					mu.Lock()
					ran[p] = append(ran[p], seq)
					mu.Unlock()
					return nil
				}))
			}
		}()
	}
	close(start)
	wg.Wait()
	q.Stop()

	// Interleaving across producers is free, but each producer's jobs
	// must execute in the order that producer submitted them.
	want := make([]int, perProducer)
	for i := range want {
		want[i] = i
	}
	for p := 0; p < producers; p++ {
		assert.Equal(t, want, ran[p], "producer %d jobs ran out of order", p)
	}
}

func TestStopDrainsQueuedJobs(t *testing.T) {
	t.Parallel()

	q := New()
	q.Start()

	var mu sync.Mutex
	count := 0
	gate := make(chan struct{})
	require.NoError(t, q.Submit("gate", func() error {
		<-gate
		return nil
	}))
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Submit("counted", func() error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		}))
	}

	close(gate)
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count, "jobs queued before Stop must still run")
}

func TestSubmitAfterStopRejected(t *testing.T) {
	t.Parallel()

	q := New()
	q.Start()
	q.Stop()

	err := q.Submit("late", func() error { return nil })
	assert.ErrorIs(t, err, ErrStopping)
}

func TestStopIdempotent(t *testing.T) {
	t.Parallel()

	q := New()
	q.Start()
	q.Stop()
	q.Stop()

	unstarted := New()
	unstarted.Stop()
}

func TestJobErrorDoesNotStopConsumer(t *testing.T) {
	t.Parallel()

	q := New()
	q.Start()

	ran := make(chan struct{})
	require.NoError(t, q.Submit("failing", func() error {
		return errors.New("device went away")
	}))
	require.NoError(t, q.Submit("after", func() error {
		close(ran)
		return nil
	}))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job after a failing one never ran")
	}
	q.Stop()
}

func TestWaitEmpty(t *testing.T) {
	t.Parallel()

	q := New()
	q.Start()
	defer q.Stop()

	gate := make(chan struct{})
	require.NoError(t, q.Submit("gate", func() error {
		<-gate
		return nil
	}))

	assert.ErrorIs(t, q.WaitEmpty(150*time.Millisecond), ErrNotEmpty)

	close(gate)
	assert.NoError(t, q.WaitEmpty(time.Second))
}

func TestOverloaded(t *testing.T) {
	t.Parallel()

	// Not started, so nothing consumes and the depth is exact.
	q := New()
	q.st = stateRunning
	for i := 0; i <= OverloadThreshold; i++ {
		require.NoError(t, q.Submit("fill", func() error { return nil }))
	}
	assert.True(t, q.Overloaded())
	assert.Equal(t, OverloadThreshold+1, q.Len())
}
