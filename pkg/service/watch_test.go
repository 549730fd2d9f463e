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
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFiresOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.yaml"), []byte("a"), 0o600))

	var fired atomic.Int32
	w, err := WatchTheme(dir, 50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.yaml"), []byte("b"), 0o600))

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var fired atomic.Int32
	w, err := WatchTheme(dir, 200*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// A burst of writes inside the debounce window reloads once.
	for i := range 5 {
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, "theme.yaml"), []byte{byte(i)}, 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcherWatchesNewSubdirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var fired atomic.Int32
	w, err := WatchTheme(dir, 50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	sub := filepath.Join(dir, "img")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	before := fired.Load()
	require.NoError(t, os.WriteFile(filepath.Join(sub, "new.png"), []byte("x"), 0o600))
	require.Eventually(t, func() bool {
		return fired.Load() > before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherCloseStops(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := WatchTheme(dir, 50*time.Millisecond, func() {})
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestWatcherMissingDir(t *testing.T) {
	t.Parallel()

	_, err := WatchTheme(filepath.Join(t.TempDir(), "nope"), time.Second, func() {})
	assert.Error(t, err)
}
