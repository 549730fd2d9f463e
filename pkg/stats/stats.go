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

// Package stats reads host metrics for the screen's widgets. Every metric
// is addressed by a string key so themes can bind widgets to data sources
// by name.
package stats

import (
	"fmt"
	"time"

	"github.com/lcdmon/lcdmon/pkg/helpers/syncutil"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// Metric keys themes can bind to.
const (
	KeyCPUPercent  = "cpu_percent"
	KeyCPUFreqMHz  = "cpu_freq_mhz"
	KeyLoadAvg1    = "load_1"
	KeyMemPercent  = "mem_percent"
	KeyMemUsedMB   = "mem_used_mb"
	KeyMemFreeMB   = "mem_free_mb"
	KeyDiskPercent = "disk_percent"
	KeyDiskUsedGB  = "disk_used_gb"
	KeyDiskFreeGB  = "disk_free_gb"
	KeyNetRxKBps   = "net_rx_kbps"
	KeyNetTxKBps   = "net_tx_kbps"
	KeyUptimeSec   = "uptime_sec"
)

type netSample struct {
	at time.Time
	rx uint64
	tx uint64
}

// Provider reads metrics. Network rates keep per-interface state, so use
// one provider for the whole process.
type Provider struct {
	lastNet map[string]netSample
	mu      syncutil.Mutex
}

func New() *Provider {
	return &Provider{lastNet: make(map[string]netSample)}
}

// Value reads the metric named by key. device selects the disk mount point
// or network interface where the metric needs one; empty means "/" or the
// sum of all interfaces.
func (p *Provider) Value(key, device string) (float64, error) {
	switch key {
	case KeyCPUPercent:
		return p.cpuPercent()
	case KeyCPUFreqMHz:
		return p.cpuFreqMHz()
	case KeyLoadAvg1:
		return p.loadAvg1()
	case KeyMemPercent, KeyMemUsedMB, KeyMemFreeMB:
		return p.memory(key)
	case KeyDiskPercent, KeyDiskUsedGB, KeyDiskFreeGB:
		return p.disk(key, device)
	case KeyNetRxKBps, KeyNetTxKBps:
		rx, tx, err := p.NetRates(device)
		if err != nil {
			return 0, err
		}
		if key == KeyNetRxKBps {
			return rx, nil
		}
		return tx, nil
	case KeyUptimeSec:
		up, err := host.Uptime()
		if err != nil {
			return 0, fmt.Errorf("failed to read uptime: %w", err)
		}
		return float64(up), nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", key)
	}
}

func (p *Provider) cpuPercent() (float64, error) {
	// Non-blocking: reports usage since the previous call.
	vals, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("failed to read cpu percent: %w", err)
	}
	if len(vals) == 0 {
		return 0, nil
	}
	return vals[0], nil
}

func (p *Provider) cpuFreqMHz() (float64, error) {
	info, err := cpu.Info()
	if err != nil {
		return 0, fmt.Errorf("failed to read cpu info: %w", err)
	}
	if len(info) == 0 {
		return 0, nil
	}
	return info[0].Mhz, nil
}

func (p *Provider) loadAvg1() (float64, error) {
	avg, err := load.Avg()
	if err != nil {
		return 0, fmt.Errorf("failed to read load average: %w", err)
	}
	return avg.Load1, nil
}

func (p *Provider) memory(key string) (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to read memory: %w", err)
	}
	switch key {
	case KeyMemUsedMB:
		return float64(vm.Used) / (1 << 20), nil
	case KeyMemFreeMB:
		return float64(vm.Available) / (1 << 20), nil
	default:
		return vm.UsedPercent, nil
	}
}

func (p *Provider) disk(key, mount string) (float64, error) {
	if mount == "" {
		mount = "/"
	}
	usage, err := disk.Usage(mount)
	if err != nil {
		return 0, fmt.Errorf("failed to read disk usage: %w", err)
	}
	switch key {
	case KeyDiskUsedGB:
		return float64(usage.Used) / (1 << 30), nil
	case KeyDiskFreeGB:
		return float64(usage.Free) / (1 << 30), nil
	default:
		return usage.UsedPercent, nil
	}
}

// NetRates returns receive/transmit rates in KB/s since the previous call
// for the named interface, or all interfaces summed when iface is empty.
// The first call primes the counters and reports zero.
func (p *Provider) NetRates(iface string) (rxKBps, txKBps float64, err error) {
	counters, err := net.IOCounters(iface != "")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read net counters: %w", err)
	}

	var rx, tx uint64
	found := iface == ""
	for _, c := range counters {
		if iface == "" || c.Name == iface {
			rx += c.BytesRecv
			tx += c.BytesSent
			if c.Name == iface {
				found = true
			}
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("unknown network interface: %s", iface)
	}

	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	last, ok := p.lastNet[iface]
	p.lastNet[iface] = netSample{rx: rx, tx: tx, at: now}
	if !ok || rx < last.rx || tx < last.tx {
		return 0, 0, nil
	}
	elapsed := now.Sub(last.at).Seconds()
	if elapsed <= 0 {
		return 0, 0, nil
	}
	rxKBps = float64(rx-last.rx) / 1024 / elapsed
	txKBps = float64(tx-last.tx) / 1024 / elapsed
	return rxKBps, txKBps, nil
}

// Uptime returns the host uptime.
func (p *Provider) Uptime() (time.Duration, error) {
	up, err := host.Uptime()
	if err != nil {
		return 0, fmt.Errorf("failed to read uptime: %w", err)
	}
	return time.Duration(up) * time.Second, nil
}

// FormatUptime renders a duration the way the uptime widget shows it.
func FormatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d", days, hours, minutes)
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
