// Package metrics provides host information and Prometheus collectors for
// program and endpoint activity.
package metrics

import (
	"context"
	"os"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo describes the machine the daemon automates.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	OS              string `json:"os"`
	Arch            string `json:"arch"`
	Uptime          int64  `json:"uptime"` // seconds
	Cores           int    `json:"cores"`
	MemoryTotal     uint64 `json:"memory_total"`
	MemoryUsed      uint64 `json:"memory_used"`
	Display         string `json:"display"`
}

// GetHostInfo collects host information in parallel. Fields that cannot be
// read are left empty.
func GetHostInfo(ctx context.Context) (*HostInfo, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	info := &HostInfo{
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		Display: os.Getenv("DISPLAY"),
	}
	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		h, err := host.InfoWithContext(ctx)
		if err != nil {
			return
		}
		mu.Lock()
		info.Hostname = h.Hostname
		info.Platform = h.Platform
		info.PlatformVersion = h.PlatformVersion
		info.Uptime = int64(h.Uptime)
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := cpu.CountsWithContext(ctx, true)
		if err != nil {
			return
		}
		mu.Lock()
		info.Cores = n
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		vmem, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return
		}
		mu.Lock()
		info.MemoryTotal = vmem.Total
		info.MemoryUsed = vmem.Used
		mu.Unlock()
	}()

	wg.Wait()
	return info, nil
}
