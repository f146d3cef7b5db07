// Package sysinfo snapshots host memory, disk and CPU usage.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"modelhub/pkg/types"
)

// Reader collects SystemInfo snapshots.
type Reader struct {
	// DiskPath is the mount whose usage is reported. Defaults to "/".
	DiskPath string
	// CPUInterval is the sampling window for CPU percent. Zero compares
	// against the previous call.
	CPUInterval time.Duration
}

// NewReader returns a reader for "/" sampling CPU over one second.
func NewReader() *Reader {
	return &Reader{DiskPath: "/", CPUInterval: time.Second}
}

// Collect returns a point-in-time snapshot. It blocks for CPUInterval.
func (r *Reader) Collect(ctx context.Context) (types.SystemInfo, error) {
	var out types.SystemInfo

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return out, fmt.Errorf("memory: %w", err)
	}
	out.Memory = types.MemoryInfo{Total: vm.Total, Available: vm.Available, Percent: vm.UsedPercent}

	path := r.DiskPath
	if path == "" {
		path = "/"
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return out, fmt.Errorf("disk %s: %w", path, err)
	}
	out.Disk = types.DiskInfo{Total: du.Total, Free: du.Free, Percent: du.UsedPercent}

	pct, err := cpu.PercentWithContext(ctx, r.CPUInterval, false)
	if err != nil {
		return out, fmt.Errorf("cpu: %w", err)
	}
	if len(pct) > 0 {
		out.CPUPercent = pct[0]
	}
	return out, nil
}
