package probes

import (
	"context"
	"fmt"

	"github.com/jonwraymond/healthwatch/health"
)

// FSUsage is a filesystem capacity snapshot in bytes.
type FSUsage struct {
	Total     uint64
	Free      uint64
	Available uint64
}

// UsedPercent returns the used share of the filesystem.
func (u FSUsage) UsedPercent() float64 {
	if u.Total == 0 {
		return 0
	}
	return float64(u.Total-u.Free) / float64(u.Total) * 100
}

// Disk reports filesystem usage for a path.
type Disk struct {
	component string
	path      string
	statfs    func(path string) (FSUsage, error)
}

// NewDisk creates a probe for the filesystem holding path.
func NewDisk(component, path string) *Disk {
	if component == "" {
		component = "storage"
	}
	if path == "" {
		path = "/"
	}
	return &Disk{component: component, path: path, statfs: statfs}
}

// Name returns the component name.
func (d *Disk) Name() string { return d.component }

// Check samples disk_usage_percent.
func (d *Disk) Check(ctx context.Context) health.CheckResult {
	usage, err := d.statfs(d.path)
	if err != nil {
		return health.Critical(fmt.Sprintf("statfs %s failed", d.path), err)
	}

	used := usage.UsedPercent()
	return health.Healthy(fmt.Sprintf("%s %.1f%% used, %.2f GB available", d.path, used, float64(usage.Available)/(1<<30))).
		WithMetric(MetricDiskUsagePercent, used).
		WithDetails(map[string]any{
			"path":            d.path,
			"total_bytes":     usage.Total,
			"available_bytes": usage.Available,
		})
}
