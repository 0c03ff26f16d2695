package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("readshelf/perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var liveObjectsGauge, _ = meter.Int64Gauge("live_objects")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

type perfStats struct {
	// percent of all cores since the previous sample, -1 when unavailable
	CpuUsage    float64
	AllocatedMb int64
	LiveObjects int64
	Goroutines  int64
}

func readPerfStats() perfStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := perfStats{
		CpuUsage:    -1,
		AllocatedMb: int64(memStats.Alloc / 1_000_000),
		LiveObjects: int64(memStats.Mallocs) - int64(memStats.Frees),
		Goroutines:  int64(runtime.NumGoroutine()),
	}

	cpuUsage, err := cpu.Percent(0, false)
	if err != nil || len(cpuUsage) == 0 {
		slog.Warn("failed to read cpu usage", "err", err)
		return stats
	}
	stats.CpuUsage = cpuUsage[0]
	return stats
}

// InstrumentPerfStats records process gauges every `interval` until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := readPerfStats()
				if stats.CpuUsage >= 0 {
					cpuGauge.Record(ctx, stats.CpuUsage)
				}
				memoryGauge.Record(ctx, stats.AllocatedMb)
				liveObjectsGauge.Record(ctx, stats.LiveObjects)
				goroutineGauge.Record(ctx, stats.Goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
