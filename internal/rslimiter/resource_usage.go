package rslimiter

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceUsage is one sample of Go heap and host memory.
type ResourceUsage struct {
	HeapMB            int64
	RuntimeSysMB      int64
	Goroutines        int
	SystemUsedMB      int64
	SystemTotalMB     int64
	SystemUsedPercent float64
}

const bytesPerMB = 1 << 20

// SampleUsage reads the runtime memory stats and, when available, the host's
// virtual memory. Host fields stay zero if gopsutil cannot read them.
func SampleUsage() ResourceUsage {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	usage := ResourceUsage{
		HeapMB:       int64(stats.HeapAlloc / bytesPerMB),
		RuntimeSysMB: int64(stats.Sys / bytesPerMB),
		Goroutines:   runtime.NumGoroutine(),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		usage.SystemUsedMB = int64(vm.Used / bytesPerMB)
		usage.SystemTotalMB = int64(vm.Total / bytesPerMB)
		usage.SystemUsedPercent = vm.UsedPercent
	}
	return usage
}
