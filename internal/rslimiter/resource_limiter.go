// Package rslimiter guards fetches against memory exhaustion.
package rslimiter

import (
	"fmt"
	"sync"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/rs/zerolog"
)

// ResourceLimiter decides whether a worker may start another fetch. It is
// safe for concurrent use; a nil limiter allows everything.
type ResourceLimiter struct {
	config ResourceLimiterConfig
	logger zerolog.Logger
	sample func() ResourceUsage

	mu         sync.Mutex
	lastUsage  ResourceUsage
	lastSample time.Time
}

// NewResourceLimiter creates a new resource limiter
func NewResourceLimiter(config ResourceLimiterConfig, logger zerolog.Logger) *ResourceLimiter {
	if config.SampleInterval <= 0 {
		config.SampleInterval = time.Second
	}
	return &ResourceLimiter{
		config: config,
		logger: logger.With().Str("component", "ResourceLimiter").Logger(),
		sample: SampleUsage,
	}
}

// Enabled reports whether the guard is active.
func (rl *ResourceLimiter) Enabled() bool {
	return rl != nil && rl.config.Enabled
}

// Check returns an error wrapping common.ErrResourceLimit when the process
// heap or system memory is over its limit.
func (rl *ResourceLimiter) Check() error {
	if !rl.Enabled() {
		return nil
	}
	usage := rl.usage()

	if rl.config.MaxMemoryMB > 0 && usage.HeapMB > rl.config.MaxMemoryMB {
		rl.logger.Warn().
			Int64("heap_mb", usage.HeapMB).
			Int64("limit_mb", rl.config.MaxMemoryMB).
			Msg("Application memory limit exceeded")
		return common.WrapError(common.ErrResourceLimit,
			fmt.Sprintf("heap %dMB above %dMB", usage.HeapMB, rl.config.MaxMemoryMB))
	}

	if rl.config.SystemMemThreshold > 0 && usage.SystemUsedPercent/100.0 > rl.config.SystemMemThreshold {
		rl.logger.Warn().
			Float64("used_percent", usage.SystemUsedPercent).
			Float64("threshold_percent", rl.config.SystemMemThreshold*100).
			Int64("used_mb", usage.SystemUsedMB).
			Int64("total_mb", usage.SystemTotalMB).
			Msg("System memory usage exceeded threshold")
		return common.WrapError(common.ErrResourceLimit,
			fmt.Sprintf("system memory %.1f%% in use", usage.SystemUsedPercent))
	}
	return nil
}

// usage returns a sample no older than SampleInterval.
func (rl *ResourceLimiter) usage() ResourceUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.lastSample.IsZero() || time.Since(rl.lastSample) >= rl.config.SampleInterval {
		rl.lastUsage = rl.sample()
		rl.lastSample = time.Now()
	}
	return rl.lastUsage
}

// LogUsage writes the current usage at debug level.
func (rl *ResourceLimiter) LogUsage() {
	if !rl.Enabled() {
		return
	}
	usage := rl.usage()
	rl.logger.Debug().
		Int64("heap_mb", usage.HeapMB).
		Int64("runtime_sys_mb", usage.RuntimeSysMB).
		Int("goroutines", usage.Goroutines).
		Float64("system_mem_percent", usage.SystemUsedPercent).
		Msg("Current resource usage")
}
