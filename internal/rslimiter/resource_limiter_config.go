package rslimiter

import "time"

// ResourceLimiterConfig holds configuration for the per-fetch memory guard
type ResourceLimiterConfig struct {
	Enabled            bool          // Consult the guard before each fetch
	MaxMemoryMB        int64         // Heap ceiling of this process in MB, 0 disables
	SystemMemThreshold float64       // Fraction of system memory in use that blocks fetches (0.9 = 90%), 0 disables
	SampleInterval     time.Duration // Minimum time between two system memory samples
}

// DefaultResourceLimiterConfig returns default configuration
func DefaultResourceLimiterConfig() ResourceLimiterConfig {
	return ResourceLimiterConfig{
		Enabled:            false,
		MaxMemoryMB:        1024,
		SystemMemThreshold: 0.9,
		SampleInterval:     time.Second,
	}
}
