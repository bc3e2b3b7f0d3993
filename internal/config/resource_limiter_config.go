package config

// ResourceLimiterConfig holds configuration for the per-fetch memory guard
type ResourceLimiterConfig struct {
	Enabled            bool    `json:"enabled" yaml:"enabled"`
	MaxMemoryMB        int64   `json:"max_memory_mb,omitempty" yaml:"max_memory_mb,omitempty" validate:"omitempty,min=64"`
	SystemMemThreshold float64 `json:"system_mem_threshold,omitempty" yaml:"system_mem_threshold,omitempty" validate:"omitempty,min=0.1,max=1.0"`
	SampleIntervalSecs int     `json:"sample_interval_secs,omitempty" yaml:"sample_interval_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultResourceLimiterConfig creates default resource limiter configuration
func NewDefaultResourceLimiterConfig() ResourceLimiterConfig {
	return ResourceLimiterConfig{
		Enabled:            false,
		MaxMemoryMB:        DefaultLimiterMaxMemoryMB,
		SystemMemThreshold: DefaultLimiterSystemMemThreshold,
		SampleIntervalSecs: DefaultLimiterSampleIntervalSecs,
	}
}
