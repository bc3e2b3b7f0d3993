package rslimiter

import (
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limiterWith(config ResourceLimiterConfig, usage ResourceUsage) (*ResourceLimiter, *int) {
	rl := NewResourceLimiter(config, zerolog.Nop())
	calls := 0
	var mu sync.Mutex
	rl.sample = func() ResourceUsage {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return usage
	}
	return rl, &calls
}

func TestResourceLimiter_Disabled(t *testing.T) {
	var nilLimiter *ResourceLimiter
	assert.NoError(t, nilLimiter.Check())

	config := DefaultResourceLimiterConfig()
	rl, calls := limiterWith(config, ResourceUsage{HeapMB: 1 << 20, SystemUsedPercent: 100})
	assert.NoError(t, rl.Check())
	assert.Zero(t, *calls)
}

func TestResourceLimiter_Check(t *testing.T) {
	tests := []struct {
		name    string
		usage   ResourceUsage
		wantErr bool
	}{
		{name: "within limits", usage: ResourceUsage{HeapMB: 100, SystemUsedPercent: 40}},
		{name: "heap over limit", usage: ResourceUsage{HeapMB: 2048, SystemUsedPercent: 40}, wantErr: true},
		{name: "system memory over threshold", usage: ResourceUsage{HeapMB: 10, SystemUsedPercent: 95}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultResourceLimiterConfig()
			config.Enabled = true
			rl, _ := limiterWith(config, tt.usage)

			err := rl.Check()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrResourceLimit)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResourceLimiter_SamplesAreCached(t *testing.T) {
	config := DefaultResourceLimiterConfig()
	config.Enabled = true
	config.SampleInterval = time.Hour
	rl, calls := limiterWith(config, ResourceUsage{HeapMB: 1})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rl.Check())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, *calls)
}

func TestSampleUsage(t *testing.T) {
	usage := SampleUsage()
	assert.Positive(t, usage.Goroutines)
	assert.GreaterOrEqual(t, usage.RuntimeSysMB, usage.HeapMB)
}
