package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(maxRetries int) RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestRetryHandler_NetworkErrorsAreRetried(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) <= 2 {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
				}
			}
			return
		}
		_, _ = w.Write([]byte("console.log(1)"))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetry(fastRetry(3)).Build()
	require.NoError(t, err)

	result, err := client.Fetch(context.Background(), server.URL+"/app.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(result.Body))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&requestCount), int32(3))
}

func TestRetryHandler_StatusCodesAreFinal(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetry(fastRetry(2)).Build()
	require.NoError(t, err)

	result, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))

	var httpErr *common.HTTPError
	require.ErrorAs(t, err, &httpErr)
}

func TestRetryHandler_ShouldRetry(t *testing.T) {
	rh := NewRetryHandler(fastRetry(2), zerolog.Nop())
	netErr := common.NewNetworkError("https://example.org", "connection reset", errors.New("reset"))

	assert.True(t, rh.ShouldRetry(netErr, 0))
	assert.True(t, rh.ShouldRetry(netErr, 1))
	assert.False(t, rh.ShouldRetry(netErr, 2))
	assert.False(t, rh.ShouldRetry(nil, 0))
	assert.False(t, rh.ShouldRetry(common.NewHTTPErrorWithURL(500, "boom", "u"), 0))
	assert.False(t, rh.ShouldRetry(common.WrapError(common.ErrTooLarge, "big"), 0))
	assert.False(t, rh.ShouldRetry(common.NewNetworkError("u", "deadline", context.DeadlineExceeded), 0))
}

func TestRetryHandler_CalculateDelay(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{BaseDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond}, zerolog.Nop())
	assert.Equal(t, 10*time.Millisecond, rh.CalculateDelay(0))
	assert.Equal(t, 20*time.Millisecond, rh.CalculateDelay(1))
	assert.Equal(t, 40*time.Millisecond, rh.CalculateDelay(2))
	assert.Equal(t, 100*time.Millisecond, rh.CalculateDelay(5))

	jittered := NewRetryHandler(RetryHandlerConfig{BaseDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond, EnableJitter: true}, zerolog.Nop())
	d := jittered.CalculateDelay(2)
	assert.GreaterOrEqual(t, d, 40*time.Millisecond)
	assert.Less(t, d, 44*time.Millisecond)
}

func TestRetryHandler_StopsOnCancel(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := rh.DoWithRetry(ctx, "https://example.org", func() error {
		calls++
		cancel()
		return common.NewNetworkError("https://example.org", "reset", errors.New("reset"))
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
