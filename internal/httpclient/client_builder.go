package httpclient

import (
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/rs/zerolog"
)

// HTTPClientBuilder builds an HTTPClient starting from DefaultHTTPClientConfig.
type HTTPClientBuilder struct {
	config HTTPClientConfig
	logger zerolog.Logger
}

func NewHTTPClientBuilder(logger zerolog.Logger) *HTTPClientBuilder {
	return &HTTPClientBuilder{
		config: DefaultHTTPClientConfig(),
		logger: logger,
	}
}

// WithConfig replaces the whole configuration.
func (b *HTTPClientBuilder) WithConfig(config HTTPClientConfig) *HTTPClientBuilder {
	b.config = config
	return b
}

func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.config.Timeout = timeout
	return b
}

// WithFollowRedirects toggles redirects; max bounds the chain when following.
func (b *HTTPClientBuilder) WithFollowRedirects(follow bool) *HTTPClientBuilder {
	b.config.FollowRedirects = follow
	return b
}

func (b *HTTPClientBuilder) WithMaxRedirects(max int) *HTTPClientBuilder {
	b.config.MaxRedirects = max
	return b
}

func (b *HTTPClientBuilder) WithUserAgent(userAgent string) *HTTPClientBuilder {
	b.config.UserAgent = userAgent
	return b
}

// WithMaxContentSize sets the body ceiling in bytes, 0 for none.
func (b *HTTPClientBuilder) WithMaxContentSize(size int64) *HTTPClientBuilder {
	b.config.MaxContentSize = size
	return b
}

// WithCustomHeaders merges headers over the defaults.
func (b *HTTPClientBuilder) WithCustomHeaders(headers map[string]string) *HTTPClientBuilder {
	merged := make(map[string]string, len(b.config.CustomHeaders)+len(headers))
	for k, v := range b.config.CustomHeaders {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}
	b.config.CustomHeaders = merged
	return b
}

func (b *HTTPClientBuilder) WithRetry(config RetryHandlerConfig) *HTTPClientBuilder {
	b.config.Retry = config
	return b
}

// WithMaxRetries sets only the retry budget, keeping the backoff settings.
func (b *HTTPClientBuilder) WithMaxRetries(n int) *HTTPClientBuilder {
	b.config.Retry.MaxRetries = n
	return b
}

// Build rejects negative limits before constructing the client.
func (b *HTTPClientBuilder) Build() (*HTTPClient, error) {
	switch {
	case b.config.Timeout < 0:
		return nil, common.NewValidationError("timeout", b.config.Timeout, "must not be negative")
	case b.config.MaxContentSize < 0:
		return nil, common.NewValidationError("max_content_size", b.config.MaxContentSize, "must not be negative")
	case b.config.Retry.MaxRetries < 0:
		return nil, common.NewValidationError("max_retries", b.config.Retry.MaxRetries, "must not be negative")
	}
	return NewHTTPClient(b.config, b.logger)
}
