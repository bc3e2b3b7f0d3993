package config

// HTTPConfig holds transport settings of the shared client.
// Timeout, TLS verification, user agent and retry count live in ScanConfig.
type HTTPConfig struct {
	FollowRedirects bool              `json:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects    int               `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"omitempty,min=1,max=50"`
	Proxy           string            `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	CustomHeaders   map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
	EnableHTTP2     bool              `json:"enable_http2" yaml:"enable_http2"`
	// Retry backoff in milliseconds
	RetryBaseDelayMs int  `json:"retry_base_delay_ms,omitempty" yaml:"retry_base_delay_ms,omitempty" validate:"omitempty,min=1"`
	RetryMaxDelayMs  int  `json:"retry_max_delay_ms,omitempty" yaml:"retry_max_delay_ms,omitempty" validate:"omitempty,min=1"`
	RetryJitter      bool `json:"retry_jitter" yaml:"retry_jitter"`
}

// NewDefaultHTTPConfig creates default HTTP configuration
func NewDefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		FollowRedirects:  true,
		MaxRedirects:     DefaultHTTPMaxRedirects,
		EnableHTTP2:      true,
		RetryBaseDelayMs: DefaultHTTPRetryBaseDelay,
		RetryMaxDelayMs:  DefaultHTTPRetryMaxDelay,
		RetryJitter:      true,
	}
}
