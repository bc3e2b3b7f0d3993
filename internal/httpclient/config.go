package httpclient

import "time"

// DefaultMaxContentSize is the streaming ceiling for a single body (10 MB).
const DefaultMaxContentSize int64 = 10 * 1024 * 1024

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPClientConfig configures the one client shared by every fetch of a scan.
type HTTPClientConfig struct {
	// Request behaviour.
	Timeout         time.Duration // whole request, body included
	FollowRedirects bool
	MaxRedirects    int
	UserAgent       string
	CustomHeaders   map[string]string
	MaxContentSize  int64 // 0 disables the ceiling
	Retry           RetryHandlerConfig

	// Transport. Proxy accepts http, https and socks5 URLs.
	Proxy              string
	InsecureSkipVerify bool
	EnableHTTP2        bool

	// Connection pool sized for one origin plus a handful of CDNs.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	KeepAlive           time.Duration

	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
}

func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:         20 * time.Second,
		FollowRedirects: true,
		MaxRedirects:    10,
		UserAgent:       defaultUserAgent,
		CustomHeaders: map[string]string{
			"Accept":          "*/*",
			"Accept-Language": "en-US,en;q=0.9",
		},
		MaxContentSize: DefaultMaxContentSize,
		Retry:          DefaultRetryHandlerConfig(),

		InsecureSkipVerify: true,
		EnableHTTP2:        true,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,
		KeepAlive:           30 * time.Second,

		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
