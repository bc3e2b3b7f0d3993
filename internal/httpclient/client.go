// Package httpclient is the pooled HTTP client shared by every fetch of a scan.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPClient wraps net/http.Client with pooling, retries and a body ceiling.
// It is safe for concurrent use.
type HTTPClient struct {
	client       *http.Client
	config       HTTPClientConfig
	logger       zerolog.Logger
	retryHandler *RetryHandler
	bufferPool   sync.Pool
}

// NewHTTPClient builds the transport, redirect policy and retry handler from
// config. Only an unparsable proxy URL is an error.
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	logger = logger.With().Str("component", "HTTPClient").Logger()

	transport, err := newTransport(config, logger)
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		client: &http.Client{
			Transport:     transport,
			Timeout:       config.Timeout,
			CheckRedirect: redirectPolicy(config),
		},
		config: config,
		logger: logger,
	}
	c.bufferPool.New = func() any {
		b := make([]byte, 0, 32*1024)
		return &b
	}
	if config.Retry.MaxRetries > 0 {
		c.retryHandler = NewRetryHandler(config.Retry, logger)
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("insecure", config.InsecureSkipVerify).
		Bool("follow_redirects", config.FollowRedirects).
		Int("max_retries", config.Retry.MaxRetries).
		Int64("max_content_size", config.MaxContentSize).
		Msg("HTTP client ready")
	return c, nil
}

func newTransport(config HTTPClientConfig, logger zerolog.Logger) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: config.DialTimeout, KeepAlive: config.KeepAlive}
	t := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: config.InsecureSkipVerify},
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
	}

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, common.WrapErrorf(err, "invalid proxy %q", config.Proxy)
		}
		t.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", proxyURL.Redacted()).Msg("Routing requests through proxy")
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			logger.Warn().Err(err).Msg("HTTP/2 unavailable, using HTTP/1.1")
		}
	}
	return t, nil
}

// redirectPolicy returns nil (net/http's own limit of 10) when following
// without an explicit MaxRedirects.
func redirectPolicy(config HTTPClientConfig) func(*http.Request, []*http.Request) error {
	switch {
	case !config.FollowRedirects:
		return func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	case config.MaxRedirects > 0:
		limit := config.MaxRedirects
		return func(_ *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	default:
		return nil
	}
}

// Config returns the client's configuration.
func (c *HTTPClient) Config() HTTPClientConfig {
	return c.config
}

// Fetch GETs rawURL and returns the whole body. Non-2xx responses yield an
// *common.HTTPError alongside the result; bodies above MaxContentSize yield
// common.ErrTooLarge and are never returned partially.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	start := time.Now()
	var result *FetchResult
	err := c.withRetry(ctx, rawURL, func() error {
		var err error
		result, err = c.fetchOnce(ctx, rawURL)
		return err
	})
	if result != nil {
		result.Duration = time.Since(start)
	}
	return result, err
}

func (c *HTTPClient) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, common.WrapError(err, "failed to create HTTP request")
	}
	c.applyHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, common.NewNetworkError(rawURL, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().Str("url", rawURL).Int("status_code", resp.StatusCode).Msg("Received non-OK HTTP status")
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return result, common.NewHTTPErrorWithURL(resp.StatusCode, http.StatusText(resp.StatusCode), rawURL)
	}

	body, err := c.readBody(resp, rawURL)
	if err != nil {
		return result, err
	}
	result.Body = body

	c.logger.Debug().
		Str("url", rawURL).
		Int("content_size", len(body)).
		Str("content_type", result.ContentType).
		Msg("Successfully fetched content")
	return result, nil
}

// readBody streams the body through a pooled buffer, enforcing MaxContentSize
// from Content-Length first and then from the bytes actually read.
func (c *HTTPClient) readBody(resp *http.Response, rawURL string) ([]byte, error) {
	limit := c.config.MaxContentSize
	if limit > 0 && resp.ContentLength > limit {
		return nil, common.WrapErrorf(common.ErrTooLarge, "%s declares %d bytes", rawURL, resp.ContentLength)
	}

	bufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufPtr)
	buf := bytes.NewBuffer((*bufPtr)[:0])

	var reader io.Reader = resp.Body
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	n, err := io.Copy(buf, reader)
	if err != nil {
		return nil, common.NewNetworkError(rawURL, "failed to read response body", err)
	}
	if limit > 0 && n > limit {
		return nil, common.WrapErrorf(common.ErrTooLarge, "%s exceeds %d bytes", rawURL, limit)
	}

	body := make([]byte, buf.Len())
	copy(body, buf.Bytes())
	return body, nil
}

func (c *HTTPClient) applyHeaders(httpReq *http.Request) {
	for key, value := range c.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "*/*")
	}
}

func (c *HTTPClient) withRetry(ctx context.Context, rawURL string, op func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.retryHandler == nil {
		return op()
	}
	return c.retryHandler.DoWithRetry(ctx, rawURL, op)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, common.ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
