package httpclient

import "time"

// FetchResult is a fully read GET body.
type FetchResult struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}
