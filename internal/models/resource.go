package models

import "time"

// DiscoverySource records how a resource reference was found.
type DiscoverySource string

const (
	SourceStatic       DiscoverySource = "static"
	SourceDynamic      DiscoverySource = "dynamic"
	SourceWebpackChunk DiscoverySource = "webpack-chunk"
	SourceInline       DiscoverySource = "inline"
)

// ResourceRef is a discovered JavaScript URL, absolute-resolved against the origin.
type ResourceRef struct {
	URL    string          `json:"url"`
	Source DiscoverySource `json:"source"`
	// Order is the first-seen position in the discovery sequence. The inline
	// pseudo-resource uses 0, fetched resources start at 1.
	Order int `json:"order"`
	Depth int `json:"depth"`
}

// FetchStatus is the outcome of fetching one resource.
type FetchStatus string

const (
	FetchSuccess    FetchStatus = "success"
	FetchHTTPStatus FetchStatus = "http_status"
	FetchTimedOut   FetchStatus = "timed_out"
	FetchTooLarge   FetchStatus = "too_large"
	FetchError      FetchStatus = "error"
)

// FetchOutcome describes how a fetch ended.
type FetchOutcome struct {
	Status     FetchStatus   `json:"status"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Succeeded is true only for a fully read 2xx body.
func (o FetchOutcome) Succeeded() bool {
	return o.Status == FetchSuccess
}

// ResourceOutcome pairs an attempted resource with its fetch outcome.
type ResourceOutcome struct {
	Ref       ResourceRef  `json:"ref"`
	Outcome   FetchOutcome `json:"outcome"`
	RawLength int          `json:"raw_length"`
}

// Segment is a piece of scan material. Segment 0 is the decoded resource
// text; later segments are decoded side material (base64, percent runs)
// located at Offset in segment 0.
type Segment struct {
	Index    int    `json:"index"`
	Offset   int    `json:"offset"`
	Encoding string `json:"encoding"`
	Text     string `json:"-"`
}

// FetchedContent is a fetched, decoded resource. It lives only until its
// matches have been produced.
type FetchedContent struct {
	Ref       ResourceRef
	RawLength int
	Segments  []Segment
	Outcome   FetchOutcome
}
