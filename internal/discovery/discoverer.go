package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/httpclient"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/rs/zerolog"
)

// Entry is the fetched entry document of a scan.
type Entry struct {
	// Origin is the origin actually reached, after any http fallback.
	Origin models.Origin
	// URL is the final document URL after redirects.
	URL  string
	Page Page
}

// InlineRef is the pseudo-resource carrying the inline scripts of the entry.
func (e *Entry) InlineRef() models.ResourceRef {
	return models.ResourceRef{URL: e.URL + "#inline", Source: models.SourceInline}
}

// Discoverer fetches the entry document and extracts its script refs.
type Discoverer struct {
	client    *httpclient.HTTPClient
	extractor *Extractor
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewDiscoverer creates a discoverer. A zero timeout leaves the client's own.
func NewDiscoverer(client *httpclient.HTTPClient, extractor *Extractor, timeout time.Duration, logger zerolog.Logger) *Discoverer {
	return &Discoverer{
		client:    client,
		extractor: extractor,
		timeout:   timeout,
		logger:    logger.With().Str("component", "Discoverer").Logger(),
	}
}

// Extractor returns the discoverer's extractor.
func (d *Discoverer) Extractor() *Extractor {
	return d.extractor
}

// Entry fetches the origin's entry document once. When https was assumed
// and the fetch fails below HTTP, it is retried once over http.
func (d *Discoverer) Entry(ctx context.Context, origin models.Origin) (*Entry, error) {
	result, err := d.fetch(ctx, origin.EntryURL())
	if err != nil && origin.ImplicitScheme && transportFailure(ctx, err) {
		fallback := origin.WithScheme("http")
		d.logger.Info().
			Str("origin", origin.String()).
			Err(err).
			Msg("HTTPS entry fetch failed, retrying over HTTP")
		origin = fallback
		result, err = d.fetch(ctx, origin.EntryURL())
	}
	if err != nil {
		return nil, err
	}

	finalURL := result.FinalURL
	if finalURL == "" {
		finalURL = result.URL
	}
	base, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("invalid entry URL %q: %w", finalURL, err)
	}

	entry := &Entry{
		Origin: origin,
		URL:    finalURL,
		Page:   d.extractor.ExtractFromHTML(result.Body, base),
	}
	d.logger.Info().
		Str("entry", entry.URL).
		Int("scripts", len(entry.Page.Scripts)).
		Bool("inline", entry.Page.Inline != "").
		Msg("Entry document processed")
	return entry, nil
}

func (d *Discoverer) fetch(ctx context.Context, rawURL string) (*httpclient.FetchResult, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.client.Fetch(ctx, rawURL)
}

// transportFailure reports whether err happened before an HTTP response was
// read, while the caller's context is still live.
func transportFailure(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var httpErr *common.HTTPError
	if errors.As(err, &httpErr) || errors.Is(err, common.ErrTooLarge) {
		return false
	}
	return true
}
