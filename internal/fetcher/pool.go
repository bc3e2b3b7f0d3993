// Package fetcher runs the bounded worker pool that fetches, decodes and
// analyzes script resources.
package fetcher

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/decoder"
	"github.com/aleister1102/jssecretscanner/internal/discovery"
	"github.com/aleister1102/jssecretscanner/internal/engine"
	"github.com/aleister1102/jssecretscanner/internal/httpclient"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/rslimiter"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Defaults for Config.
const (
	DefaultWorkers = 8
	DefaultTimeout = 20 * time.Second
)

// Config sizes the pool.
type Config struct {
	Workers int
	// Timeout bounds one resource fetch, body included.
	Timeout time.Duration
	// MaxDepth stops child extraction for resources at that depth.
	MaxDepth int
	// SkipHTMLBodies fails fetched resources whose body sniffs as an HTML
	// document, the soft 404 pages some servers return for missing chunks.
	SkipHTMLBodies bool
}

// ErrHTMLBody is the outcome error of a script URL that served HTML.
var ErrHTMLBody = errors.New("html document served for script")

// ResourceResult is what a worker reports for one resource. It never carries
// the body.
type ResourceResult struct {
	Ref       models.ResourceRef
	Outcome   models.FetchOutcome
	RawLength int
	Accepted  []models.Decision
	// Rejected counts rejections by stage name.
	Rejected map[string]int
	// Children are the script refs found in the resource, unresolved against
	// the resource set.
	Children []models.ResourceRef
}

// ResourceOutcome returns the outcome record kept in a scan result.
func (r ResourceResult) ResourceOutcome() models.ResourceOutcome {
	return models.ResourceOutcome{Ref: r.Ref, Outcome: r.Outcome, RawLength: r.RawLength}
}

// Pool fetches resources with a fixed number of workers.
type Pool struct {
	client    *httpclient.HTTPClient
	decoder   *decoder.Decoder
	engine    *engine.Engine
	extractor *discovery.Extractor
	limiter   *rslimiter.ResourceLimiter
	config    Config
	logger    zerolog.Logger
}

// NewPool creates a pool. extractor and limiter may be nil.
func NewPool(
	client *httpclient.HTTPClient,
	dec *decoder.Decoder,
	eng *engine.Engine,
	extractor *discovery.Extractor,
	limiter *rslimiter.ResourceLimiter,
	config Config,
	logger zerolog.Logger,
) *Pool {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Pool{
		client:    client,
		decoder:   dec,
		engine:    eng,
		extractor: extractor,
		limiter:   limiter,
		config:    config,
		logger:    logger.With().Str("component", "FetchPool").Logger(),
	}
}

// Run fetches refs and sends one ResourceResult per ref to results, in
// completion order. It returns when every ref is done or ctx is cancelled;
// results is not closed.
func (p *Pool) Run(ctx context.Context, refs []models.ResourceRef, origin models.Origin, results chan<- ResourceResult) error {
	if len(refs) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan models.ResourceRef)

	g.Go(func() error {
		defer close(jobs)
		for _, ref := range refs {
			select {
			case jobs <- ref:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workers := p.config.Workers
	if workers > len(refs) {
		workers = len(refs)
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for ref := range jobs {
				result := p.fetch(gctx, ref, origin)
				select {
				case results <- result:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// fetch runs one resource through fetch, decode, analysis and child
// extraction. Failures are recorded in the outcome.
func (p *Pool) fetch(ctx context.Context, ref models.ResourceRef, origin models.Origin) ResourceResult {
	result := ResourceResult{Ref: ref}

	if err := p.limiter.Check(); err != nil {
		result.Outcome = models.FetchOutcome{Status: models.FetchError, Error: common.ErrResourceLimit.Error()}
		p.logger.Warn().Str("url", ref.URL).Err(err).Msg("Skipping fetch over resource limit")
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	fetched, err := p.client.Fetch(fetchCtx, ref.URL)
	if err != nil {
		result.Outcome = Classify(err)
		result.Outcome.Duration = time.Since(start)
		p.logger.Debug().
			Str("url", ref.URL).
			Str("status", string(result.Outcome.Status)).
			Err(err).
			Msg("Resource fetch failed")
		return result
	}

	result.Outcome = models.FetchOutcome{
		Status:     models.FetchSuccess,
		StatusCode: fetched.StatusCode,
		Duration:   fetched.Duration,
	}
	if p.config.SkipHTMLBodies && mimetype.Detect(fetched.Body).Is("text/html") {
		result.Outcome.Status = models.FetchError
		result.Outcome.Error = ErrHTMLBody.Error()
		result.RawLength = len(fetched.Body)
		p.logger.Debug().Str("url", ref.URL).Int("status_code", fetched.StatusCode).Msg("Skipping HTML body")
		return result
	}
	p.process(&result, fetched.Body, origin, fetched.FinalURL)
	return result
}

// Process analyzes an already available body, such as the inline scripts of
// the entry document. Children are not extracted.
func (p *Pool) Process(ref models.ResourceRef, body []byte, origin models.Origin) ResourceResult {
	result := ResourceResult{
		Ref:     ref,
		Outcome: models.FetchOutcome{Status: models.FetchSuccess},
	}
	p.process(&result, body, origin, "")
	return result
}

func (p *Pool) process(result *ResourceResult, body []byte, origin models.Origin, finalURL string) {
	content := models.FetchedContent{
		Ref:       result.Ref,
		RawLength: len(body),
		Segments:  p.decoder.Decode(body),
		Outcome:   result.Outcome,
	}
	analysis := p.engine.Analyze(content, origin)

	result.RawLength = content.RawLength
	result.Accepted = analysis.Accepted
	result.Rejected = analysis.Rejected

	if finalURL == "" || p.extractor == nil || result.Ref.Depth+1 > p.config.MaxDepth {
		return
	}
	base, err := url.Parse(finalURL)
	if err != nil {
		p.logger.Warn().Str("url", finalURL).Err(err).Msg("Skipping child extraction")
		return
	}
	result.Children = p.extractor.ExtractFromScript(string(body), base)
}

// Classify maps a fetch error to an outcome.
func Classify(err error) models.FetchOutcome {
	var httpErr *common.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return models.FetchOutcome{Status: models.FetchHTTPStatus, StatusCode: httpErr.StatusCode, Error: httpErr.Error()}
	case errors.Is(err, common.ErrTooLarge):
		return models.FetchOutcome{Status: models.FetchTooLarge, Error: err.Error()}
	case errors.Is(err, common.ErrResourceLimit):
		return models.FetchOutcome{Status: models.FetchError, Error: common.ErrResourceLimit.Error()}
	case httpclient.IsTimeout(err):
		return models.FetchOutcome{Status: models.FetchTimedOut, Error: err.Error()}
	default:
		return models.FetchOutcome{Status: models.FetchError, Error: err.Error()}
	}
}
