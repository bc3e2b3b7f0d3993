// Package scanner runs one scan of an origin: entry discovery, the
// breadth-first fetch of script resources, and aggregation of findings into
// a ScanResult.
package scanner

import (
	"context"
	"sort"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/aggregator"
	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/config"
	"github.com/aleister1102/jssecretscanner/internal/decoder"
	"github.com/aleister1102/jssecretscanner/internal/discovery"
	"github.com/aleister1102/jssecretscanner/internal/engine"
	"github.com/aleister1102/jssecretscanner/internal/fetcher"
	"github.com/aleister1102/jssecretscanner/internal/httpclient"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/patterns"
	"github.com/aleister1102/jssecretscanner/internal/rslimiter"
	"github.com/aleister1102/jssecretscanner/internal/secretscanner"
	"github.com/aleister1102/jssecretscanner/internal/urlhandler"
	"github.com/rs/zerolog"
)

// HistoryRecorder tracks scans as they start and finish.
type HistoryRecorder interface {
	StartScan(ctx context.Context, origin models.Origin, startedAt time.Time) (int64, error)
	CompleteScan(ctx context.Context, id int64, result *models.ScanResult, scanErr error) error
}

// FindingsSink archives the findings of a successful scan.
type FindingsSink interface {
	StoreFindings(ctx context.Context, result *models.ScanResult) (string, error)
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithPostFilter appends a caller-supplied final filter stage.
func WithPostFilter(filter engine.PostFilter) Option {
	return func(s *Scanner) {
		s.postFilters = append(s.postFilters, filter)
	}
}

// WithHistory records every scan in recorder. Recording failures are logged
// and never fail the scan.
func WithHistory(recorder HistoryRecorder) Option {
	return func(s *Scanner) {
		s.history = recorder
	}
}

// WithFindingsSink archives findings of successful scans to sink.
func WithFindingsSink(sink FindingsSink) Option {
	return func(s *Scanner) {
		s.sink = sink
	}
}

// Scanner is built once from a validated configuration and may run any
// number of sequential or concurrent scans.
type Scanner struct {
	config      *config.GlobalConfig
	catalog     *patterns.Catalog
	discoverer  *discovery.Discoverer
	pool        *fetcher.Pool
	limiter     *rslimiter.ResourceLimiter
	postFilters []engine.PostFilter
	history     HistoryRecorder
	sink        FindingsSink
	logger      zerolog.Logger
}

// New validates cfg and wires the scan components. A nil catalog means the
// built-in one. Every error is a config_error ScanError.
func New(cfg *config.GlobalConfig, catalog *patterns.Catalog, logger zerolog.Logger, opts ...Option) (*Scanner, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, common.NewScanError(common.KindConfig, "invalid configuration", err)
	}

	if catalog == nil {
		var err error
		if catalog, err = patterns.LoadDefault(); err != nil {
			return nil, common.NewScanError(common.KindConfig, "failed to load built-in patterns", err)
		}
	}

	s := &Scanner{
		config: cfg,
		logger: logger.With().Str("module", "Scanner").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	builder := NewConfigBuilder(cfg, logger)
	catalog, err := builder.BuildCatalog(catalog)
	if err != nil {
		return nil, common.NewScanError(common.KindConfig, "failed to build pattern catalog", err)
	}
	s.catalog = catalog

	scope, err := discovery.NewScope(builder.BuildScopeSettings(), logger)
	if err != nil {
		return nil, common.NewScanError(common.KindConfig, "invalid scope", err)
	}
	client, err := httpclient.NewHTTPClientBuilder(logger).WithConfig(builder.BuildHTTPClientConfig()).Build()
	if err != nil {
		return nil, common.NewScanError(common.KindConfig, "failed to create HTTP client", err)
	}

	postFilters := s.postFilters
	if cfg.ScanConfig.SameSiteOnly {
		postFilters = append([]engine.PostFilter{engine.NewSameSiteFilter()}, postFilters...)
	}
	eng := engine.New(catalog, builder.BuildThresholds(), logger, postFilters...)
	if cfg.ScanConfig.Gitleaks {
		detector, err := secretscanner.NewDetector(cfg.ScanConfig.MaxFileSizeMB, logger)
		if err != nil {
			return nil, common.NewScanError(common.KindConfig, "failed to load gitleaks rules", err)
		}
		eng = eng.WithMatchers(detector)
	}
	extractor := discovery.NewExtractor(scope, logger)

	s.limiter = rslimiter.NewResourceLimiter(builder.BuildLimiterConfig(), logger)
	s.discoverer = discovery.NewDiscoverer(client, extractor, cfg.ScanConfig.RequestTimeout(), logger)
	s.pool = fetcher.NewPool(
		client,
		decoder.New(builder.BuildDecoderOptions()),
		eng,
		extractor,
		s.limiter,
		builder.BuildPoolConfig(),
		logger,
	)

	s.logger.Debug().
		Int("categories", len(catalog.Names())).
		Int("rules", catalog.RuleCount()).
		Int("post_filters", len(postFilters)).
		Msg("Scanner initialized")
	return s, nil
}

// Catalog returns the effective pattern catalog.
func (s *Scanner) Catalog() *patterns.Catalog {
	return s.catalog
}

// Scan discovers, fetches and analyzes the scripts of target. On failure the
// result is nil and the error is a *common.ScanError.
func (s *Scanner) Scan(ctx context.Context, target string) (*models.ScanResult, error) {
	startedAt := time.Now()

	origin, err := urlhandler.NormalizeOrigin(target)
	if err != nil {
		return nil, common.NewScanError(common.KindConfig, "invalid target", err)
	}
	if ctx.Err() != nil {
		return nil, common.NewScanError(common.KindCancelled, "scan cancelled", ctx.Err())
	}

	historyID := s.recordStart(ctx, origin, startedAt)

	result, err := s.scan(ctx, origin, startedAt)
	if err == nil {
		s.storeFindings(ctx, result)
	}
	s.recordCompletion(historyID, result, err)

	if err != nil {
		s.logger.Error().Str("origin", origin.String()).Err(err).Msg("Scan failed")
		return nil, err
	}
	s.logger.Info().
		Str("origin", result.Origin.String()).
		Int("resources_attempted", result.ResourcesAttempted).
		Int("resources_succeeded", result.ResourcesSucceeded).
		Int("findings", result.Summary.TotalFindings).
		Int("high_risk", result.Summary.HighRiskCount).
		Dur("execution_time", result.ExecutionTime).
		Msg("Scan completed")
	return result, nil
}

func (s *Scanner) scan(ctx context.Context, origin models.Origin, startedAt time.Time) (*models.ScanResult, error) {
	scanCfg := s.config.ScanConfig

	entry, err := s.discoverer.Entry(ctx, origin)
	if err != nil {
		if ctx.Err() != nil {
			return nil, common.NewScanError(common.KindCancelled, "scan cancelled", ctx.Err())
		}
		return nil, common.NewScanError(common.KindFatalFetch, "entry document unavailable", err)
	}
	origin = entry.Origin

	agg := aggregator.New(s.catalog, s.config.FilterConfig.SimilarityThreshold, s.logger)
	set := discovery.NewResourceSet(scanCfg.MaxResources)
	frontier := discovery.NewFrontier(set, scanCfg.MaxDepth)
	frontier.Expand(0, entry.Page.Scripts)

	var resources []models.ResourceOutcome
	if entry.Page.Inline != "" {
		inline := s.pool.Process(entry.InlineRef(), []byte(entry.Page.Inline), origin)
		agg.Add(inline.Accepted...)
		agg.AddRejections(inline.Rejected)
		resources = append(resources, inline.ResourceOutcome())
	}

	attempted, succeeded := 0, 0
	for level := frontier.Next(); len(level) > 0; level = frontier.Next() {
		results, err := s.runLevel(ctx, level, origin, agg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, common.NewScanError(common.KindCancelled, "scan cancelled", ctx.Err())
			}
			return nil, common.WrapError(err, "fetch pool failed")
		}

		// Children join the set in parent discovery order, never completion order.
		sort.Slice(results, func(i, j int) bool {
			return results[i].Ref.Order < results[j].Ref.Order
		})
		for _, result := range results {
			resources = append(resources, result.ResourceOutcome())
			attempted++
			if !result.Outcome.Succeeded() {
				continue
			}
			succeeded++
			if added := frontier.Expand(result.Ref.Depth, result.Children); added > 0 {
				s.logger.Debug().
					Str("parent", result.Ref.URL).
					Int("added", added).
					Int("total", set.Len()).
					Msg("Queued child resources")
			}
		}
		s.limiter.LogUsage()
	}
	if set.Full() {
		s.logger.Info().Int("max_resources", scanCfg.MaxResources).Msg("Resource cap reached")
	}

	final := agg.Finalize()
	finishedAt := time.Now()
	return &models.ScanResult{
		Origin:             origin,
		StartedAt:          startedAt,
		FinishedAt:         finishedAt,
		ExecutionTime:      finishedAt.Sub(startedAt),
		Success:            true,
		Resources:          resources,
		ResourcesAttempted: attempted,
		ResourcesSucceeded: succeeded,
		Categories:         final.Categories,
		Findings:           final.Findings,
		Summary:            final.Summary,
	}, nil
}

// runLevel fetches one BFS level. Results are consumed here, by a single
// goroutine, as workers complete them.
func (s *Scanner) runLevel(
	ctx context.Context,
	level []models.ResourceRef,
	origin models.Origin,
	agg *aggregator.Aggregator,
) ([]fetcher.ResourceResult, error) {
	results := make(chan fetcher.ResourceResult)
	done := make(chan error, 1)
	go func() {
		done <- s.pool.Run(ctx, level, origin, results)
		close(results)
	}()

	collected := make([]fetcher.ResourceResult, 0, len(level))
	for result := range results {
		agg.Add(result.Accepted...)
		agg.AddRejections(result.Rejected)
		collected = append(collected, result)
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return collected, nil
}

func (s *Scanner) recordStart(ctx context.Context, origin models.Origin, startedAt time.Time) int64 {
	if s.history == nil {
		return 0
	}
	id, err := s.history.StartScan(ctx, origin, startedAt)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record scan start")
		return 0
	}
	return id
}

func (s *Scanner) recordCompletion(id int64, result *models.ScanResult, scanErr error) {
	if s.history == nil || id == 0 {
		return
	}
	// The caller's context may already be cancelled; the row is still closed.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.CompleteScan(ctx, id, result, scanErr); err != nil {
		s.logger.Warn().Err(err).Int64("scan_id", id).Msg("Failed to record scan completion")
	}
}

func (s *Scanner) storeFindings(ctx context.Context, result *models.ScanResult) {
	if s.sink == nil {
		return
	}
	path, err := s.sink.StoreFindings(ctx, result)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to archive findings")
		return
	}
	if path != "" {
		s.logger.Info().Str("path", path).Msg("Findings archived")
	}
}
