// Package discovery finds the JavaScript resources of an origin: script tags
// and inline scripts of the entry document, then dynamic imports and webpack
// chunks referenced from fetched scripts.
package discovery

import (
	"net/url"
	"path"
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/urlhandler"
	"github.com/rs/zerolog"
)

var scriptExtensions = []string{".js", ".mjs", ".cjs"}

// Extractor turns documents and scripts into in-scope resource refs. It is
// stateless and safe for concurrent use.
type Extractor struct {
	scope  *Scope
	logger zerolog.Logger
}

// NewExtractor creates an extractor filtering through scope.
func NewExtractor(scope *Scope, logger zerolog.Logger) *Extractor {
	return &Extractor{
		scope:  scope,
		logger: logger.With().Str("component", "Extractor").Logger(),
	}
}

// collector deduplicates refs of a single extraction, keeping first-seen order.
type collector struct {
	seen map[string]struct{}
	refs []models.ResourceRef
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{})}
}

// accept resolves raw against base and keeps it when it passes every filter.
func (e *Extractor) accept(c *collector, raw string, base *url.URL, source models.DiscoverySource) {
	if urlhandler.Skippable(raw) {
		return
	}
	absoluteURL, err := urlhandler.ResolveURL(raw, base)
	if err != nil {
		e.logger.Debug().Str("ref", truncate(raw, 120)).Err(err).Msg("Discarding unresolvable reference")
		return
	}
	if source != models.SourceDynamic && !HasScriptExtension(absoluteURL) {
		return
	}
	if _, dup := c.seen[absoluteURL]; dup {
		return
	}
	if e.scope != nil {
		if ok, reason := e.scope.Allows(absoluteURL); !ok {
			e.logger.Debug().Str("url", absoluteURL).Str("reason", reason).Msg("Reference out of scope")
			return
		}
	}
	c.seen[absoluteURL] = struct{}{}
	c.refs = append(c.refs, models.ResourceRef{URL: absoluteURL, Source: source})
}

// HasScriptExtension reports whether the URL path ends in .js, .mjs or .cjs.
func HasScriptExtension(rawURL string) bool {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsedURL.Path))
	for _, candidate := range scriptExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
