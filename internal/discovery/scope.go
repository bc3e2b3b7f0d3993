package discovery

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/urlhandler"
	"github.com/rs/zerolog"
)

// thirdPartyMarkers are substrings of analytics, ads and chat widget script
// URLs that never belong to the target application.
var thirdPartyMarkers = []string{
	"google-analytics", "googletagmanager", "facebook.net", "doubleclick.net",
	"googlesyndication", "scorecardresearch", "amazon-adsystem", "adsystem.amazon",
	"googletag", "analytics.js", "gtag.js", "fbevents.js", "hotjar", "intercom",
	"zendesk", "drift.com", "crisp.chat", "mouseflow", "fullstory", "mixpanel",
	"segment.com", "amplitude.com", "heap.io", "pendo.io", "livechat", "zopim",
	"olark.com", "salesforce.com", "pardot.com", "marketo.com", "eloqua.com",
	"adobe.com", "omniture.com", "chartbeat.com", "quantserve.com", "outbrain.com",
	"taboola.com", "addthis.com", "sharethis.com", "disqus.com", "gravatar.com",
}

// ScopeSettings controls which resolved script URLs discovery keeps.
type ScopeSettings struct {
	AllowedDomains     []string
	ExcludeDomains     []string
	ExcludeThirdParty  bool
	ExcludeURLPatterns []string
}

// Scope is the compiled form of ScopeSettings.
type Scope struct {
	allowed           []string
	excluded          []string
	excludeThirdParty bool
	excludePatterns   []*regexp.Regexp
	logger            zerolog.Logger
}

// NewScope compiles settings. An invalid exclude pattern is an error.
func NewScope(settings ScopeSettings, logger zerolog.Logger) (*Scope, error) {
	normalize := func(items []string) []string {
		normalized := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
				normalized = append(normalized, item)
			}
		}
		return normalized
	}

	scope := &Scope{
		allowed:           normalize(settings.AllowedDomains),
		excluded:          normalize(settings.ExcludeDomains),
		excludeThirdParty: settings.ExcludeThirdParty,
		logger:            logger.With().Str("component", "Scope").Logger(),
	}
	for _, pattern := range settings.ExcludeURLPatterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude URL pattern %q: %w", pattern, err)
		}
		scope.excludePatterns = append(scope.excludePatterns, re)
	}
	return scope, nil
}

// Allows reports whether an absolute URL is in scope and, if not, why.
func (s *Scope) Allows(absoluteURL string) (bool, string) {
	parsedURL, err := url.Parse(absoluteURL)
	if err != nil {
		return false, "unparsable"
	}
	host := strings.ToLower(parsedURL.Hostname())
	if host == "" {
		return false, "no host"
	}

	if len(s.allowed) > 0 && !urlhandler.HostMatchesAny(host, s.allowed) {
		return false, "host not allowed"
	}
	if urlhandler.HostMatchesAny(host, s.excluded) {
		return false, "host excluded"
	}
	if s.excludeThirdParty {
		lower := strings.ToLower(absoluteURL)
		for _, marker := range thirdPartyMarkers {
			if strings.Contains(lower, marker) {
				return false, "third party"
			}
		}
	}
	for _, re := range s.excludePatterns {
		if re.MatchString(absoluteURL) {
			return false, "excluded pattern"
		}
	}
	return true, ""
}
