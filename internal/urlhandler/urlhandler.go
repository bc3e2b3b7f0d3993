// Package urlhandler normalizes scan targets and discovered script URLs.
package urlhandler

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"golang.org/x/net/publicsuffix"
)

// Regex for cleaning filenames
var (
	unsafeFilenameCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)
	multipleUnderscoresRegex = regexp.MustCompile(`_+`)
)

// MaxURLLength is the longest script URL that is kept.
const MaxURLLength = 800

var (
	ErrEmptyURL          = errors.New("URL is empty or only whitespace")
	ErrMissingHost       = errors.New("URL lacks a valid hostname")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrURLTooLong        = errors.New("URL exceeds maximum length")
)

var skippedPrefixes = []string{"data:", "javascript:", "mailto:", "blob:", "#", "about:", "tel:"}

// NormalizeOrigin turns a bare host or full URL into an Origin. Without a
// scheme, https is assumed and ImplicitScheme is set. Path, query and
// fragment are dropped.
func NormalizeOrigin(target string) (models.Origin, error) {
	trimmed := strings.TrimSpace(target)
	if trimmed == "" {
		return models.Origin{}, ErrEmptyURL
	}

	implicit := false
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + strings.TrimPrefix(trimmed, "//")
		implicit = true
	}

	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return models.Origin{}, fmt.Errorf("could not parse target '%s': %w", target, err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return models.Origin{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, parsedURL.Scheme)
	}
	if parsedURL.Hostname() == "" {
		return models.Origin{}, ErrMissingHost
	}

	return models.Origin{
		Scheme:         scheme,
		Host:           canonicalHost(scheme, parsedURL),
		ImplicitScheme: implicit,
	}, nil
}

// canonicalHost lowercases u's host and drops the port when it is the
// scheme's default, so https://a.com:443 and https://a.com compare equal.
func canonicalHost(scheme string, u *url.URL) string {
	host := strings.ToLower(u.Host)
	port := u.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		host = strings.ToLower(u.Hostname())
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
	}
	return host
}

// NormalizeURL lowercases scheme and host, drops a default port and strips
// the fragment. Only absolute http(s) URLs are accepted.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", ErrEmptyURL
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", trimmedURL, err)
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return "", ErrMissingHost
	}
	parsedURL.Host = canonicalHost(parsedURL.Scheme, parsedURL)
	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""

	finalURL := parsedURL.String()
	if len(finalURL) > MaxURLLength {
		return "", ErrURLTooLong
	}
	return finalURL, nil
}

// Skippable reports whether a reference can never be a fetchable script.
func Skippable(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	if lower == "" {
		return true
	}
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ResolveURL resolves a (possibly relative) reference against base and
// normalizes the result. Protocol-relative references always become https.
func ResolveURL(href string, base *url.URL) (string, error) {
	trimmedHref := strings.TrimSpace(href)
	if trimmedHref == "" {
		return "", ErrEmptyURL
	}
	if strings.HasPrefix(trimmedHref, "//") {
		return NormalizeURL("https:" + trimmedHref)
	}

	if base == nil {
		parsedHref, err := url.Parse(trimmedHref)
		if err != nil {
			return "", fmt.Errorf("error parsing base-less href '%s': %w", trimmedHref, err)
		}
		if !parsedHref.IsAbs() {
			return "", fmt.Errorf("cannot process relative URL '%s' without a base URL", trimmedHref)
		}
		return NormalizeURL(parsedHref.String())
	}

	resolved, err := base.Parse(trimmedHref)
	if err != nil {
		return "", fmt.Errorf("error resolving href '%s' with base '%s': %w", trimmedHref, base.String(), err)
	}
	return NormalizeURL(resolved.String())
}

// Hostname returns the lowercased host of rawURL without its port.
func Hostname(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsedURL.Hostname())
}

// HostMatches reports whether host equals domain or is a subdomain of it.
func HostMatches(host, domain string) bool {
	host = strings.TrimSuffix(strings.ToLower(stripPort(host)), ".")
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "*.")
	domain = strings.TrimPrefix(domain, ".")
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// HostMatchesAny reports whether host matches any of domains.
func HostMatchesAny(host string, domains []string) bool {
	for _, domain := range domains {
		if HostMatches(host, domain) {
			return true
		}
	}
	return false
}

// GetBaseDomain returns the registrable domain (eTLD+1) of hostname, e.g.
// "example.co.uk" for "www.example.co.uk". IPs and single labels are
// returned unchanged.
func GetBaseDomain(hostname string) (string, error) {
	hostname = strings.TrimSuffix(strings.ToLower(stripPort(strings.TrimSpace(hostname))), ".")
	if hostname == "" {
		return "", errors.New("hostname is empty")
	}
	if net.ParseIP(hostname) != nil || !strings.Contains(hostname, ".") {
		return hostname, nil
	}
	return publicsuffix.EffectiveTLDPlusOne(hostname)
}

// SameSite reports whether two hosts share a registrable domain.
func SameSite(a, b string) bool {
	da, err := GetBaseDomain(a)
	if err != nil {
		return false
	}
	db, err := GetBaseDomain(b)
	if err != nil {
		return false
	}
	return da == db
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// SanitizeFilename creates a safe filename string from a URL or any input string.
func SanitizeFilename(input string) string {
	name := input
	if i := strings.Index(name, "://"); i != -1 {
		name = name[i+3:]
	}
	name = unsafeFilenameCharsRegex.ReplaceAllString(name, "_")
	name = multipleUnderscoresRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "sanitized_empty_input"
	}
	return name
}
