package discovery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/models"
)

var (
	dynamicImportRegex = regexp.MustCompile("(?:\\bimport|\\brequire|\\bloadScript)\\s*\\(\\s*[\"'`]([^\"'`\\s]{1,800})[\"'`]\\s*[,)]")
	jsLiteralRegex     = regexp.MustCompile(`(?i)["']([^"'\s<>(){}]*\.[mc]?js(?:\?[^"'\s<>]*)?)["']`)
)

// dynamicPrefixes are the specifier forms fetched without an extension check.
// Bare module names ("react") are never URLs.
var dynamicPrefixes = []string{"/", "./", "../", "http://", "https://"}

// ExtractFromScript returns the script refs referenced by JavaScript text:
// dynamic imports, webpack chunks and quoted .js literals.
func (e *Extractor) ExtractFromScript(text string, base *url.URL) []models.ResourceRef {
	c := newCollector()
	e.scanScript(c, text, base)
	e.scanLiterals(c, text, base)
	return c.refs
}

// scanScript collects the code-level references of a script.
func (e *Extractor) scanScript(c *collector, text string, base *url.URL) {
	for _, m := range dynamicImportRegex.FindAllStringSubmatch(text, -1) {
		specifier := m[1]
		if !isURLSpecifier(specifier) {
			continue
		}
		e.accept(c, specifier, base, models.SourceDynamic)
	}

	chunkBase := base
	if publicPath := findPublicPath(text); publicPath != "" {
		if resolved, err := resolveBase(publicPath, base); err == nil {
			chunkBase = resolved
		}
	}
	for _, name := range webpackChunkNames(text) {
		e.accept(c, name, chunkBase, models.SourceWebpackChunk)
	}

	for _, found := range e.jsluiceRefs(text) {
		e.accept(c, found, base, models.SourceStatic)
	}
}

// scanLiterals collects quoted .js literals.
func (e *Extractor) scanLiterals(c *collector, text string, base *url.URL) {
	for _, m := range jsLiteralRegex.FindAllStringSubmatch(text, -1) {
		literal := m[1]
		if suffixOnly(literal) {
			continue
		}
		e.accept(c, literal, base, models.SourceStatic)
	}
}

// suffixOnly matches ".chunk.js" style suffixes of concatenated names.
func suffixOnly(ref string) bool {
	return strings.HasPrefix(ref, ".") && !strings.HasPrefix(ref, "./") && !strings.HasPrefix(ref, "../")
}

func isURLSpecifier(specifier string) bool {
	lower := strings.ToLower(specifier)
	if strings.HasPrefix(lower, "//") {
		return true
	}
	for _, prefix := range dynamicPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// resolveBase resolves a public path against base and returns it as a
// directory URL.
func resolveBase(publicPath string, base *url.URL) (*url.URL, error) {
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	if strings.HasPrefix(publicPath, "//") {
		publicPath = "https:" + publicPath
	}
	ref, err := url.Parse(publicPath)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return ref, nil
	}
	return base.ResolveReference(ref), nil
}
