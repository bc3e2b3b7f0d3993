package discovery

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/jssecretscanner/internal/models"
)

// Page is what discovery keeps from the entry document.
type Page struct {
	// Scripts are the in-scope script refs in discovery order.
	Scripts []models.ResourceRef
	// Inline is the text of every inline script, newline separated.
	Inline string
}

// ExtractFromHTML returns the script refs of an HTML document: script tags in
// document order, then references found in inline scripts, then quoted .js
// literals anywhere in the document.
func (e *Extractor) ExtractFromHTML(doc []byte, base *url.URL) Page {
	c := newCollector()
	var inline strings.Builder

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to parse HTML, falling back to literal scan")
	} else {
		parsed.Find("script").Each(func(_ int, s *goquery.Selection) {
			if src, ok := s.Attr("src"); ok {
				e.accept(c, src, base, models.SourceStatic)
				return
			}
			text := s.Text()
			if strings.TrimSpace(text) == "" {
				return
			}
			inline.WriteString(text)
			inline.WriteByte('\n')
		})
	}

	page := Page{Inline: inline.String()}
	if page.Inline != "" {
		e.scanScript(c, page.Inline, base)
	}
	e.scanLiterals(c, string(doc), base)

	page.Scripts = c.refs
	e.logger.Debug().
		Str("base", base.String()).
		Int("scripts", len(page.Scripts)).
		Int("inline_bytes", len(page.Inline)).
		Msg("Extracted script references from HTML")
	return page
}
