package discovery

import (
	"strings"

	"github.com/BishopFox/jsluice"
)

// jsluiceRefs returns the script URLs jsluice finds in the syntax tree of a
// script. A parser failure only loses this pass.
func (e *Extractor) jsluiceRefs(text string) (found []string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Interface("panic", r).Msg("jsluice analysis failed")
			found = nil
		}
	}()

	analyzer := jsluice.NewAnalyzer([]byte(text))
	for _, result := range analyzer.GetURLs() {
		if result == nil || result.URL == "" || !HasScriptExtension(result.URL) {
			continue
		}
		// concatenations are reported with EXPR placeholders
		if strings.Contains(result.URL, "EXPR") || suffixOnly(result.URL) {
			continue
		}
		found = append(found, result.URL)
	}
	e.logger.Debug().Int("jsluice_script_urls", len(found)).Msg("jsluice analysis completed")
	return found
}
