package discovery

import (
	"net/url"
	"testing"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newTestExtractor(t *testing.T, settings ScopeSettings) *Extractor {
	t.Helper()
	scope, err := NewScope(settings, zerolog.Nop())
	require.NoError(t, err)
	return NewExtractor(scope, zerolog.Nop())
}

func refURLs(refs []models.ResourceRef) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	return urls
}

const testHTML = `<!doctype html>
<html><head>
<script src="/static/app.js"></script>
<script src="//cdn.acme.io/lib/vendor.min.js"></script>
<script src="https://www.googletagmanager.com/gtag/js?id=G-1"></script>
<script src="data:text/javascript,alert(1)"></script>
<script src="/static/app.js"></script>
<script src="/styles/site.css"></script>
</head><body>
<script>
  window.cfg = {apiKey: "x"};
  import("./lazy/settings.js");
  require("react");
</script>
<link rel="preload" href="/static/runtime.js" as="script">
</body></html>`

func TestExtractFromHTML(t *testing.T) {
	e := newTestExtractor(t, ScopeSettings{ExcludeThirdParty: true})
	page := e.ExtractFromHTML([]byte(testHTML), mustParse(t, "https://acme.io/"))

	assert.Equal(t, []string{
		"https://acme.io/static/app.js",
		"https://cdn.acme.io/lib/vendor.min.js",
		"https://acme.io/lazy/settings.js",
		"https://acme.io/static/runtime.js",
	}, refURLs(page.Scripts))
	assert.Equal(t, models.SourceStatic, page.Scripts[0].Source)
	assert.Equal(t, models.SourceDynamic, page.Scripts[2].Source)
	assert.Contains(t, page.Inline, `window.cfg = {apiKey: "x"}`)
}

func TestExtractFromHTML_NoInline(t *testing.T) {
	e := newTestExtractor(t, ScopeSettings{})
	page := e.ExtractFromHTML([]byte(`<html><script src="main.js"></script></html>`), mustParse(t, "https://acme.io/app/"))

	assert.Equal(t, []string{"https://acme.io/app/main.js"}, refURLs(page.Scripts))
	assert.Empty(t, page.Inline)
}

func TestExtractFromScript(t *testing.T) {
	e := newTestExtractor(t, ScopeSettings{})
	base := mustParse(t, "https://acme.io/static/js/main.js")

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "dynamic import without extension",
			text: `const m = await import("/modules/admin");`,
			want: []string{"https://acme.io/modules/admin"},
		},
		{
			name: "bare module specifier",
			text: `const r = require("lodash");`,
			want: nil,
		},
		{
			name: "loadScript relative",
			text: `loadScript('../vendor/map.js', cb)`,
			want: []string{"https://acme.io/static/vendor/map.js"},
		},
		{
			name: "quoted literal with query",
			text: `var s = "chunks/pay.bundle.js?v=3";`,
			want: []string{"https://acme.io/static/js/chunks/pay.bundle.js?v=3"},
		},
		{
			name: "suffix literal ignored",
			text: `var s = e + ".chunk.js";`,
			want: nil,
		},
		{
			name: "non script literal",
			text: `var img = "/img/logo.png";`,
			want: nil,
		},
		{
			name: "javascript scheme",
			text: `a.href = "javascript:void(0).js";`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := e.ExtractFromScript(tt.text, base)
			if tt.want == nil {
				assert.Empty(t, refs)
				return
			}
			assert.Equal(t, tt.want, refURLs(refs))
		})
	}
}

func TestExtractFromScript_Webpack(t *testing.T) {
	e := newTestExtractor(t, ScopeSettings{})
	base := mustParse(t, "https://acme.io/static/js/runtime.js")

	t.Run("hash map with public path", func(t *testing.T) {
		text := `n.p="/assets/";n.e=function(e){return n.p+"static/js/"+e+"."+{0:"31c7ab",1:"9f8e7d"}[e]+".chunk.js"}`
		refs := e.ExtractFromScript(text, base)
		require.Len(t, refs, 2)
		assert.Equal(t, "https://acme.io/assets/static/js/0.31c7ab.chunk.js", refs[0].URL)
		assert.Equal(t, "https://acme.io/assets/static/js/1.9f8e7d.chunk.js", refs[1].URL)
		assert.Equal(t, models.SourceWebpackChunk, refs[0].Source)
	})

	t.Run("file map", func(t *testing.T) {
		text := `var chunks = {12:"vendors.js","admin":"admin.bundle.js"};`
		refs := e.ExtractFromScript(text, base)
		assert.Equal(t, []string{
			"https://acme.io/static/js/vendors.js",
			"https://acme.io/static/js/admin.bundle.js",
		}, refURLs(refs))
		assert.Equal(t, models.SourceWebpackChunk, refs[0].Source)
	})
}

func TestHasScriptExtension(t *testing.T) {
	assert.True(t, HasScriptExtension("https://a.io/x.js"))
	assert.True(t, HasScriptExtension("https://a.io/x.MJS?v=1"))
	assert.True(t, HasScriptExtension("/x.cjs"))
	assert.False(t, HasScriptExtension("https://a.io/x.json"))
	assert.False(t, HasScriptExtension("https://a.io/js"))
}

func TestScope(t *testing.T) {
	tests := []struct {
		name     string
		settings ScopeSettings
		url      string
		want     bool
	}{
		{name: "no restrictions", url: "https://any.io/a.js", want: true},
		{name: "allowed suffix", settings: ScopeSettings{AllowedDomains: []string{"acme.io"}}, url: "https://cdn.acme.io/a.js", want: true},
		{name: "not allowed", settings: ScopeSettings{AllowedDomains: []string{"acme.io"}}, url: "https://evil.io/a.js", want: false},
		{name: "denied", settings: ScopeSettings{ExcludeDomains: []string{"*.ads.acme.io"}}, url: "https://x.ads.acme.io/a.js", want: false},
		{name: "third party", settings: ScopeSettings{ExcludeThirdParty: true}, url: "https://static.hotjar.com/c/hotjar.js", want: false},
		{name: "third party kept when disabled", url: "https://static.hotjar.com/c/hotjar.js", want: true},
		{name: "exclude pattern", settings: ScopeSettings{ExcludeURLPatterns: []string{`/legacy/`}}, url: "https://acme.io/legacy/a.js", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := NewScope(tt.settings, zerolog.Nop())
			require.NoError(t, err)
			got, _ := scope.Allows(tt.url)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewScope(ScopeSettings{ExcludeURLPatterns: []string{"("}}, zerolog.Nop())
	assert.Error(t, err)
}
