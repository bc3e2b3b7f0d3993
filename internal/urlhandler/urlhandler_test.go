package urlhandler

import (
	"net/url"
	"strings"
	"testing"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.Origin
		wantErr  bool
	}{
		{
			name:     "bare host gets implicit https",
			input:    "Example.org",
			expected: models.Origin{Scheme: "https", Host: "example.org", ImplicitScheme: true},
		},
		{
			name:     "explicit http keeps port",
			input:    "http://127.0.0.1:8080/some/path?q=1",
			expected: models.Origin{Scheme: "http", Host: "127.0.0.1:8080"},
		},
		{
			name:     "default https port dropped",
			input:    "https://A.com:443/login",
			expected: models.Origin{Scheme: "https", Host: "a.com"},
		},
		{
			name:     "default http port dropped",
			input:    "http://a.com:80",
			expected: models.Origin{Scheme: "http", Host: "a.com"},
		},
		{
			name:     "https on port 80 kept",
			input:    "https://a.com:80",
			expected: models.Origin{Scheme: "https", Host: "a.com:80"},
		},
		{
			name:     "ipv6 default port dropped",
			input:    "https://[::1]:443",
			expected: models.Origin{Scheme: "https", Host: "[::1]"},
		},
		{
			name:    "unsupported scheme",
			input:   "ftp://example.org",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origin, err := NormalizeOrigin(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, origin)
		})
	}
}

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("http://example.org/static/js/main.js")
	require.NoError(t, err)

	tests := []struct {
		name     string
		href     string
		expected string
		wantErr  bool
	}{
		{name: "relative", href: "chunk.js", expected: "http://example.org/static/js/chunk.js"},
		{name: "root relative", href: "/app.js#frag", expected: "http://example.org/app.js"},
		{name: "protocol relative becomes https", href: "//CDN.Example.org/x.js", expected: "https://cdn.example.org/x.js"},
		{name: "absolute", href: "https://other.example.org/a.js?v=1", expected: "https://other.example.org/a.js?v=1"},
		{name: "default port dropped", href: "https://Example.org:443/a.js", expected: "https://example.org/a.js"},
		{name: "custom port kept", href: "https://example.org:8443/a.js", expected: "https://example.org:8443/a.js"},
		{name: "non http scheme", href: "ftp://example.org/a.js", wantErr: true},
		{name: "too long", href: "/" + strings.Repeat("a", MaxURLLength) + ".js", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.href, base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSkippable(t *testing.T) {
	for _, href := range []string{"", "data:text/javascript,alert(1)", "javascript:void(0)", "mailto:a@b.c", "blob:https://x/1", "#top"} {
		assert.True(t, Skippable(href), href)
	}
	assert.False(t, Skippable("/static/app.js"))
}

func TestHostMatches(t *testing.T) {
	assert.True(t, HostMatches("cdn.example.com", "example.com"))
	assert.True(t, HostMatches("example.com:443", "example.com"))
	assert.True(t, HostMatches("a.b.example.com", "*.example.com"))
	assert.False(t, HostMatches("badexample.com", "example.com"))
	assert.False(t, HostMatches("example.com", ""))
	assert.True(t, HostMatchesAny("www.googletagmanager.com", []string{"hotjar.com", "googletagmanager.com"}))
}

func TestGetBaseDomain(t *testing.T) {
	tests := map[string]string{
		"www.example.co.uk": "example.co.uk",
		"api.example.com":   "example.com",
		"127.0.0.1:8080":    "127.0.0.1",
		"localhost":         "localhost",
	}
	for host, expected := range tests {
		got, err := GetBaseDomain(host)
		require.NoError(t, err, host)
		assert.Equal(t, expected, got, host)
	}

	assert.True(t, SameSite("a.example.com", "b.example.com"))
	assert.False(t, SameSite("a.example.com", "example.org"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "example.org_8080", SanitizeFilename("https://example.org:8080"))
	assert.Equal(t, "sanitized_empty_input", SanitizeFilename("https://"))
}
