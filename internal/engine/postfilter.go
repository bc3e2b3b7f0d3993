package engine

import (
	"net/url"
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/urlhandler"
)

// PostFilter is an optional caller-supplied final stage. Returning false
// rejects the value.
type PostFilter interface {
	Accept(value string, category models.Category, origin models.Origin) bool
}

// PostFilterFunc adapts a function to PostFilter.
type PostFilterFunc func(value string, category models.Category, origin models.Origin) bool

// Accept calls f.
func (f PostFilterFunc) Accept(value string, category models.Category, origin models.Origin) bool {
	return f(value, category, origin)
}

// SameSiteFilter keeps values of the listed categories only when their host
// shares the origin's registrable domain. Other categories pass through.
type SameSiteFilter struct {
	Categories []models.Category
}

// NewSameSiteFilter restricts URL findings to the origin's site.
func NewSameSiteFilter() SameSiteFilter {
	return SameSiteFilter{Categories: []models.Category{"urls_domains"}}
}

// Accept implements PostFilter.
func (f SameSiteFilter) Accept(value string, category models.Category, origin models.Origin) bool {
	applies := false
	for _, c := range f.Categories {
		if c == category {
			applies = true
			break
		}
	}
	if !applies {
		return true
	}

	host := value
	if strings.Contains(value, "://") {
		u, err := url.Parse(value)
		if err != nil {
			return false
		}
		host = u.Host
	} else if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	return urlhandler.SameSite(host, origin.Host)
}
