// Package patterns holds the immutable detection catalog: categories, their
// filter knobs, and their ordered regex rules.
package patterns

import (
	"embed"
	"fmt"
	"os"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog embed.FS

// Defaults applied to categories that leave a knob unset.
const (
	DefaultMaxSymbolRatio  = 0.5
	DefaultExpectedEntropy = 3.0
)

// File is the on-disk layout of a catalog or custom patterns file.
type File struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// Catalog is an immutable, ordered set of categories. Methods that extend it
// return a new Catalog; a Catalog is safe for concurrent readers.
type Catalog struct {
	categories []Category
	index      map[models.Category]int
}

// LoadDefault parses the embedded catalog.
func LoadDefault() (*Catalog, error) {
	data, err := embeddedCatalog.ReadFile("catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded catalog: %w", err)
	}
	return Parse(data)
}

// MustLoadDefault is LoadDefault for package-level initialization.
func MustLoadDefault() *Catalog {
	c, err := LoadDefault()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML (or JSON, which YAML accepts).
func Parse(data []byte) (*Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return New(file.Categories...)
}

// LoadFile reads a custom patterns file and merges it into c.
func (c *Catalog) LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file %s: %w", path, err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patterns file %s: %w", path, err)
	}
	out := c
	for _, category := range file.Categories {
		if _, exists := out.index[category.Name]; exists {
			out, err = out.WithRules(category.Name, category.Rules...)
		} else {
			out, err = out.WithCategory(category)
		}
		if err != nil {
			return nil, fmt.Errorf("patterns file %s: %w", path, err)
		}
	}
	return out, nil
}

// New compiles categories into a catalog. Category names must be unique.
func New(categories ...Category) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[models.Category]int, len(categories)),
	}
	for _, category := range categories {
		if category.Name == "" {
			return nil, fmt.Errorf("category without a name")
		}
		if _, dup := c.index[category.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", category.Name)
		}
		category = category.clone()
		category.applyDefaults()
		for i := range category.Rules {
			if err := category.Rules[i].compile(); err != nil {
				return nil, fmt.Errorf("category %q: %w", category.Name, err)
			}
		}
		c.index[category.Name] = len(c.categories)
		c.categories = append(c.categories, category)
	}
	return c, nil
}

// Categories returns the categories in catalog order. Callers must not modify
// the returned rules.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Names returns the category names in catalog order.
func (c *Catalog) Names() []models.Category {
	names := make([]models.Category, 0, len(c.categories))
	for _, category := range c.categories {
		names = append(names, category.Name)
	}
	return names
}

// Category looks up a category by name.
func (c *Catalog) Category(name models.Category) (Category, bool) {
	i, ok := c.index[name]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Has reports whether name is a category of c.
func (c *Catalog) Has(name models.Category) bool {
	_, ok := c.index[name]
	return ok
}

// Tier returns the summary tier of a category, low when unknown.
func (c *Catalog) Tier(name models.Category) models.Severity {
	if category, ok := c.Category(name); ok {
		return category.Tier
	}
	return models.SeverityLow
}

// RuleCount is the total number of rules across categories.
func (c *Catalog) RuleCount() int {
	n := 0
	for _, category := range c.categories {
		n += len(category.Rules)
	}
	return n
}

// WithRules returns a new catalog with rules appended to an existing category.
func (c *Catalog) WithRules(name models.Category, rules ...Rule) (*Catalog, error) {
	i, ok := c.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", name)
	}
	categories := c.rawCategories()
	categories[i].Rules = append(categories[i].Rules, rules...)
	return New(categories...)
}

// WithCategory returns a new catalog with an additional category.
func (c *Catalog) WithCategory(category Category) (*Catalog, error) {
	return New(append(c.rawCategories(), category)...)
}

// Only returns a catalog restricted to names, keeping catalog order. Unknown
// names are ignored; an empty list keeps every category.
func (c *Catalog) Only(names ...models.Category) *Catalog {
	if len(names) == 0 {
		return c
	}
	keep := make(map[models.Category]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}
	out := &Catalog{index: make(map[models.Category]int)}
	for _, category := range c.categories {
		if keep[category.Name] {
			out.index[category.Name] = len(out.categories)
			out.categories = append(out.categories, category)
		}
	}
	return out
}

func (c *Catalog) rawCategories() []Category {
	out := make([]Category, 0, len(c.categories)+1)
	for _, category := range c.categories {
		out = append(out, category.clone())
	}
	return out
}
