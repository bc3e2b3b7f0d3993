package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/patterns"
	"github.com/go-playground/validator/v10"
)

var categoryNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateConfig checks struct tags first, then include_categories against
// the catalog. All tag failures are reported together.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return common.NewValidationError("config", nil, "configuration is nil")
	}

	err := configValidator().Struct(cfg)
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		lines := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			lines[i] = "  " + describeFieldError(fe)
		}
		return common.NewError("invalid configuration:\n%s", strings.Join(lines, "\n"))
	case err != nil:
		return common.WrapError(err, "configuration validation error")
	}

	return validateCategories(cfg.ScanConfig)
}

// customTags are the project-specific validate tags. Empty strings pass
// every check except saveformat, which has its own default.
var customTags = map[string]validator.Func{
	"fileexists": func(fl validator.FieldLevel) bool {
		path := fl.Field().String()
		if path == "" {
			return true
		}
		info, err := os.Stat(path)
		return err == nil && !info.IsDir()
	},
	// Output directories may not exist yet.
	"notfile": func(fl validator.FieldLevel) bool {
		path := fl.Field().String()
		if path == "" {
			return true
		}
		info, err := os.Stat(path)
		return errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir())
	},
	"loglevel":   oneOfFold("", "debug", "info", "warn", "error", "fatal", "panic"),
	"logformat":  oneOfFold("", "console", "text", "json"),
	"saveformat": oneOfFold(SaveFormats...),
	"category": func(fl validator.FieldLevel) bool {
		return categoryNameRegex.MatchString(fl.Field().String())
	},
	"regexp": func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	},
}

func oneOfFold(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, strings.ToLower(fl.Field().String()))
	}
}

var configValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	for tag, fn := range customTags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
})

// validateCategories checks include_categories against the built-in catalog.
// A custom patterns file may define new categories, so only syntax is
// checked when one is configured.
func validateCategories(scan ScanConfig) error {
	if scan.PatternsFile != "" || len(scan.IncludeCategories) == 0 {
		return nil
	}
	catalog, err := patterns.LoadDefault()
	if err != nil {
		return common.WrapError(err, "failed to load default catalog")
	}
	for _, name := range scan.IncludeCategories {
		if !catalog.Has(models.Category(name)) {
			return common.NewValidationError("scan_config.include_categories", name, "unknown category")
		}
	}
	return nil
}

// describeFieldError renders "scan_config.max_workers: min=1 (got 0)".
func describeFieldError(fe validator.FieldError) string {
	_, field, _ := strings.Cut(fe.Namespace(), ".")
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	if v := fe.Value(); v != nil && v != "" {
		return fmt.Sprintf("%s: %s (got %v)", field, rule, v)
	}
	return field + ": " + rule
}
