// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// rule checks one aspect of a loaded configuration
type rule func(cfg *Config) error

// baseRules apply in every environment.
var baseRules = []rule{
	requiredFields,
	databasePool,
	catalogSettings,
	uploadLimits,
	visionSettings,
	func(cfg *Config) error {
		if cfg.Redis.PoolSize <= 0 {
			return errors.New("redis pool_size must be positive")
		}
		if cfg.Security.RateLimitRequests <= 0 {
			return errors.New("rate_limit_requests must be positive")
		}
		return nil
	},
}

// productionRules apply when APP_ENV is production.
var productionRules = []rule{
	adminTokens,
	func(cfg *Config) error {
		if cfg.Database.SSLMode == "disable" {
			return errors.New("database SSL must be enabled in production")
		}
		return nil
	},
	func(cfg *Config) error {
		if !cfg.Security.SecureHeaders {
			return errors.New("secure headers must be enabled in production")
		}
		if len(cfg.Security.AllowedOrigins) == 0 {
			return errors.New("allowed origins must be configured in production")
		}
		if slices.Contains(cfg.Security.AllowedOrigins, "*") {
			return errors.New("wildcard origin (*) not allowed in production")
		}
		return nil
	},
	func(cfg *Config) error {
		if cfg.Server.TLSEnabled && (cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "") {
			return errors.New("TLS cert and key files must be provided when TLS is enabled")
		}
		return nil
	},
}

// Validate runs the base rules, plus the production rules in production,
// and reports every failure.
func (c *Config) Validate() error {
	rules := baseRules
	if c.IsProduction() {
		rules = append(slices.Clone(baseRules), productionRules...)
	}

	var errs []error
	for _, r := range rules {
		if err := r(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func databasePool(cfg *Config) error {
	if cfg.Database.MaxConnections < cfg.Database.MinConnections {
		return errors.New("database max_connections must be >= min_connections")
	}
	return nil
}

func catalogSettings(cfg *Config) error {
	c := cfg.Catalog
	switch {
	case c.PriceMin < 0 || c.PriceMax < c.PriceMin:
		return fmt.Errorf("catalog price range [%d, %d] is invalid", c.PriceMin, c.PriceMax)
	case c.DefaultPageSize < 0 || c.MaxPageSize < 0:
		return errors.New("catalog page sizes cannot be negative")
	case c.MaxPageSize > 0 && c.DefaultPageSize > c.MaxPageSize:
		return errors.New("catalog default page size exceeds max page size")
	case c.SnapshotTTL < 0 || c.FacetTTL < 0:
		return errors.New("catalog cache TTLs cannot be negative")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("catalog locale %q: %w", c.Locale, err)
	}
	return nil
}

func uploadLimits(cfg *Config) error {
	if cfg.FileProcessing.ExcelMaxSizeMB < 0 || cfg.FileProcessing.ImageMaxSizeMB < 0 {
		return errors.New("upload size limits cannot be negative")
	}
	return nil
}

func visionSettings(cfg *Config) error {
	if cfg.Vision.Endpoint != "" && cfg.Vision.RPS <= 0 {
		return errors.New("vision rps must be positive")
	}
	return nil
}

func adminTokens(cfg *Config) error {
	tokens := cfg.Security.AdminTokens
	if len(tokens) == 0 {
		return fmt.Errorf("%w: admin tokens", ErrMissingRequiredConfig)
	}
	if slices.Contains(tokens, DevelopmentAdminToken) {
		return errors.New("development admin token cannot be used in production")
	}
	for _, t := range tokens {
		if len(t) < 32 {
			return errors.New("admin tokens must be at least 32 characters")
		}
	}
	return nil
}

// requiredFields reports fields tagged `required:"true"` that are empty or
// still hold a MISSING_ placeholder.
func requiredFields(cfg *Config) error {
	var missing []string
	walkRequired(reflect.ValueOf(cfg).Elem(), "", &missing)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, strings.Join(missing, ", "))
	}
	return nil
}

func walkRequired(v reflect.Value, prefix string, missing *[]string) {
	for _, f := range reflect.VisibleFields(v.Type()) {
		name := f.Name
		if prefix != "" {
			name = prefix + "." + name
		}
		field := v.FieldByIndex(f.Index)

		if f.Type.Kind() == reflect.Struct {
			walkRequired(field, name, missing)
			continue
		}
		if f.Tag.Get("required") != "true" {
			continue
		}
		if field.IsZero() || (field.Kind() == reflect.String && strings.HasPrefix(field.String(), "MISSING_")) {
			*missing = append(*missing, name)
		}
	}
}
