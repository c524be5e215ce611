// Package config provides configuration management for the Sharpline engine.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("sourcekind", validateSourceKind)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateSourceKind validates a source adapter kind
func validateSourceKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "oddsapi", "stream":
		return true
	default:
		return false
	}
}

// validateCrossField applies validations that span multiple fields
func validateCrossField(cfg *Config) error {
	enabled := 0
	names := make(map[string]bool, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if names[src.Name] {
			return fmt.Errorf("duplicate source name: %s", src.Name)
		}
		names[src.Name] = true

		if src.Enabled {
			enabled++
		}
		if src.Kind == "oddsapi" && src.Enabled && src.BaseURL == "" {
			return fmt.Errorf("source %s: base_url is required for oddsapi sources", src.Name)
		}
	}

	// One aggregating provider can yield many bookmaker sources, so only a
	// fully empty source list is certainly unworkable.
	if enabled == 0 {
		return fmt.Errorf("no sources enabled: no quotes could ever be ingested")
	}

	if cfg.Audit.Enabled && cfg.Audit.Database.Host == "" {
		return fmt.Errorf("audit enabled but no database host configured")
	}
	if cfg.Publisher.Enabled && cfg.Publisher.RedisAddr == "" {
		return fmt.Errorf("publisher enabled but no redis address configured")
	}

	return nil
}

// formatValidationErrors converts validator errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
