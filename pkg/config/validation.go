package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if cfg.Jobs.SubmissionRate > 0 && cfg.Jobs.SubmissionBurst < 1 {
		return fmt.Errorf("jobs: submission_burst must be at least 1 when submission_rate is set")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics: port is required when metrics are enabled")
	}

	if cfg.Metadata.Type == "badger" && !hasOption(cfg.Metadata.Badger, "db_path") {
		return fmt.Errorf("metadata.badger: db_path is required")
	}

	switch cfg.Content.Type {
	case "filesystem":
		if !hasOption(cfg.Content.Filesystem, "path") {
			return fmt.Errorf("content.filesystem: path is required")
		}
	case "s3":
		for _, key := range []string{"bucket", "region"} {
			if !hasOption(cfg.Content.S3, key) {
				return fmt.Errorf("content.s3: %s is required", key)
			}
		}
	}

	return nil
}

// hasOption reports whether a store-specific section sets key to a
// non-empty value.
func hasOption(options map[string]any, key string) bool {
	value, ok := options[key]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString {
		return s != ""
	}
	return true
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
