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
// Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules checks rules that span fields or live inside the
// per-store maps.
func validateCustomRules(cfg *Config) error {
	if err := cfg.Queue.Options.Validate(); err != nil {
		return fmt.Errorf("queue.options: %w", err)
	}

	// A job running longer than its lease would be redelivered mid-flight.
	if cfg.Thumbnail.Pool.JobTimeout >= cfg.Queue.Options.LeaseDuration {
		return fmt.Errorf("thumbnail.pool.job_timeout (%v) must be shorter than queue.options.lease_duration (%v)",
			cfg.Thumbnail.Pool.JobTimeout, cfg.Queue.Options.LeaseDuration)
	}

	if cfg.Metadata.Type == "badger" {
		if err := requireBadgerPath(cfg.Metadata.Badger, "metadata.badger"); err != nil {
			return err
		}
	}

	switch cfg.Content.Type {
	case "filesystem":
		if err := requireString(cfg.Content.Filesystem, "content.filesystem", "path"); err != nil {
			return err
		}
	case "s3":
		for _, key := range []string{"bucket", "region"} {
			if err := requireString(cfg.Content.S3, "content.s3", key); err != nil {
				return err
			}
		}
	}

	if cfg.Queue.Type == "badger" {
		if err := requireBadgerPath(cfg.Queue.Badger, "queue.badger"); err != nil {
			return err
		}
	}

	if cfg.Sessions.Type == "badger" {
		if err := requireBadgerPath(cfg.Sessions.Badger, "sessions.badger"); err != nil {
			return err
		}
	}

	return nil
}

// requireBadgerPath checks db_path unless the database is in memory.
func requireBadgerPath(options map[string]any, section string) error {
	if inMemory, _ := options["in_memory"].(bool); inMemory {
		return nil
	}
	return requireString(options, section, "db_path")
}

// requireString checks that options[key] is a non-empty string.
func requireString(options map[string]any, section, key string) error {
	s, _ := options[key].(string)
	if s == "" {
		return fmt.Errorf("%s.%s is required", section, key)
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
