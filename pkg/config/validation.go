package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against the struct validation tags plus
// cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				msgs = append(msgs, describeValidationError(ve))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if cfg.Upload.RetryDelay < 0 {
		return errors.New("upload.retry_delay must not be negative")
	}
	if cfg.Server.Timeout < 0 {
		return errors.New("server.timeout must not be negative")
	}
	if cfg.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}

	return nil
}

// describeValidationError turns a validator error into a config-file-oriented
// message, using the mapstructure-style field path.
func describeValidationError(ve validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(ve.Namespace(), "Config."))

	switch ve.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, ve.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, ve.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, ve.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, ve.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, ve.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, ve.Tag())
	}
}
