package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	log "github.com/mrscrape/docbench/internal/common/logging"
)

// LogValidationErrors logs one line per problem found in the configuration: one per failed validator tag, and one
// per inconsistency when err holds a multierror of cross-field checks.
func LogValidationErrors(err error) {
	if err == nil {
		return
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			fieldName := stripPrefix(fieldErr.Namespace())
			switch tag := fieldErr.Tag(); tag {
			case "required":
				log.Errorf("ConfigError: Field %s is required but was not found", fieldName)
			default:
				log.Errorf("ConfigError: Field %s has invalid value %v: %s", fieldName, fieldErr.Value(), tag)
			}
		}
		return
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			log.Errorf("ConfigError: %s", e)
		}
		return
	}
	log.Errorf("ConfigError: %s", err)
}

// stripPrefix drops the root struct name, e.g. "BenchmarkConfig.MongoDB.Database" becomes "MongoDB.Database".
func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
