// All global custom validations in the command centre are defined here.
// These validations are allowed to be used anywhere in the application.

package validations

import (
	"Studio/pkg/log"
	"context"
	"sync"

	"github.com/asaskevich/govalidator"
)

var once sync.Once

func RegisterCustomValidations(ctx context.Context, logger log.Logger) {
	once.Do(func() {
		// This global validation doesn't allow whitespace in input.
		govalidator.TagMap["nospace"] = govalidator.Validator(func(str string) bool {
			return !govalidator.HasWhitespace(str)
		})
		// Rejects inputs made only of whitespace, e.g. a guest name of "   ".
		govalidator.TagMap["nospaceonly"] = govalidator.Validator(func(str string) bool {
			return !govalidator.HasWhitespaceOnly(str)
		})
		// Alert severities understood by the dashboards.
		govalidator.TagMap["severity"] = govalidator.Validator(func(str string) bool {
			switch str {
			case "info", "warning", "critical":
				return true
			}
			return false
		})
		logger.WithCtx(ctx).Info().Msg("Successfully registered global custom validations.")
	})
}

// ValidateStruct runs govalidator over v and returns the raw field errors, or nil.
func ValidateStruct(v interface{}) []error {
	if _, err := govalidator.ValidateStruct(v); err != nil {
		if errs, ok := err.(govalidator.Errors); ok {
			return errs.Errors()
		}
		return []error{err}
	}
	return nil
}
