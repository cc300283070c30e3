// AngelaMos | 2026
// validation.go

package core

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	fa_translations "github.com/go-playground/validator/v10/translations/fa"
	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var (
	validate         *validator.Validate
	validateOnce     sync.Once
	registeredLocale = map[string]bool{}
)

// Validator returns the shared validator. Field names in messages use the
// json tag so clients can map errors back to their payload.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		//nolint:errcheck // static tag registration
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// IsID reports whether s is a canonical hyphenated UUID, the only form the
// uuid columns accept without a cast error.
func IsID(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}

func registerValidationTranslations(trans ut.Translator) error {
	if registeredLocale[trans.Locale()] {
		return nil
	}

	v := Validator()

	var err error
	switch trans.Locale() {
	case LocalePersian:
		err = fa_translations.RegisterDefaultTranslations(v, trans)
	default:
		err = en_translations.RegisterDefaultTranslations(v, trans)
	}
	if err != nil {
		return err
	}

	registeredLocale[trans.Locale()] = true
	return nil
}

// ValidateStruct runs struct validation and converts failures into an
// AppError carrying per-field localized details.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return BadRequestError(T("error.invalid_body"))
	}

	return ValidationFailedError(validationDetails(verrs))
}

// FormatValidationError flattens validation failures into one line.
func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return T("error.validation")
	}

	details := validationDetails(verrs)
	parts := make([]string, 0, len(details))
	for _, fe := range verrs {
		parts = append(parts, details[fe.Field()])
	}
	return strings.Join(parts, "; ")
}

func validationDetails(verrs validator.ValidationErrors) map[string]string {
	trans := currentTranslator()

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if trans != nil {
			details[fe.Field()] = fe.Translate(trans)
		} else {
			details[fe.Field()] = fe.Error()
		}
	}
	return details
}
