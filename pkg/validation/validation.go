// Package validation wires go-playground/validator with English messages keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
)

// Validator validates structs and renders failures as translated field maps.
type Validator struct {
	engine *govalidator.Validate
	trans  ut.Translator
}

var (
	setupOnce sync.Once
	shared    *Validator
)

// New returns a standalone validator with English translations registered.
func New() *Validator {
	v := govalidator.New()
	return configure(v)
}

// Setup installs JSON field naming and translations on gin's binding engine and returns it.
func Setup() *Validator {
	setupOnce.Do(func() {
		if engine, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
			shared = configure(engine)
			return
		}
		shared = New()
	})
	return shared
}

func configure(v *govalidator.Validate) *Validator {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(v, trans)

	return &Validator{engine: v, trans: trans}
}

// Struct validates s and returns a VALIDATION_ERROR carrying per-field messages.
func (v *Validator) Struct(s interface{}) error {
	if err := v.engine.Struct(s); err != nil {
		return v.Error(err, "invalid payload")
	}
	return nil
}

// Error converts binding or validation failures into the API error shape.
func (v *Validator) Error(err error, message string) *appErrors.Error {
	wrapped := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	wrapped.Details = v.Translate(err)
	return wrapped
}

// Translate maps field name to message; non-validation errors land under "detail".
func (v *Validator) Translate(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
