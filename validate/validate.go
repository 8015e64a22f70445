// Package validate checks request payloads against their struct tags
// and generates the uuids used as entity ids and idempotency keys.
package validate

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)
}

// Check validates val against its struct tags. Only the first violation
// is reported, translated into plain English.
func Check(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	return errors.New(verrs[0].Translate(translator))
}

// GenerateID mints a random uuid string.
func GenerateID() string {
	return uuid.NewString()
}

// CheckID rejects ids that are not well-formed uuids, before they ever
// reach a query.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("id is not in its proper form")
	}
	return nil
}
