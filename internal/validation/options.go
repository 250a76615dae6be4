package validation

import (
	"github.com/go-playground/validator/v10"

	"tsflow/internal/filtering"
)

var validate = validator.New()

func checkOptions(name string, opts any) error {
	if err := validate.Struct(opts); err != nil {
		return filtering.NewInvalidOptionsError(name, err)
	}
	return nil
}
