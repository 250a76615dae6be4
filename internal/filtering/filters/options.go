package filters

import (
	"github.com/go-playground/validator/v10"

	"tsflow/internal/filtering"
)

var validate = validator.New()

func checkOptions(filter string, opts any) error {
	if err := validate.Struct(opts); err != nil {
		return filtering.NewInvalidOptionsError(filter, err)
	}
	return nil
}

// MissingPolicy decides what a router does with atoms lacking the routed field.
type MissingPolicy int

const (
	// MissingDrop discards the atom.
	MissingDrop MissingPolicy = iota
	// MissingToOutput sends the atom to the last output.
	MissingToOutput
)

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
