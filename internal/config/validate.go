package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/af-corp/googleapi/pkg/signing"
)

func isClientID(fl validator.FieldLevel) bool {
	return strings.HasPrefix(fl.Field().String(), signing.ClientIDPrefix)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("gme_client_id", isClientID)
	return v
}

var validate = newValidator()

// Validate checks struct tags on a loaded config and reports every failing field.
func Validate(cfg any) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}
