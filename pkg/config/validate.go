package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance.
var validate = validator.New()

// Validate checks the configuration using struct tags plus the rules that
// cannot be expressed in tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if len(cfg.SubvolumeNames) > 0 && cfg.SubvolumeBase == "" {
		return fmt.Errorf("subvolume_base is required when subvolume_names is set")
	}

	// The retention default must parse even if cleanup never runs; a bad
	// value should fail at load time, not mid-sweep.
	if _, _, err := cfg.KeepDuration(); err != nil {
		return err
	}

	return nil
}

// formatValidationError converts validator errors into messages an operator
// can act on.
func formatValidationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		e := errs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
