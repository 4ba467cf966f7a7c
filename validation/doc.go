// Package validation validates configuration and request structs through
// go-playground/validator struct tags.
//
//	type Endpoint struct {
//	    Host string `mapstructure:"host" validate:"required"`
//	    Port int    `mapstructure:"port" validate:"min=1,max=65535"`
//	}
//	err := validation.Validate(ep)
//
// Field names in error messages follow the mapstructure (or json) tag so they
// match the keys users write in config files.
package validation
