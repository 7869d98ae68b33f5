// Package validation checks structs against go-playground/validator tags and
// reports failures as INVALID_INPUT errors with per-field details.
//
//	type GoogleConfig struct {
//	    ClientID string `mapstructure:"client_id" validate:"required"`
//	    CertsURL string `mapstructure:"certs_url" validate:"required,url"`
//	}
//	err := validation.Validate(cfg)
package validation
