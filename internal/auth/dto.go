package auth

import (
	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("username", d.Username).Required().MaxLength(128)
	validator.Field("password", d.Password).Required().MaxLength(72)
	return validator.Validate()
}
