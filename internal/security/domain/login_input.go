package domain

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/keyfort/keyfort/internal/validation"
)

// LoginInput carries the credentials and request context for a login attempt.
type LoginInput struct {
	UserID    string
	Password  string
	IPAddress string
	UserAgent string
}

// Validate checks the login input fields.
func (l *LoginInput) Validate() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.UserID,
			validation.Required.Error("user id is required"),
			appValidation.NotBlank,
			appValidation.NoWhitespace,
			validation.Length(1, 255).Error("user id must be between 1 and 255 characters"),
		),
		validation.Field(&l.Password,
			validation.Required.Error("password is required"),
			validation.Length(1, 128).Error("password must be between 1 and 128 characters"),
		),
		validation.Field(&l.IPAddress,
			validation.Length(0, 45).Error("ip address must be at most 45 characters"),
		),
		validation.Field(&l.UserAgent,
			validation.Length(0, 512).Error("user agent must be at most 512 characters"),
		),
	)
}
