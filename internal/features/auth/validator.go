package auth

import (
	"errors"
	"strings"

	"github.com/xyz-asif/roadwatch/internal/pkg/validator"
)

const minPasswordLength = 6

// ValidateSignUp normalises and checks a sign-up payload
func ValidateSignUp(req *SignUpRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if !validator.IsValidEmail(req.Email) {
		return errors.New("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// ValidateSignIn normalises and checks a sign-in payload
func ValidateSignIn(req *SignInRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if !validator.IsValidEmail(req.Email) {
		return errors.New("a valid email is required")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	return nil
}
