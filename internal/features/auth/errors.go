package auth

import (
	"fmt"

	pkgerrors "github.com/xyz-asif/roadwatch/pkg/errors"
)

var (
	ErrProfileNotFound     = fmt.Errorf("%w: profile not found", pkgerrors.ErrNotFound)
	ErrEmailTaken          = fmt.Errorf("%w: email already registered", pkgerrors.ErrDuplicate)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid email or password", pkgerrors.ErrUnauthorized)
	ErrSessionRevoked      = fmt.Errorf("%w: session has been revoked", pkgerrors.ErrUnauthorized)
	ErrIdentityUnavailable = fmt.Errorf("%w: identity provider unavailable", pkgerrors.ErrUnavailable)
)
