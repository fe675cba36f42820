package auth

import "errors"

var (
	// ErrInvalidInput means the credentials failed format validation and no
	// provider call was made.
	ErrInvalidInput = errors.New("invalid email or password format")

	// ErrAuthFailed means the identity provider rejected the credentials.
	ErrAuthFailed = errors.New("invalid email or password")

	// ErrNotAuthorized means the credentials were valid but no shop owner
	// record exists for the identity. The provider session is reverted
	// before this is returned.
	ErrNotAuthorized = errors.New("no record found for shop owner")
)
