package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request missing a required field or carrying an unusable value.
	ErrValidation = errors.New("validation error")

	// ErrInvalidUsername marks a username that cannot safely prefix a stored file name.
	ErrInvalidUsername = fmt.Errorf("%w: invalid username", ErrValidation)

	// ErrNotFound is returned when a file or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailNotFound is returned when an update by email matches no account.
	ErrEmailNotFound = errors.New("email not found")

	// ErrDuplicateUsername is returned when registering a username that is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials is returned for an unknown username or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
