package app

import (
	"errors"
	"fmt"
)

// ErrInvalidEmail is returned when a newsletter address fails the syntax
// check. Always a client error.
var ErrInvalidEmail = errors.New("invalid email address")

// InvalidEmailError carries the rejected address.
type InvalidEmailError struct {
	Address string
}

func (e *InvalidEmailError) Error() string {
	return fmt.Sprintf("invalid email address %q", e.Address)
}

func (e *InvalidEmailError) Is(target error) bool {
	return target == ErrInvalidEmail
}
