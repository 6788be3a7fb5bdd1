package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers any malformed or out-of-range field.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidAmount       = fmt.Errorf("%w: amount", ErrInvalidInput)
	ErrInvalidDeadline     = fmt.Errorf("%w: deadline must be in the future", ErrInvalidInput)
	ErrInvalidPeriod       = fmt.Errorf("%w: period", ErrInvalidInput)
	ErrInvalidCategory     = fmt.Errorf("%w: category", ErrInvalidInput)
	ErrDescriptionRequired = fmt.Errorf("%w: description is required for custom entries", ErrInvalidInput)

	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)
