package domain

import "errors"

var (
	ErrUnknownField = errors.New("unknown or immutable field")
	ErrInvalidValue = errors.New("invalid field value")
)
