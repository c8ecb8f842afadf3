package notification

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrDuplicate  = errors.New("duplicate notification")
)
