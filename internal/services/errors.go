package services

import "errors"

var (
	ErrBadCreds        = errors.New("invalid email or password")
	ErrProductNotFound = errors.New("product not available")
	ErrEmptyCart       = errors.New("cart empty")
	ErrNoAddress       = errors.New("no shipping address")
)
