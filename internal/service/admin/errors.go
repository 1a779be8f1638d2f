package admin

import "errors"

var (
	ErrVenueNotFound = errors.New("venue not found")
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidInput  = errors.New("invalid input")
)
