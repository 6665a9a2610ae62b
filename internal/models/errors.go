package models

import "errors"

// Common errors used throughout the application
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidQuantity      = errors.New("quantity must be a whole number")
	ErrAuthRequired         = errors.New("please log in to continue")
	ErrEmptySelection       = errors.New("choose at least one seat")
	ErrSubmissionInProgress = errors.New("a booking is already being submitted")
)
