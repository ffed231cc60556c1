package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
)

// Queue service specific errors
var (
	ErrInvalidAvailabilityWindow = errors.New("invalid availability window")
	ErrDuplicateQueueEntry       = errors.New("duplicate queue entry")
	ErrInvalidStateTransition    = errors.New("invalid state transition")
)

// Scoring specific errors
var (
	ErrUserDataNotFound = errors.New("user profile data not found")
)

// Analytics specific errors
var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrInvalidRating  = errors.New("rating must be an integer between 1 and 5")
	ErrInvalidOutcome = errors.New("invalid match outcome")
)

// Meeting service specific errors
var (
	ErrMeetingNotFound = errors.New("meeting not found")
)

// User service specific errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
)
