package service

import "errors"

var (
	ErrSourceAccountNotFound      = errors.New("source account not found")
	ErrDestinationAccountNotFound = errors.New("destination account not found")

	// ErrNotBusinessDay rejects transfers on weekends and holidays.
	ErrNotBusinessDay = errors.New("transfers can only be made on business days")

	// ErrCalendarUnavailable means the business calendar could not answer;
	// the transfer is rejected rather than posted on an unchecked day.
	ErrCalendarUnavailable = errors.New("business calendar unavailable")

	// ErrTransferConflict surfaces after the engine's bounded retries are
	// exhausted. Callers may retry the whole operation.
	ErrTransferConflict = errors.New("transfer conflicted with concurrent updates")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)
