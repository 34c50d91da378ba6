package talent

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrConflict           = errors.New("concurrent update conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCode        = errors.New("invalid QR code")
	ErrForbidden          = errors.New("forbidden")
	ErrDisabled           = errors.New("member is disabled")
)
