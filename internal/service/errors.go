package service

import (
	"database/sql"
	"errors"
	"fmt"

	"whistlebox/internal/repository"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("not found")
	ErrReceiptNotFound = errors.New("receipt not found")
	// ErrDataIntegrity reports a unique key resolving to more than one row.
	// It is a fault in stored data, never a user error.
	ErrDataIntegrity   = errors.New("data integrity fault")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyVoted    = errors.New("pertinence already expressed")
	ErrUnimplemented   = errors.New("unimplemented")
	ErrForbidden       = errors.New("forbidden")
)

// rowErr translates repository lookup errors. Absent rows become notFound,
// ambiguous rows become ErrDataIntegrity; anything else passes through.
func rowErr(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	case errors.Is(err, repository.ErrMultipleRows):
		return fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
