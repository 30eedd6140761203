package services

import (
	"errors"

	"communityboard/app/repositories"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrForbidden is returned when the viewer may not perform the action,
	// such as deleting someone else's comment or liking their own.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned for requests that fail business rules.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyDeleted is returned when deleting a comment that is already a tombstone.
	ErrAlreadyDeleted = errors.New("comment already deleted")
)

// IsValidation reports whether err was caused by bad input rather than by
// storage or a missing record.
func IsValidation(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs) || errors.Is(err, ErrInvalidInput)
}

// IsNotFound reports whether err means the post or comment does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
