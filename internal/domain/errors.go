package domain

import "github.com/pkg/errors"

// Error kinds surfaced by the core. Callers match them with errors.Is;
// lower layers may wrap them with extra context.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrInvalidCall    = errors.New("invalid call")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrValidation     = errors.New("validation failed")
	ErrCandidateLimit = errors.New("candidate limit reached")
	ErrRateLimited    = errors.New("rate limited")
)

// Validation returns an error that matches ErrValidation and carries msg.
func Validation(msg string) error {
	return errors.WithMessage(ErrValidation, msg)
}
