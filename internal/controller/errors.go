package controller

import (
	"errors"

	"medscribe-be/internal/pkg/serverutils"
	"medscribe-be/internal/service"
)

// serviceError maps service sentinels onto HTTP statuses. Anything else
// falls through to the 500 handler.
func serviceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrCaseForbidden):
		return serverutils.Forbidden("Forbidden: case belongs to another user")
	case errors.Is(err, service.ErrUserMismatch):
		return serverutils.Forbidden("Forbidden: not your user id")
	case errors.Is(err, service.ErrCaseNotFound), errors.Is(err, service.ErrArtifactMissing):
		return serverutils.NotFound(err.Error())
	case errors.Is(err, service.ErrUnsupportedMedia),
		errors.Is(err, service.ErrNotMedicalReport),
		errors.Is(err, service.ErrEmptyUpload):
		return serverutils.BadRequest(err.Error())
	}
	return err
}
