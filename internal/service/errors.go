package service

import (
	"errors"

	"medscribe-be/pkg/ingest"
)

var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrCaseForbidden    = errors.New("case belongs to another user")
	ErrUserMismatch     = errors.New("user id does not match the requesting user")
	ErrUnsupportedMedia = ingest.ErrUnsupportedMedia
	ErrNotMedicalReport = errors.New("document does not look like a medical report")
	ErrEmptyUpload      = errors.New("uploaded file is empty or unreadable")
	ErrArtifactMissing  = errors.New("artifact not available")
)
