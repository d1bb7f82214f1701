package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrReportNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "report for job")
}

type ErrInvalidSubmission struct {
	error
}

func NewErrInvalidSubmission(message string) *ErrInvalidSubmission {
	return &ErrInvalidSubmission{fmt.Errorf("bad request: %s", message)}
}

type ErrEvidenceNotReady struct {
	error
}

func NewErrEvidenceNotReady(id uuid.UUID) *ErrEvidenceNotReady {
	return &ErrEvidenceNotReady{fmt.Errorf("job %s has no stored evidence to check yet", id)}
}

type ErrEvidenceTooLarge struct {
	error
}

func NewErrEvidenceTooLarge(limit int64) *ErrEvidenceTooLarge {
	return &ErrEvidenceTooLarge{fmt.Errorf("evidence exceeds the size limit of %d bytes", limit)}
}
