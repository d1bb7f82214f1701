package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	goplayground "github.com/go-playground/validator/v10"

	v1alpha1 "github.com/forensys/evidence-custody/api/v1alpha1"
	"github.com/forensys/evidence-custody/internal/config"
	"github.com/forensys/evidence-custody/internal/handlers/validator"
)

// SubmissionValidator checks incoming acquisition requests against the
// configured policy before any work is scheduled. Field rules live as
// validate tags on the api types; the content type of the actual bytes
// is checked separately once they exist.
type SubmissionValidator struct {
	cfg *config.Config
	v   *validator.Validator
}

func NewSubmissionValidator(cfg *config.Config) *SubmissionValidator {
	v := validator.NewValidator()
	v.Register(validator.NewSubmissionValidationRules(cfg)...)
	return &SubmissionValidator{cfg: cfg, v: v}
}

func (sv *SubmissionValidator) ValidateURL(request v1alpha1.URLJobCreate) error {
	if err := sv.v.Struct(request); err != nil {
		return NewErrInvalidSubmission(err.Error())
	}
	return nil
}

func (sv *SubmissionValidator) ValidateUpload(form v1alpha1.UploadJobCreate) error {
	if err := sv.v.Struct(form); err != nil {
		var fieldErrs goplayground.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				if fieldErr.Tag() == "upload_size" {
					return NewErrEvidenceTooLarge(sv.cfg.Limits.MaxUploadBytes)
				}
			}
		}
		return NewErrInvalidSubmission(err.Error())
	}
	return nil
}

// ValidateMime checks the sniffed content type of an upload against the
// allow-list. The detected type is authoritative; the client-supplied
// Content-Type header is never consulted.
func (sv *SubmissionValidator) ValidateMime(detected *mimetype.MIME) error {
	if len(sv.cfg.Limits.AllowedMimeTypes) == 0 {
		return nil
	}
	for _, candidate := range sv.cfg.Limits.AllowedMimeTypes {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && detected.Is(candidate) {
			return nil
		}
	}
	return NewErrInvalidSubmission(fmt.Sprintf("content type %q is not accepted", detected.String()))
}
