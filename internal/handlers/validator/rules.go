package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/forensys/evidence-custody/internal/config"
)

func registerFn(tag string, fn validator.Func) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

// NewSubmissionValidationRules builds the rule set for evidence
// submissions. The allow-lists and the size limit come from the
// configured acquisition policy.
func NewSubmissionValidationRules(cfg *config.Config) []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("investigator", investigatorValidator),
		},
		{
			Rule: registerFn("source_domain", domainValidator(cfg.Limits.AllowedURLDomains)),
		},
		{
			Rule: registerFn("evidence_ext", extensionValidator(cfg.Limits.AllowedExtensions)),
		},
		{
			Rule: registerFn("upload_size", sizeValidator(cfg.Limits.MaxUploadBytes)),
		},
	}
}
