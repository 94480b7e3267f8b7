package validator

import (
	"log"

	"servimarket_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules registers the enum validation tags used by the DTOs.
// Empty values pass; 'required' handles presence separately.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-document-type", validateDocumentType)
	mustRegister("is-document-status", validateDocumentStatus)
	mustRegister("is-verification-status", validateVerificationStatus)
	mustRegister("is-verification-step", validateVerificationStep)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.UserRole(value) {
	case models.UserRoleClient, models.UserRoleProvider:
		return true
	default:
		return false
	}
}

func validateDocumentType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.DocumentType(value) {
	case models.DocumentTypeIDFront, models.DocumentTypeIDBack, models.DocumentTypeSelfie,
		models.DocumentTypeCertification, models.DocumentTypeOther:
		return true
	default:
		return false
	}
}

func validateDocumentStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.DocumentStatus(value) {
	case models.DocumentStatusPending, models.DocumentStatusApproved, models.DocumentStatusRejected:
		return true
	default:
		return false
	}
}

func validateVerificationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.VerificationStatus(value) {
	case models.VerificationStatusPending, models.VerificationStatusInReview,
		models.VerificationStatusVerified, models.VerificationStatusRejected,
		models.VerificationStatusBanned:
		return true
	default:
		return false
	}
}

func validateVerificationStep(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.VerificationStep(value) {
	case models.StepPhone, models.StepDocuments, models.StepFace, models.StepCompleted:
		return true
	default:
		return false
	}
}
