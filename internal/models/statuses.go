package models

type UserRole string
type VerificationStatus string
type VerificationStep string
type DocumentType string
type DocumentStatus string
type OutboxChannel string

const (
	UserRoleClient   UserRole = "client"
	UserRoleProvider UserRole = "provider"

	// Status axis: how far the evidence review has progressed.
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusInReview VerificationStatus = "in_review"
	VerificationStatusVerified VerificationStatus = "verified"
	VerificationStatusRejected VerificationStatus = "rejected"
	VerificationStatusBanned   VerificationStatus = "banned"

	// Step axis: which stage the user is currently completing.
	StepPhone     VerificationStep = "phone"
	StepDocuments VerificationStep = "documents"
	StepFace      VerificationStep = "face"
	StepCompleted VerificationStep = "completed"

	DocumentTypeIDFront       DocumentType = "id_front"
	DocumentTypeIDBack        DocumentType = "id_back"
	DocumentTypeSelfie        DocumentType = "selfie"
	DocumentTypeCertification DocumentType = "certification"
	DocumentTypeOther         DocumentType = "other"

	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"

	OutboxChannelEmail    OutboxChannel = "email"
	OutboxChannelWhatsApp OutboxChannel = "whatsapp"
)

// RequiredDocumentTypes are the three types that gate account approval.
var RequiredDocumentTypes = []DocumentType{
	DocumentTypeIDFront,
	DocumentTypeIDBack,
	DocumentTypeSelfie,
}

// stepRank orders the step axis. Steps only move forward, except for the
// single permitted regression: an administrator rejection routes the account
// back to StepDocuments.
var stepRank = map[VerificationStep]int{
	StepPhone:     0,
	StepDocuments: 1,
	StepFace:      2,
	StepCompleted: 3,
}

// Rank returns the position of the step in the forward ordering, or -1 for
// an unknown value.
func (s VerificationStep) Rank() int {
	if r, ok := stepRank[s]; ok {
		return r
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to next is a forward move.
func (s VerificationStep) CanAdvanceTo(next VerificationStep) bool {
	return next.Rank() > s.Rank() && s.Rank() >= 0
}

// IsRequired reports whether the document type participates in the
// three-type approval gate.
func (t DocumentType) IsRequired() bool {
	for _, rt := range RequiredDocumentTypes {
		if t == rt {
			return true
		}
	}
	return false
}
