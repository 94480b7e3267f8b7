// Package verification holds the pure step/status logic of the account
// verification pipeline. Nothing here touches the database; services feed it
// the account row and the latest authoritative document per type.
package verification

import (
	"servimarket_backend/internal/models"
)

// Evidence maps each document type to the status of its most recent upload.
// Types the user never uploaded are absent. "Most recent wins": when several
// uploads of one type exist, only the newest is consulted for gating.
type Evidence map[models.DocumentType]models.DocumentStatus

// DocumentsSubState distinguishes the "please upload" screen from the
// "submitted, awaiting review" screen. An upload alone never advances the
// step; only review completion does.
type DocumentsSubState string

const (
	SubStateNeedsUpload    DocumentsSubState = "needs_upload"
	SubStateAwaitingReview DocumentsSubState = "awaiting_review"
	SubStateRejected       DocumentsSubState = "rejected"
	SubStateApproved       DocumentsSubState = "approved"
)

// AllRequiredApproved reports whether every gating document type has an
// approved latest upload. This is the precondition for account approval.
func AllRequiredApproved(ev Evidence) bool {
	for _, t := range models.RequiredDocumentTypes {
		if ev[t] != models.DocumentStatusApproved {
			return false
		}
	}
	return true
}

// SubState classifies the documents step for the self-service client.
func SubState(ev Evidence) DocumentsSubState {
	if AllRequiredApproved(ev) {
		return SubStateApproved
	}

	rejected := false
	missing := false
	for _, t := range models.RequiredDocumentTypes {
		status, uploaded := ev[t]
		switch {
		case !uploaded:
			missing = true
		case status == models.DocumentStatusRejected:
			rejected = true
		}
	}

	if rejected {
		return SubStateRejected
	}
	if missing {
		return SubStateNeedsUpload
	}
	return SubStateAwaitingReview
}

// NextStep derives the step the self-service client should show. It is a
// pure read: account approval is the only writer of StepCompleted, so an
// account whose evidence is fully approved but which the administrator has
// not approved yet is shown StepFace, not StepCompleted.
func NextStep(user *models.User, ev Evidence) models.VerificationStep {
	switch user.VerificationStep {
	case models.StepPhone:
		return models.StepPhone
	case models.StepDocuments:
		if AllRequiredApproved(ev) {
			return models.StepFace
		}
		return models.StepDocuments
	case models.StepFace:
		return models.StepFace
	case models.StepCompleted:
		return models.StepCompleted
	default:
		return models.StepPhone
	}
}

// ValidateTransition enforces step monotonicity. The only legal regression is
// the administrator rejection route back to StepDocuments.
func ValidateTransition(from, to models.VerificationStep) bool {
	if from == to {
		return true
	}
	if to == models.StepDocuments && from.Rank() > models.StepDocuments.Rank() {
		// rejection route
		return true
	}
	return from.CanAdvanceTo(to)
}
