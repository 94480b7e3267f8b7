package verification

import (
	"testing"

	"servimarket_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func ev(front, back, selfie models.DocumentStatus) Evidence {
	out := Evidence{}
	if front != "" {
		out[models.DocumentTypeIDFront] = front
	}
	if back != "" {
		out[models.DocumentTypeIDBack] = back
	}
	if selfie != "" {
		out[models.DocumentTypeSelfie] = selfie
	}
	return out
}

func TestAllRequiredApproved(t *testing.T) {
	approved := models.DocumentStatusApproved
	pending := models.DocumentStatusPending

	assert.True(t, AllRequiredApproved(ev(approved, approved, approved)))
	assert.False(t, AllRequiredApproved(ev(approved, pending, approved)))
	assert.False(t, AllRequiredApproved(ev(approved, approved, "")))
	assert.False(t, AllRequiredApproved(Evidence{}))

	// Extra types never participate in the gate.
	extra := ev(approved, approved, approved)
	extra[models.DocumentTypeCertification] = models.DocumentStatusRejected
	assert.True(t, AllRequiredApproved(extra))
}

func TestSubState(t *testing.T) {
	approved := models.DocumentStatusApproved
	pending := models.DocumentStatusPending
	rejected := models.DocumentStatusRejected

	assert.Equal(t, SubStateNeedsUpload, SubState(Evidence{}))
	assert.Equal(t, SubStateNeedsUpload, SubState(ev(pending, pending, "")))
	assert.Equal(t, SubStateAwaitingReview, SubState(ev(pending, pending, pending)))
	assert.Equal(t, SubStateApproved, SubState(ev(approved, approved, approved)))

	// A rejection dominates a missing upload: the user must see the reason.
	assert.Equal(t, SubStateRejected, SubState(ev(rejected, pending, "")))
	assert.Equal(t, SubStateRejected, SubState(ev(approved, rejected, approved)))
}

func TestSubStateLatestUploadWins(t *testing.T) {
	// The evidence map already holds only the newest status per type, so a
	// re-upload after rejection shows up as pending again.
	assert.Equal(t, SubStateAwaitingReview, SubState(ev(
		models.DocumentStatusPending,
		models.DocumentStatusPending,
		models.DocumentStatusPending,
	)))
}

func TestNextStep(t *testing.T) {
	approved := models.DocumentStatusApproved
	pending := models.DocumentStatusPending

	user := &models.User{VerificationStep: models.StepPhone}
	assert.Equal(t, models.StepPhone, NextStep(user, Evidence{}))

	user.VerificationStep = models.StepDocuments
	assert.Equal(t, models.StepDocuments, NextStep(user, ev(pending, pending, pending)))
	assert.Equal(t, models.StepFace, NextStep(user, ev(approved, approved, approved)))

	// Approval of the whole account, not evidence alone, yields completed.
	user.VerificationStep = models.StepFace
	assert.Equal(t, models.StepFace, NextStep(user, ev(approved, approved, approved)))

	user.VerificationStep = models.StepCompleted
	assert.Equal(t, models.StepCompleted, NextStep(user, Evidence{}))
}

func TestValidateTransition(t *testing.T) {
	assert.True(t, ValidateTransition(models.StepPhone, models.StepDocuments))
	assert.True(t, ValidateTransition(models.StepDocuments, models.StepFace))
	assert.True(t, ValidateTransition(models.StepFace, models.StepCompleted))
	assert.True(t, ValidateTransition(models.StepFace, models.StepFace))

	// Backwards moves are forbidden except the rejection route.
	assert.False(t, ValidateTransition(models.StepDocuments, models.StepPhone))
	assert.False(t, ValidateTransition(models.StepCompleted, models.StepFace))
	assert.True(t, ValidateTransition(models.StepFace, models.StepDocuments))
	assert.True(t, ValidateTransition(models.StepCompleted, models.StepDocuments))
}
