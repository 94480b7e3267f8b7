package dto

import (
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/verification"
)

// VerifyPhoneRequest carries the 6-digit SMS code. The format is rejected
// here, before any storage lookup happens.
type VerifyPhoneRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

// VerifyEmailRequest carries the 4-digit email code (parallel channel).
type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required,len=4,numeric"`
}

// DocumentState is the per-type view inside the status response.
type DocumentState struct {
	Type            models.DocumentType   `json:"tipo"`
	Status          models.DocumentStatus `json:"estado"`
	RejectionReason string                `json:"rechazo_motivo,omitempty"`
	URL             string                `json:"url,omitempty"`
}

// StatusResponse is the poll target of the pending-approval screen. It is a
// pure read; polling it never mutates anything.
type StatusResponse struct {
	IsVerified         bool                           `json:"is_verified"`
	IsActive           bool                           `json:"is_active"`
	VerificationStatus models.VerificationStatus      `json:"verification_status"`
	CurrentStep        models.VerificationStep        `json:"current_step"`
	NextStep           models.VerificationStep        `json:"next_step"`
	DocumentsSubState  verification.DocumentsSubState `json:"documents_substate"`
	Documents          []DocumentState                `json:"documents"`
}

// ResendResponse acknowledges a new code. The previous code is invalid from
// this point on.
type ResendResponse struct {
	Message    string `json:"message"`
	TTLMinutes int    `json:"ttl_minutes"`
}
