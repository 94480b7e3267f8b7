package dto

// RejectDocumentRequest records a rejection. The reason is mandatory and is
// shown to the user before re-upload.
type RejectDocumentRequest struct {
	Reason string `json:"rechazo_motivo" binding:"required"`
}

// AdminDocumentsQuery filters the review queue.
type AdminDocumentsQuery struct {
	Status string `form:"estado" validate:"omitempty,is-document-status"`
	UserID string `form:"user_id"`
}

// AccountDocumentsGroup is one account's slice of the review queue,
// newest upload first. CanApprove mirrors the server-side precondition so
// the console can enable its approve button; the backend re-checks anyway.
type AccountDocumentsGroup struct {
	UserID     string             `json:"user_id"`
	UserName   string             `json:"nombre"`
	UserEmail  string             `json:"email"`
	CanApprove bool               `json:"can_approve"`
	Documents  []DocumentResponse `json:"documentos"`
}

// ApproveAccountResponse confirms a whole-account approval.
type ApproveAccountResponse struct {
	UserID              string `json:"user_id"`
	IsActive            bool   `json:"is_active"`
	VerificationStatus  string `json:"verification_status"`
	NotificationsQueued int    `json:"notifications_queued"`
}
