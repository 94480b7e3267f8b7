package handlers

import (
	"net/http"

	"servimarket_backend/internal/services"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/internal/validator"
	"servimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// VerificationHandler serves the self-service verification flow: code
// checks, resends, the selfie capture and the status poll.
type VerificationHandler struct {
	*BaseHandler
	verificationService services.VerificationService
}

func NewVerificationHandler(v *validator.Validator, verificationService services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		BaseHandler:         NewBaseHandler(v),
		verificationService: verificationService,
	}
}

// RegisterRoutes mounts the flow under /verification. Authentication is
// required; an active account is not, since the flow exists precisely for
// accounts that are not yet active.
func (h *VerificationHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	v := r.Group("/verification")
	v.Use(authMW)
	{
		v.POST("/phone/verify", h.VerifyPhone)
		v.POST("/phone/resend", h.ResendPhoneCode)
		v.POST("/email/verify", h.VerifyEmail)
		v.POST("/email/resend", h.ResendEmailCode)
		v.POST("/selfie", h.SubmitSelfie)
		v.GET("/status", h.Status)
	}
}

// VerifyPhone handles POST /api/v1/verification/phone/verify.
func (h *VerificationHandler) VerifyPhone(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.VerifyPhoneRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.verificationService.VerifyPhone(c.Request.Context(), h.GetDB(c), userID, req.Code); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone verified"})
}

// ResendPhoneCode handles POST /api/v1/verification/phone/resend. The new
// code invalidates the previous one.
func (h *VerificationHandler) ResendPhoneCode(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.verificationService.IssuePhoneCode(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyEmail handles POST /api/v1/verification/email/verify.
func (h *VerificationHandler) VerifyEmail(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.VerifyEmailRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.verificationService.VerifyEmail(c.Request.Context(), h.GetDB(c), userID, req.Code); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

// ResendEmailCode handles POST /api/v1/verification/email/resend.
func (h *VerificationHandler) ResendEmailCode(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.verificationService.IssueEmailCode(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitSelfie handles POST /api/v1/verification/selfie (multipart). The
// capture puts the account under review.
func (h *VerificationHandler) SubmitSelfie(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("File is required"))
		return
	}

	req := &dto.UploadDocumentRequest{
		UserID: userID,
		File:   file,
	}
	resp, err := h.verificationService.SubmitSelfie(c.Request.Context(), h.GetDB(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Status handles GET /api/v1/verification/status. Safe to poll.
func (h *VerificationHandler) Status(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.verificationService.CheckStatus(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
