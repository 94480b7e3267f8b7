package handlers

import (
	"net/http"

	"servimarket_backend/internal/services"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/internal/validator"
	"servimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the review console. Admin authorization itself happens
// in the AdminGate middleware, which reloads the account row per request.
type AdminHandler struct {
	*BaseHandler
	reviewService services.AdminReviewService
}

func NewAdminHandler(v *validator.Validator, reviewService services.AdminReviewService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   NewBaseHandler(v),
		reviewService: reviewService,
	}
}

// RegisterRoutes mounts the console under /admin behind the admin gate.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, authMW, adminGate gin.HandlerFunc) {
	admin := r.Group("/admin")
	admin.Use(authMW, adminGate)
	{
		admin.GET("/documents", h.ListDocuments)
		admin.POST("/documents/:id/approve", h.ApproveDocument)
		admin.POST("/documents/:id/reject", h.RejectDocument)
		admin.GET("/users/:id/documents", h.ListUserDocuments)
		admin.POST("/users/:id/approve", h.ApproveAccount)
	}
}

// ListDocuments handles GET /api/v1/admin/documents?estado=&user_id=.
func (h *AdminHandler) ListDocuments(c *gin.Context) {
	var query dto.AdminDocumentsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	groups, err := h.reviewService.ListQueue(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": groups})
}

// ListUserDocuments handles GET /api/v1/admin/users/:id/documents.
func (h *AdminHandler) ListUserDocuments(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing user id"))
		return
	}

	docs, err := h.reviewService.ListAccountDocuments(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documentos": docs})
}

// ApproveDocument handles POST /api/v1/admin/documents/:id/approve.
func (h *AdminHandler) ApproveDocument(c *gin.Context) {
	reviewerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.reviewService.ApproveDocument(c.Request.Context(), h.GetDB(c), reviewerID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RejectDocument handles POST /api/v1/admin/documents/:id/reject.
func (h *AdminHandler) RejectDocument(c *gin.Context) {
	reviewerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RejectDocumentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.reviewService.RejectDocument(c.Request.Context(), h.GetDB(c), reviewerID, c.Param("id"), req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApproveAccount handles POST /api/v1/admin/users/:id/approve.
func (h *AdminHandler) ApproveAccount(c *gin.Context) {
	reviewerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.reviewService.ApproveAccount(c.Request.Context(), h.GetDB(c), reviewerID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
