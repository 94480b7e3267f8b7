package handlers

import (
	"net/http"

	"servimarket_backend/internal/models"
	"servimarket_backend/internal/services"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/internal/validator"
	"servimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	*BaseHandler
	documentService services.DocumentService
}

func NewDocumentHandler(v *validator.Validator, documentService services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler:     NewBaseHandler(v),
		documentService: documentService,
	}
}

func (h *DocumentHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	docs := r.Group("/verification/documents")
	docs.Use(authMW)
	{
		docs.POST("", h.Upload)
		docs.GET("", h.List)
	}
}

// Upload handles POST /api/v1/verification/documents (multipart: tipo, file).
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	docType := models.DocumentType(c.PostForm("tipo"))
	if docType == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Field 'tipo' is required"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("File is required"))
		return
	}

	req := &dto.UploadDocumentRequest{
		UserID: userID,
		Type:   docType,
		File:   file,
	}
	if err := h.validator.Validate(req); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return
	}

	resp, err := h.documentService.Upload(c.Request.Context(), h.GetDB(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List handles GET /api/v1/verification/documents for the caller's account.
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var query dto.ListDocumentsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	docs, err := h.documentService.ListForAccount(h.GetDB(c), userID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documentos": docs})
}
