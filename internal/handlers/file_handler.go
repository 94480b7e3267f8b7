package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"servimarket_backend/internal/repositories"
	"servimarket_backend/internal/services"
	"servimarket_backend/internal/storage"
	"servimarket_backend/internal/validator"
	"servimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// FileHandler streams stored evidence files. A document is visible to its
// owner and to administrators only.
type FileHandler struct {
	*BaseHandler
	store           storage.Storage
	documentService services.DocumentService
	userRepo        repositories.UserRepository
}

func NewFileHandler(v *validator.Validator, store storage.Storage, documentService services.DocumentService, userRepo repositories.UserRepository) *FileHandler {
	return &FileHandler{
		BaseHandler:     NewBaseHandler(v),
		store:           store,
		documentService: documentService,
		userRepo:        userRepo,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	files := r.Group("/files")
	files.Use(authMW)
	{
		files.GET("/documents/:id", h.ServeDocument)
	}
}

// ServeDocument handles GET /api/v1/files/documents/:id.
func (h *FileHandler) ServeDocument(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	db := h.GetDB(c)

	doc, err := h.documentService.Get(db, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if doc.UserID != userID {
		user, err := h.userRepo.FindByID(db, userID)
		if err != nil || !user.IsAdmin {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied"))
			return
		}
	}

	path := storagePathFromURL(doc.URL)
	reader, err := h.store.Get(c.Request.Context(), path)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found in storage"))
		return
	}
	defer reader.Close()

	c.Header("Content-Type", contentTypeFor(path))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

// storagePathFromURL strips the public base, leaving the storage key.
func storagePathFromURL(url string) string {
	if idx := strings.Index(url, "documents/"); idx >= 0 {
		return url[idx:]
	}
	return url
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
