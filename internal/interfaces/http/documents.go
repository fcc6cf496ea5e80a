package http

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/service"
)

// ListDocumentsRequest holds the query parameters of GET /api/documents/
type ListDocumentsRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
}

// ListDocuments handles GET /api/documents/
func (h *Handlers) ListDocuments(c *gin.Context) {
	req := ListDocumentsRequest{Page: 1, PageSize: service.DefaultPageSize}
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "invalid query parameters")
		return
	}

	list, err := h.documents.List(c.Request.Context(), req.Page, req.PageSize, req.Status)
	if err != nil {
		h.respondError(c, "list documents", err)
		return
	}
	ok(c, list)
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get document", err)
		return
	}
	ok(c, doc)
}

// DeleteDocument handles DELETE /api/documents/:id
func (h *Handlers) DeleteDocument(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, "delete document", err)
		return
	}
	ok(c, gin.H{"message": "Document deleted successfully", "document_id": id})
}

// DocumentStats handles GET /api/documents/stats/overview
func (h *Handlers) DocumentStats(c *gin.Context) {
	stats, err := h.documents.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, "document stats", err)
		return
	}
	ok(c, stats)
}

// ReprocessDocument handles POST /api/documents/:id/reprocess
func (h *Handlers) ReprocessDocument(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	if err := h.documents.Reprocess(c.Request.Context(), id); err != nil {
		h.respondError(c, "reprocess document", err)
		return
	}
	h.logger.Info("Document queued for reprocessing", zap.Int64("document_id", id))
	ok(c, gin.H{"message": "Document queued for reprocessing", "document_id": id})
}

// UploadSingle handles POST /api/upload/single
func (h *Handlers) UploadSingle(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "missing file field")
		return
	}

	result, err := h.uploads.Upload(c.Request.Context(), toUploadFile(fh))
	if err != nil {
		h.respondError(c, "upload", err)
		return
	}
	ok(c, result)
}

// UploadBulk handles POST /api/upload/bulk
func (h *Handlers) UploadBulk(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "invalid multipart form")
		return
	}

	headers := form.File["files"]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, toUploadFile(fh))
	}

	result, err := h.uploads.UploadBulk(c.Request.Context(), files)
	if err != nil {
		h.respondError(c, "bulk upload", err)
		return
	}
	ok(c, result)
}

// UploadStatus handles GET /api/upload/status/:id
func (h *Handlers) UploadStatus(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	status, err := h.uploads.Status(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "upload status", err)
		return
	}
	ok(c, status)
}

func toUploadFile(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
