package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/service"
	"github.com/garyjia/sri-declaraciones/internal/worker"
)

// Version is reported by the health check
const Version = "1.0.0"

// DocumentService manages stored declarations
type DocumentService interface {
	List(ctx context.Context, page, pageSize int, status string) (*models.DocumentListResponse, error)
	Get(ctx context.Context, id int64) (*models.DocumentDetail, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*models.DocumentStats, error)
	Reprocess(ctx context.Context, id int64) error
}

// UploadService accepts PDF uploads
type UploadService interface {
	Upload(ctx context.Context, file service.UploadFile) (*models.UploadResult, error)
	UploadBulk(ctx context.Context, files []service.UploadFile) (*models.BulkUploadResult, error)
	Status(ctx context.Context, id int64) (*models.UploadStatus, error)
}

// FormsService serves parsed form data
type FormsService interface {
	Form103(ctx context.Context, id int64) (*models.Form103Data, error)
	Form104(ctx context.Context, id int64) (*models.Form104Data, error)
	ListByFormType(ctx context.Context, formType string) (*models.FormTypeListing, error)
}

// ClienteService aggregates documents per client
type ClienteService interface {
	ListClients(ctx context.Context) ([]models.ClientSummary, error)
	ClientDocuments(ctx context.Context, razonSocial string) (*models.ClientDocuments, error)
	YearlySummary(ctx context.Context, razonSocial, year string, excluded []int) (*models.YearlySummary, error)
	Validation(ctx context.Context, razonSocial, year string) (*models.YearValidation, error)
}

// ExportService renders yearly summaries to files
type ExportService interface {
	Excel(ctx context.Context, razonSocial, year string, excluded []int) (*service.ExportedFile, error)
	PDF(ctx context.Context, razonSocial, year string, excluded []int, branding models.PDFBranding) (*service.ExportedFile, error)
}

// ProcessorStatusReporter exposes background processor health
type ProcessorStatusReporter interface {
	GetStatus() worker.ProcessorStatus
}

// DatabaseChecker reports whether the database answers
type DatabaseChecker interface {
	Healthy(ctx context.Context) error
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	documents DocumentService
	uploads   UploadService
	forms     FormsService
	clientes  ClienteService
	exports   ExportService
	processor ProcessorStatusReporter // optional
	database  DatabaseChecker         // optional
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	documents DocumentService,
	uploads UploadService,
	forms FormsService,
	clientes ClienteService,
	exports ExportService,
	processor ProcessorStatusReporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		documents: documents,
		uploads:   uploads,
		forms:     forms,
		clientes:  clientes,
		exports:   exports,
		processor: processor,
		logger:    logger,
	}
}

// WithDatabase makes the health check ping db
func (h *Handlers) WithDatabase(db DatabaseChecker) *Handlers {
	h.database = db
	return h
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Success: false, Error: message, Code: code})
}

// errorStatus maps service errors to an HTTP status and error code
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNoValidPeriods):
		return http.StatusUnprocessableEntity, models.ErrorCodeNoValidPeriods
	case errors.Is(err, service.ErrClientNotFound):
		return http.StatusNotFound, models.ErrorCodeClientNotFound
	case errors.Is(err, service.ErrDocumentNotFound), errors.Is(err, service.ErrFormDataNotFound):
		return http.StatusNotFound, models.ErrorCodeNotFound
	case errors.Is(err, service.ErrInvalidYear):
		return http.StatusBadRequest, models.ErrorCodeInvalidYear
	case errors.Is(err, service.ErrInvalidExcludeMonths):
		return http.StatusBadRequest, models.ErrorCodeInvalidExcludeMonths
	case errors.Is(err, models.ErrBrandingIncomplete):
		return http.StatusBadRequest, models.ErrorCodeBrandingIncomplete
	case errors.Is(err, models.ErrInvalidColor):
		return http.StatusBadRequest, models.ErrorCodeInvalidColor
	case errors.Is(err, service.ErrInvalidFileType):
		return http.StatusBadRequest, models.ErrorCodeInvalidFileType
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, models.ErrorCodeFileTooLarge
	case errors.Is(err, service.ErrTooManyFiles):
		return http.StatusBadRequest, models.ErrorCodeTooManyFiles
	case errors.Is(err, service.ErrNoFiles),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidFormType),
		errors.Is(err, service.ErrInvalidPagination):
		return http.StatusBadRequest, models.ErrorCodeInvalidRequest
	default:
		return http.StatusInternalServerError, models.ErrorCodeInternal
	}
}

// respondError writes err using the error envelope. Internal errors are
// logged and their message hidden from the caller.
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		fail(c, status, code, "internal server error")
		return
	}
	fail(c, status, code, err.Error())
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "invalid document ID")
		return 0, false
	}
	return id, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	health := models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}
	if h.database != nil {
		health.Database = "ok"
		if err := h.database.Healthy(c.Request.Context()); err != nil {
			h.logger.Error("Database health check failed", zap.Error(err))
			health.Status = "degraded"
			health.Database = "unreachable"
		}
	}
	if h.processor != nil {
		st := h.processor.GetStatus()
		if !st.IsHealthy {
			health.Status = "degraded"
		}
		health.Processor = st
	}
	ok(c, health)
}
