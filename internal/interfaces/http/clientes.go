package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/period"
	"github.com/garyjia/sri-declaraciones/internal/service"
)

// GetForm103 handles GET /api/forms-data/form-103/:id
func (h *Handlers) GetForm103(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	data, err := h.forms.Form103(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "form 103", err)
		return
	}
	ok(c, data)
}

// GetForm104 handles GET /api/forms-data/form-104/:id
func (h *Handlers) GetForm104(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	data, err := h.forms.Form104(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "form 104", err)
		return
	}
	ok(c, data)
}

// ListByFormType handles GET /api/forms-data/list-by-form-type/:type
func (h *Handlers) ListByFormType(c *gin.Context) {
	listing, err := h.forms.ListByFormType(c.Request.Context(), c.Param("type"))
	if err != nil {
		h.respondError(c, "list by form type", err)
		return
	}
	ok(c, listing)
}

// ListClients handles GET /api/clientes/
func (h *Handlers) ListClients(c *gin.Context) {
	clients, err := h.clientes.ListClients(c.Request.Context())
	if err != nil {
		h.respondError(c, "list clients", err)
		return
	}
	ok(c, clients)
}

// ClientDocuments handles GET /api/clientes/:razonSocial
func (h *Handlers) ClientDocuments(c *gin.Context) {
	docs, err := h.clientes.ClientDocuments(c.Request.Context(), c.Param("razonSocial"))
	if err != nil {
		h.respondError(c, "client documents", err)
		return
	}
	ok(c, docs)
}

// YearlySummary handles GET /api/clientes/:razonSocial/yearly-summary/:year
func (h *Handlers) YearlySummary(c *gin.Context) {
	excluded, err := period.ParseExcludeMonths(c.Query("exclude_months"))
	if err != nil {
		h.respondError(c, "yearly summary", err)
		return
	}

	summary, err := h.clientes.YearlySummary(c.Request.Context(), c.Param("razonSocial"), c.Param("year"), excluded)
	if err != nil {
		h.respondError(c, "yearly summary", err)
		return
	}
	ok(c, summary)
}

// YearValidation handles GET /api/clientes/:razonSocial/validation/:year
func (h *Handlers) YearValidation(c *gin.Context) {
	report, err := h.clientes.Validation(c.Request.Context(), c.Param("razonSocial"), c.Param("year"))
	if err != nil {
		h.respondError(c, "year validation", err)
		return
	}
	ok(c, report)
}

// ExportExcel handles POST /api/clientes/:razonSocial/export-excel/:year
func (h *Handlers) ExportExcel(c *gin.Context) {
	excluded, err := period.ParseExcludeMonths(c.Query("exclude_months"))
	if err != nil {
		h.respondError(c, "excel export", err)
		return
	}

	file, err := h.exports.Excel(c.Request.Context(), c.Param("razonSocial"), c.Param("year"), excluded)
	if err != nil {
		h.respondError(c, "excel export", err)
		return
	}
	sendFile(c, file)
}

// ExportPDF handles POST /api/clientes/:razonSocial/export-pdf/:year
func (h *Handlers) ExportPDF(c *gin.Context) {
	excluded, err := period.ParseExcludeMonths(c.Query("exclude_months"))
	if err != nil {
		h.respondError(c, "pdf export", err)
		return
	}

	var branding models.PDFBranding
	if err := c.ShouldBindJSON(&branding); err != nil {
		fail(c, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "invalid branding payload")
		return
	}

	file, err := h.exports.PDF(c.Request.Context(), c.Param("razonSocial"), c.Param("year"), excluded, branding)
	if err != nil {
		h.respondError(c, "pdf export", err)
		return
	}
	sendFile(c, file)
}

func sendFile(c *gin.Context, file *service.ExportedFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
