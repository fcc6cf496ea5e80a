package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/period"
)

// Health calls GET /health
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadPart is one file of a multipart upload
type UploadPart struct {
	Filename string
	Content  io.Reader
}

// UploadSingle uploads one PDF
func (c *Client) UploadSingle(ctx context.Context, part UploadPart) (*models.UploadResult, error) {
	body, contentType, err := multipartBody("file", []UploadPart{part})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload/single", nil, body, contentType)
	if err != nil {
		return nil, err
	}
	var out models.UploadResult
	if err := c.decode(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadBulk uploads several PDFs in one request
func (c *Client) UploadBulk(ctx context.Context, parts []UploadPart) (*models.BulkUploadResult, error) {
	body, contentType, err := multipartBody("files", parts)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload/bulk", nil, body, contentType)
	if err != nil {
		return nil, err
	}
	var out models.BulkUploadResult
	if err := c.decode(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func multipartBody(field string, parts []UploadPart) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(field, p.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to add %s: %w", p.Filename, err)
		}
		if _, err := io.Copy(fw, p.Content); err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", p.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// UploadStatus calls GET /api/upload/status/:id
func (c *Client) UploadStatus(ctx context.Context, id int64) (*models.UploadStatus, error) {
	var out models.UploadStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/upload/status/"+idSegment(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDocumentsParams filters GET /api/documents/. Zero values are omitted.
type ListDocumentsParams struct {
	Page     int
	PageSize int
	Status   string
}

// ListDocuments calls GET /api/documents/
func (c *Client) ListDocuments(ctx context.Context, params ListDocumentsParams) (*models.DocumentListResponse, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	var out models.DocumentListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDocument calls GET /api/documents/:id
func (c *Client) GetDocument(ctx context.Context, id int64) (*models.DocumentDetail, error) {
	var out models.DocumentDetail
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+idSegment(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDocument calls DELETE /api/documents/:id
func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/documents/"+idSegment(id), nil, nil, nil)
}

// ReprocessDocument calls POST /api/documents/:id/reprocess
func (c *Client) ReprocessDocument(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, "/api/documents/"+idSegment(id)+"/reprocess", nil, nil, nil)
}

// DocumentStats calls GET /api/documents/stats/overview
func (c *Client) DocumentStats(ctx context.Context) (*models.DocumentStats, error) {
	var out models.DocumentStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/stats/overview", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Form103 calls GET /api/forms-data/form-103/:id
func (c *Client) Form103(ctx context.Context, id int64) (*models.Form103Data, error) {
	var out models.Form103Data
	if err := c.doJSON(ctx, http.MethodGet, "/api/forms-data/form-103/"+idSegment(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Form104 calls GET /api/forms-data/form-104/:id
func (c *Client) Form104(ctx context.Context, id int64) (*models.Form104Data, error) {
	var out models.Form104Data
	if err := c.doJSON(ctx, http.MethodGet, "/api/forms-data/form-104/"+idSegment(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FormData fetches either form as the tagged FormData union
func (c *Client) FormData(ctx context.Context, formType models.FormType, id int64) (models.FormData, error) {
	switch formType {
	case models.FormType103:
		data, err := c.Form103(ctx, id)
		if err != nil {
			return nil, err
		}
		return data, nil
	case models.FormType104:
		data, err := c.Form104(ctx, id)
		if err != nil {
			return nil, err
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported form type %q", formType)
	}
}

// ListByFormType calls GET /api/forms-data/list-by-form-type/:type
func (c *Client) ListByFormType(ctx context.Context, formType models.FormType) (*models.FormTypeListing, error) {
	var out models.FormTypeListing
	path := "/api/forms-data/list-by-form-type/" + url.PathEscape(string(formType))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClients calls GET /api/clientes/
func (c *Client) ListClients(ctx context.Context) ([]models.ClientSummary, error) {
	var out []models.ClientSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/clientes/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClientDocuments calls GET /api/clientes/:razonSocial
func (c *Client) ClientDocuments(ctx context.Context, razonSocial string) (*models.ClientDocuments, error) {
	var out models.ClientDocuments
	if err := c.doJSON(ctx, http.MethodGet, clientPath(razonSocial), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// YearlySummary calls GET /api/clientes/:razonSocial/yearly-summary/:year
func (c *Client) YearlySummary(ctx context.Context, razonSocial, year string, excluded []int) (*models.YearlySummary, error) {
	var out models.YearlySummary
	path := clientPath(razonSocial) + "/yearly-summary/" + url.PathEscape(year)
	if err := c.doJSON(ctx, http.MethodGet, path, excludeQuery(excluded), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// YearValidation calls GET /api/clientes/:razonSocial/validation/:year
func (c *Client) YearValidation(ctx context.Context, razonSocial, year string) (*models.YearValidation, error) {
	var out models.YearValidation
	path := clientPath(razonSocial) + "/validation/" + url.PathEscape(year)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportExcel calls POST /api/clientes/:razonSocial/export-excel/:year
func (c *Client) ExportExcel(ctx context.Context, razonSocial, year string, excluded []int) (*Download, error) {
	path := clientPath(razonSocial) + "/export-excel/" + url.PathEscape(year)
	return c.download(ctx, path, excludeQuery(excluded), nil, models.SummaryFilename(razonSocial, year, "xlsx"))
}

// ExportPDF calls POST /api/clientes/:razonSocial/export-pdf/:year with the branding as body
func (c *Client) ExportPDF(ctx context.Context, razonSocial, year string, excluded []int, branding models.PDFBranding) (*Download, error) {
	path := clientPath(razonSocial) + "/export-pdf/" + url.PathEscape(year)
	return c.download(ctx, path, excludeQuery(excluded), branding, models.SummaryFilename(razonSocial, year, "pdf"))
}

func clientPath(razonSocial string) string {
	return "/api/clientes/" + url.PathEscape(razonSocial)
}

func idSegment(id int64) string {
	return strconv.FormatInt(id, 10)
}

func excludeQuery(excluded []int) url.Values {
	if len(excluded) == 0 {
		return nil
	}
	return url.Values{"exclude_months": {period.FormatExcludeMonths(excluded)}}
}
