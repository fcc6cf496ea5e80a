// Package sri extracts and parses Ecuadorian SRI Form 103 and Form 104 declarations.
package sri

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// ExtractedText is the text layer of a PDF
type ExtractedText struct {
	FullText        string
	TotalPages      int
	TotalCharacters int
}

// TextExtractor reads the text layer of a PDF file
type TextExtractor interface {
	Extract(ctx context.Context, pdfPath string) (*ExtractedText, error)
}

// FitzExtractor extracts text with MuPDF
type FitzExtractor struct {
	logger *zap.Logger
}

// NewFitzExtractor creates a MuPDF backed extractor
func NewFitzExtractor(logger *zap.Logger) *FitzExtractor {
	return &FitzExtractor{logger: logger}
}

// Extract returns the text of every page, each prefixed with "=== Page N ==="
func (e *FitzExtractor) Extract(ctx context.Context, pdfPath string) (*ExtractedText, error) {
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	e.logger.Debug("Extracting PDF text",
		zap.String("path", pdfPath),
		zap.Int("total_pages", pageCount))

	parts := make([]string, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum+1),
				zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, FormatPage(pageNum+1, text))
	}

	full := strings.Join(parts, "\n")
	return &ExtractedText{
		FullText:        full,
		TotalPages:      pageCount,
		TotalCharacters: utf8.RuneCountInString(full),
	}, nil
}

// FormatPage renders one page with its separator line
func FormatPage(pageNum int, text string) string {
	return fmt.Sprintf("=== Page %d ===\n%s\n", pageNum, text)
}
