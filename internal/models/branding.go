package models

import (
	"errors"
	"strings"

	"github.com/garyjia/sri-declaraciones/pkg/utils"
)

// Default PDF colours
const (
	DefaultPrimaryColor   = "#1a73e8"
	DefaultSecondaryColor = "#34a853"
)

// ErrBrandingIncomplete is returned when company name or footer are missing
var ErrBrandingIncomplete = errors.New("company name and footer text are required")

// ErrInvalidColor is returned for colours not in #rrggbb form
var ErrInvalidColor = errors.New("colors must be in #rrggbb format")

// PDFBranding customises the exported PDF report
type PDFBranding struct {
	CompanyName    string `json:"company_name"`
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	FooterText     string `json:"footer_text"`
}

// DefaultBranding returns an empty branding form with the default colours
func DefaultBranding() PDFBranding {
	return PDFBranding{
		PrimaryColor:   DefaultPrimaryColor,
		SecondaryColor: DefaultSecondaryColor,
	}
}

// IsComplete reports whether the required fields are filled in
func (b PDFBranding) IsComplete() bool {
	return strings.TrimSpace(b.CompanyName) != "" && strings.TrimSpace(b.FooterText) != ""
}

// Validate checks required fields and colour formats, filling colour defaults
func (b *PDFBranding) Validate() error {
	if !b.IsComplete() {
		return ErrBrandingIncomplete
	}
	if b.PrimaryColor == "" {
		b.PrimaryColor = DefaultPrimaryColor
	}
	if b.SecondaryColor == "" {
		b.SecondaryColor = DefaultSecondaryColor
	}
	if utils.ValidateHexColor(b.PrimaryColor) != nil || utils.ValidateHexColor(b.SecondaryColor) != nil {
		return ErrInvalidColor
	}
	return nil
}
