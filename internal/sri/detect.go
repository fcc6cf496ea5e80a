package sri

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/garyjia/sri-declaraciones/internal/models"
)

var (
	form103Marker = regexp.MustCompile(`(?is)1031.*?DECLARACI[OÓ]N DE RETENCIONES EN LA FUENTE`)
	form104Marker = regexp.MustCompile(`(?is)2011.*?DECLARACI[OÓ]N DE(L)? IVA`)
)

// DetectFormType classifies a declaration by file name first, then by content
func DetectFormType(text, filename string) models.FormType {
	name := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.Contains(name, "103"):
		return models.FormType103
	case strings.Contains(name, "104"):
		return models.FormType104
	}

	switch {
	case form103Marker.MatchString(text):
		return models.FormType103
	case form104Marker.MatchString(text):
		return models.FormType104
	}
	return models.FormTypeUnknown
}
