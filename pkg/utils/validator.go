package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	rucPattern      = regexp.MustCompile(`^\d{13}$`)
	cedulaPattern   = regexp.MustCompile(`^\d{10}$`)
	hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	controlChars    = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// ValidateRUC validates an Ecuadorian taxpayer identifier.
// A RUC has 13 digits and ends in 001 for the main establishment; a 10 digit
// cedula is accepted for natural persons.
func ValidateRUC(ruc string) error {
	ruc = strings.TrimSpace(ruc)
	if cedulaPattern.MatchString(ruc) {
		return nil
	}
	if !rucPattern.MatchString(ruc) {
		return fmt.Errorf("RUC must have 13 digits: %s", ruc)
	}
	if !strings.HasSuffix(ruc, "001") {
		return fmt.Errorf("RUC must end in 001: %s", ruc)
	}
	return nil
}

// ValidateHexColor validates a #rrggbb color
func ValidateHexColor(color string) error {
	if !hexColorPattern.MatchString(color) {
		return fmt.Errorf("invalid hex color: %s", color)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SafeFileComponent turns a company name into a file name component by
// replacing whitespace runs with underscores.
func SafeFileComponent(name string) string {
	name = strings.TrimSpace(SanitizeString(name))
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return whitespaceRun.ReplaceAllString(name, "_")
}
