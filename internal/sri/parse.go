package sri

import (
	"fmt"

	"github.com/garyjia/sri-declaraciones/internal/models"
)

// ParsedForm is a Form103Result or a Form104Result
type ParsedForm interface {
	FormHeader() Header
}

// FormHeader implements ParsedForm
func (r *Form103Result) FormHeader() Header { return r.Header }

// FormHeader implements ParsedForm
func (r *Form104Result) FormHeader() Header { return r.Header }

// Parse runs the parser matching formType
func Parse(formType models.FormType, text string) (ParsedForm, error) {
	switch formType {
	case models.FormType103:
		return NewForm103Parser().Parse(text), nil
	case models.FormType104:
		return NewForm104Parser().Parse(text), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormType, formType)
}
