package sri

import "errors"

// ErrUnknownFormType is returned when a document is neither Form 103 nor Form 104
var ErrUnknownFormType = errors.New("could not detect form type")
