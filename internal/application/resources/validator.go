package resources

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/aescanero/coyote/pkg/domain"
)

// MaxKeyLength bounds resource keys
const MaxKeyLength = 256

// Validator validates resource keys and values
type Validator struct{}

// NewValidator creates a new resource validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateKey checks that key can address a resource
func (v *Validator) ValidateKey(key string) error {
	if key == "" {
		return domain.NewInvalidArgument("resource key is required")
	}

	if len(key) > MaxKeyLength {
		return domain.NewInvalidArgument(fmt.Sprintf("resource key exceeds %d bytes", MaxKeyLength))
	}

	if !utf8.ValidString(key) {
		return domain.NewInvalidArgument("resource key is not valid UTF-8")
	}

	for _, r := range key {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return domain.NewInvalidArgument(fmt.Sprintf("resource key contains invalid character %q", r))
		}
	}

	return nil
}

// ValidateValue checks that value can be stored
func (v *Validator) ValidateValue(value []byte) error {
	if len(value) == 0 {
		return domain.NewInvalidContentSize()
	}
	return nil
}
