package assets

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateAssetName checks that name can be used as a bare file name.
// Path separators, dots, spaces and control characters are rejected.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return nil
}
