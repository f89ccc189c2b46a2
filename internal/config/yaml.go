package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits config input to prevent memory exhaustion (1MB).
const MaxInputSize = 1 << 20

var (
	errEmptyData     = errors.New("empty config data")
	errInputTooLarge = errors.New("config input exceeds maximum size")
)

// unmarshalStrict decodes YAML into v, rejecting unknown fields.
func unmarshalStrict(data []byte, v any) error {
	if len(data) == 0 {
		return errEmptyData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", errInputTooLarge, len(data), MaxInputSize)
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}
