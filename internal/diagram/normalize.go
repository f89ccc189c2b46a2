package diagram

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// KeyLength is the number of hex characters kept from the source digest.
const KeyLength = 16

// PayloadScheme prefixes encoded render requests.
const PayloadScheme = "pako"

// punctuation maps characters that authoring tools inject in place of ASCII
// and that break the Mermaid grammar. Longer arrow forms come first.
var punctuation = strings.NewReplacer(
	"——>", "-->",
	"—>", "-->",
	"－－>", "-->",
	"－>", "->",
	"→", "-->",
	"（", "(",
	"）", ")",
	"：", ":",
	"【", "[",
	"】", "]",
	"［", "[",
	"］", "]",
	"｛", "{",
	"｝", "}",
	"，", ",",
	"；", ";",
	"\r\n", "\n",
)

// Normalize replaces full-width punctuation and malformed arrows with their
// ASCII equivalents. Normalize is idempotent.
func Normalize(src string) string {
	return punctuation.Replace(src)
}

// NeedsNormalization reports whether Normalize would change src.
func NeedsNormalization(src string) bool {
	return Normalize(src) != src
}

// Key returns the content-addressed cache key of already normalized source.
func Key(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:KeyLength]
}

// RenderOptions are forwarded to the renderer alongside the diagram code.
type RenderOptions struct {
	Theme string `json:"theme"`
}

// DefaultRenderOptions returns the options used when none are configured.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Theme: "default"}
}

// renderState is the JSON document understood by pako-style endpoints.
type renderState struct {
	Code    string        `json:"code"`
	Mermaid RenderOptions `json:"mermaid"`
}

// Encode serializes code and options, deflates them and returns the
// "pako:<url-safe base64>" request path segment.
func Encode(code string, opts RenderOptions) (string, error) {
	var doc bytes.Buffer
	enc := json.NewEncoder(&doc)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(renderState{Code: code, Mermaid: opts}); err != nil {
		return "", fmt.Errorf("encoding diagram state: %w", err)
	}
	payload := bytes.TrimSuffix(doc.Bytes(), []byte("\n"))

	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("creating deflate writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		_ = zw.Close()
		return "", fmt.Errorf("deflating diagram state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("deflating diagram state: %w", err)
	}

	return PayloadScheme + ":" + base64.RawURLEncoding.EncodeToString(compressed.Bytes()), nil
}

// Decode reverses Encode. It is used by tests and debugging tools.
func Decode(payload string) (string, RenderOptions, error) {
	data, ok := strings.CutPrefix(payload, PayloadScheme+":")
	if !ok {
		return "", RenderOptions{}, fmt.Errorf("missing %q scheme", PayloadScheme)
	}
	raw, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return "", RenderOptions{}, fmt.Errorf("decoding base64: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", RenderOptions{}, fmt.Errorf("opening deflate stream: %w", err)
	}
	defer zr.Close()

	var state renderState
	if err := json.NewDecoder(zr).Decode(&state); err != nil {
		return "", RenderOptions{}, fmt.Errorf("decoding diagram state: %w", err)
	}
	return state.Code, state.Mermaid, nil
}
