package diagram

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"# Title",             // 0
		"",                    // 1
		"```mermaid",          // 2
		"graph TD",            // 3
		"    A --> B",         // 4
		"```",                 // 5
		"text",                // 6
		"```go",               // 7
		"fmt.Println()",       // 8
		"```",                 // 9
		"~~~ Mermaid",         // 10
		"sequenceDiagram",     // 11
		"~~~",                 // 12
		"```mermaid",          // 13
		"graph LR",            // 14
	}, "\n")

	blocks := Extract("meta", text)
	if len(blocks) != 3 {
		t.Fatalf("Extract returned %d blocks, want 3: %+v", len(blocks), blocks)
	}

	tests := []struct {
		id     string
		start  int
		end    int
		source string
	}{
		{id: "meta_2", start: 2, end: 5, source: "graph TD\n    A --> B"},
		{id: "meta_10", start: 10, end: 12, source: "sequenceDiagram"},
		{id: "meta_13", start: 13, end: 14, source: "graph LR"},
	}
	for i, tt := range tests {
		b := blocks[i]
		if b.ID != tt.id || b.StartLine != tt.start || b.EndLine != tt.end || b.Source != tt.source {
			t.Errorf("block %d = %+v, want id=%s start=%d end=%d source=%q", i, b, tt.id, tt.start, tt.end, tt.source)
		}
	}
}

func TestExtract_NoBlocks(t *testing.T) {
	t.Parallel()

	if blocks := Extract("doc", "# Title\n\n- item\n```js\nx\n```"); len(blocks) != 0 {
		t.Errorf("Extract returned %d blocks, want 0", len(blocks))
	}
}

func TestNewRef(t *testing.T) {
	t.Parallel()

	ref := NewRef("doc_3", "graph TD\n  A（開始） --> B：結束")
	if ref.Source != "graph TD\n  A(開始) --> B:結束" {
		t.Errorf("Source = %q, want normalized", ref.Source)
	}
	if ref.Key != Key(ref.Source) {
		t.Errorf("Key = %q, want key of normalized source %q", ref.Key, Key(ref.Source))
	}
	if ref.Resolved() || ref.Failed() {
		t.Error("new ref should be neither resolved nor failed")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ascii unchanged", input: "graph TD\n A[x] --> B{y}", want: "graph TD\n A[x] --> B{y}"},
		{name: "full-width parens", input: "A（x）", want: "A(x)"},
		{name: "full-width colon", input: "title：Plan", want: "title:Plan"},
		{name: "lenticular brackets", input: "A【x】", want: "A[x]"},
		{name: "full-width square brackets", input: "A［x］", want: "A[x]"},
		{name: "full-width braces", input: "C｛ok｝", want: "C{ok}"},
		{name: "comma and semicolon", input: "a，b；c", want: "a,b;c"},
		{name: "em dash arrow", input: "A —> B", want: "A --> B"},
		{name: "double em dash arrow", input: "A ——> B", want: "A --> B"},
		{name: "full-width hyphen arrow", input: "A －> B", want: "A -> B"},
		{name: "unicode arrow", input: "A → B", want: "A --> B"},
		{name: "crlf", input: "a\r\nb", want: "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Normalize is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNeedsNormalization(t *testing.T) {
	t.Parallel()

	if NeedsNormalization("graph TD\nA-->B") {
		t.Error("ascii source should not need normalization")
	}
	if !NeedsNormalization("A（x）") {
		t.Error("full-width source should need normalization")
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	a := Key("graph TD\nA-->B")
	b := Key("graph TD\nA-->B")
	c := Key("graph TD\nA-->C")

	if a != b {
		t.Errorf("Key is not deterministic: %q != %q", a, b)
	}
	if a == c {
		t.Error("different sources produced the same key")
	}
	if len(a) != KeyLength {
		t.Errorf("len(Key) = %d, want %d", len(a), KeyLength)
	}
	if strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("Key %q is not lower-case hex", a)
	}
}

func TestKey_SameAfterNormalization(t *testing.T) {
	t.Parallel()

	full := NewRef("a_0", "A（x）")
	ascii := NewRef("b_7", "A(x)")
	if full.Key != ascii.Key {
		t.Errorf("keys differ after normalization: %q vs %q", full.Key, ascii.Key)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	code := "graph TD\n    A[交易監控] -->|是| B{資料是否完整}\n    B --> C<br/>D"
	opts := RenderOptions{Theme: "forest"}

	payload, err := Encode(code, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	data, ok := strings.CutPrefix(payload, "pako:")
	if !ok {
		t.Fatalf("payload %q lacks pako: prefix", payload)
	}
	if strings.ContainsAny(data, "+/=") {
		t.Errorf("payload is not URL-safe unpadded base64: %q", data)
	}
	if _, err := base64.RawURLEncoding.DecodeString(data); err != nil {
		t.Errorf("payload does not decode as raw URL base64: %v", err)
	}

	gotCode, gotOpts, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if gotCode != code {
		t.Errorf("decoded code = %q, want %q", gotCode, code)
	}
	if gotOpts != opts {
		t.Errorf("decoded options = %+v, want %+v", gotOpts, opts)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"", "base64:abc", "pako:!!!", "pako:" + base64.RawURLEncoding.EncodeToString([]byte("not zlib"))} {
		if _, _, err := Decode(payload); err == nil {
			t.Errorf("Decode(%q) expected error", payload)
		}
	}
}
