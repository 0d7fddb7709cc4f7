package ingest

import (
	"io"
	"strings"
	"testing"
	"unicode/utf8"
)

// chunkReader yields its input in fixed-size chunks, to exercise multi-byte
// sequences split across Read calls.
type chunkReader struct {
	data []byte
	size int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.size
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestWrapReader_PassesCleanInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"ascii", "customer_id,amount\nC1,100\n"},
		{"multibyte utf8", "name\nJosé,münchen,€500\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(WrapReader(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(got) != tt.input {
				t.Errorf("got %q, want %q", got, tt.input)
			}
		})
	}
}

func TestWrapReader_SkipsBOM(t *testing.T) {
	got, err := io.ReadAll(WrapReader(strings.NewReader("\xEF\xBB\xBFhello")))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}

	// A BOM-like sequence mid-stream is legitimate content (ZWNBSP).
	got, err = io.ReadAll(WrapReader(strings.NewReader("he\xEF\xBB\xBFllo")))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "he\xEF\xBB\xBFllo" {
		t.Errorf("mid-stream BOM stripped: %q", got)
	}
}

func TestWrapReader_ReplacesInvalidBytes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "latin1 byte",
			input: "caf\xE9 latte",
			want:  "caf? latte",
		},
		{
			name:  "orphan continuation byte",
			input: "ab\x80cd",
			want:  "ab?cd",
		},
		{
			name:  "truncated sequence at EOF",
			input: "ab\xE2\x82",
			want:  "ab??",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(WrapReader(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !utf8.Valid(got) {
				t.Errorf("output is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestWrapReader_SplitMultiByteSequence(t *testing.T) {
	// "€" is 3 bytes; a 1-byte chunk size splits every sequence.
	input := "price: €500 — ok"
	r := newUTF8Sanitizer(&chunkReader{data: []byte(input), size: 1})

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != input {
		t.Errorf("got %q, want %q", got, input)
	}
}
