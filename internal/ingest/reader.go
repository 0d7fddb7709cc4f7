// Package ingest converts uploaded CSV report files into loosely-typed
// records for the validation engine.
package ingest

// reader.go provides streaming wrappers for common CSV file issues:
// a UTF-8 BOM at the start of Windows exports, and invalid UTF-8 bytes
// from legacy encodings. Both operate in O(buffer) memory.

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// WrapReader applies BOM skipping and UTF-8 sanitization to r.
func WrapReader(r io.Reader) io.Reader {
	return newUTF8Sanitizer(skipBOM(r))
}

// skipBOM returns a reader with a leading UTF-8 BOM (0xEF 0xBB 0xBF)
// removed, if present.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(3); err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		br.Discard(3)
	}
	return br
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' on the fly. Multi-byte
// sequences split across Read calls are buffered until complete.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if allASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place, replacing invalid bytes with '?'.
// Returns the number of bytes to surface; an incomplete trailing sequence
// is held back in pending unless atEOF.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && incompleteTail(data[read:]) {
				s.pending = append(s.pending, data[read:]...)
				return write
			}
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// incompleteTail reports whether b could be the prefix of a valid multi-byte
// sequence cut off by the read boundary.
func incompleteTail(b []byte) bool {
	if len(b) >= utf8.UTFMax {
		return false
	}
	c := b[0]
	var want int
	switch {
	case c&0xE0 == 0xC0:
		want = 2
	case c&0xF0 == 0xE0:
		want = 3
	case c&0xF8 == 0xF0:
		want = 4
	default:
		return false
	}
	if len(b) >= want {
		return false
	}
	for _, cont := range b[1:] {
		if cont&0xC0 != 0x80 {
			return false
		}
	}
	return true
}

func allASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
