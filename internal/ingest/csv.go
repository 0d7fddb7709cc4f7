package ingest

// csv.go reads an uploaded CSV report into records. Header names are
// normalized to the snake_case field names the schemas use; cell values stay
// strings (the validation engine owns type coercion), with empty cells
// becoming null so required-field checks see them as absent.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arclend/lenddash/internal/validation"
)

// ErrTooManyRecords is returned when a file exceeds the configured row limit.
var ErrTooManyRecords = errors.New("too many records")

// ErrEmptyFile is returned when a file has no header row.
var ErrEmptyFile = errors.New("empty file")

// ReadRecords parses CSV data into records plus the normalized header. Rows
// shorter than the header leave the missing fields absent; maxRecords <= 0
// means no limit.
func ReadRecords(r io.Reader, maxRecords int) ([]validation.Record, []string, error) {
	cr := csv.NewReader(WrapReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rawHeader, err := cr.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = NormalizeHeader(h)
	}

	var records []validation.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if maxRecords > 0 && len(records) >= maxRecords {
			return nil, nil, fmt.Errorf("%w: limit is %d", ErrTooManyRecords, maxRecords)
		}

		rec := make(validation.Record, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = CleanCell(cell)
			if cell == "" {
				rec[header[i]] = validation.NullValue
			} else {
				rec[header[i]] = validation.StringValue(cell)
			}
		}
		records = append(records, rec)
	}

	return records, header, nil
}

// NormalizeHeader converts a CSV column header into the schema field-name
// convention: trimmed, lowercased, spaces and dashes as underscores.
func NormalizeHeader(h string) string {
	h = CleanCell(h)
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

// CleanCell strips common CSV artifacts from a cell value: surrounding
// whitespace, the Excel formula prefix (="..."), and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
