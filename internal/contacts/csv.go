package contacts

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ErrEmptyFile indicates a CSV with no rows at all.
var ErrEmptyFile = errors.New("CSV file is empty")

// ParseCSV reads contacts from a CSV stream with a header line followed by
// name,email,company records. The header is discarded, fields are trimmed,
// and a row is kept only when its email is non-empty and contains an "@".
// Stricter validation happens at send time. Quoted fields with embedded
// commas are handled by the reader.
func ParseCSV(r io.Reader) ([]Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	// Header row: discarded, order is fixed as name,email,company.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyFile
		}
		return nil, err
	}

	var out []Contact
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row: skip it, same as a row with no email.
			continue
		}
		c := Contact{
			Name:    field(record, 0),
			Email:   field(record, 1),
			Company: field(record, 2),
		}
		if c.Email == "" || !strings.Contains(c.Email, "@") {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
