package resume

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxFileSize caps uploaded resume files at 5MB.
const MaxFileSize = 5 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("only .txt and .pdf files are supported")
	ErrFileTooLarge    = errors.New("file size must be less than 5MB")
)

// Ingest turns an uploaded file into a (name, content) pair ready for review
// before the resume is actually stored. The name is the filename with its
// extension stripped. Plain text passes through verbatim; PDFs are reduced to
// their text layer, which loses layout but is fine for prompt context.
func Ingest(filename string, data []byte) (name, content string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".txt" && ext != ".pdf" {
		return "", "", ErrUnsupportedType
	}
	if len(data) > MaxFileSize {
		return "", "", ErrFileTooLarge
	}

	name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	if ext == ".txt" {
		return name, string(data), nil
	}

	content, err = extractPDFText(data)
	if err != nil {
		return "", "", fmt.Errorf("extracting PDF text: %w", err)
	}
	return name, content, nil
}

// extractPDFText concatenates the text layer of every page in page order.
// Fragments within a page are joined with single spaces, pages with newlines.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fragments := page.Content().Text
		for j, frag := range fragments {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(frag.S)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
