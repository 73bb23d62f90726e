package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/lshigami/Margay/internal/apperr"
)

// AllowedExtension reports whether the upload has a supported document type.
func AllowedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// Text extracts plain text from an uploaded resume document. It fails with
// apperr.ErrExtractionFailed when the type is unsupported or the document
// yields no usable text (e.g. a scanned PDF).
func Text(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = pdfText(data)
		if err != nil {
			return "", fmt.Errorf("%w: %s", apperr.ErrExtractionFailed, err)
		}
	case ".txt", ".md":
		text = string(data)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", apperr.ErrExtractionFailed, ext)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: document contains no extractable text", apperr.ErrExtractionFailed)
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
