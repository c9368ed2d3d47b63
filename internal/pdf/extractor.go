package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor turns raw PDF bytes into plain text. All pages are concatenated;
// page boundaries are not preserved.
type Extractor struct{}

func NewExtractor() Extractor {
	return Extractor{}
}

func (Extractor) Extract(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty document")
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i, err)
		}
		sb.WriteString(pageText)
	}

	return sb.String(), nil
}
