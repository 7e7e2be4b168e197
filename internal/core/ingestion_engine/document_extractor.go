package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/xuri/excelize/v2"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.TextExtractor using sajari/docconv for
// office and PDF formats and excelize for spreadsheets.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText dispatches on the file extension. Unsupported or corrupt files
// fail with an apperr extraction error.
func (e *DocconvExtractor) ExtractText(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".txt", ".md":
		return string(bytes.ToValidUTF8(data, nil)), nil
	case ".xlsx":
		text, err := extractSpreadsheet(data)
		if err != nil {
			return "", apperr.Extraction(fmt.Errorf("%s: %w", fileName, err))
		}
		return text, nil
	case ".pdf", ".docx", ".doc", ".rtf", ".odt", ".html", ".htm", ".xml":
		mimeType := docconv.MimeTypeByExtension(fileName)
		res, err := docconv.Convert(bytes.NewReader(data), mimeType, e.useReadability)
		if err != nil {
			return "", apperr.Extraction(fmt.Errorf("%s (%s): %w", fileName, mimeType, err))
		}
		return res.Body, nil
	default:
		return "", apperr.Extraction(fmt.Errorf("%s: file type %q is not supported", fileName, ext))
	}
}

// extractSpreadsheet renders every sheet as a "Sheet: name" header followed by
// tab-separated non-empty rows and a blank line.
func extractSpreadsheet(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var parts []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheet, err)
		}
		parts = append(parts, "Sheet: "+sheet)
		for _, row := range rows {
			line := strings.Join(row, "\t")
			if strings.TrimSpace(line) != "" {
				parts = append(parts, line)
			}
		}
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n"), nil
}
