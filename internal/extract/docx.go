package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const docxDocumentPath = "word/document.xml"

// textRun matches <w:t>...</w:t> nodes regardless of run attributes, so
// documents with revision ids or preserved-space attributes still yield text.
var textRun = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// extractDOCX pulls the text runs out of a .docx package. DOCX is a zip
// archive whose body lives at word/document.xml.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	var body []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		body, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		break
	}
	if body == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docxDocumentPath)
	}

	runs := textRun.FindAllSubmatch(body, -1)
	if len(runs) == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, run := range runs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.Write(bytes.TrimSpace(run[1]))
	}
	return strings.TrimSpace(b.String()), nil
}
