package llm

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	errEmptyResume = errors.New("resume PDF contains no extractable text")
	runOfSpace     = regexp.MustCompile(`\s+`)
)

func extractPDFText(r io.ReaderAt, size int64) (text string, err error) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("read resume PDF: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open resume PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		raw, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read resume page %d: %w", i, err)
		}
		b.WriteString(cleanLines(raw))
		b.WriteString("\n")
	}

	text = b.String()
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResume
	}
	return text, nil
}

func cleanLines(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(runOfSpace.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}
