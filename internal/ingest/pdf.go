package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageInsufficientText is substituted for any page that yields no extractable
// text, so the assembled record keeps its page-count signal instead of
// silently shrinking.
const PageInsufficientText = " [No text extracted from this page.]"

type pageText struct {
	text string
	err  error
}

// ExtractPDFText walks the document's pages in order and concatenates their
// plain text. Pages that cannot be decoded contribute the placeholder rather
// than failing the whole document.
func ExtractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]pageText, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, pageText{})
			continue
		}
		text, err := page.GetPlainText(nil)
		pages = append(pages, pageText{text: text, err: err})
	}
	return assemblePages(pages), nil
}

func assemblePages(pages []pageText) string {
	var b strings.Builder
	for _, p := range pages {
		if p.err != nil || strings.TrimSpace(p.text) == "" {
			b.WriteString(PageInsufficientText)
			continue
		}
		b.WriteString(p.text)
	}
	return b.String()
}
