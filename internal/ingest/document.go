package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one intake slot (imaging, biopsy, surgical). A slot may carry
// pasted text, an uploaded file path, both, or neither. When both are present
// the pasted text wins and the file is ignored.
type Document struct {
	Label string
	Text  string
	Path  string
}

// Extract returns the slot's text contribution. An empty slot contributes
// nothing and is not an error.
func (d Document) Extract() (string, error) {
	if strings.TrimSpace(d.Text) != "" {
		return d.Text, nil
	}
	if d.Path == "" {
		return "", nil
	}
	switch strings.ToLower(filepath.Ext(d.Path)) {
	case ".pdf":
		text, err := ExtractPDFText(d.Path)
		if err != nil {
			return "", fmt.Errorf("%s: %w", d.Label, err)
		}
		return text, nil
	case ".docx":
		text, err := extractDocxText(d.Path)
		if err != nil {
			return "", fmt.Errorf("%s: %w", d.Label, err)
		}
		return text, nil
	default:
		blob, err := os.ReadFile(d.Path)
		if err != nil {
			return "", fmt.Errorf("%s: read upload: %w", d.Label, err)
		}
		return string(blob), nil
	}
}

// Assemble concatenates the contributions of all provided slots into one
// clinical record blob, in slot order.
func Assemble(docs []Document) (string, error) {
	var b strings.Builder
	for _, d := range docs {
		text, err := d.Extract()
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
