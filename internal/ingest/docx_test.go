package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const docxBodyXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Biopsy shows invasive ductal carcinoma.</w:t></w:r></w:p>
    <w:p><w:r><w:t>IHC reported as 3+.</w:t></w:r><w:r><w:t xml:space="preserve"> Allred POSITIVE.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeTestDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestExtractDocxText(t *testing.T) {
	path := writeTestDocx(t, docxBodyXML)
	got, err := extractDocxText(path)
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	if !strings.Contains(got, "invasive ductal carcinoma") {
		t.Fatalf("missing first paragraph: %q", got)
	}
	if !strings.Contains(got, "IHC reported as 3+. Allred POSITIVE.") {
		t.Fatalf("runs within a paragraph should join without breaks: %q", got)
	}
}

func TestExtractDocxMissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	f.Close()
	if _, err := extractDocxText(path); err == nil {
		t.Fatal("expected error for docx without document.xml")
	}
}
