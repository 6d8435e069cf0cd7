package server

import (
	"strings"
	"testing"
)

func TestBuildReportHTML(t *testing.T) {
	markdown := "# Clinical Trial Match Report\n\n| Trial ID | Phase |\n| --- | --- |\n| NCT123 | Adjuvant |\n"
	html, err := buildReportHTML(markdown)
	if err != nil {
		t.Fatalf("buildReportHTML: %v", err)
	}
	for _, want := range []string{"<!doctype html>", "<h1", "Clinical Trial Match Report", "<table>", "NCT123"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestBuildReportHTMLInlinesStyle(t *testing.T) {
	html, err := buildReportHTML("plain text")
	if err != nil {
		t.Fatalf("buildReportHTML: %v", err)
	}
	if !strings.Contains(html, "<style>") {
		t.Error("report html must be self contained")
	}
}
