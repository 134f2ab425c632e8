package rag

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSupported(t *testing.T) {
	t.Parallel()

	cases := []struct {
		filename string
		want     bool
	}{
		{"notes.md", true},
		{"notes.markdown", true},
		{"notes.txt", true},
		{"NOTES.MD", true},
		{"report.pdf", false},
		{"archive.tar.gz", false},
		{"noextension", false},
	}

	for _, tc := range cases {
		if got := Supported(tc.filename); got != tc.want {
			t.Errorf("Supported(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}

func TestLoadDocumentReadsContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runbook.md")
	if err := os.WriteFile(path, []byte("# Deploys\n\nDeploys run on fridays."), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	text, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument returned error: %v", err)
	}
	if text != "# Deploys\n\nDeploys run on fridays." {
		t.Errorf("content = %q", text)
	}
}

func TestLoadDocumentRejectsUnsupportedType(t *testing.T) {
	t.Parallel()

	if _, err := LoadDocument("slides.pptx"); err == nil {
		t.Error("expected error for unsupported file type")
	}
}

func TestLoadDocumentMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadDocument(filepath.Join(t.TempDir(), "absent.md")); err == nil {
		t.Error("expected error for missing file")
	}
}
