package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Supported reports whether the file extension can be ingested.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// LoadDocument reads a supported document's text content.
func LoadDocument(path string) (string, error) {
	if !Supported(path) {
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(content), nil
}
