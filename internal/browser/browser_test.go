package browser

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestOpenRejectsNonHTTP(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"", true},
	}

	for _, tt := range tests {
		err := Open(tt.url)
		if tt.wantErr && err == nil {
			t.Errorf("Open(%q): expected error, got nil", tt.url)
		}
		// The launch itself may fail on headless machines; only scheme
		// validation is checked for valid URLs.
	}
}

func TestFileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FileURL(path)
	if err != nil {
		t.Fatalf("FileURL: %v", err)
	}
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/page.html") {
		t.Errorf("FileURL = %q", got)
	}
	if runtime.GOOS != "windows" && got != "file://"+path {
		t.Errorf("FileURL = %q, want file://%s", got, path)
	}
}

func TestFileURLErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := FileURL(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := FileURL(dir); err == nil {
		t.Error("expected error for directory")
	}
	if err := OpenFile(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("OpenFile should fail before launching")
	}
}
