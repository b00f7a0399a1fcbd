package files

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero bytes", 0, "0 B"},
		{"1023 bytes", 1023, "1023 B"},
		{"1 KB", 1024, "1.0 KB"},
		{"1.5 KB", 1536, "1.5 KB"},
		{"1 MB", 1048576, "1.0 MB"},
		{"10 MB", 10485760, "10.0 MB"},
		{"1.5 GB", 1610612736, "1.5 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatFileSize(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatFileSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestUploadExtension(t *testing.T) {
	tests := []struct {
		name    string
		wantExt string
		wantOK  bool
	}{
		{"report.pdf", ".pdf", true},
		{"Photo.JPG", ".jpg", true},
		{"budget.final.xlsx", ".xlsx", true},
		{"notes.txt", ".txt", true},
		{"data.csv", ".csv", true},
		{"script.exe", ".exe", false},
		{"archive.zip", ".zip", false},
		{"README", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ok := uploadExtension(tt.name)
			if ext != tt.wantExt || ok != tt.wantOK {
				t.Errorf("uploadExtension(%q) = (%q, %v), want (%q, %v)", tt.name, ext, ok, tt.wantExt, tt.wantOK)
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := contentTypeFor("image/png", ".png"); got != "image/png" {
		t.Errorf("header type = %q, want image/png", got)
	}
	if got := contentTypeFor("", ".pdf"); got != "application/pdf" {
		t.Errorf("pdf type = %q, want application/pdf", got)
	}
	if got := contentTypeFor("application/octet-stream", ".xlsx"); !strings.Contains(got, "spreadsheetml") {
		t.Errorf("xlsx type = %q, want spreadsheetml", got)
	}
}

func TestStoredName(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{32}\.pdf$`)
	a, b := storedName(".pdf"), storedName(".pdf")
	if !pattern.MatchString(a) {
		t.Errorf("storedName() = %q, want 32 hex chars + .pdf", a)
	}
	if a == b {
		t.Error("storedName() returned the same name twice")
	}
}

func TestStoragePath(t *testing.T) {
	now := time.Date(2026, time.March, 5, 23, 0, 0, 0, time.UTC)
	if got := storagePath(now, "abc.txt"); got != "files/2026/03/abc.txt" {
		t.Errorf("storagePath() = %q, want files/2026/03/abc.txt", got)
	}
}
