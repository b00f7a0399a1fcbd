package files

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxUploadSize is used when no upload limit is configured.
const DefaultMaxUploadSize int64 = 10 << 20

// allowedExtensions are the upload types the library accepts, lower case
// without the dot.
var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"txt": true, "csv": true,
}

// fallbackTypes covers extensions the host's mime table may not know.
var fallbackTypes = map[string]string{
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":  "text/csv",
}

// FormatFileSize formats a file size in bytes to a human-readable string.
func FormatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// uploadExtension returns the lower-case extension of name (with its dot)
// and whether it is on the allow-list.
func uploadExtension(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	return ext, allowedExtensions[strings.TrimPrefix(ext, ".")]
}

// contentTypeFor picks the stored mime type: the client's header when given,
// then the extension.
func contentTypeFor(header, ext string) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if t, ok := fallbackTypes[strings.TrimPrefix(ext, ".")]; ok {
		return t
	}
	return "application/octet-stream"
}

// storedName is 32 hex characters followed by ext.
func storedName(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

// storagePath places name under files/YYYY/MM/.
func storagePath(now time.Time, name string) string {
	now = now.UTC()
	return fmt.Sprintf("files/%04d/%02d/%s", now.Year(), int(now.Month()), name)
}
