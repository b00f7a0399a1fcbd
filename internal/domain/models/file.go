package models

import "time"

// File is an uploaded file placed at the root or inside a folder.
type File struct {
	ID           int        `json:"id"`
	Filename     string     `json:"filename"`     // stored name (random hex + extension)
	OriginalName string     `json:"originalName"` // name as uploaded
	MimeType     string     `json:"mimeType"`
	FileSize     int64      `json:"fileSize"`
	FilePath     string     `json:"filePath"` // path in the storage backend
	Description  *string    `json:"description"`
	Category     *string    `json:"category"`
	FolderID     *int       `json:"folderId"` // nil = root level
	Order        int        `json:"order"`
	UploadedBy   string     `json:"uploadedBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Folder       *FolderRef `json:"folder,omitempty"`
}

// IsInRoot returns true if the file is at the root level (not in any folder).
func (f *File) IsInRoot() bool {
	return f.FolderID == nil
}

// DefaultFileCategory is assigned to uploads that do not name a category.
const DefaultFileCategory = "general"
