package models

import "time"

// Folder is a node in the file library tree.
type Folder struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int      `json:"parentId"` // nil = root folder
	Order     int       `json:"order"`    // rank among siblings
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsRoot returns true if the folder is at the root level.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// FolderRef is the short form of a folder used in breadcrumbs and file listings.
type FolderRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FolderCounts holds the number of direct children and files of a folder.
type FolderCounts struct {
	Children int `json:"children"`
	Files    int `json:"files"`
}
