// Package models defines the data types shared across the console core:
// listing entries, the local fallback store's item record, and the wire
// models of the admin REST API.
package models

import "time"

// Kind distinguishes folders from files.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// FileItem represents a file or folder in a listing.
// Used by both the remote browser and the local fallback store.
type FileItem struct {
	// ID is the unique identifier (server-assigned for remote items,
	// store-assigned for local ones).
	ID string

	// Name is the display name.
	Name string

	// IsFolder indicates whether this is a folder.
	IsFolder bool

	// Size is the file size in bytes (0 for folders).
	Size int64

	// ModTime is the last modification time.
	ModTime time.Time

	// ParentID is the parent folder ID (empty for roots).
	ParentID string
}

// StoredItem is the local fallback store's persisted record. It mirrors
// the server's file model when no backend is available.
//
// Items are addressed by stable ID: ParentID references the parent
// folder's ID (empty = root). Display paths are derived by walking
// parent links, never stored.
type StoredItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	SizeLabel string    `json:"sizeLabel"` // Formatted for display ("2.00 MB")
	SizeBytes int64     `json:"sizeBytes"` // Byte-exact size
	Modified  time.Time `json:"modified"`
	TypeLabel string    `json:"fileType"` // "PDF Document", "Image", ...
	Owner     string    `json:"owner"`
	ParentID  string    `json:"parentId"`
	Content   string    `json:"content,omitempty"` // Base64-encoded payload
	MimeType  string    `json:"mimeType,omitempty"`
}

// IsFolder reports whether the item is a folder.
func (s StoredItem) IsFolder() bool {
	return s.Kind == KindFolder
}

// ListItem converts a StoredItem to the listing representation.
func (s StoredItem) ListItem() FileItem {
	return FileItem{
		ID:       s.ID,
		Name:     s.Name,
		IsFolder: s.IsFolder(),
		Size:     s.SizeBytes,
		ModTime:  s.Modified,
		ParentID: s.ParentID,
	}
}
