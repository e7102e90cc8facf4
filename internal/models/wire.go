package models

import "time"

// FolderInfo is a folder entry as returned by the listing endpoints.
type FolderInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	ParentID string    `json:"parentId"`
	Created  time.Time `json:"createdAt"`
}

// FileInfo is a file entry as returned by the listing endpoints.
type FileInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"fileName"`
	Size     int64     `json:"size"`
	TypeName string    `json:"fileType"`
	ParentID string    `json:"folderId"`
	Uploaded time.Time `json:"uploadedAt"`
}

// FolderContents is the combined listing of a folder.
type FolderContents struct {
	Folders []FolderInfo `json:"folders"`
	Files   []FileInfo   `json:"files"`
}

// RootFolders holds the IDs of the user's top-level folders.
type RootFolders struct {
	Roots []FolderInfo `json:"roots"`
}

// AddItemRequest is the commit payload for an uploaded item.
type AddItemRequest struct {
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	SizeLabel string `json:"sizeLabel"`
	SizeBytes int64  `json:"sizeBytes"`
	TypeLabel string `json:"fileType"`
	ParentID  string `json:"parentId"`
	Owner     string `json:"owner"`
	Content   string `json:"content,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
}

// TrashEntry is a soft-deleted file or folder.
type TrashEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	DeletedAt time.Time `json:"deletedAt"`
	DeletedBy string    `json:"deletedBy"`
}

// User is an account visible to administrators.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Created  time.Time `json:"createdAt"`
}

// SecurityGroup groups users for permission assignment.
type SecurityGroup struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"memberIds"`
}

// Permission names an access level grantable on a file or folder.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionOwner Permission = "owner"
)

// PermissionAssignment binds a user or group to a permission on a
// file/folder scope.
type PermissionAssignment struct {
	ID         string     `json:"id"`
	ScopeID    string     `json:"scopeId"` // File or folder ID
	GranteeID  string     `json:"granteeId"`
	Grantee    string     `json:"granteeType"` // "user" or "group"
	Permission Permission `json:"permission"`
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for subsequent requests.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SignupRequest creates a new account.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
