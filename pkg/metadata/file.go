package metadata

import (
	"time"
)

// RootParentID is the parentId sentinel for records at the top level.
const RootParentID = "0"

// FileType is the kind of a FileRecord. It is immutable after creation.
type FileType string

const (
	FileTypeFolder FileType = "folder"
	FileTypeFile   FileType = "file"
	FileTypeImage  FileType = "image"
)

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return true
	}
	return false
}

// HasContent reports whether records of this type own a blob.
func (t FileType) HasContent() bool {
	return t == FileTypeFile || t == FileTypeImage
}

// FileRecord is the metadata of a file, image or folder.
//
// Folders never carry LocalPath or ContentID. Only IsPublic may change after
// the record is created.
type FileRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      FileType  `json:"type"`
	OwnerID   string    `json:"userId"`
	ParentID  string    `json:"parentId"`
	IsPublic  bool      `json:"isPublic"`
	LocalPath string    `json:"localPath,omitempty"`
	ContentID string    `json:"contentId,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`

	// Seq orders records by creation. Assigned by the store.
	Seq uint64 `json:"-"`
}

// IsRoot reports whether the record sits at the top level.
func (r *FileRecord) IsRoot() bool {
	return r.ParentID == "" || r.ParentID == RootParentID
}

// VisibleTo reports whether requesterID may read the record's content.
// Public records are visible to everyone, including anonymous callers.
func (r *FileRecord) VisibleTo(requesterID string) bool {
	return r.IsPublic || (requesterID != "" && requesterID == r.OwnerID)
}

// Clone returns a copy of the record so callers cannot mutate store state.
func (r *FileRecord) Clone() *FileRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
