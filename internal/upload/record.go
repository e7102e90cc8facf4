package upload

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"
)

// State is an upload record's lifecycle state.
type State int

const (
	// Uploading: progress ticks are being applied.
	Uploading State = iota
	// Completed: commit succeeded, record shows 100% until auto-dismiss.
	Completed
	// Errored: read or commit failed; the record persists until Dismiss.
	Errored
)

func (s State) String() string {
	switch s {
	case Completed:
		return "completed"
	case Errored:
		return "errored"
	default:
		return "uploading"
	}
}

// Record is one entry in the upload progress panel.
type Record struct {
	ID          string
	DisplayName string
	ByteSize    int64
	// Percent is the displayed progress, an integer in [0,100],
	// monotone while Uploading and exactly 100 on completion.
	Percent int
	State   State
	// Reason carries the failure text for Errored records.
	Reason string
	// TargetParent is the folder the item commits into.
	TargetParent string

	// accumulated is the fractional progress the ticker adds to;
	// Percent is its floor.
	accumulated float64
	startedAt   time.Time
}

// newRecordID builds a client-side unique ID: creation timestamp plus
// a random suffix to disambiguate same-instant records.
func newRecordID() string {
	return fmt.Sprintf("up_%d_%04d", time.Now().UnixNano(), rand.Intn(10000))
}

// classifyType maps a file extension to its display type label.
func classifyType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".svg":
		return "Image"
	case ".pdf":
		return "PDF Document"
	case ".doc", ".docx":
		return "Word Document"
	case ".xls", ".xlsx":
		return "Excel Spreadsheet"
	case ".ppt", ".pptx":
		return "PowerPoint Presentation"
	default:
		return "Document"
	}
}

// sizeLabel formats a byte count for display. The byte-exact size is
// kept separately in the commit payload.
func sizeLabel(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
}
