package state

import (
	"sort"
	"strings"

	"github.com/drivedeck/drivedeck/internal/models"
)

// Order is the grouping policy for mixed file/folder listings. Every
// surface that renders a listing (tree children, browser lists, the
// local store) applies the same policy.
type Order int

const (
	// FilesFirst lists files before folders. This is the default.
	FilesFirst Order = iota
	// FoldersFirst lists folders before files.
	FoldersFirst
)

func (o Order) String() string {
	if o == FoldersFirst {
		return "folders-first"
	}
	return "files-first"
}

// Sort keys within a group.
const (
	SortByName = "name"
	SortBySize = "size"
	SortByDate = "date"
)

// SortItems sorts items in place: grouped by the order policy, then by
// the sort key within each group. The ascending flag applies to the
// sort key only, never to the grouping.
func SortItems(items []models.FileItem, order Order, sortBy string, ascending bool) {
	if len(items) == 0 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]

		if a.IsFolder != b.IsFolder {
			if order == FoldersFirst {
				return a.IsFolder
			}
			return !a.IsFolder
		}

		var less bool
		switch sortBy {
		case SortBySize:
			less = a.Size < b.Size
		case SortByDate:
			less = a.ModTime.Before(b.ModTime)
		default:
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}

		if ascending {
			return less
		}
		return !less
	})
}
