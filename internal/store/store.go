// Package store is the local fallback item store. When no backend is
// reachable, upload commits land here: a single JSON document of items
// addressed by stable ID, with parent links instead of stored paths.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/drivedeck/drivedeck/internal/logging"
	"github.com/drivedeck/drivedeck/internal/models"
	"github.com/drivedeck/drivedeck/internal/state"
)

var (
	// ErrItemNotFound indicates no item with the given ID exists.
	ErrItemNotFound = errors.New("item not found")

	// ErrParentNotFound indicates the ParentID names no existing item.
	ErrParentNotFound = errors.New("parent folder not found")

	// ErrParentNotFolder indicates the ParentID names a file.
	ErrParentNotFolder = errors.New("parent is not a folder")

	// ErrClosed indicates the store has been shut down.
	ErrClosed = errors.New("store closed")
)

// applyRequest is one queued mutation. fn receives a private copy of
// the latest item set and returns the replacement set.
type applyRequest struct {
	fn    func(items []models.StoredItem) ([]models.StoredItem, error)
	reply chan error
}

// Store persists items as a single JSON document.
//
// The document is loaded once at Open and rewritten atomically on
// every mutation. All mutations flow through a serialized apply
// queue: each one is a function over the latest snapshot, so
// concurrent completing uploads cannot lose sibling writes.
type Store struct {
	path string
	log  *logging.Logger

	applyCh   chan applyRequest
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.RWMutex
	items []models.StoredItem
}

// Open loads the item document at path, creating an empty store if the
// file does not exist.
func Open(path string, log *logging.Logger) (*Store, error) {
	s := &Store{
		path:    path,
		log:     log,
		applyCh: make(chan applyRequest),
		done:    make(chan struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.items = []models.StoredItem{}
	case err != nil:
		return nil, fmt.Errorf("failed to read item store: %w", err)
	default:
		if err := json.Unmarshal(data, &s.items); err != nil {
			return nil, fmt.Errorf("failed to parse item store: %w", err)
		}
	}

	go s.run()
	return s, nil
}

// run is the apply loop. It owns persistence: a mutation is visible to
// readers only after the document rewrite succeeded.
func (s *Store) run() {
	for {
		select {
		case req := <-s.applyCh:
			req.reply <- s.applyOne(req.fn)
		case <-s.done:
			return
		}
	}
}

func (s *Store) applyOne(fn func([]models.StoredItem) ([]models.StoredItem, error)) error {
	next, err := fn(s.snapshot())
	if err != nil {
		return err
	}

	if err := s.persist(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
	return nil
}

// apply queues a mutation and waits for it to land.
func (s *Store) apply(fn func([]models.StoredItem) ([]models.StoredItem, error)) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	req := applyRequest{fn: fn, reply: make(chan error, 1)}
	select {
	case s.applyCh <- req:
		return <-req.reply
	case <-s.done:
		return ErrClosed
	}
}

// snapshot returns a copy of the current item set.
func (s *Store) snapshot() []models.StoredItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.StoredItem, len(s.items))
	copy(items, s.items)
	return items
}

// persist rewrites the document atomically (tmp + rename).
func (s *Store) persist(items []models.StoredItem) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode item store: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write item store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save item store: %w", err)
	}
	return nil
}

// Close stops the apply loop. Pending mutations fail with ErrClosed.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// newID returns a random item ID.
func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("itm_%d", time.Now().UnixNano())
	}
	return "itm_" + hex.EncodeToString(buf)
}

// Add inserts an item and returns it with its assigned ID.
//
// Invariant: ParentID must be empty (root) or name an existing folder.
func (s *Store) Add(item models.StoredItem) (models.StoredItem, error) {
	if item.ID == "" {
		item.ID = newID()
	}
	if item.Modified.IsZero() {
		item.Modified = time.Now()
	}

	err := s.apply(func(items []models.StoredItem) ([]models.StoredItem, error) {
		if item.ParentID != "" {
			parent, ok := findByID(items, item.ParentID)
			if !ok {
				return nil, fmt.Errorf("add %q: %w", item.Name, ErrParentNotFound)
			}
			if !parent.IsFolder() {
				return nil, fmt.Errorf("add %q: %w", item.Name, ErrParentNotFolder)
			}
		}
		return append(items, item), nil
	})
	if err != nil {
		return models.StoredItem{}, err
	}

	s.log.Debug().Str("id", item.ID).Str("name", item.Name).Msg("item added to local store")
	return item, nil
}

// Replace swaps the item with the same ID.
func (s *Store) Replace(item models.StoredItem) error {
	return s.apply(func(items []models.StoredItem) ([]models.StoredItem, error) {
		for i := range items {
			if items[i].ID == item.ID {
				items[i] = item
				return items, nil
			}
		}
		return nil, fmt.Errorf("replace %q: %w", item.ID, ErrItemNotFound)
	})
}

// Delete removes an item; deleting a folder removes its subtree.
func (s *Store) Delete(id string) error {
	return s.apply(func(items []models.StoredItem) ([]models.StoredItem, error) {
		if _, ok := findByID(items, id); !ok {
			return nil, fmt.Errorf("delete %q: %w", id, ErrItemNotFound)
		}

		doomed := map[string]bool{id: true}
		// Parents always precede children in discovery order, so one
		// pass per tree level until the set stops growing.
		for {
			grew := false
			for _, item := range items {
				if !doomed[item.ID] && doomed[item.ParentID] {
					doomed[item.ID] = true
					grew = true
				}
			}
			if !grew {
				break
			}
		}

		kept := items[:0]
		for _, item := range items {
			if !doomed[item.ID] {
				kept = append(kept, item)
			}
		}
		return kept, nil
	})
}

// Get returns the item with the given ID.
func (s *Store) Get(id string) (models.StoredItem, bool) {
	return findByID(s.snapshot(), id)
}

// Items returns a copy of all items.
func (s *Store) Items() []models.StoredItem {
	return s.snapshot()
}

// Children lists the immediate children of a folder ("" = root),
// sorted with the shared ordering policy.
func (s *Store) Children(parentID string, order state.Order) []models.FileItem {
	var children []models.FileItem
	for _, item := range s.snapshot() {
		if item.ParentID == parentID {
			children = append(children, item.ListItem())
		}
	}
	state.SortItems(children, order, state.SortByName, true)
	return children
}

// PathOf computes the display path of an item by walking parent links.
func (s *Store) PathOf(id string) (string, error) {
	items := s.snapshot()

	var segments []string
	current := id
	for current != "" {
		item, ok := findByID(items, current)
		if !ok {
			return "", fmt.Errorf("path of %q: %w", id, ErrItemNotFound)
		}
		segments = append([]string{item.Name}, segments...)
		current = item.ParentID
	}
	return "/" + strings.Join(segments, "/"), nil
}

// ResolveFolder maps a display path ("/a/b") to a folder ID. The root
// path ("" or "/") resolves to the empty ID.
func (s *Store) ResolveFolder(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", nil
	}

	items := s.snapshot()

	parentID := ""
	for _, segment := range strings.Split(path, "/") {
		found := false
		for _, item := range items {
			if item.ParentID == parentID && item.Name == segment && item.IsFolder() {
				parentID = item.ID
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("resolve %q: %w", path, ErrItemNotFound)
		}
	}
	return parentID, nil
}

func findByID(items []models.StoredItem, id string) (models.StoredItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.StoredItem{}, false
}
