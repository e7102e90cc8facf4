// Package state provides observable state containers for the console
// core. Containers emit events when state changes, allowing any
// frontend to subscribe and update its UI accordingly.
package state

import (
	"sync"
	"time"

	"github.com/drivedeck/drivedeck/internal/events"
	"github.com/drivedeck/drivedeck/internal/models"
)

// ListChangedEvent is published when a file list changes.
type ListChangedEvent struct {
	events.BaseEvent
	Items      []models.FileItem
	FolderID   string
	FolderPath string
	Source     string // "local" or "remote"
}

// SelectionChangedEvent is published when the selection changes.
type SelectionChangedEvent struct {
	events.BaseEvent
	SelectedIDs []string
	Source      string
}

// SortChangedEvent is published when the sort settings change.
type SortChangedEvent struct {
	events.BaseEvent
	SortBy    string
	Ascending bool
	Source    string
}

// FileListState is an observable file list container.
// It holds the current listing of a folder and publishes events on
// changes. Thread-safe for concurrent access.
type FileListState struct {
	// source identifies this file list ("local" or "remote")
	source string

	eventBus *events.EventBus

	items      []models.FileItem
	selected   map[string]bool
	order      Order
	sortBy     string
	ascending  bool
	folderID   string
	folderPath string
	loading    bool
	lastError  error

	mu sync.RWMutex
}

// NewFileListState creates a FileListState with the default ordering.
func NewFileListState(source string, eventBus *events.EventBus) *FileListState {
	return &FileListState{
		source:    source,
		eventBus:  eventBus,
		items:     make([]models.FileItem, 0),
		selected:  make(map[string]bool),
		order:     FilesFirst,
		sortBy:    SortByName,
		ascending: true,
	}
}

// GetItems returns a copy of the current items.
func (s *FileListState) GetItems() []models.FileItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.FileItem, len(s.items))
	copy(result, s.items)
	return result
}

// SetItems updates the file list and publishes a change event.
func (s *FileListState) SetItems(items []models.FileItem) {
	s.mu.Lock()
	s.items = items
	SortItems(s.items, s.order, s.sortBy, s.ascending)
	s.loading = false
	s.lastError = nil
	ev := s.listChangedLocked()
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(ev)
	}
}

// listChangedLocked builds a ListChangedEvent from current state (must
// hold lock).
func (s *FileListState) listChangedLocked() *ListChangedEvent {
	itemsCopy := make([]models.FileItem, len(s.items))
	copy(itemsCopy, s.items)
	return &ListChangedEvent{
		BaseEvent:  events.BaseEvent{EventType: events.EventListChanged, Time: time.Now()},
		Items:      itemsCopy,
		FolderID:   s.folderID,
		FolderPath: s.folderPath,
		Source:     s.source,
	}
}

// SetLoading marks the list as loading.
func (s *FileListState) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// IsLoading returns whether the list is currently loading.
func (s *FileListState) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetError records a load failure.
func (s *FileListState) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.loading = false
}

// GetError returns the last error.
func (s *FileListState) GetError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// SetCurrentFolder updates the current folder.
func (s *FileListState) SetCurrentFolder(folderID, folderPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folderID = folderID
	s.folderPath = folderPath
}

// GetCurrentFolder returns the current folder ID and display path.
func (s *FileListState) GetCurrentFolder() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folderID, s.folderPath
}

// Select adds an item to the selection.
func (s *FileListState) Select(id string) {
	s.mu.Lock()
	s.selected[id] = true
	selectedIDs := s.getSelectedIDsLocked()
	s.mu.Unlock()

	s.publishSelection(selectedIDs)
}

// Deselect removes an item from the selection.
func (s *FileListState) Deselect(id string) {
	s.mu.Lock()
	delete(s.selected, id)
	selectedIDs := s.getSelectedIDsLocked()
	s.mu.Unlock()

	s.publishSelection(selectedIDs)
}

// ToggleSelect toggles an item's selection state.
func (s *FileListState) ToggleSelect(id string) {
	s.mu.Lock()
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	selectedIDs := s.getSelectedIDsLocked()
	s.mu.Unlock()

	s.publishSelection(selectedIDs)
}

// ClearSelection clears all selections.
func (s *FileListState) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[string]bool)
	s.mu.Unlock()

	s.publishSelection([]string{})
}

// IsSelected returns whether an item is selected.
func (s *FileListState) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[id]
}

// GetSelectedIDs returns the IDs of selected items.
func (s *FileListState) GetSelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSelectedIDsLocked()
}

func (s *FileListState) getSelectedIDsLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	return ids
}

// GetSelectedItems returns the selected items in list order.
func (s *FileListState) GetSelectedItems() []models.FileItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.FileItem, 0, len(s.selected))
	for _, item := range s.items {
		if s.selected[item.ID] {
			result = append(result, item)
		}
	}
	return result
}

func (s *FileListState) publishSelection(ids []string) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(&SelectionChangedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.EventSelectionChanged, Time: time.Now()},
		SelectedIDs: ids,
		Source:      s.source,
	})
}

// SetSort updates the sort settings and re-sorts the list.
func (s *FileListState) SetSort(sortBy string, ascending bool) {
	s.mu.Lock()
	s.sortBy = sortBy
	s.ascending = ascending
	SortItems(s.items, s.order, s.sortBy, s.ascending)
	ev := s.listChangedLocked()
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(&SortChangedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventSortChanged, Time: time.Now()},
			SortBy:    sortBy,
			Ascending: ascending,
			Source:    s.source,
		})
		s.eventBus.Publish(ev)
	}
}

// GetSort returns the current sort settings.
func (s *FileListState) GetSort() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortBy, s.ascending
}

// SetOrder changes the grouping policy and re-sorts the list.
func (s *FileListState) SetOrder(order Order) {
	s.mu.Lock()
	s.order = order
	SortItems(s.items, s.order, s.sortBy, s.ascending)
	ev := s.listChangedLocked()
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(ev)
	}
}

// FindByID finds an item by ID.
func (s *FileListState) FindByID(id string) (models.FileItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.FileItem{}, false
}

// Count returns the number of items.
func (s *FileListState) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear clears all items and selection.
func (s *FileListState) Clear() {
	s.mu.Lock()
	s.items = make([]models.FileItem, 0)
	s.selected = make(map[string]bool)
	s.lastError = nil
	ev := s.listChangedLocked()
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(ev)
	}
	s.publishSelection([]string{})
}
