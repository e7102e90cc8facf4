// Package tree implements the lazily-populated folder tree backing the
// console's sidebar. Children are fetched on first expand only; a
// collapse keeps the fetched children cached so re-expanding is free.
package tree

import (
	"context"
	"sync"

	"github.com/drivedeck/drivedeck/internal/events"
	"github.com/drivedeck/drivedeck/internal/logging"
	"github.com/drivedeck/drivedeck/internal/models"
	"github.com/drivedeck/drivedeck/internal/state"
)

// Lister fetches the immediate children of a folder.
type Lister interface {
	GetChildren(ctx context.Context, nodeID string) ([]models.FolderInfo, []models.FileInfo, error)
}

// RootLister fetches the user's top-level folders.
type RootLister interface {
	GetRootFolders(ctx context.Context) ([]models.FolderInfo, error)
}

// NodeState is the expansion state of a folder node.
type NodeState int

const (
	// Collapsed: children hidden. The cache may or may not be filled.
	Collapsed NodeState = iota
	// Loading: a children fetch is in flight. Toggles are no-ops.
	Loading
	// Expanded: children visible.
	Expanded
)

func (s NodeState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Expanded:
		return "expanded"
	default:
		return "collapsed"
	}
}

// Node is one entry in the folder tree.
//
// The children cache has three states: nil = never fetched, non-nil
// empty = fetched and empty, populated = fetched. File nodes never
// have children and never expand. state and children are guarded by
// the owning tree's mutex; the accessors take it, so a frontend may
// poll a node while its fetch is in flight.
type Node struct {
	ID          string
	Kind        models.Kind
	DisplayName string
	ParentID    string

	tree     *Tree
	state    NodeState
	children []*Node
}

// State returns the node's expansion state.
func (n *Node) State() NodeState {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.state
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n.Kind == models.KindFolder
}

// Fetched reports whether children have ever been fetched.
func (n *Node) Fetched() bool {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.children != nil
}

// Tree is the lazily-populated folder tree. Thread-safe; all node
// mutations happen under the tree mutex.
type Tree struct {
	mu    sync.Mutex
	roots []*Node
	nodes map[string]*Node

	lister     Lister
	rootLister RootLister
	order      state.Order
	eventBus   *events.EventBus
	log        *logging.Logger

	// onSelect is the host's file-selection callback.
	onSelect func(*Node)
}

// New creates an empty tree. Call Load to seed the roots.
func New(lister Lister, rootLister RootLister, eventBus *events.EventBus, log *logging.Logger) *Tree {
	return &Tree{
		nodes:      make(map[string]*Node),
		lister:     lister,
		rootLister: rootLister,
		order:      state.FilesFirst,
		eventBus:   eventBus,
		log:        log,
	}
}

// SetOrder changes the child ordering policy for subsequent fetches.
func (t *Tree) SetOrder(order state.Order) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = order
}

// OnSelect registers the file-selection callback.
func (t *Tree) OnSelect(fn func(*Node)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSelect = fn
}

// Load seeds the tree with the user's root folders. All roots start
// collapsed and unfetched.
func (t *Tree) Load(ctx context.Context) error {
	roots, err := t.rootLister.GetRootFolders(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.roots = t.roots[:0]
	t.nodes = make(map[string]*Node)
	for _, root := range roots {
		node := &Node{
			ID:          root.ID,
			Kind:        models.KindFolder,
			DisplayName: root.Name,
			ParentID:    root.ParentID,
			tree:        t,
		}
		t.roots = append(t.roots, node)
		t.nodes[node.ID] = node
	}
	return nil
}

// Roots returns the root nodes.
func (t *Tree) Roots() []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Node, len(t.roots))
	copy(out, t.roots)
	return out
}

// Find returns the node with the given ID.
func (t *Tree) Find(id string) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	node, ok := t.nodes[id]
	return node, ok
}

// Children returns a node's cached children (nil if never fetched).
func (t *Tree) Children(node *Node) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	if node.children == nil {
		return nil
	}
	out := make([]*Node, len(node.children))
	copy(out, node.children)
	return out
}

// Toggle expands or collapses a folder node.
//
// Single-flight: a toggle while the node is Loading is a no-op. A
// collapse keeps the children cache, so re-expanding a fetched node
// issues no fetch. File nodes never toggle.
func (t *Tree) Toggle(ctx context.Context, node *Node) {
	t.mu.Lock()

	if !node.IsFolder() {
		t.mu.Unlock()
		return
	}

	switch node.state {
	case Loading:
		t.mu.Unlock()
		return

	case Expanded:
		node.state = Collapsed
		t.mu.Unlock()
		t.publish(events.NewTreeEvent(events.EventTreeNodeCollapsed, node.ID, node.DisplayName, nil))
		return
	}

	// Collapsed. Re-expand from cache when children were fetched before.
	if node.children != nil {
		node.state = Expanded
		t.mu.Unlock()
		t.publish(events.NewTreeEvent(events.EventTreeNodeExpanded, node.ID, node.DisplayName, nil))
		return
	}

	node.state = Loading
	t.mu.Unlock()
	t.publish(events.NewTreeEvent(events.EventTreeNodeLoading, node.ID, node.DisplayName, nil))

	go t.fetchChildren(ctx, node)
}

// fetchChildren loads a node's children and resolves the Loading state.
// On failure the node reverts to Collapsed with the cache unset, so
// the next toggle retries the fetch.
func (t *Tree) fetchChildren(ctx context.Context, node *Node) {
	folders, files, err := t.lister.GetChildren(ctx, node.ID)
	if err != nil {
		t.log.Warn().Str("node", node.ID).Err(err).Msg("children fetch failed")

		t.mu.Lock()
		node.state = Collapsed
		t.mu.Unlock()

		t.publish(events.NewTreeEvent(events.EventTreeNodeError, node.ID, node.DisplayName, err))
		return
	}

	children := t.buildChildren(node.ID, folders, files)

	t.mu.Lock()
	node.children = children
	node.state = Expanded
	for _, child := range children {
		t.nodes[child.ID] = child
	}
	t.mu.Unlock()

	t.publish(events.NewTreeEvent(events.EventTreeNodeExpanded, node.ID, node.DisplayName, nil))
}

// buildChildren converts listing entries to nodes, applying the
// ordering policy before the cache is filled. The result is non-nil
// even when empty: an empty fetched folder is cached as such.
func (t *Tree) buildChildren(parentID string, folders []models.FolderInfo, files []models.FileInfo) []*Node {
	entries := make([]models.FileItem, 0, len(folders)+len(files))
	for _, f := range folders {
		entries = append(entries, models.FileItem{ID: f.ID, Name: f.Name, IsFolder: true, ParentID: parentID})
	}
	for _, f := range files {
		entries = append(entries, models.FileItem{ID: f.ID, Name: f.Name, Size: f.Size, ModTime: f.Uploaded, ParentID: parentID})
	}

	t.mu.Lock()
	order := t.order
	t.mu.Unlock()
	state.SortItems(entries, order, state.SortByName, true)

	children := make([]*Node, 0, len(entries))
	for _, entry := range entries {
		kind := models.KindFile
		if entry.IsFolder {
			kind = models.KindFolder
		}
		children = append(children, &Node{
			ID:          entry.ID,
			Kind:        kind,
			DisplayName: entry.Name,
			ParentID:    parentID,
			tree:        t,
		})
	}
	return children
}

// Select handles a click on a node: file nodes invoke the host's
// selection callback, folder nodes toggle.
func (t *Tree) Select(ctx context.Context, node *Node) {
	if node.IsFolder() {
		t.Toggle(ctx, node)
		return
	}

	t.mu.Lock()
	fn := t.onSelect
	t.mu.Unlock()

	if fn != nil {
		fn(node)
	}
	t.publish(events.NewTreeEvent(events.EventTreeSelection, node.ID, node.DisplayName, nil))
}

func (t *Tree) publish(ev events.Event) {
	if t.eventBus != nil {
		t.eventBus.Publish(ev)
	}
}
