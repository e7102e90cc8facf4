package tree

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/drivedeck/drivedeck/internal/events"
	"github.com/drivedeck/drivedeck/internal/logging"
	"github.com/drivedeck/drivedeck/internal/models"
)

// mockLister serves canned children and counts fetches per node.
type mockLister struct {
	mu      sync.Mutex
	calls   map[string]int
	folders map[string][]models.FolderInfo
	files   map[string][]models.FileInfo
	errs    map[string]error

	// gate, when set, blocks GetChildren until released.
	gate chan struct{}
}

func newMockLister() *mockLister {
	return &mockLister{
		calls:   make(map[string]int),
		folders: make(map[string][]models.FolderInfo),
		files:   make(map[string][]models.FileInfo),
		errs:    make(map[string]error),
	}
}

func (m *mockLister) GetChildren(ctx context.Context, nodeID string) ([]models.FolderInfo, []models.FileInfo, error) {
	m.mu.Lock()
	m.calls[nodeID]++
	gate := m.gate
	err := m.errs[nodeID]
	folders := m.folders[nodeID]
	files := m.files[nodeID]
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, nil, err
	}
	return folders, files, nil
}

func (m *mockLister) callCount(nodeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[nodeID]
}

func (m *mockLister) GetRootFolders(ctx context.Context) ([]models.FolderInfo, error) {
	return []models.FolderInfo{{ID: "root", Name: "Home"}}, nil
}

func newTestTree(t *testing.T, lister *mockLister) (*Tree, *events.EventBus) {
	t.Helper()

	bus := events.NewEventBus(100)
	t.Cleanup(bus.Close)

	tr := New(lister, lister, bus, logging.NewDefaultLogger())
	if err := tr.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return tr, bus
}

func waitForTreeEvent(t *testing.T, ch <-chan events.Event, eventType events.EventType) *events.TreeEvent {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type() == eventType {
				return ev.(*events.TreeEvent)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func TestExpandFetchesOnceAcrossCollapseCycles(t *testing.T) {
	lister := newMockLister()
	lister.folders["root"] = []models.FolderInfo{{ID: "f1", Name: "docs"}}

	tr, bus := newTestTree(t, lister)
	ch := bus.SubscribeAll()

	root := tr.Roots()[0]

	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)
	if root.State() != Expanded {
		t.Fatalf("state = %s, want expanded", root.State())
	}

	// Collapse keeps the cache; re-expand must not refetch.
	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeCollapsed)

	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	if got := lister.callCount("root"); got != 1 {
		t.Errorf("GetChildren called %d times, want 1", got)
	}
	if len(tr.Children(root)) != 1 {
		t.Errorf("children lost across collapse cycle")
	}
}

func TestToggleWhileLoadingIsNoOp(t *testing.T) {
	lister := newMockLister()
	lister.gate = make(chan struct{})

	tr, bus := newTestTree(t, lister)
	ch := bus.SubscribeAll()

	root := tr.Roots()[0]

	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeLoading)

	// Repeated toggles during the in-flight fetch do nothing.
	tr.Toggle(context.Background(), root)
	tr.Toggle(context.Background(), root)

	close(lister.gate)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	if got := lister.callCount("root"); got != 1 {
		t.Errorf("GetChildren called %d times, want 1", got)
	}
}

func TestNodeStatePollableDuringFetch(t *testing.T) {
	lister := newMockLister()
	lister.gate = make(chan struct{})
	lister.files["root"] = []models.FileInfo{{ID: "a1", Name: "notes.txt"}}

	tr, _ := newTestTree(t, lister)
	root := tr.Roots()[0]

	tr.Toggle(context.Background(), root)
	if root.State() != Loading {
		t.Fatalf("state = %s during fetch, want loading", root.State())
	}

	// Keep polling while the fetch resolves, the way a frontend
	// refreshing its view would.
	close(lister.gate)
	deadline := time.Now().Add(2 * time.Second)
	for root.State() != Expanded {
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, never reached expanded", root.State())
		}
		time.Sleep(time.Millisecond)
	}
	if !root.Fetched() {
		t.Error("expanded node not marked fetched")
	}
}

func TestFetchFailureRevertsAndRetries(t *testing.T) {
	lister := newMockLister()
	lister.errs["root"] = errors.New("backend down")

	tr, bus := newTestTree(t, lister)
	ch := bus.SubscribeAll()

	root := tr.Roots()[0]

	tr.Toggle(context.Background(), root)
	errEv := waitForTreeEvent(t, ch, events.EventTreeNodeError)
	if errEv.Error == nil {
		t.Error("error event carried no error")
	}
	if root.State() != Collapsed {
		t.Fatalf("state = %s after failure, want collapsed", root.State())
	}
	if root.Fetched() {
		t.Fatal("cache set after failed fetch")
	}

	// Next toggle retries.
	lister.mu.Lock()
	delete(lister.errs, "root")
	lister.files["root"] = []models.FileInfo{{ID: "a1", Name: "notes.txt"}}
	lister.mu.Unlock()

	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	if got := lister.callCount("root"); got != 2 {
		t.Errorf("GetChildren called %d times, want 2", got)
	}
	if len(tr.Children(root)) != 1 {
		t.Error("children missing after retry")
	}
}

func TestEmptyFolderCachedAsFetched(t *testing.T) {
	lister := newMockLister()

	tr, bus := newTestTree(t, lister)
	ch := bus.SubscribeAll()

	root := tr.Roots()[0]

	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	if !root.Fetched() {
		t.Fatal("empty fetch did not mark node fetched")
	}

	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeCollapsed)
	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	if got := lister.callCount("root"); got != 1 {
		t.Errorf("GetChildren called %d times for empty folder, want 1", got)
	}
}

func TestChildrenOrderedFilesFirst(t *testing.T) {
	lister := newMockLister()
	lister.folders["root"] = []models.FolderInfo{
		{ID: "f1", Name: "archive"},
		{ID: "f2", Name: "builds"},
	}
	lister.files["root"] = []models.FileInfo{
		{ID: "a1", Name: "readme.md"},
		{ID: "a2", Name: "budget.xlsx"},
	}

	tr, bus := newTestTree(t, lister)
	ch := bus.SubscribeAll()

	root := tr.Roots()[0]
	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	children := tr.Children(root)
	want := []string{"budget.xlsx", "readme.md", "archive", "builds"}
	if len(children) != len(want) {
		t.Fatalf("got %d children, want %d", len(children), len(want))
	}
	for i := range want {
		if children[i].DisplayName != want[i] {
			t.Fatalf("child %d = %s, want %s", i, children[i].DisplayName, want[i])
		}
	}
}

func TestFileNodesNeverToggle(t *testing.T) {
	lister := newMockLister()
	lister.files["root"] = []models.FileInfo{{ID: "a1", Name: "notes.txt"}}

	tr, bus := newTestTree(t, lister)
	ch := bus.SubscribeAll()

	root := tr.Roots()[0]
	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	file := tr.Children(root)[0]
	tr.Toggle(context.Background(), file)

	if file.State() != Collapsed {
		t.Errorf("file node state = %s, want collapsed", file.State())
	}
	if got := lister.callCount("a1"); got != 0 {
		t.Errorf("file node fetched children %d times", got)
	}
}

func TestSelectFileFiresCallbackAndEvent(t *testing.T) {
	lister := newMockLister()
	lister.files["root"] = []models.FileInfo{{ID: "a1", Name: "notes.txt"}}

	tr, bus := newTestTree(t, lister)
	ch := bus.SubscribeAll()

	var selected *Node
	tr.OnSelect(func(n *Node) { selected = n })

	root := tr.Roots()[0]
	tr.Toggle(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	file := tr.Children(root)[0]
	tr.Select(context.Background(), file)

	ev := waitForTreeEvent(t, ch, events.EventTreeSelection)
	if ev.NodeID != "a1" {
		t.Errorf("selection event node = %s, want a1", ev.NodeID)
	}
	if selected == nil || selected.ID != "a1" {
		t.Error("selection callback not fired with file node")
	}
}

func TestSelectFolderToggles(t *testing.T) {
	lister := newMockLister()

	tr, bus := newTestTree(t, lister)
	ch := bus.SubscribeAll()

	root := tr.Roots()[0]
	tr.Select(context.Background(), root)
	waitForTreeEvent(t, ch, events.EventTreeNodeExpanded)

	if got := lister.callCount("root"); got != 1 {
		t.Errorf("folder select fetched %d times, want 1", got)
	}
}
