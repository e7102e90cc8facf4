package upload

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/drivedeck/drivedeck/internal/logging"
	"github.com/drivedeck/drivedeck/internal/models"
	"github.com/drivedeck/drivedeck/internal/state"
	"github.com/drivedeck/drivedeck/internal/store"
)

func TestStoreCommitterReusesFolders(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "items.json"), logging.NewDefaultLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	c := &StoreCommitter{Store: st}
	ctx := context.Background()

	first, err := c.CommitFolder(ctx, "photos", "")
	if err != nil {
		t.Fatalf("CommitFolder failed: %v", err)
	}
	second, err := c.CommitFolder(ctx, "photos", "")
	if err != nil {
		t.Fatalf("repeat CommitFolder failed: %v", err)
	}
	if first != second {
		t.Errorf("repeated folder commit forked the tree: %s vs %s", first, second)
	}

	if got := len(st.Children("", state.FilesFirst)); got != 1 {
		t.Errorf("root has %d children, want 1", got)
	}
}

func TestStoreCommitterItemLandsUnderParent(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "items.json"), logging.NewDefaultLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	c := &StoreCommitter{Store: st}
	ctx := context.Background()

	folderID, err := c.CommitFolder(ctx, "docs", "")
	if err != nil {
		t.Fatalf("CommitFolder failed: %v", err)
	}

	itemID, err := c.CommitItem(ctx, models.AddItemRequest{
		Name:      "plan.pdf",
		Kind:      models.KindFile,
		SizeLabel: "0.01 MB",
		SizeBytes: 12345,
		TypeLabel: "PDF Document",
		ParentID:  folderID,
		Owner:     "tester",
	})
	if err != nil {
		t.Fatalf("CommitItem failed: %v", err)
	}

	item, ok := st.Get(itemID)
	if !ok {
		t.Fatal("committed item missing from store")
	}
	if item.ParentID != folderID || item.TypeLabel != "PDF Document" {
		t.Errorf("unexpected stored item: %+v", item)
	}

	path, err := st.PathOf(itemID)
	if err != nil || path != "/docs/plan.pdf" {
		t.Errorf("PathOf = %q, %v; want /docs/plan.pdf", path, err)
	}
}
