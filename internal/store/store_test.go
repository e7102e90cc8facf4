package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/drivedeck/drivedeck/internal/logging"
	"github.com/drivedeck/drivedeck/internal/models"
	"github.com/drivedeck/drivedeck/internal/state"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "items.json")
	s, err := Open(path, logging.NewDefaultLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestAddAndGet(t *testing.T) {
	s := openTestStore(t)

	item, err := s.Add(models.StoredItem{Name: "report.pdf", Kind: models.KindFile, SizeBytes: 1024})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if item.ID == "" {
		t.Fatal("Add assigned no ID")
	}
	if item.Modified.IsZero() {
		t.Error("Add assigned no Modified time")
	}

	got, ok := s.Get(item.ID)
	if !ok {
		t.Fatal("Get failed to find added item")
	}
	if got.Name != "report.pdf" {
		t.Errorf("name = %q, want report.pdf", got.Name)
	}
}

func TestAddRejectsBadParent(t *testing.T) {
	s := openTestStore(t)

	file, err := s.Add(models.StoredItem{Name: "a.txt", Kind: models.KindFile})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_, err = s.Add(models.StoredItem{Name: "b.txt", Kind: models.KindFile, ParentID: "missing"})
	if !errors.Is(err, ErrParentNotFound) {
		t.Errorf("error = %v, want ErrParentNotFound", err)
	}

	_, err = s.Add(models.StoredItem{Name: "c.txt", Kind: models.KindFile, ParentID: file.ID})
	if !errors.Is(err, ErrParentNotFolder) {
		t.Errorf("error = %v, want ErrParentNotFolder", err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	log := logging.NewDefaultLogger()

	s, err := Open(path, log)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	folder, err := s.Add(models.StoredItem{Name: "docs", Kind: models.KindFolder})
	if err != nil {
		t.Fatalf("Add folder failed: %v", err)
	}
	if _, err := s.Add(models.StoredItem{Name: "a.txt", Kind: models.KindFile, ParentID: folder.ID}); err != nil {
		t.Fatalf("Add file failed: %v", err)
	}
	s.Close()

	reopened, err := Open(path, log)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if got := len(reopened.Items()); got != 2 {
		t.Fatalf("reopened store has %d items, want 2", got)
	}
	if _, ok := reopened.Get(folder.ID); !ok {
		t.Error("folder missing after reopen")
	}
}

func TestConcurrentAddsAllLand(t *testing.T) {
	s := openTestStore(t)

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Add(models.StoredItem{
				Name: fmt.Sprintf("file-%d.txt", i),
				Kind: models.KindFile,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
	}
	if got := len(s.Items()); got != n {
		t.Fatalf("store has %d items after %d concurrent adds", got, n)
	}
}

func TestDeleteRemovesSubtree(t *testing.T) {
	s := openTestStore(t)

	root, _ := s.Add(models.StoredItem{Name: "a", Kind: models.KindFolder})
	sub, _ := s.Add(models.StoredItem{Name: "b", Kind: models.KindFolder, ParentID: root.ID})
	leaf, _ := s.Add(models.StoredItem{Name: "c.txt", Kind: models.KindFile, ParentID: sub.ID})
	other, _ := s.Add(models.StoredItem{Name: "keep.txt", Kind: models.KindFile})

	if err := s.Delete(root.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, id := range []string{root.ID, sub.ID, leaf.ID} {
		if _, ok := s.Get(id); ok {
			t.Errorf("item %s survived subtree delete", id)
		}
	}
	if _, ok := s.Get(other.ID); !ok {
		t.Error("unrelated item deleted")
	}

	if err := s.Delete("missing"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Delete(missing) = %v, want ErrItemNotFound", err)
	}
}

func TestChildrenOrdering(t *testing.T) {
	s := openTestStore(t)

	folder, _ := s.Add(models.StoredItem{Name: "docs", Kind: models.KindFolder})
	s.Add(models.StoredItem{Name: "zeta", Kind: models.KindFolder, ParentID: folder.ID})
	s.Add(models.StoredItem{Name: "alpha.txt", Kind: models.KindFile, ParentID: folder.ID})
	s.Add(models.StoredItem{Name: "beta.txt", Kind: models.KindFile, ParentID: folder.ID})

	children := s.Children(folder.ID, state.FilesFirst)
	if len(children) != 3 {
		t.Fatalf("got %d children, want 3", len(children))
	}
	want := []string{"alpha.txt", "beta.txt", "zeta"}
	for i := range want {
		if children[i].Name != want[i] {
			t.Fatalf("children = %v, want %v", names(children), want)
		}
	}
}

func names(items []models.FileItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func TestPathOfAndResolveFolder(t *testing.T) {
	s := openTestStore(t)

	a, _ := s.Add(models.StoredItem{Name: "a", Kind: models.KindFolder})
	b, _ := s.Add(models.StoredItem{Name: "b", Kind: models.KindFolder, ParentID: a.ID})
	c, _ := s.Add(models.StoredItem{Name: "c.txt", Kind: models.KindFile, ParentID: b.ID})

	path, err := s.PathOf(c.ID)
	if err != nil {
		t.Fatalf("PathOf failed: %v", err)
	}
	if path != "/a/b/c.txt" {
		t.Errorf("path = %q, want /a/b/c.txt", path)
	}

	id, err := s.ResolveFolder("/a/b")
	if err != nil {
		t.Fatalf("ResolveFolder failed: %v", err)
	}
	if id != b.ID {
		t.Errorf("resolved %q, want %q", id, b.ID)
	}

	if id, err := s.ResolveFolder("/"); err != nil || id != "" {
		t.Errorf("ResolveFolder(/) = %q, %v; want root", id, err)
	}

	if _, err := s.ResolveFolder("/a/missing"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("ResolveFolder(missing) = %v, want ErrItemNotFound", err)
	}
}

func TestCloseFailsPendingMutations(t *testing.T) {
	s := openTestStore(t)
	s.Close()

	if _, err := s.Add(models.StoredItem{Name: "late.txt", Kind: models.KindFile}); !errors.Is(err, ErrClosed) {
		t.Errorf("Add after Close = %v, want ErrClosed", err)
	}
}
