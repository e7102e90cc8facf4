package upload

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/drivedeck/drivedeck/internal/api"
	"github.com/drivedeck/drivedeck/internal/models"
	"github.com/drivedeck/drivedeck/internal/state"
	"github.com/drivedeck/drivedeck/internal/store"
)

// LocalFileSource reads upload payloads from the local filesystem.
type LocalFileSource struct{}

func (LocalFileSource) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// StoreCommitter lands uploads in the local fallback store.
type StoreCommitter struct {
	Store *store.Store
}

func (c *StoreCommitter) CommitItem(ctx context.Context, req models.AddItemRequest) (string, error) {
	item, err := c.Store.Add(models.StoredItem{
		Name:      req.Name,
		Kind:      req.Kind,
		SizeLabel: req.SizeLabel,
		SizeBytes: req.SizeBytes,
		Modified:  time.Now(),
		TypeLabel: req.TypeLabel,
		Owner:     req.Owner,
		ParentID:  req.ParentID,
		Content:   req.Content,
		MimeType:  req.MimeType,
	})
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

func (c *StoreCommitter) CommitFolder(ctx context.Context, name, parentID string) (string, error) {
	// Reuse an existing folder of the same name so repeated folder
	// uploads into the same destination do not fork the tree.
	for _, child := range c.Store.Children(parentID, state.FilesFirst) {
		if child.IsFolder && child.Name == name {
			return child.ID, nil
		}
	}

	folder, err := c.Store.Add(models.StoredItem{
		Name:     name,
		Kind:     models.KindFolder,
		Modified: time.Now(),
		ParentID: parentID,
	})
	if err != nil {
		return "", err
	}
	return folder.ID, nil
}

// APICommitter lands uploads on the platform.
type APICommitter struct {
	Client *api.Client
}

func (c *APICommitter) CommitItem(ctx context.Context, req models.AddItemRequest) (string, error) {
	item, err := c.Client.AddItem(ctx, req)
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

func (c *APICommitter) CommitFolder(ctx context.Context, name, parentID string) (string, error) {
	folder, err := c.Client.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	return folder.ID, nil
}
