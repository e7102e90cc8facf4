package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/drivedeck/drivedeck/internal/events"
	"github.com/drivedeck/drivedeck/internal/models"
	"github.com/drivedeck/drivedeck/internal/state"
	"github.com/drivedeck/drivedeck/internal/store"
	"github.com/drivedeck/drivedeck/internal/tree"
)

// apiLister adapts the REST client to the tree's collaborator
// interfaces.
type apiLister struct {
	app *app
}

func (l *apiLister) GetRootFolders(ctx context.Context) ([]models.FolderInfo, error) {
	return l.app.client.GetRootFolders(ctx)
}

func (l *apiLister) GetChildren(ctx context.Context, nodeID string) ([]models.FolderInfo, []models.FileInfo, error) {
	contents, err := l.app.client.ListFolderContents(ctx, nodeID)
	if err != nil {
		return nil, nil, err
	}
	return contents.Folders, contents.Files, nil
}

// storeLister serves the tree from the local fallback store.
type storeLister struct {
	store *store.Store
}

func (l *storeLister) GetRootFolders(ctx context.Context) ([]models.FolderInfo, error) {
	var roots []models.FolderInfo
	for _, child := range l.store.Children("", state.FilesFirst) {
		if child.IsFolder {
			roots = append(roots, models.FolderInfo{ID: child.ID, Name: child.Name})
		}
	}
	return roots, nil
}

func (l *storeLister) GetChildren(ctx context.Context, nodeID string) ([]models.FolderInfo, []models.FileInfo, error) {
	var folders []models.FolderInfo
	var files []models.FileInfo
	for _, child := range l.store.Children(nodeID, state.FilesFirst) {
		if child.IsFolder {
			folders = append(folders, models.FolderInfo{ID: child.ID, Name: child.Name, ParentID: nodeID})
		} else {
			files = append(files, models.FileInfo{
				ID: child.ID, Name: child.Name, Size: child.Size, ParentID: nodeID, Uploaded: child.ModTime,
			})
		}
	}
	return folders, files, nil
}

func newTreeCmd() *cobra.Command {
	var local bool
	var depth int

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the folder tree, expanding lazily to a depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			var lister interface {
				tree.Lister
				tree.RootLister
			}

			if local {
				st, err := app.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				lister = &storeLister{store: st}
			} else {
				if err := app.requireAuth(); err != nil {
					return err
				}
				lister = &apiLister{app: app}
			}

			ch := app.bus.SubscribeAll()
			defer app.bus.UnsubscribeAll(ch)

			tr := tree.New(lister, lister, app.bus, logger)

			ctx := cmd.Context()
			if err := tr.Load(ctx); err != nil {
				return err
			}

			for _, root := range tr.Roots() {
				if err := printTree(ctx, cmd, tr, ch, root, 0, depth); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Walk the local fallback store instead of the platform")
	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "Maximum expansion depth")

	return cmd
}

// printTree expands a node via the tree's toggle flow and renders the
// subtree. Expansion resolution is observed on the event bus, the same
// way a GUI frontend would.
func printTree(ctx context.Context, cmd *cobra.Command, tr *tree.Tree, ch <-chan events.Event, node *tree.Node, level, maxDepth int) error {
	marker := ""
	if node.IsFolder() {
		marker = "/"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s%s\n", strings.Repeat("  ", level), node.DisplayName, marker)

	if !node.IsFolder() || level >= maxDepth {
		return nil
	}

	tr.Toggle(ctx, node)
	if err := waitForNode(ctx, ch, node.ID); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s(unavailable: %v)\n", strings.Repeat("  ", level+1), err)
		return nil
	}

	for _, child := range tr.Children(node) {
		if err := printTree(ctx, cmd, tr, ch, child, level+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

// waitForNode blocks until the node's expansion resolves.
func waitForNode(ctx context.Context, ch <-chan events.Event, nodeID string) error {
	timeout := time.After(30 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return fmt.Errorf("event bus closed")
			}
			treeEv, isTree := ev.(*events.TreeEvent)
			if !isTree || treeEv.NodeID != nodeID {
				continue
			}
			switch ev.Type() {
			case events.EventTreeNodeExpanded:
				return nil
			case events.EventTreeNodeError:
				return treeEv.Error
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("timed out expanding node %s", nodeID)
		}
	}
}
