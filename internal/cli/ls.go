package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drivedeck/drivedeck/internal/models"
	"github.com/drivedeck/drivedeck/internal/state"
)

func newLsCmd() *cobra.Command {
	var local bool
	var sortBy string
	var desc bool
	var foldersFirst bool

	cmd := &cobra.Command{
		Use:   "ls [folder]",
		Short: "List a folder's contents (root folders when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			target := ""
			if len(args) == 1 {
				target = args[0]
			}

			var items []models.FileItem
			source := "remote"

			if local {
				source = "local"
				st, err := app.openStore()
				if err != nil {
					return err
				}
				defer st.Close()

				folderID, err := st.ResolveFolder(target)
				if err != nil {
					return err
				}
				items = st.Children(folderID, state.FilesFirst)
			} else {
				if err := app.requireAuth(); err != nil {
					return err
				}

				ctx := cmd.Context()
				if target == "" {
					roots, err := app.client.GetRootFolders(ctx)
					if err != nil {
						return err
					}
					for _, root := range roots {
						items = append(items, models.FileItem{ID: root.ID, Name: root.Name, IsFolder: true})
					}
				} else {
					contents, err := app.client.ListFolderContents(ctx, target)
					if err != nil {
						return err
					}
					for _, f := range contents.Folders {
						items = append(items, models.FileItem{ID: f.ID, Name: f.Name, IsFolder: true, ParentID: target})
					}
					for _, f := range contents.Files {
						items = append(items, models.FileItem{
							ID: f.ID, Name: f.Name, Size: f.Size, ModTime: f.Uploaded, ParentID: target,
						})
					}
				}
			}

			list := state.NewFileListState(source, app.bus)
			if foldersFirst {
				list.SetOrder(state.FoldersFirst)
			}
			list.SetCurrentFolder(target, target)
			list.SetItems(items)
			list.SetSort(sortBy, !desc)

			return printListing(cmd, list.GetItems())
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "List the local fallback store instead of the platform")
	cmd.Flags().StringVar(&sortBy, "sort", state.SortByName, "Sort key: name, size, or date")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	cmd.Flags().BoolVar(&foldersFirst, "folders-first", false, "Group folders before files")

	return cmd
}

func printListing(cmd *cobra.Command, items []models.FileItem) error {
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(empty)")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tSIZE\tMODIFIED")
	for _, item := range items {
		kind := "file"
		size := fmt.Sprintf("%d", item.Size)
		if item.IsFolder {
			kind = "folder"
			size = "-"
		}
		modified := "-"
		if !item.ModTime.IsZero() {
			modified = item.ModTime.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.Name, kind, size, modified)
	}
	return w.Flush()
}
