package cli

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/drivedeck/drivedeck/internal/progress"
	"github.com/drivedeck/drivedeck/internal/upload"
)

func newUploadCmd() *cobra.Command {
	var dest string
	var folder string
	var local bool

	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload files or a folder into a destination folder",
		Long: `Upload files into a destination folder, with per-file progress.

With --folder, the directory's structure is recreated under the
destination: implied folders are created once each, then the files
upload into their own subfolders.

With --local (or when the platform is unreachable by configuration),
uploads commit to the local fallback store instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if folder == "" && len(args) == 0 {
				return fmt.Errorf("nothing to upload: pass files or --folder")
			}
			if folder != "" && len(args) > 0 {
				return fmt.Errorf("pass either files or --folder, not both")
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			var committer upload.Committer
			destID := dest

			if local {
				st, err := app.openStore()
				if err != nil {
					return err
				}
				defer st.Close()

				// The local destination is a display path; resolve it
				// to a folder ID.
				destID, err = st.ResolveFolder(dest)
				if err != nil {
					return err
				}
				committer = &upload.StoreCommitter{Store: st}
			} else {
				if err := app.requireAuth(); err != nil {
					return err
				}
				committer = &upload.APICommitter{Client: app.client}
			}

			renderer := progress.NewRenderer()
			renderer.Attach(app.bus)

			// A GUI would route to the destination folder here; the CLI
			// just reports where the batch landed.
			opts := upload.Options{
				Navigate: func(folderID string) {
					logger.Info().Str("folder_id", folderID).Msg("Upload batch landed")
				},
			}
			tracker := upload.NewTracker(committer, upload.LocalFileSource{}, app.bus, app.notifier, logger, opts)

			ctx := cmd.Context()

			if folder != "" {
				rels, err := collectFolderFiles(folder)
				if err != nil {
					return err
				}
				if _, err := tracker.StartFolderUpload(ctx, filepath.Dir(folder), rels, destID); err != nil {
					return err
				}
			} else {
				tracker.StartUpload(ctx, args, destID)
			}

			tracker.Wait()
			renderer.Stop()

			for _, rec := range tracker.Records() {
				if rec.State == upload.Errored {
					return fmt.Errorf("upload of %s failed: %s", rec.DisplayName, rec.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Destination folder (ID, or path with --local)")
	cmd.Flags().StringVar(&folder, "folder", "", "Upload a whole directory, recreating its structure")
	cmd.Flags().BoolVar(&local, "local", false, "Commit to the local fallback store")

	return cmd
}

// collectFolderFiles walks dir and returns slash-separated paths
// relative to dir's parent, so the uploaded tree is rooted at the
// directory's own name.
func collectFolderFiles(dir string) ([]string, error) {
	base := filepath.Dir(dir)

	var rels []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, fmt.Errorf("no files found under %s", dir)
	}
	return rels, nil
}
