package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTrashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Manage soft-deleted items",
	}

	cmd.AddCommand(
		newTrashLsCmd(),
		newTrashRestoreCmd(),
		newTrashRmCmd(),
	)
	return cmd
}

func newTrashLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List trashed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			entries, err := app.client.ListTrash(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Trash is empty.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tDELETED\tBY")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Name, e.Kind, e.DeletedAt.Format("2006-01-02 15:04"), e.DeletedBy)
			}
			return w.Flush()
		},
	}
}

func newTrashRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <item-id>",
		Short: "Restore a trashed item to its original folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			if err := app.client.RestoreItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s.\n", args[0])
			return nil
		},
	}
}

func newTrashRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Permanently remove a trashed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			if err := app.client.PurgeItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %s.\n", args[0])
			return nil
		},
	}
}
