package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drivedeck/drivedeck/internal/models"
)

func newPermsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Manage permissions on files and folders (admin)",
	}

	cmd.AddCommand(
		newPermsLsCmd(),
		newPermsGrantCmd(),
		newPermsRevokeCmd(),
	)
	return cmd
}

func newPermsLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <scope-id>",
		Short: "List permission grants on a file or folder",
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

			assignments, err := app.client.ListPermissions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(assignments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No permission grants.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tGRANTEE\tTYPE\tPERMISSION")
			for _, a := range assignments {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.GranteeID, a.Grantee, a.Permission)
			}
			return w.Flush()
		},
	}
}

func newPermsGrantCmd() *cobra.Command {
	var scopeID, granteeID, granteeType, permission string

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a permission to a user or group",
		RunE: func(cmd *cobra.Command, args []string) error {
			perm := models.Permission(permission)
			switch perm {
			case models.PermissionRead, models.PermissionWrite, models.PermissionOwner:
			default:
				return fmt.Errorf("invalid permission %q (want read, write, or owner)", permission)
			}
			if granteeType != "user" && granteeType != "group" {
				return fmt.Errorf("invalid grantee type %q (want user or group)", granteeType)
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			assignment, err := app.client.GrantPermission(cmd.Context(), models.PermissionAssignment{
				ScopeID:    scopeID,
				GranteeID:  granteeID,
				Grantee:    granteeType,
				Permission: perm,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Granted %s on %s to %s %s (assignment %s).\n",
				assignment.Permission, assignment.ScopeID, assignment.Grantee, assignment.GranteeID, assignment.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeID, "scope", "", "File or folder ID")
	cmd.Flags().StringVar(&granteeID, "grantee", "", "User or group ID")
	cmd.Flags().StringVar(&granteeType, "type", "user", "Grantee type: user or group")
	cmd.Flags().StringVar(&permission, "perm", "read", "Permission: read, write, or owner")
	cmd.MarkFlagRequired("scope")
	cmd.MarkFlagRequired("grantee")

	return cmd
}

func newPermsRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <assignment-id>",
		Short: "Revoke a permission grant",
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

			if err := app.client.RevokePermission(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s.\n", args[0])
			return nil
		},
	}
}
