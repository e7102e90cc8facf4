package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drivedeck/drivedeck/internal/models"
)

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage security groups (admin)",
	}

	cmd.AddCommand(
		newGroupsLsCmd(),
		newGroupsAddCmd(),
		newGroupsRmCmd(),
		newGroupsMemberCmd(),
	)
	return cmd
}

func newGroupsLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List security groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			groups, err := app.client.ListGroups(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tDESCRIPTION")
			for _, g := range groups {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.ID, g.Name, len(g.MemberIDs), g.Description)
			}
			return w.Flush()
		},
	}
}

func newGroupsAddCmd() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a security group",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			group, err := app.client.CreateGroup(cmd.Context(), name, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %s (%s).\n", group.Name, group.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Group name")
	cmd.Flags().StringVar(&description, "desc", "", "Description")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newGroupsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <group-id>",
		Short: "Remove a security group (its permission grants are revoked)",
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

			if err := app.client.DeleteGroup(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed group %s.\n", args[0])
			return nil
		},
	}
}

func newGroupsMemberCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "member <group-id> <user-id>...",
		Short: "Add users to a security group, or replace its membership",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			groupID, users := args[0], args[1:]

			var group *models.SecurityGroup
			if replace {
				group, err = app.client.UpdateGroupMembers(cmd.Context(), groupID, users)
				if err != nil {
					return err
				}
			} else {
				for _, user := range users {
					group, err = app.client.AddGroupMember(cmd.Context(), groupID, user)
					if err != nil {
						return err
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Group %s members: %s\n", group.Name, strings.Join(group.MemberIDs, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the group's full membership with the given users")

	return cmd
}
