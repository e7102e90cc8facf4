package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drivedeck/drivedeck/internal/models"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admin)",
	}

	cmd.AddCommand(
		newUsersLsCmd(),
		newUsersAddCmd(),
		newUsersRmCmd(),
	)
	return cmd
}

func newUsersLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			users, err := app.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					u.ID, u.Username, u.Email, u.Role, u.Created.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func newUsersAddCmd() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.requireAuth(); err != nil {
				return err
			}

			password, err := readPassword("Password for new account: ")
			if err != nil {
				return err
			}

			user, err := app.client.CreateUser(cmd.Context(), models.SignupRequest{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s).\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newUsersRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <user-id>",
		Short: "Remove an account",
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

			if err := app.client.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %s.\n", args[0])
			return nil
		},
	}
}
