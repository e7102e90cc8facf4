package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/drivedeck/drivedeck/internal/config"
	"github.com/drivedeck/drivedeck/internal/models"
)

func newLoginCmd() *cobra.Command {
	var username string
	var signup bool
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the platform and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			if strings.TrimSpace(app.cfg.PlatformURL) == "" {
				return config.ErrMissingPlatformURL
			}

			reader := bufio.NewReader(os.Stdin)

			if username == "" {
				fmt.Print("Username: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				username = strings.TrimSpace(line)
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if signup {
				if email == "" {
					fmt.Print("Email: ")
					line, err := reader.ReadString('\n')
					if err != nil {
						return err
					}
					email = strings.TrimSpace(line)
				}

				if _, err := app.client.Signup(ctx, models.SignupRequest{
					Username: username,
					Email:    email,
					Password: password,
				}); err != nil {
					return fmt.Errorf("signup failed: %w", err)
				}
				fmt.Println("Account created.")
			}

			resp, err := app.client.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			app.cfg.Token = resp.Token
			if err := config.Save(app.cfg, cfgFile); err != nil {
				return fmt.Errorf("failed to persist token: %w", err)
			}

			fmt.Printf("Logged in as %s (%s).\n", resp.User.Username, resp.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted if omitted)")
	cmd.Flags().BoolVar(&signup, "signup", false, "Create the account before logging in")
	cmd.Flags().StringVar(&email, "email", "", "Email for --signup (prompted if omitted)")

	return cmd
}

// readPassword reads a password without echo when stdin is a terminal.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	// Piped input (scripts, tests)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
