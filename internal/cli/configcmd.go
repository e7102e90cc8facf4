package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drivedeck/drivedeck/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "platform_url = %s\n", cfg.PlatformURL)
			token := "(not set)"
			if cfg.Token != "" {
				token = "(set)"
			}
			fmt.Fprintf(out, "token = %s\n", token)
			fmt.Fprintf(out, "notifications.enabled = %t\n", cfg.Notifications.Enabled)
			fmt.Fprintf(out, "notifications.show_upload_complete = %t\n", cfg.Notifications.ShowUploadComplete)
			fmt.Fprintf(out, "notifications.show_upload_failed = %t\n", cfg.Notifications.ShowUploadFailed)
			fmt.Fprintf(out, "localstore.enabled = %t\n", cfg.LocalStore.Enabled)
			storePath, err := cfg.StorePath()
			if err != nil {
				storePath = "(unresolvable)"
			}
			fmt.Fprintf(out, "localstore.path = %s\n", storePath)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration key",
		Long: `Set a configuration key. Supported keys:

  platform_url
  notifications.enabled
  notifications.show_upload_complete
  notifications.show_upload_failed
  localstore.enabled
  localstore.path`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			key, value := args[0], args[1]

			parseBool := func() (bool, error) {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return false, fmt.Errorf("%s wants true or false, got %q", key, value)
				}
				return b, nil
			}

			switch key {
			case "platform_url":
				cfg.PlatformURL = value
			case "notifications.enabled":
				b, err := parseBool()
				if err != nil {
					return err
				}
				cfg.Notifications.Enabled = b
			case "notifications.show_upload_complete":
				b, err := parseBool()
				if err != nil {
					return err
				}
				cfg.Notifications.ShowUploadComplete = b
			case "notifications.show_upload_failed":
				b, err := parseBool()
				if err != nil {
					return err
				}
				cfg.Notifications.ShowUploadFailed = b
			case "localstore.enabled":
				b, err := parseBool()
				if err != nil {
					return err
				}
				cfg.LocalStore.Enabled = b
			case "localstore.path":
				cfg.LocalStore.Path = value
			default:
				return fmt.Errorf("unknown key %q", key)
			}

			if err := config.Save(cfg, cfgFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s.\n", key)
			return nil
		},
	}
}
