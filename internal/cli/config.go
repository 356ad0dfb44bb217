package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/r9s-ai/twospace-lsp/internal/settings"
	"github.com/spf13/cobra"
)

func resolveConfigPath(path string) (string, error) {
	if p := strings.TrimSpace(path); p != "" {
		return p, nil
	}
	return settings.DefaultPath()
}

func openStore(path string) (*settings.Store, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	return settings.Open(resolved)
}

func newConfigCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change persisted settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the settings file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := resolveConfigPath(opts.ConfigPath)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(opts.Stdout, path)
				return err
			},
		},
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print one setting, or all of them as key=value",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(opts.ConfigPath)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					v, err := store.Get(args[0])
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(opts.Stdout, v)
					return err
				}
				for _, key := range settings.Keys() {
					v, err := store.Get(key)
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintf(opts.Stdout, "%s=%s\n", key, v); err != nil {
						return err
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Validate and persist one setting",
			Args: func(cmd *cobra.Command, args []string) error {
				if len(args) != 2 {
					return errors.New("config set requires a key and a value")
				}
				return nil
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(opts.ConfigPath)
				if err != nil {
					return err
				}
				if err := store.Set(args[0], args[1]); err != nil {
					return fmt.Errorf("set %s: %w", args[0], err)
				}
				return nil
			},
		},
	)
	return cmd
}
