package cli

import (
	"io"
	"os"

	"github.com/r9s-ai/twospace-lsp/internal/indent"
	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

type Options struct {
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	BuildInfo   BuildInfo
	ServeRunner ServeRunner
	// ConfigPath overrides the settings file location. The --config flag
	// takes precedence.
	ConfigPath string
}

func Run(args []string, opts Options) error {
	resolved := normalizeOptions(opts)
	root := newRootCmd(&resolved)
	root.SetArgs(args)
	return root.Execute()
}

func normalizeOptions(opts Options) Options {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.ServeRunner == nil {
		opts.ServeRunner = defaultServeRunner
	}
	return opts
}

func newRootCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "twospace-lsp",
		Short:         "Two-space indent language server and CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeWithOptions(*opts)
		},
	}
	cmd.SetIn(opts.Stdin)
	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "settings file (default is the user config dir)")
	cmd.AddCommand(
		newServeCmd(opts),
		newAdjustCmd(opts, indent.CommandIncrease, "increase"),
		newAdjustCmd(opts, indent.CommandDecrease, "decrease"),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}
