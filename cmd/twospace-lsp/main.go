package main

import (
	"fmt"
	"io"
	"os"

	"github.com/r9s-ai/twospace-lsp/cli"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.buildDate=...".
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "twospace-lsp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) error {
	return cli.Run(args, cli.Options{
		Stdin:  in,
		Stdout: out,
		Stderr: errOut,
		BuildInfo: cli.BuildInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		},
	})
}
