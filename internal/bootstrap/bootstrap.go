package bootstrap

import (
	"context"
	"io"
	"os"

	urfavecli "github.com/urfave/cli/v3"
)

// NewApp returns the root command. Reports go to stdout, errors and the
// verbose debug mirror to stderr.
func NewApp(stdout, stderr io.Writer) *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "nodupe",
		Usage:     "Remove consecutive duplicate lines from every file of a directory",
		ArgsUsage: "[DIR]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     append(globalFlags(), runFlags()...),
		Commands: []*urfavecli.Command{
			runCommand(),
			pathCommand(),
			completionCommand(),
			versionCommand(),
		},
		Action: runAction,

		// Globs and overrides may contain commas.
		DisableSliceFlagSeparator: true,
	}
}

// Run executes the command line in args (args[0] is the program name).
func Run(ctx context.Context, args []string) error {
	return NewApp(os.Stdout, os.Stderr).Run(ctx, args)
}
