package bootstrap

import (
	"context"
	"fmt"

	_ "embed"

	urfavecli "github.com/urfave/cli/v3"
)

//go:embed templates/zsh_completion.zsh
var zshCompletion []byte

//go:embed templates/bash_completion.bash
var bashCompletion []byte

// completionCommand returns the completion subcommand definition.
func completionCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "completion",
		Usage:     "Generate shell completion scripts",
		ArgsUsage: "<bash|zsh>",
		Action:    handleCompletion,
	}
}

// handleCompletion handles the completion subcommand.
func handleCompletion(_ context.Context, cmd *urfavecli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("usage: nodupe completion <bash|zsh>")
	}

	out := cmd.Root().Writer
	shell := cmd.Args().First()
	switch shell {
	case "bash":
		_, _ = out.Write(bashCompletion)
	case "zsh":
		_, _ = out.Write(zshCompletion)
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh)", shell)
	}
	return nil
}
