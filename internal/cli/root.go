// Package cli implements the scenesync command-line interface.
//
// The run command loads a YAML scene script, synchronizes one display
// frame per script frame and prints the frame stats. All commands accept
// --verbose (-v) for debug logging from the engine.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gogpu/scenesync"
)

var (
	version = scenesync.Version
	commit  string
	date    string
)

// SetVersion sets the version information reported by the version command.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the scenesync CLI.
func Execute(ctx context.Context) error {
	return RootCommand().ExecuteContext(ctx)
}

// RootCommand builds the command tree.
func RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "scenesync",
		Short:        "scenesync replays scene scripts through the instance synchronizer",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			l := newLogger(cmd.ErrOrStderr(), level)
			installLogger(l)
			cmd.SetContext(withLogger(cmd.Context(), l))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scenesync %s\n", version)
			if commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
			}
			if date != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", date)
			}
		},
	}
}

// Run executes the CLI and returns the process exit code.
func Run(ctx context.Context) int {
	err := Execute(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
