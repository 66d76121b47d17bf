package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/display"
	"github.com/gogpu/scenesync/internal/scenefile"
)

type runOpts struct {
	png     string
	assert  bool
	slow    bool
	webgl   bool
	metrics bool
}

func newRunCmd() *cobra.Command {
	var opts runOpts
	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Replay a scene script frame by frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}
	cmd.Flags().StringVar(&opts.png, "png", "", "write the last frame to this PNG file")
	cmd.Flags().BoolVar(&opts.assert, "assert", true, "audit the instance tree after every frame")
	cmd.Flags().BoolVar(&opts.slow, "slow-assert", false, "also run expensive change interval audits")
	cmd.Flags().BoolVar(&opts.webgl, "webgl", false, "allow webgl drawables")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "record prometheus frame metrics")
	return cmd
}

func runScript(ctx context.Context, out io.Writer, path string, opts *runOpts) error {
	logger := loggerFromContext(ctx)

	script, err := scenefile.LoadFile(path)
	if err != nil {
		return err
	}
	scene, err := script.Build()
	if err != nil {
		return err
	}

	d := display.New(scene.Root,
		display.WithSize(script.Width, script.Height),
		display.WithWebGL(opts.webgl),
		display.WithDebug(scenesync.DebugConfig{Assertions: opts.assert, SlowAssertions: opts.slow}),
		display.WithMetrics(opts.metrics),
	)
	defer d.Dispose()

	frames := script.Frames
	if len(frames) == 0 {
		frames = [][]scenefile.Op{nil}
	}
	for i, ops := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := scene.Apply(ops); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		stats, err := d.UpdateDisplay()
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		fmt.Fprintln(out, stats)
	}

	if opts.png != "" {
		if err := d.SavePNG(opts.png); err != nil {
			return err
		}
		logger.Info("wrote png", "path", opts.png)
	}
	return nil
}
