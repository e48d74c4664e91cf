package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/render"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/analysis"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/frame"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file.vframes>",
		Short: "Render a recorded frame stream to an animated GIF",
		Long: `Read a frame stream written by "vicsek record --frames" and render it.
The box side and display settings come from --config, so pass the
configuration the stream was recorded with.

Examples:
  vicsek replay run.vframes --gif run.gif
  vicsek replay -c configs/vicsek.toml run.vframes --every 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			gifPath, _ := cmd.Flags().GetString("gif")
			every, _ := cmd.Flags().GetInt("every")
			if every < 1 {
				return fmt.Errorf("every must be at least 1, got %d", every)
			}

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer in.Close()

			logger := newLogger(cmd, cfg)
			torus := geometry.Torus{L: cfg.L}
			rec := render.NewGIFRecorder(render.NewRenderer(cfg.L, cfg.ScreenSize, cfg.ArrowScale), cfg.FPS)
			series := analysis.NewSeries(0)
			r := frame.NewReader(in)
			var last *frame.Frame
			for read := 0; ; read++ {
				f, err := r.Read()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("%s: frame %d: %w", args[0], read, err)
				}
				for i, p := range f.Positions {
					if !torus.Contains(p) {
						return fmt.Errorf("%s: frame %d: particle %d at %v is outside a box of side %g, wrong --config?",
							args[0], f.Index, i, p, cfg.L)
					}
				}
				series.Add(f.Order)
				if read%every == 0 {
					rec.Add(f)
				}
				last = f
			}
			if last == nil {
				return fmt.Errorf("%s holds no frames", args[0])
			}

			if err := rec.Save(gifPath); err != nil {
				return err
			}
			logger.Debugf("replayed %d frames from %s", series.Len(), args[0])
			mean, std, _ := series.Summary()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrote %d of %d frames to %s\n", rec.Len(), series.Len(), gifPath)
			fmt.Fprintf(out, "order parameter %.4f±%.4f, final %.4f after %d steps\n", mean, std, last.Order, last.Index)
			return nil
		},
	}

	cmd.Flags().String("gif", "replay.gif", "Animated GIF output")
	cmd.Flags().Int("every", 1, "Keep one frame in every n")
	return cmd
}
