//go:build !headless

package main

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/simulation"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/viewer"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the interactive viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			logger := newLogger(cmd, cfg)
			logger.Infof("starting %s seed=%d", cfg.Params(), cfg.Seed)

			system, err := simulation.NewSystem(ctx, "VicsekFlock", logger)
			if err != nil {
				return err
			}
			defer system.Stop(ctx)

			game, err := viewer.GetNewGame(ctx, cfg, system)
			if err != nil {
				return err
			}
			w, h := game.Layout(0, 0)
			ebiten.SetWindowSize(w, h)
			ebiten.SetWindowTitle("Vicsek flocking")
			ebiten.SetTPS(cfg.FPS)
			if err := ebiten.RunGame(game); err != nil {
				return fmt.Errorf("viewer stopped: %w", err)
			}
			return nil
		},
	}
}
