package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/frame"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/vicsek"
	"github.com/tochemey/goakt/v3/actor"
)

const askTimeout = 5 * time.Second

// Record spawns a FlockActor named name around sim and emits frames
// frames, each taken stepsPerFrame steps after the previous one. The
// actor is stopped on return.
func Record(ctx context.Context, system actor.ActorSystem, name string, sim *vicsek.Simulator,
	frames int, stepsPerFrame uint64, emit func(*frame.Frame) error) error {
	want := sim.StepCount()
	pid, err := system.Spawn(ctx, name, NewFlockActor(sim, nil))
	if err != nil {
		return fmt.Errorf("failed to spawn %s: %w", name, err)
	}
	defer func() { _ = system.Kill(ctx, name) }()

	stepsPerFrame = max(stepsPerFrame, 1)
	for range frames {
		if err := Tick(ctx, pid, stepsPerFrame); err != nil {
			return fmt.Errorf("tick failed: %w", err)
		}
		want += stepsPerFrame

		f, err := RequestFrame(ctx, pid, askTimeout)
		if err != nil {
			return err
		}
		if f.Index != want {
			return fmt.Errorf("%w: simulation stopped at step %d", vicsek.ErrInvariantViolation, f.Index)
		}
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}
