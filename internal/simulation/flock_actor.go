// Package simulation drives a flock: a goakt actor owns the simulator and
// steps it on demand, and the viewer and batch drivers talk to it.
package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/frame"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/vicsek"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Snapshot is pushed to the UI after every tick.
type Snapshot struct {
	Frame  *frame.Frame
	Params vicsek.Params
	Err    error // set once the simulator has failed; Frame is the last good state
}

// FlockActor exclusively owns a simulator. It understands:
//   - *wrapperspb.UInt64Value: advance that many steps (at least one)
//   - *emptypb.Empty: answer with the current frame as *wrapperspb.BytesValue
type FlockActor struct {
	sim        *vicsek.Simulator
	snapshotCh chan<- *Snapshot

	// --- Throughput stats ---
	stepCount   int
	lastLogTime time.Time
}

// NewFlockActor wraps sim. snapshotCh may be nil when nobody watches.
func NewFlockActor(sim *vicsek.Simulator, snapshotCh chan<- *Snapshot) *FlockActor {
	return &FlockActor{
		sim:         sim,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (f *FlockActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Flock is starting: %s", f.sim.Params())
	return nil
}

func (f *FlockActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("%s started", ctx.Self().Name())

	case *wrapperspb.UInt64Value:
		f.tick(ctx, max(msg.GetValue(), 1))

	case *emptypb.Empty:
		b, err := frame.Capture(f.sim).MarshalBinary()
		if err != nil {
			ctx.Err(err)
			return
		}
		ctx.Response(wrapperspb.Bytes(b))

	default:
		ctx.Unhandled()
	}
}

func (f *FlockActor) tick(ctx *actor.ReceiveContext, steps uint64) {
	if f.sim.Err() != nil {
		ctx.Logger().Debugf("%s: ignoring tick, simulation stopped", ctx.Self().Name())
		return
	}
	for range steps {
		if err := f.sim.Step(); err != nil {
			ctx.Logger().Errorf("%s: simulation stopped at step %d: %v", ctx.Self().Name(), f.sim.StepCount(), err)
			break
		}
		f.stepCount++
	}
	f.logThroughput(ctx)
	f.pushSnapshot()
}

func (f *FlockActor) logThroughput(ctx *actor.ReceiveContext) {
	if elapsed := time.Since(f.lastLogTime); elapsed >= time.Second {
		ctx.Logger().Debugf("STEP RATE: %.1f/sec | step %d", float64(f.stepCount)/elapsed.Seconds(), f.sim.StepCount())
		f.stepCount = 0
		f.lastLogTime = time.Now()
	}
}

func (f *FlockActor) pushSnapshot() {
	if f.snapshotCh == nil {
		return
	}
	snap := &Snapshot{Frame: frame.Capture(f.sim), Params: f.sim.Params(), Err: f.sim.Err()}
	select {
	case f.snapshotCh <- snap:
	default:
		// UI busy, skip frame
	}
}

func (f *FlockActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Flock is shutdown after %d steps", f.sim.StepCount())
	return nil
}

// NewSystem creates and starts an actor system logging to logger.
func NewSystem(ctx context.Context, name string, logger golog.Logger) (actor.ActorSystem, error) {
	system, err := actor.NewActorSystem(name, actor.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}
	return system, nil
}

// Tick asks pid to advance steps steps.
func Tick(ctx context.Context, pid *actor.PID, steps uint64) error {
	return actor.Tell(ctx, pid, wrapperspb.UInt64(steps))
}

// RequestFrame asks pid for its current state.
func RequestFrame(ctx context.Context, pid *actor.PID, timeout time.Duration) (*frame.Frame, error) {
	reply, err := actor.Ask(ctx, pid, &emptypb.Empty{}, timeout)
	if err != nil {
		return nil, fmt.Errorf("frame request failed: %w", err)
	}
	b, ok := reply.(*wrapperspb.BytesValue)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %T", reply)
	}
	f := new(frame.Frame)
	if err := f.UnmarshalBinary(b.GetValue()); err != nil {
		return nil, err
	}
	return f, nil
}
