//go:build !headless

// Package viewer is the interactive ebiten window: a side panel of
// controls and the flock drawn from the snapshots of a FlockActor.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/config"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/render"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/simulation"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/analysis"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/ui"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/vicsek"
	"github.com/tochemey/goakt/v3/actor"
)

const panelWidth = 280

var (
	whiteImage      = ebiten.NewImage(3, 3)
	backgroundColor = color.RGBA{R: 15, G: 15, B: 25, A: 255}
)

func init() {
	whiteImage.Fill(color.White)
}

type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	flockPID   *actor.PID
	flockName  string
	generation int
	snapshotCh chan *simulation.Snapshot // one per generation
	lastState  *simulation.Snapshot
	awaiting   bool // a tick is in flight

	// UI Controls
	panel *ui.UIPanel

	// Widget references for easy access
	widgetStepsPerFrame *ui.Slider
	widgetArrowScale    *ui.Slider
	widgetPause         *ui.Checkbox
	widgetParticles     *ui.Slider
	widgetEta           *ui.Slider
	widgetSpeed         *ui.Slider
	widgetRadius        *ui.Slider
	restartRequested    bool

	cfg *config.Config

	// reused across frames
	vertices []ebiten.Vertex
	indices  []uint16

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// GetNewGame spawns a FlockActor for cfg in system and builds the viewer
// around it.
func GetNewGame(ctx context.Context, cfg *config.Config, system actor.ActorSystem) (*Game, error) {
	g := &Game{
		ctx:    ctx,
		System: system,
		cfg:    cfg,
	}

	panel := ui.NewUIPanel(10, 10, panelWidth-20, float64(cfg.ScreenSize)-20)
	panel.Title = "Vicsek flock"

	panel.AddSection("Display")
	g.widgetStepsPerFrame = panel.AddSlider("Steps per frame", 1, 20, 1)
	g.widgetStepsPerFrame.Step = 1
	g.widgetArrowScale = panel.AddSlider("Arrow scale", 0.2, 3, cfg.ArrowScale)
	g.widgetPause = panel.AddCheckbox("Pause", false)
	panel.EndSection()

	panel.AddSection("Parameters (Restart Required)")
	g.widgetParticles = panel.AddSlider("Particles", 10, 5000, float64(cfg.N))
	g.widgetParticles.Step = 10
	g.widgetEta = panel.AddSlider("Noise eta", 0, 2*math.Pi, cfg.Eta)
	g.widgetSpeed = panel.AddSlider("Speed v0", 0, 1, cfg.V0)
	g.widgetRadius = panel.AddSlider("Radius r", 0.1, 3, cfg.R)
	panel.AddButton("Restart", func() { g.restartRequested = true })
	panel.EndSection()
	g.panel = panel

	sim, err := cfg.NewSimulator()
	if err != nil {
		return nil, err
	}
	if err := g.spawn(sim); err != nil {
		return nil, err
	}
	return g, nil
}

// spawn starts a new FlockActor generation owning sim. Each generation
// pushes to its own channel, so snapshots still queued by a killed actor
// are never shown and never fill the buffer of the new one.
func (g *Game) spawn(sim *vicsek.Simulator) error {
	g.generation++
	name := fmt.Sprintf("flock-%d", g.generation)
	ch := make(chan *simulation.Snapshot, 1)
	pid, err := g.System.Spawn(g.ctx, name, simulation.NewFlockActor(sim, ch))
	if err != nil {
		return fmt.Errorf("failed to spawn %s: %w", name, err)
	}
	g.flockPID, g.flockName, g.snapshotCh = pid, name, ch
	g.awaiting = false
	return nil
}

// restart replaces the running flock by one built from the parameter
// sliders. On error the current flock keeps running.
func (g *Game) restart() {
	next := *g.cfg
	next.N = int(g.widgetParticles.Value)
	next.Eta = g.widgetEta.Value
	next.V0 = g.widgetSpeed.Value
	next.R = g.widgetRadius.Value
	next.Seed = 0
	next.ResolveSeed(vicsek.NewNoiseSource(uint64(time.Now().UnixNano())))

	sim, err := next.NewSimulator()
	if err != nil {
		g.System.Logger().Errorf("restart refused: %v", err)
		return
	}
	if err := g.System.Kill(g.ctx, g.flockName); err != nil {
		g.System.Logger().Warnf("failed to stop %s: %v", g.flockName, err)
	}
	if err := g.spawn(sim); err != nil {
		g.System.Logger().Errorf("restart failed: %v", err)
		return
	}
	g.cfg = &next
	g.lastState = nil
	g.System.Logger().Infof("restarted with %s seed=%d", next.Params(), next.Seed)
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// 1. Update UI Panel
	g.panel.Update()
	if g.restartRequested {
		g.restartRequested = false
		g.restart()
	}

	// 2. Retrieve Latest State (Non-blocking)
	g.pollSnapshot()

	// 3. Trigger Simulation Step, one tick in flight at most
	return g.tick()
}

// pollSnapshot keeps the previous state when no new one is ready.
func (g *Game) pollSnapshot() {
	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
		g.awaiting = false
	default:
	}
}

func (g *Game) tick() error {
	if g.widgetPause.Value || g.awaiting || (g.lastState != nil && g.lastState.Err != nil) {
		return nil
	}
	if err := simulation.Tick(g.ctx, g.flockPID, uint64(g.widgetStepsPerFrame.Value)); err != nil {
		return fmt.Errorf("tick failed: %w", err)
	}
	g.awaiting = true
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)
	size := float32(g.cfg.ScreenSize)
	vector.StrokeRect(screen, panelWidth, 0, size, size, 1, color.RGBA{R: 80, G: 80, B: 90, A: 255}, true)

	// 1. Draw the flock from the last known snapshot
	if g.lastState != nil {
		g.drawArrows(screen)
	}

	// 2. Draw UI Panel
	g.panel.Draw(screen)

	// 3. Stats, on the right side to avoid overlap with panel
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg)
	if s := g.lastState; s != nil {
		msg += fmt.Sprintf("\n\nStep:  %d\nOrder: %.3f\nHeading: %.0f deg\nN=%d eta=%.2f",
			s.Frame.Index, s.Frame.Order, analysis.MeanHeading(s.Frame.Headings)*180/math.Pi, s.Params.N, s.Params.Eta)
	}
	ebitenutil.DebugPrintAt(screen, msg, panelWidth+g.cfg.ScreenSize-150, 10)

	if s := g.lastState; s != nil && s.Err != nil {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SIMULATION STOPPED\n%v", s.Err),
			panelWidth+20, g.cfg.ScreenSize/2)
	}
}

// drawArrows batches every particle into a single DrawTriangles call.
func (g *Game) drawArrows(screen *ebiten.Image) {
	f := g.lastState.Frame
	scale := float64(g.cfg.ScreenSize) / g.lastState.Params.L
	length := float64(g.cfg.ScreenSize) / 30 * g.widgetArrowScale.Value

	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]
	for i, p := range f.Positions {
		// The y axis points up, as in the exported images.
		at := geometry.NewVector(panelWidth+p.X*scale, float64(g.cfg.ScreenSize)-p.Y*scale)
		theta := f.Headings[i]

		c := render.HeadingColor(theta)
		r, gr, b := float32(c.R)/255, float32(c.G)/255, float32(c.B)/255
		base := uint16(len(g.vertices))
		for _, v := range render.ArrowVertices(at, theta, length) {
			g.vertices = append(g.vertices, ebiten.Vertex{
				DstX: float32(v.X), DstY: float32(v.Y),
				SrcX: 1, SrcY: 1,
				ColorR: r, ColorG: gr, ColorB: b, ColorA: 1,
			})
		}
		g.indices = append(g.indices, base, base+1, base+2)

		// uint16 indices: flush before they overflow
		if len(g.vertices) > math.MaxUint16-3 {
			screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
			g.vertices = g.vertices[:0]
			g.indices = g.indices[:0]
		}
	}
	if len(g.indices) > 0 {
		screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
	}
}

func (g *Game) Layout(w, h int) (int, int) {
	return panelWidth + g.cfg.ScreenSize, g.cfg.ScreenSize
}
