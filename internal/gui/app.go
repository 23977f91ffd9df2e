package gui

import (
	"context"
	"errors"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/transfer"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

const (
	screenWidth  = 1280
	screenHeight = 720
)

type Options struct {
	Title      string
	HalfExtent float32
	FPS        int
}

// App draws frames taken from a handoff. Records are copied into a vertex
// buffer owned by the app, so the frame is released before drawing starts.
type App struct {
	handoff *transfer.Handoff
	opts    Options

	Verts     []transfer.Record
	Step      int
	MaxSpeed  float32
	Running   bool
	Zoom      float32
	Telemetry []float64
}

func initWindow(title string, fps int) {
	rl.InitWindow(screenWidth, screenHeight, title)
	rl.SetTargetFPS(int32(fps))
	rl.SetExitKey(0)
}

func NewApp(h *transfer.Handoff, opts Options) *App {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.HalfExtent <= 0 {
		opts.HalfExtent = 8
	}
	if opts.Title == "" {
		opts.Title = "gravfield"
	}
	return &App{
		handoff:   h,
		opts:      opts,
		Running:   true,
		Zoom:      1,
		Telemetry: make([]float64, 0, 200),
	}
}

// Run opens the window and draws until it is closed or ctx is cancelled.
// The handoff is closed on return.
func Run(ctx context.Context, h *transfer.Handoff, opts Options) error {
	app := NewApp(h, opts)
	initWindow(app.opts.Title, app.opts.FPS)
	defer rl.CloseWindow()
	defer h.Close()

	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			return nil
		}
		app.Update()
		if err := app.Pull(ctx); err != nil {
			if errors.Is(err, dynamo.ErrClosed) {
				return nil
			}
			return err
		}
		app.Draw()
	}
	return nil
}

func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyQ) {
		a.handoff.Close()
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.Zoom *= 1 + 0.1*wheel
		a.Zoom = max(0.1, min(a.Zoom, 50))
	}
}

// Pull blocks until the producer publishes the next frame and copies it
// into Verts. While paused nothing is taken and the last copy is redrawn.
func (a *App) Pull(ctx context.Context) error {
	if !a.Running {
		return nil
	}

	verts, step, err := a.handoff.Take(ctx, a.Verts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	a.Verts, a.Step = verts, step

	a.MaxSpeed = 0
	var sum float64
	for _, v := range a.Verts {
		a.MaxSpeed = max(a.MaxSpeed, v.Speed)
		sum += float64(v.Speed)
	}
	if len(a.Verts) > 0 {
		a.pushTelemetry(sum / float64(len(a.Verts)))
	}
	return nil
}

func (a *App) pushTelemetry(v float64) {
	if len(a.Telemetry) == cap(a.Telemetry) {
		copy(a.Telemetry, a.Telemetry[1:])
		a.Telemetry = a.Telemetry[:len(a.Telemetry)-1]
	}
	a.Telemetry = append(a.Telemetry, v)
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	a.drawGrid()
	a.drawParticles()
	a.DrawHUD()

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	rl.DrawText(a.opts.Title, 30, 30, 24, ColSelect)
	rl.DrawText(fmt.Sprintf(":: step %d  %d particles", a.Step, len(a.Verts)), 180, 36, 16, ColText)

	a.DrawTelemetry()

	status := "RUNNING"
	col := ColSelect
	if !a.Running {
		status = "PAUSED"
		col = ColTextDim
	}
	rl.DrawText(status, 1150, 30, 16, col)

	rl.DrawText("[SPACE] PAUSE  [WHEEL] ZOOM  [Q] QUIT", 860, 680, 14, ColTextDim)
	rl.DrawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColText)
	rl.DrawText(fmt.Sprintf("v: %.3f", a.Telemetry[len(a.Telemetry)-1]), int32(rectX+width+10), int32(rectY+height-10), 14, ColText)
}
