package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/gravfield/internal/viz"
)

// view maps world coordinates onto the window, keeping the aspect ratio.
func (a *App) view() (cx, cy, scale float32) {
	extent := a.opts.HalfExtent / a.Zoom
	return screenWidth / 2, screenHeight / 2, float32(screenHeight) / (2 * extent)
}

func (a *App) drawGrid() {
	cx, cy, _ := a.view()
	rl.DrawLine(0, int32(cy), screenWidth, int32(cy), ColGrid)
	rl.DrawLine(int32(cx), 0, int32(cx), screenHeight, ColGrid)
}

func (a *App) drawParticles() {
	cx, cy, scale := a.view()
	for _, v := range a.Verts {
		pos := rl.NewVector2(cx+v.X*scale, cy-v.Y*scale)
		if v.Mass > 0 {
			rl.DrawCircleV(pos, 4, ColSelect)
			continue
		}
		c := viz.SpeedColor(v.Speed, a.MaxSpeed)
		rl.DrawPixelV(pos, rl.NewColor(c.R, c.G, c.B, 255))
	}
}
