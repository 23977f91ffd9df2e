package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/gravfield/internal/transfer"
	"github.com/san-kum/gravfield/internal/viz"
)

// FrameToSVG draws records as a false-coloured scatter of side size pixels
// covering [-halfExtent, halfExtent]². Sources are drawn larger and white.
func FrameToSVG(recs []transfer.Record, halfExtent float32, size int) string {
	if halfExtent <= 0 || size <= 0 {
		return ""
	}

	var maxSpeed float32
	for _, r := range recs {
		if r.Speed > maxSpeed {
			maxSpeed = r.Speed
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size))

	scale := float32(size) / (2 * halfExtent)
	var sources []transfer.Record
	for _, r := range recs {
		if r.Mass > 0 {
			sources = append(sources, r)
			continue
		}
		x := (r.X + halfExtent) * scale
		y := (halfExtent - r.Y) * scale
		if !(x >= 0 && x < float32(size) && y >= 0 && y < float32(size)) {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="1" height="1" fill="%s"/>
`, x, y, viz.SpeedColor(r.Speed, maxSpeed).Hex()))
	}

	for _, s := range sources {
		x := (s.X + halfExtent) * scale
		y := (halfExtent - s.Y) * scale
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="#ffffff"/>
`, x, y))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// CanvasToSVG draws every set braille dot as a circle on a grid of pitch
// scale, coloured by the heat of its cell the way the terminal view colours it.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil || scale <= 0 {
		return ""
	}

	var hottest float32
	for _, row := range canvas.Heat {
		for _, heat := range row {
			if heat > hottest {
				hottest = heat
			}
		}
	}

	w, h := canvas.Width*2, canvas.Height*4
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, float64(w)*scale, float64(h)*scale)

	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.Dot(x, y) {
				continue
			}
			col := viz.SpeedColor(canvas.Heat[y/4][x/2], hottest)
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, (float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r, col.Hex())
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func WriteFile(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0644)
}
