package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/gravfield/internal/transfer"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const (
	blank       = rune(0x2800)
	rampBuckets = 16
)

// Canvas is a braille dot grid. Every cell also remembers the fastest
// record plotted into it, which picks the cell colour.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Heat          [][]float32
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Heat:   make([][]float32, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Heat[i] = make([]float32, w)
	}
	c.Clear()
	return c
}

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int, speed float32) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if speed > c.Heat[row][col] || speed != speed {
		c.Heat[row][col] = speed
	}
}

// Dot reports whether the sub-pixel at (x, y) is set.
func (c *Canvas) Dot(x, y int) bool {
	if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Heat[i][j] = 0
		}
	}
}

// Plot maps records from world space, a square of half size halfExtent
// centred on the origin, onto the canvas. Records outside it are dropped.
func (c *Canvas) Plot(recs []transfer.Record, halfExtent float32) {
	if halfExtent <= 0 {
		return
	}
	cw, ch := float32(c.Width*2), float32(c.Height*4)
	for _, r := range recs {
		u := (r.X + halfExtent) / (2 * halfExtent)
		v := (halfExtent - r.Y) / (2 * halfExtent)
		if !(u >= 0 && u < 1 && v >= 0 && v < 1) {
			continue
		}
		c.Set(int(u*cw), int(v*ch), r.Speed)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colours each non-empty cell by its heat relative to maxSpeed.
func (c *Canvas) Render(maxSpeed float32) string {
	styles := rampStyles()
	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			if r == blank {
				b.WriteRune(r)
				continue
			}
			k := int(Normalize(c.Heat[i][j], maxSpeed) * (rampBuckets - 1))
			b.WriteString(styles[k].Render(string(r)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

var rampStyleCache []lipgloss.Style

func rampStyles() []lipgloss.Style {
	if rampStyleCache == nil {
		rampStyleCache = make([]lipgloss.Style, rampBuckets)
		for i := range rampStyleCache {
			col := Ramp(float64(i) / (rampBuckets - 1))
			rampStyleCache[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(col.Hex()))
		}
	}
	return rampStyleCache
}
