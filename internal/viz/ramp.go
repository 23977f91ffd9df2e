package viz

import (
	"fmt"
	"math"
)

type RGB struct {
	R, G, B uint8
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// speedStops run from slow (deep blue) to fast (red).
var speedStops = []RGB{
	{R: 24, G: 36, B: 140},
	{R: 0, G: 170, B: 255},
	{R: 120, G: 255, B: 140},
	{R: 255, G: 220, B: 0},
	{R: 255, G: 60, B: 30},
}

// SpeedColor is the false colour for speed relative to maxSpeed. Speeds
// above maxSpeed and non-finite speeds saturate to the last stop.
func SpeedColor(speed, maxSpeed float32) RGB {
	return Ramp(Normalize(speed, maxSpeed))
}

func Normalize(speed, maxSpeed float32) float64 {
	if maxSpeed <= 0 {
		return 0
	}
	t := float64(speed) / float64(maxSpeed)
	if math.IsNaN(t) || t > 1 {
		return 1
	}
	if t < 0 {
		return 0
	}
	return t
}

// Ramp interpolates the speed stops at t in [0,1].
func Ramp(t float64) RGB {
	if t <= 0 {
		return speedStops[0]
	}
	if t >= 1 {
		return speedStops[len(speedStops)-1]
	}

	pos := t * float64(len(speedStops)-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := speedStops[i], speedStops[i+1]
	return RGB{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
