package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Vec2 = mgl32.Vec2

// Zero is the additive identity.
var Zero = Vec2{}

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func IsFinite(v Vec2) bool {
	return Finite(v[0]) && Finite(v[1])
}

// Speed returns |v| in float32, matching the precision of the stored state.
func Speed(v Vec2) float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}
