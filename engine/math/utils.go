package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

const (
	// Smallest positive number where 1.0 + K_FLOAT_EPSILON != 1.0
	K_FLOAT_EPSILON float32 = 1.192092896e-07

	// Default vertical field of view, in degrees.
	K_DEFAULT_FOV float32 = 45.0
	// Near clip distance used by the reversed-Z projection.
	K_DEFAULT_NEAR float32 = 0.01
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// ReversedInfinitePerspective builds a projection with depth 1 at the near
// plane and 0 at infinity. fovY is in radians.
func ReversedInfinitePerspective(fovY, aspect, near float32) mgl32.Mat4 {
	f := float32(1.0 / gomath.Tan(float64(fovY)/2.0))
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, 0, -1,
		0, 0, near, 0,
	}
}

// QuatLookAt returns the orientation whose -Z axis points along direction,
// with up used to resolve the roll.
func QuatLookAt(direction, up mgl32.Vec3) mgl32.Quat {
	c2 := direction.Mul(-1).Normalize()
	c0 := up.Cross(c2).Normalize()
	c1 := c2.Cross(c0)
	m := mgl32.Mat3FromCols(c0, c1, c2)
	return mgl32.Mat4ToQuat(m.Mat4()).Normalize()
}
