package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
)

// Mouse deltas are in pixels; this scales them to degrees at sensitivity 1.
const cursorFactor float32 = 0.0001

// NewCamera creates a detached camera node looking down -Z from (0, 0, 1).
func (g *Graph) NewCamera(name string) Handle {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	t := math.TransformCreate()
	t.SetRotation(mgl32.Mat4ToQuat(view))
	h := g.NewNode(name, math.Mesh{}, t)
	n, _ := g.Node(h)
	n.Camera = true
	return h
}

// ViewMatrix is the inverse of the camera's world matrix.
func (g *Graph) ViewMatrix(camera Handle) (mgl32.Mat4, error) {
	world, err := g.WorldMatrix(camera)
	if err != nil {
		return mgl32.Ident4(), err
	}
	return world.Inv(), nil
}

// CameraController flies a camera node from keyboard and mouse state.
type CameraController struct {
	Speed       float32
	Sensitivity float32
}

func (cc CameraController) Update(t *math.Transform, ctx FrameContext) {
	step := cc.Speed * ctx.Elapsed
	pos := t.Position()
	if ctx.Held.Contains(core.KEY_W) {
		pos.Forward(step, false)
	}
	if ctx.Held.Contains(core.KEY_S) {
		pos.Backward(step, false)
	}
	if ctx.Held.Contains(core.KEY_A) {
		pos.Left(step, false)
	}
	if ctx.Held.Contains(core.KEY_D) {
		pos.Right(step, false)
	}
	if ctx.Held.Contains(core.KEY_Q) {
		pos.Down(step, true)
	}
	if ctx.Held.Contains(core.KEY_E) {
		pos.Up(step, true)
	}

	if ctx.Cursor.X() != 0 || ctx.Cursor.Y() != 0 {
		rot := t.Rotation()
		rot.Up(-ctx.Cursor.Y()*cc.Sensitivity*cursorFactor*mgl32.RadToDeg(1), false)
		rot.Right(ctx.Cursor.X()*cc.Sensitivity*cursorFactor*mgl32.RadToDeg(1), true)
	}
}

// Callback adapts the controller to a node callback.
func (cc CameraController) Callback() Callback {
	return func(m *Mutator, ctx FrameContext) {
		cc.Update(m.Transform(), ctx)
	}
}
