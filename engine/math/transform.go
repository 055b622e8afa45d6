package math

import "github.com/go-gl/mathgl/mgl32"

func TransformCreate() Transform {
	return TransformFromPositionRotationScale(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
}

func TransformFromPosition(position mgl32.Vec3) Transform {
	return TransformFromPositionRotationScale(position, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
}

func TransformFromPositionRotationScale(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Transform {
	t := Transform{Local: mgl32.Ident4()}
	t.SetPositionRotationScale(position, rotation, scale)
	return t
}

func (t *Transform) SetPosition(position mgl32.Vec3) {
	t.Translation = position
	t.IsDirty = true
}

func (t *Transform) Translate(translation mgl32.Vec3) {
	t.Translation = t.Translation.Add(translation)
	t.IsDirty = true
}

func (t *Transform) SetRotation(rotation mgl32.Quat) {
	t.Orientation = rotation.Normalize()
	t.IsDirty = true
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.Scaling = scale
	t.IsDirty = true
}

func (t *Transform) SetPositionRotationScale(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	t.Translation = position
	t.Orientation = rotation.Normalize()
	t.Scaling = scale
	t.IsDirty = true
}

// GetLocal returns translate * rotate * scale, recomputed only when dirty.
func (t *Transform) GetLocal() mgl32.Mat4 {
	if t.IsDirty {
		tr := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
		s := mgl32.Scale3D(t.Scaling.X(), t.Scaling.Y(), t.Scaling.Z())
		t.Local = tr.Mul4(t.Orientation.Mat4()).Mul4(s)
		t.IsDirty = false
	}
	return t.Local
}

// GetWorld composes the local matrix under the parent's world matrix.
func (t *Transform) GetWorld(parentWorld mgl32.Mat4) mgl32.Mat4 {
	return parentWorld.Mul4(t.GetLocal())
}

// WorldPosition extracts the translation column of the world matrix.
func (t *Transform) WorldPosition(parentWorld mgl32.Mat4) mgl32.Vec3 {
	return t.GetWorld(parentWorld).Col(3).Vec3()
}

// Position moves the transform along its own or the world axes.
func (t *Transform) Position() Position {
	return Position{t: t}
}

// Rotation turns the transform around its own or the world axes.
func (t *Transform) Rotation() Rotation {
	return Rotation{t: t}
}

type Position struct {
	t *Transform
}

func (p Position) move(offset mgl32.Vec3, world bool) {
	if !world {
		offset = p.t.Orientation.Rotate(offset)
	}
	p.t.Translate(offset)
}

func (p Position) Forward(distance float32, world bool)  { p.move(mgl32.Vec3{0, 0, -distance}, world) }
func (p Position) Backward(distance float32, world bool) { p.Forward(-distance, world) }
func (p Position) Left(distance float32, world bool)     { p.move(mgl32.Vec3{-distance, 0, 0}, world) }
func (p Position) Right(distance float32, world bool)    { p.Left(-distance, world) }
func (p Position) Up(distance float32, world bool)       { p.move(mgl32.Vec3{0, distance, 0}, world) }
func (p Position) Down(distance float32, world bool)     { p.Up(-distance, world) }

type Rotation struct {
	t *Transform
}

func (r Rotation) turn(degrees float32, axis mgl32.Vec3, world bool) {
	dq := mgl32.QuatRotate(mgl32.DegToRad(degrees), axis)
	if world {
		r.t.Orientation = dq.Mul(r.t.Orientation)
	} else {
		r.t.Orientation = r.t.Orientation.Mul(dq)
	}
	// Renormalize every step so drift never accumulates.
	r.t.Orientation = r.t.Orientation.Normalize()
	r.t.IsDirty = true
}

func (r Rotation) Up(degrees float32, world bool)    { r.turn(degrees, mgl32.Vec3{1, 0, 0}, world) }
func (r Rotation) Down(degrees float32, world bool)  { r.Up(-degrees, world) }
func (r Rotation) Left(degrees float32, world bool)  { r.turn(degrees, mgl32.Vec3{0, 1, 0}, world) }
func (r Rotation) Right(degrees float32, world bool) { r.Left(-degrees, world) }
func (r Rotation) CCW(degrees float32, world bool)   { r.turn(degrees, mgl32.Vec3{0, 0, 1}, world) }
func (r Rotation) CW(degrees float32, world bool)    { r.CCW(-degrees, world) }
