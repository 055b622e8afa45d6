package math

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/core"
)

// Shape is generated geometry centered on its own origin together with the
// placement that puts it back where the caller asked for it.
type Shape struct {
	Mesh
	Center      mgl32.Vec3
	Orientation mgl32.Quat
}

// Transform returns the placement of the shape as a node transform.
func (s Shape) Transform() Transform {
	return TransformFromPositionRotationScale(s.Center, s.Orientation, mgl32.Vec3{1, 1, 1})
}

// PlaneCorners are three corners of a rectangle in world space; the fourth is derived.
type PlaneCorners struct {
	TopLeft  mgl32.Vec3
	TopRight mgl32.Vec3
	BotRight mgl32.Vec3
}

// axes returns the unnormalized edge vectors and the face normal.
func (pc PlaneCorners) axes() (x, y, z mgl32.Vec3) {
	botLeft := pc.TopLeft.Sub(pc.TopRight.Sub(pc.BotRight))
	x = pc.TopRight.Sub(pc.TopLeft)
	y = pc.TopLeft.Sub(botLeft)
	z = x.Cross(y).Normalize()
	return x, y, z
}

func GenerateNormals(vertices []Vertex, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := vertices[i1].Pos.Sub(vertices[i0].Pos)
		edge2 := vertices[i2].Pos.Sub(vertices[i0].Pos)

		c := edge1.Cross(edge2)
		if c.Len() < K_FLOAT_EPSILON {
			continue
		}
		normal := c.Normalize()

		// NOTE: This just generates a face normal. Smoothing out should be done in a separate pass if desired.
		vertices[i0].Normal = normal
		vertices[i1].Normal = normal
		vertices[i2].Normal = normal
	}
}

// GenerateIndices collapses identical vertices and returns the unique vertices
// with a triangle list pointing into them.
func GenerateIndices(from []Vertex) Mesh {
	lookup := make(map[Vertex]uint32, len(from))
	out := Mesh{
		Vertices: make([]Vertex, 0, len(from)),
		Indices:  make([]uint32, 0, len(from)),
	}
	for _, v := range from {
		if idx, ok := lookup[v]; ok {
			out.Indices = append(out.Indices, idx)
			continue
		}
		idx := uint32(len(out.Vertices))
		lookup[v] = idx
		out.Vertices = append(out.Vertices, v)
		out.Indices = append(out.Indices, idx)
	}
	core.LogDebug("GenerateIndices: removed %d vertices, orig/now %d/%d", len(from)-len(out.Vertices), len(from), len(out.Vertices))
	return out
}

func PlaneFromWorldCoordinates(corners PlaneCorners, withIndices bool) Shape {
	x, y, z := corners.axes()
	botLeft := corners.TopLeft.Sub(y)
	center := botLeft.Add(x.Mul(0.5)).Add(y.Mul(0.5))
	hw := x.Len() / 2
	hh := y.Len() / 2

	// The texture faces the front, so U runs right to left.
	vertices := []Vertex{
		{Pos: mgl32.Vec3{-hw, hh, 0}, Normal: z, TexCoord: mgl32.Vec2{1, 0}},
		{Pos: mgl32.Vec3{hw, hh, 0}, Normal: z, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{hw, -hh, 0}, Normal: z, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{-hw, hh, 0}, Normal: z, TexCoord: mgl32.Vec2{1, 0}},
		{Pos: mgl32.Vec3{hw, -hh, 0}, Normal: z, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{-hw, -hh, 0}, Normal: z, TexCoord: mgl32.Vec2{1, 1}},
	}
	return newShape(vertices, withIndices, center, QuatLookAt(z, y))
}

// BoxSizes are the full extents of a box along its own X, Y and Z axes.
type BoxSizes struct {
	Width, Height, Depth float32
}

func BoxFromWorldCoordinates(center mgl32.Vec3, sizes BoxSizes, front PlaneCorners, withIndices bool) Shape {
	_, y, z := front.axes()
	w, h, d := sizes.Width/2, sizes.Height/2, sizes.Depth/2

	// Corners as seen from the face's outside: top-left, bottom-left, bottom-right, top-right.
	faces := []struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-w, h, d}, {-w, -h, d}, {w, -h, d}, {w, h, d}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{w, h, d}, {w, -h, d}, {w, -h, -d}, {w, h, -d}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{w, h, -d}, {w, -h, -d}, {-w, -h, -d}, {-w, h, -d}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-w, h, -d}, {-w, -h, -d}, {-w, -h, d}, {-w, h, d}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{w, h, d}, {w, h, -d}, {-w, h, -d}, {-w, h, d}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{w, -h, -d}, {w, -h, d}, {-w, -h, d}, {-w, -h, -d}}},
	}
	uvs := [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

	vertices := make([]Vertex, 0, len(faces)*6)
	for _, f := range faces {
		for _, c := range [6]int{0, 1, 2, 0, 2, 3} {
			vertices = append(vertices, Vertex{Pos: f.corners[c], Normal: f.normal, TexCoord: uvs[c]})
		}
	}
	return newShape(vertices, withIndices, center, QuatLookAt(z, y.Normalize()))
}

func newShape(vertices []Vertex, withIndices bool, center mgl32.Vec3, orientation mgl32.Quat) Shape {
	mesh := Mesh{Vertices: vertices}
	if withIndices {
		mesh = GenerateIndices(vertices)
	}
	return Shape{Mesh: mesh, Center: center, Orientation: orientation}
}
