package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

var frontCorners = PlaneCorners{
	TopLeft:  mgl32.Vec3{-1, 1, 0},
	TopRight: mgl32.Vec3{1, 1, 0},
	BotRight: mgl32.Vec3{1, -1, 0},
}

func TestGenerateIndicesDeduplicates(t *testing.T) {
	a := Vertex{Pos: mgl32.Vec3{0, 0, 0}}
	b := Vertex{Pos: mgl32.Vec3{1, 0, 0}}
	c := Vertex{Pos: mgl32.Vec3{0, 1, 0}}
	d := Vertex{Pos: mgl32.Vec3{1, 1, 0}}

	mesh := GenerateIndices([]Vertex{a, b, c, c, b, d})
	if len(mesh.Vertices) != 4 {
		t.Fatalf("unique vertices = %d, want 4", len(mesh.Vertices))
	}
	want := []uint32{0, 1, 2, 2, 1, 3}
	for i, idx := range want {
		if mesh.Indices[i] != idx {
			t.Fatalf("indices = %v, want %v", mesh.Indices, want)
		}
	}
}

func TestResolvedIndices(t *testing.T) {
	m := Mesh{Vertices: make([]Vertex, 3)}
	got := m.ResolvedIndices()
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Errorf("ResolvedIndices() = %v, want [0 1 2]", got)
	}
	if idx := (Mesh{}).ResolvedIndices(); len(idx) != 0 {
		t.Errorf("empty mesh indices = %v", idx)
	}
}

func TestPlaneFromWorldCoordinates(t *testing.T) {
	raw := PlaneFromWorldCoordinates(frontCorners, false)
	if len(raw.Vertices) != 6 {
		t.Fatalf("vertices = %d, want 6", len(raw.Vertices))
	}
	if raw.Center.Sub(mgl32.Vec3{0, 0, 0}).Len() > tolerance {
		t.Errorf("center = %v, want origin", raw.Center)
	}
	for _, v := range raw.Vertices {
		if v.Normal.Sub(mgl32.Vec3{0, 0, 1}).Len() > tolerance {
			t.Fatalf("normal = %v, want +Z", v.Normal)
		}
	}

	indexed := PlaneFromWorldCoordinates(frontCorners, true)
	if len(indexed.Vertices) != 4 || len(indexed.Indices) != 6 {
		t.Errorf("indexed plane = %d vertices / %d indices, want 4 / 6", len(indexed.Vertices), len(indexed.Indices))
	}
}

func TestPlaneOrientation(t *testing.T) {
	// A plane lying on the floor faces +Y.
	floor := PlaneCorners{
		TopLeft:  mgl32.Vec3{-1, 0, -1},
		TopRight: mgl32.Vec3{1, 0, -1},
		BotRight: mgl32.Vec3{1, 0, 1},
	}
	s := PlaneFromWorldCoordinates(floor, true)
	if l := s.Orientation.Len(); l < 1-tolerance || l > 1+tolerance {
		t.Fatalf("orientation norm = %v", l)
	}
	if s.Vertices[0].Normal.Sub(mgl32.Vec3{0, 1, 0}).Len() > tolerance {
		t.Errorf("floor normal = %v, want +Y", s.Vertices[0].Normal)
	}
}

func TestBoxFromWorldCoordinates(t *testing.T) {
	box := BoxFromWorldCoordinates(mgl32.Vec3{0, 2, 0}, BoxSizes{2, 2, 2}, frontCorners, false)
	if len(box.Vertices) != 36 {
		t.Fatalf("vertices = %d, want 36", len(box.Vertices))
	}
	if box.Center.Sub(mgl32.Vec3{0, 2, 0}).Len() > tolerance {
		t.Errorf("center = %v", box.Center)
	}

	// Every triangle winds counter-clockwise when seen from outside.
	for i := 0; i < len(box.Vertices); i += 3 {
		v0, v1, v2 := box.Vertices[i], box.Vertices[i+1], box.Vertices[i+2]
		n := v1.Pos.Sub(v0.Pos).Cross(v2.Pos.Sub(v0.Pos)).Normalize()
		if n.Sub(v0.Normal).Len() > tolerance {
			t.Fatalf("triangle %d winding normal %v disagrees with %v", i/3, n, v0.Normal)
		}
	}

	indexed := BoxFromWorldCoordinates(mgl32.Vec3{}, BoxSizes{1, 1, 1}, frontCorners, true)
	if len(indexed.Vertices) != 24 || len(indexed.Indices) != 36 {
		t.Errorf("indexed box = %d vertices / %d indices, want 24 / 36", len(indexed.Vertices), len(indexed.Indices))
	}
}

func TestGenerateNormals(t *testing.T) {
	vertices := []Vertex{
		{Pos: mgl32.Vec3{0, 0, 0}},
		{Pos: mgl32.Vec3{1, 0, 0}},
		{Pos: mgl32.Vec3{0, 1, 0}},
	}
	GenerateNormals(vertices, []uint32{0, 1, 2})
	for _, v := range vertices {
		if v.Normal.Sub(mgl32.Vec3{0, 0, 1}).Len() > tolerance {
			t.Fatalf("normal = %v, want +Z", v.Normal)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(float32(0.5), 0, 1) != 0.5 {
		t.Error("Clamp returned an out-of-range value")
	}
}
