package vulkan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/math"
	"github.com/spaghettifunk/volchara/engine/scene"
)

func vertices(n int) []math.Vertex {
	out := make([]math.Vertex, n)
	for i := range out {
		out[i].Pos = mgl32.Vec3{float32(i), 0, 0}
	}
	return out
}

func TestPackGeometryRebasesIndices(t *testing.T) {
	list := scene.DrawList{
		{Mesh: math.Mesh{Vertices: vertices(3), Indices: []uint32{0, 1, 2}}},
		{Mesh: math.Mesh{Vertices: vertices(4), Indices: []uint32{0, 1, 2, 3}}},
	}
	packed := PackGeometry(list)

	if len(packed.Vertices) != 7 {
		t.Fatalf("expected 7 vertices, got %d", len(packed.Vertices))
	}
	want := []uint32{0, 1, 2, 3, 4, 5, 6}
	for i, index := range packed.Indices {
		if index != want[i] {
			t.Fatalf("index %d: expected %d, got %d", i, want[i], index)
		}
	}
	if packed.Ranges[1] != (GeometryRange{FirstIndex: 3, IndexCount: 4}) {
		t.Errorf("unexpected second range %+v", packed.Ranges[1])
	}
}

func TestPackGeometryEmptyAndIdentity(t *testing.T) {
	list := scene.DrawList{
		{Mesh: math.Mesh{Vertices: vertices(2), Indices: []uint32{1, 0, 1}}},
		{Name: "group"},
		{Mesh: math.Mesh{Vertices: vertices(3)}},
	}
	packed := PackGeometry(list)

	if !packed.Ranges[1].IsEmpty() || packed.Ranges[1].FirstIndex != 3 {
		t.Errorf("grouping node should produce an empty range at 3, got %+v", packed.Ranges[1])
	}
	if packed.Ranges[2] != (GeometryRange{FirstIndex: 3, IndexCount: 3}) {
		t.Errorf("unexpected identity range %+v", packed.Ranges[2])
	}
	if got := packed.Indices[3:]; got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Errorf("identity indices not rebased: %v", got)
	}
	if uint64(len(packed.VertexBytes())) != 5*VertexSize {
		t.Errorf("unexpected vertex byte length %d", len(packed.VertexBytes()))
	}
	if VertexSize != 44 {
		t.Errorf("vertex layout must be tightly packed, got %d bytes", VertexSize)
	}
}

func TestPackGeometryNothingToDraw(t *testing.T) {
	packed := PackGeometry(nil)
	if packed.VertexBytes() != nil || packed.IndexBytes() != nil {
		t.Errorf("expected no bytes for an empty list")
	}
}
