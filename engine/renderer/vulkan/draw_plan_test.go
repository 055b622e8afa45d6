package vulkan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/math"
	"github.com/spaghettifunk/volchara/engine/scene"
)

func TestBuildDrawPlanSplitsBySubpass(t *testing.T) {
	list := scene.DrawList{
		{Name: "floor", Mesh: math.Mesh{Vertices: vertices(3)}, World: mgl32.Translate3D(1, 0, 0)},
		{Name: "glass", Mesh: math.Mesh{Vertices: vertices(6)}, Material: scene.Material{Transparent: true, TextureIndex: 2}},
		{Name: "camera", Camera: true},
		{Name: "box", Mesh: math.Mesh{Vertices: vertices(3)}, Material: scene.Material{AlphaCutoff: 0.5}},
	}
	packed := PackGeometry(list)
	debug := DebugFeatures{Mode: DEBUG_VIEW_NORMALS}
	plan := BuildDrawPlan(list, packed.Ranges, debug, 4)

	if len(plan.Geometry) != 2 || len(plan.Transparency) != 1 {
		t.Fatalf("expected 2 opaque and 1 transparent draws, got %d/%d", len(plan.Geometry), len(plan.Transparency))
	}
	// The transparent mesh is skipped by the geometry subpass but still
	// occupies its index range.
	if plan.Geometry[1].Name != "box" || plan.Geometry[1].FirstIndex != 9 {
		t.Errorf("unexpected second opaque draw %+v", plan.Geometry[1])
	}
	glass := plan.Transparency[0]
	if glass.FirstIndex != 3 || glass.IndexCount != 6 || glass.Push.TextureIndex != 2 {
		t.Errorf("unexpected transparent draw %+v", glass)
	}
	if plan.Geometry[0].Push.Model != mgl32.Translate3D(1, 0, 0) {
		t.Errorf("model matrix not carried into push constants")
	}
	if plan.Geometry[1].Push.AlphaCutoff != 0.5 {
		t.Errorf("alpha cutoff not carried into push constants")
	}
	for _, call := range append(plan.Geometry, plan.Transparency...) {
		if call.Push.DebugFlags != DEBUG_FLAG_NORMALS {
			t.Errorf("debug flags missing on %s", call.Name)
		}
	}
}

func TestBuildDrawPlanRemapsUnpopulatedTextures(t *testing.T) {
	list := scene.DrawList{
		{Name: "bound", Mesh: math.Mesh{Vertices: vertices(3)}, Material: scene.Material{TextureIndex: 0}},
		{Name: "unbound", Mesh: math.Mesh{Vertices: vertices(3)}, Material: scene.Material{TextureIndex: 63, NormalIndex: 1, EmissiveIndex: 200}},
	}
	packed := PackGeometry(list)
	plan := BuildDrawPlan(list, packed.Ranges, DebugFeatures{}, 1)

	if len(plan.Geometry) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(plan.Geometry))
	}
	push := plan.Geometry[1].Push
	if push.TextureIndex != DefaultTextureIndex || push.NormalIndex != DefaultTextureIndex || push.EmissiveIndex != DefaultTextureIndex {
		t.Errorf("indices past the table were pushed: %+v", push)
	}
	if plan.Remapped != 3 {
		t.Errorf("remapped = %d, want 3", plan.Remapped)
	}

	plan = BuildDrawPlan(list, packed.Ranges, DebugFeatures{}, 64)
	if plan.Geometry[1].Push.TextureIndex != 63 || plan.Remapped != 0 {
		t.Errorf("populated index was remapped: %+v, remapped %d", plan.Geometry[1].Push, plan.Remapped)
	}
}
