package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/assets/loaders"
	"github.com/spaghettifunk/volchara/engine/math"
	"github.com/spaghettifunk/volchara/engine/scene"
)

func TestBuildModelNodes(t *testing.T) {
	graph := scene.NewGraph()
	model := &loaders.Model{
		Name: "ship.glb",
		Nodes: []loaders.ModelNode{
			{Name: "hull", Parent: -1, Texture: 1, Mesh: triangle(), Transform: math.TransformCreate()},
			{Name: "mast", Parent: 0, Texture: -1, Mesh: triangle(), Transform: math.TransformFromPosition(mgl32.Vec3{0, 2, 0})},
			{Name: "flag", Parent: -1, Texture: 0, Mesh: triangle(), Transform: math.TransformCreate()},
		},
	}

	group, err := buildModelNodes(graph, model, []uint32{7, 9}, math.TransformFromPosition(mgl32.Vec3{5, 0, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if err := graph.AddRoot(group); err != nil {
		t.Fatal(err)
	}

	g, _ := graph.Node(group)
	if g.Name != "ship.glb" || len(g.Children()) != 2 {
		t.Fatalf("group %q has %d children", g.Name, len(g.Children()))
	}
	hull, _ := graph.Node(g.Children()[0])
	flag, _ := graph.Node(g.Children()[1])
	if hull.Name != "hull" || flag.Name != "flag" {
		t.Fatalf("children %q %q", hull.Name, flag.Name)
	}
	if hull.Material.TextureIndex != 9 || flag.Material.TextureIndex != 7 {
		t.Errorf("textures hull=%d flag=%d", hull.Material.TextureIndex, flag.Material.TextureIndex)
	}
	if len(hull.Children()) != 1 {
		t.Fatalf("hull has %d children", len(hull.Children()))
	}
	mast, _ := graph.Node(hull.Children()[0])
	if mast.Material.TextureIndex != 0 {
		t.Errorf("untextured node got texture %d", mast.Material.TextureIndex)
	}

	// Group translation and node translation compose.
	world, err := graph.WorldMatrix(hull.Children()[0])
	if err != nil {
		t.Fatal(err)
	}
	if pos := world.Col(3).Vec3(); pos.Sub(mgl32.Vec3{5, 2, 0}).Len() > 1e-5 {
		t.Errorf("mast world position %v", pos)
	}

	if n := len(graph.Flatten()); n != 4 {
		t.Errorf("flatten produced %d items", n)
	}
}
