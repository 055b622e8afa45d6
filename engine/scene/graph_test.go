package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
)

func triangle() math.Mesh {
	return math.Mesh{Vertices: make([]math.Vertex, 3)}
}

// buildTree creates root -> (a -> (a1, a2), b) and returns the handles.
func buildTree(t *testing.T, g *Graph) map[string]Handle {
	t.Helper()
	hs := map[string]Handle{}
	for _, name := range []string{"root", "a", "a1", "a2", "b"} {
		hs[name] = g.NewNode(name, triangle(), math.TransformCreate())
	}
	if err := g.AddRoot(hs["root"]); err != nil {
		t.Fatal(err)
	}
	for _, link := range [][2]string{{"root", "a"}, {"a", "a1"}, {"a", "a2"}, {"root", "b"}} {
		if err := g.Attach(hs[link[0]], hs[link[1]]); err != nil {
			t.Fatal(err)
		}
	}
	return hs
}

func TestFlattenPreorder(t *testing.T) {
	g := NewGraph()
	buildTree(t, g)
	other := g.NewNode("other", triangle(), math.TransformCreate())
	if err := g.AddRoot(other); err != nil {
		t.Fatal(err)
	}

	list := g.Flatten()
	want := []string{"root", "a", "a1", "a2", "b", "other"}
	if len(list) != len(want) {
		t.Fatalf("Flatten() returned %d items, want %d", len(list), len(want))
	}
	seen := map[Handle]bool{}
	for i, item := range list {
		if item.Name != want[i] {
			t.Errorf("item %d = %q, want %q", i, item.Name, want[i])
		}
		if seen[item.Handle] {
			t.Errorf("%q appears twice", item.Name)
		}
		seen[item.Handle] = true
	}
}

func TestFlattenComposesWorld(t *testing.T) {
	g := NewGraph()
	parent := g.NewNode("parent", math.Mesh{}, math.TransformFromPosition(mgl32.Vec3{1, 0, 0}))
	child := g.NewNode("child", triangle(), math.TransformFromPositionRotationScale(
		mgl32.Vec3{0, 1, 0}, mgl32.QuatIdent(), mgl32.Vec3{2, 2, 2}))
	_ = g.AddRoot(parent)
	_ = g.Attach(parent, child)

	list := g.Flatten()
	got := list[1].World.Col(3).Vec3()
	if got.Sub(mgl32.Vec3{1, 1, 0}).Len() > 1e-5 {
		t.Errorf("child world position = %v, want (1, 1, 0)", got)
	}
}

func TestDetachedNodesAreNotDrawn(t *testing.T) {
	g := NewGraph()
	g.NewNode("floating", triangle(), math.TransformCreate())
	if n := len(g.Flatten()); n != 0 {
		t.Errorf("Flatten() = %d items, want 0", n)
	}
}

func TestRemoveCascades(t *testing.T) {
	g := NewGraph()
	hs := buildTree(t, g)
	g.ClearDirty()

	if err := g.Remove(hs["a"]); err != nil {
		t.Fatal(err)
	}
	if !g.Dirty() {
		t.Error("Remove did not mark the graph dirty")
	}
	for _, name := range []string{"a", "a1", "a2"} {
		if _, err := g.Node(hs[name]); !errors.Is(err, core.ErrStaleHandle) {
			t.Errorf("%s: err = %v, want ErrStaleHandle", name, err)
		}
	}
	root, _ := g.Node(hs["root"])
	if c := root.Children(); len(c) != 1 || c[0] != hs["b"] {
		t.Errorf("root children = %v, want only b", c)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}

	// Reused slots hand out a new generation.
	h := g.NewNode("new", triangle(), math.TransformCreate())
	if h == hs["a"] || h == hs["a1"] || h == hs["a2"] {
		t.Errorf("new handle %v collides with a removed one", h)
	}
}

func TestAttachRejectsCycles(t *testing.T) {
	g := NewGraph()
	hs := buildTree(t, g)
	if err := g.Attach(hs["a1"], hs["root"]); err == nil {
		t.Error("attaching an ancestor under its descendant succeeded")
	}
	if err := g.Attach(hs["a"], hs["a"]); err == nil {
		t.Error("attaching a node to itself succeeded")
	}
}

func TestAttachReparents(t *testing.T) {
	g := NewGraph()
	hs := buildTree(t, g)
	if err := g.Attach(hs["b"], hs["a1"]); err != nil {
		t.Fatal(err)
	}
	a, _ := g.Node(hs["a"])
	if c := a.Children(); len(c) != 1 || c[0] != hs["a2"] {
		t.Errorf("old parent children = %v", c)
	}
	a1, _ := g.Node(hs["a1"])
	if a1.Parent() != hs["b"] {
		t.Errorf("parent = %v, want b", a1.Parent())
	}
	if n := len(g.Flatten()); n != 5 {
		t.Errorf("Flatten() = %d items, want 5", n)
	}
}

func TestReplaceTextureSubtree(t *testing.T) {
	g := NewGraph()
	hs := buildTree(t, g)
	if err := g.ReplaceTexture(hs["a"], 7); err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]uint32{"root": 0, "a": 7, "a1": 7, "a2": 7, "b": 0} {
		n, _ := g.Node(hs[name])
		if n.Material.TextureIndex != want {
			t.Errorf("%s texture = %d, want %d", name, n.Material.TextureIndex, want)
		}
	}
}

func TestLightsFollowNodes(t *testing.T) {
	g := NewGraph()
	parent := g.NewNode("sun", math.Mesh{}, math.TransformFromPosition(mgl32.Vec3{0, 5, 0}))
	light := g.NewPointLight("lamp", mgl32.Vec3{1, 0, 0}, PointLight{Color: mgl32.Vec3{1, 1, 1}, Brightness: 2})
	_ = g.AddRoot(parent)
	_ = g.Attach(parent, light)

	lights := g.Flatten().Lights()
	if len(lights) != 1 {
		t.Fatalf("lights = %d, want 1", len(lights))
	}
	if lights[0].Position.Sub(mgl32.Vec3{1, 5, 0}).Len() > 1e-5 {
		t.Errorf("light position = %v, want (1, 5, 0)", lights[0].Position)
	}
	if lights[0].Brightness != 2 {
		t.Errorf("brightness = %v", lights[0].Brightness)
	}
}
