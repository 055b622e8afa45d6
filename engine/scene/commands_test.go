package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
)

func TestCallbacksReceiveFrameContext(t *testing.T) {
	g := NewGraph()
	h := g.NewNode("n", triangle(), math.TransformCreate())
	_ = g.AddRoot(h)

	var got FrameContext
	_ = g.AddCallback(h, func(m *Mutator, ctx FrameContext) {
		got = ctx
		m.Transform().Position().Right(ctx.Elapsed, true)
	})

	ctx := FrameContext{Elapsed: 0.5, Held: core.NewKeySet(core.KEY_W), Cursor: mgl32.Vec2{3, 4}}
	g.DispatchCallbacks(ctx)

	if got.Elapsed != 0.5 || !got.Held.Contains(core.KEY_W) || got.Cursor != (mgl32.Vec2{3, 4}) {
		t.Errorf("callback context = %+v", got)
	}
	n, _ := g.Node(h)
	if n.Transform.Translation.X() != 0.5 {
		t.Errorf("direct transform change lost: %v", n.Transform.Translation)
	}
}

func TestCallbackOrder(t *testing.T) {
	g := NewGraph()
	hs := buildTree(t, g)
	var order []string
	for _, name := range []string{"b", "a2", "root", "a"} {
		name := name
		_ = g.AddCallback(hs[name], func(*Mutator, FrameContext) { order = append(order, name+"1") })
		_ = g.AddCallback(hs[name], func(*Mutator, FrameContext) { order = append(order, name+"2") })
	}
	g.DispatchCallbacks(FrameContext{})

	want := []string{"root1", "root2", "a1", "a2", "a21", "a22", "b1", "b2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestMutationsApplyNextFrame(t *testing.T) {
	g := NewGraph()
	root := g.NewNode("root", triangle(), math.TransformCreate())
	_ = g.AddRoot(root)

	spawned := 0
	_ = g.AddCallback(root, func(m *Mutator, ctx FrameContext) {
		m.Spawn("child", triangle(), math.TransformCreate(), Material{TextureIndex: 3}, m.Self())
		m.Spawn("sibling", triangle(), math.TransformCreate(), Material{}, InvalidHandle)
		spawned++
	})

	before := g.Flatten()
	g.ClearDirty()
	g.DispatchCallbacks(FrameContext{})

	if len(before) != 1 || len(g.Flatten()) != 1 {
		t.Fatal("spawned nodes became visible before ApplyCommands")
	}
	if g.PendingCommands() != 2 {
		t.Fatalf("pending = %d, want 2", g.PendingCommands())
	}
	if g.Dirty() {
		t.Error("graph dirty before commands were applied")
	}

	if err := g.ApplyCommands(); err != nil {
		t.Fatal(err)
	}
	list := g.Flatten()
	if len(list) != 3 {
		t.Fatalf("Flatten() after apply = %d items, want 3", len(list))
	}
	if list[1].Name != "child" || list[1].Material.TextureIndex != 3 || list[2].Name != "sibling" {
		t.Errorf("unexpected order: %q %q", list[1].Name, list[2].Name)
	}
	if !g.Dirty() {
		t.Error("graph not dirty after structural commands")
	}
	if spawned != 1 {
		t.Errorf("callback ran %d times", spawned)
	}
}

func TestCallbackRegisteringCallback(t *testing.T) {
	g := NewGraph()
	h := g.NewNode("n", triangle(), math.TransformCreate())
	_ = g.AddRoot(h)

	late := 0
	_ = g.AddCallback(h, func(m *Mutator, ctx FrameContext) {
		if late == 0 {
			m.AddCallback(m.Self(), func(*Mutator, FrameContext) { late++ })
		}
	})

	g.DispatchCallbacks(FrameContext{})
	_ = g.ApplyCommands()
	if late != 0 {
		t.Fatal("new callback ran in the frame it was registered")
	}
	g.DispatchCallbacks(FrameContext{})
	if late != 1 {
		t.Errorf("new callback ran %d times, want 1", late)
	}
}

func TestApplyCommandsReportsStaleTargets(t *testing.T) {
	g := NewGraph()
	h := g.NewNode("gone", triangle(), math.TransformCreate())
	_ = g.Remove(h)
	g.Enqueue(Command{Kind: CommandAddRoot, Target: h})
	if err := g.ApplyCommands(); err == nil {
		t.Error("expected an error for a stale handle")
	}
	if g.PendingCommands() != 0 {
		t.Error("failed command left in the queue")
	}
}

func TestCameraController(t *testing.T) {
	g := NewGraph()
	cam := g.NewCamera("camera")
	n, _ := g.Node(cam)

	cc := CameraController{Speed: 2, Sensitivity: 1}
	cc.Update(&n.Transform, FrameContext{Elapsed: 0.5, Held: core.NewKeySet(core.KEY_W, core.KEY_E)})

	if n.Transform.Translation.Sub(mgl32.Vec3{0, 1, -1}).Len() > 1e-5 {
		t.Errorf("camera position = %v, want (0, 1, -1)", n.Transform.Translation)
	}

	view, err := g.ViewMatrix(cam)
	if err != nil {
		t.Fatal(err)
	}
	// The camera position maps to the view-space origin.
	p := view.Mul4x1(n.Transform.Translation.Vec4(1)).Vec3()
	if p.Sub(mgl32.Vec3{}).Len() > 1e-5 {
		t.Errorf("camera in view space = %v, want origin", p)
	}
}
