package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/containers"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
)

type slot struct {
	node       *Node
	generation uint32
}

// Graph owns every node. Parent and child links are handles into the arena,
// so no node keeps another alive.
type Graph struct {
	slots    []slot
	free     []uint32
	roots    []Handle
	commands *containers.RingQueue[Command]
	ambient  AmbientLight
	dirty    bool
}

func NewGraph() *Graph {
	return &Graph{
		commands: containers.NewRingQueue[Command](64),
	}
}

// NewNode creates a detached node. It is not drawn until it is added as a
// root or attached below one.
func (g *Graph) NewNode(name string, mesh math.Mesh, transform math.Transform) Handle {
	n := newNode(name, mesh, transform)
	if len(g.free) > 0 {
		idx := g.free[len(g.free)-1]
		g.free = g.free[:len(g.free)-1]
		g.slots[idx].node = n
		return Handle{Index: idx, Generation: g.slots[idx].generation}
	}
	g.slots = append(g.slots, slot{node: n, generation: 1})
	return Handle{Index: uint32(len(g.slots) - 1), Generation: 1}
}

// NewShape creates a detached node from generated geometry, placed where the
// shape was generated.
func (g *Graph) NewShape(name string, shape math.Shape) Handle {
	return g.NewNode(name, shape.Mesh, shape.Transform())
}

// Node resolves a handle.
func (g *Graph) Node(h Handle) (*Node, error) {
	if int(h.Index) >= len(g.slots) {
		return nil, fmt.Errorf("node %v: %w", h, core.ErrStaleHandle)
	}
	s := g.slots[h.Index]
	if s.node == nil || s.generation != h.Generation {
		return nil, fmt.Errorf("node %v: %w", h, core.ErrStaleHandle)
	}
	return s.node, nil
}

// Len returns the number of live nodes, attached or not.
func (g *Graph) Len() int {
	return len(g.slots) - len(g.free)
}

func (g *Graph) Roots() []Handle {
	return append([]Handle(nil), g.roots...)
}

// Dirty reports whether the set of drawn meshes changed since ClearDirty.
func (g *Graph) Dirty() bool {
	return g.dirty
}

func (g *Graph) ClearDirty() {
	g.dirty = false
}

func (g *Graph) AddRoot(h Handle) error {
	n, err := g.Node(h)
	if err != nil {
		return err
	}
	if n.root {
		return nil
	}
	if n.parent.IsValid() {
		if err := g.Detach(h); err != nil {
			return err
		}
	}
	n.root = true
	g.roots = append(g.roots, h)
	g.dirty = true
	return nil
}

// RemoveRoot takes a root out of the drawn set without destroying it.
func (g *Graph) RemoveRoot(h Handle) error {
	n, err := g.Node(h)
	if err != nil {
		return err
	}
	if !n.root {
		return fmt.Errorf("node %q is not a root", n.Name)
	}
	g.roots = removeHandle(g.roots, h)
	n.root = false
	g.dirty = true
	return nil
}

// Attach makes child the last child of parent, detaching it from wherever it was.
func (g *Graph) Attach(parent, child Handle) error {
	p, err := g.Node(parent)
	if err != nil {
		return err
	}
	c, err := g.Node(child)
	if err != nil {
		return err
	}
	if parent == child || g.isAncestor(child, parent) {
		return fmt.Errorf("attaching %q under %q would create a cycle", c.Name, p.Name)
	}
	if err := g.Detach(child); err != nil {
		return err
	}
	c.parent = parent
	p.children = append(p.children, child)
	g.dirty = true
	return nil
}

// Detach unlinks a node from its parent or from the root list. The node and
// its subtree stay alive.
func (g *Graph) Detach(h Handle) error {
	n, err := g.Node(h)
	if err != nil {
		return err
	}
	if n.root {
		g.roots = removeHandle(g.roots, h)
		n.root = false
		g.dirty = true
	}
	if n.parent.IsValid() {
		if p, err := g.Node(n.parent); err == nil {
			p.children = removeHandle(p.children, h)
		}
		n.parent = InvalidHandle
		g.dirty = true
	}
	return nil
}

// Remove destroys a node together with its whole subtree. Every handle into
// the subtree becomes stale.
func (g *Graph) Remove(h Handle) error {
	if _, err := g.Node(h); err != nil {
		return err
	}
	if err := g.Detach(h); err != nil {
		return err
	}

	stack := []Handle{h}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, err := g.Node(cur)
		if err != nil {
			continue
		}
		stack = append(stack, n.children...)
		g.slots[cur.Index].node = nil
		g.slots[cur.Index].generation++
		g.free = append(g.free, cur.Index)
	}
	g.dirty = true
	return nil
}

func (g *Graph) AddCallback(h Handle, cb Callback) error {
	n, err := g.Node(h)
	if err != nil {
		return err
	}
	n.callbacks = append(n.callbacks, cb)
	return nil
}

// SetMesh swaps the geometry of a node and schedules a buffer repack.
func (g *Graph) SetMesh(h Handle, mesh math.Mesh) error {
	n, err := g.Node(h)
	if err != nil {
		return err
	}
	n.Mesh = mesh
	g.dirty = true
	return nil
}

// ReplaceTexture points the node and all of its descendants at a texture.
func (g *Graph) ReplaceTexture(h Handle, textureIndex uint32) error {
	if _, err := g.Node(h); err != nil {
		return err
	}
	return g.walk(h, func(_ Handle, n *Node) {
		n.Material.TextureIndex = textureIndex
	})
}

// WorldMatrix composes the local matrices from the root down to h.
func (g *Graph) WorldMatrix(h Handle) (mgl32.Mat4, error) {
	n, err := g.Node(h)
	if err != nil {
		return mgl32.Ident4(), err
	}
	parentWorld := mgl32.Ident4()
	if n.parent.IsValid() {
		if parentWorld, err = g.WorldMatrix(n.parent); err != nil {
			return mgl32.Ident4(), err
		}
	}
	return n.Transform.GetWorld(parentWorld), nil
}

// Flatten lists every node reachable from the roots in depth-first preorder.
// Vertex packing and draw submission both rely on this order.
func (g *Graph) Flatten() DrawList {
	list := make(DrawList, 0, g.Len())
	for _, r := range g.roots {
		list = g.flattenNode(list, r, mgl32.Ident4())
	}
	return list
}

func (g *Graph) flattenNode(list DrawList, h Handle, parentWorld mgl32.Mat4) DrawList {
	n, err := g.Node(h)
	if err != nil {
		core.LogWarn("skipping stale handle %v during flatten", h)
		return list
	}
	world := n.Transform.GetWorld(parentWorld)
	list = append(list, DrawItem{
		Handle:   h,
		Name:     n.Name,
		World:    world,
		Mesh:     n.Mesh,
		Material: n.Material,
		Light:    n.Light,
		Camera:   n.Camera,
	})
	for _, c := range n.children {
		list = g.flattenNode(list, c, world)
	}
	return list
}

// walk visits h and its descendants in preorder.
func (g *Graph) walk(h Handle, visit func(Handle, *Node)) error {
	stack := []Handle{h}
	var errs []error
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, err := g.Node(cur)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		visit(cur, n)
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) isAncestor(ancestor, h Handle) bool {
	for cur := h; cur.IsValid(); {
		n, err := g.Node(cur)
		if err != nil {
			return false
		}
		if n.parent == ancestor {
			return true
		}
		cur = n.parent
	}
	return false
}

func removeHandle(list []Handle, h Handle) []Handle {
	for i, x := range list {
		if x == h {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
