package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
)

type CommandKind int

const (
	CommandAddRoot CommandKind = iota
	CommandRemoveRoot
	CommandAttach
	CommandDetach
	CommandRemove
	CommandAddCallback
	CommandSetTexture
)

func (k CommandKind) String() string {
	switch k {
	case CommandAddRoot:
		return "add-root"
	case CommandRemoveRoot:
		return "remove-root"
	case CommandAttach:
		return "attach"
	case CommandDetach:
		return "detach"
	case CommandRemove:
		return "remove"
	case CommandAddCallback:
		return "add-callback"
	case CommandSetTexture:
		return "set-texture"
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// Command is a graph mutation requested during callback dispatch. Commands
// are applied in order by ApplyCommands, between frames.
type Command struct {
	Kind         CommandKind
	Target       Handle
	Parent       Handle
	Callback     Callback
	TextureIndex uint32
}

func (g *Graph) Enqueue(cmd Command) {
	g.commands.Enqueue(cmd)
}

// PendingCommands returns how many commands wait for the next ApplyCommands.
func (g *Graph) PendingCommands() int {
	return g.commands.Len()
}

// ApplyCommands drains the command queue. Failing commands are logged and
// skipped; the joined error is returned.
func (g *Graph) ApplyCommands() error {
	var errs []error
	for _, cmd := range g.commands.Drain() {
		if err := g.apply(cmd); err != nil {
			core.LogWarn("scene command %s failed: %s", cmd.Kind, err)
			errs = append(errs, fmt.Errorf("%s: %w", cmd.Kind, err))
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) apply(cmd Command) error {
	switch cmd.Kind {
	case CommandAddRoot:
		return g.AddRoot(cmd.Target)
	case CommandRemoveRoot:
		return g.RemoveRoot(cmd.Target)
	case CommandAttach:
		return g.Attach(cmd.Parent, cmd.Target)
	case CommandDetach:
		return g.Detach(cmd.Target)
	case CommandRemove:
		return g.Remove(cmd.Target)
	case CommandAddCallback:
		return g.AddCallback(cmd.Target, cmd.Callback)
	case CommandSetTexture:
		return g.ReplaceTexture(cmd.Target, cmd.TextureIndex)
	}
	return fmt.Errorf("unknown command kind %d", cmd.Kind)
}

// DispatchCallbacks runs the callbacks of every drawn node in flatten order.
// The node list is captured up front, so structural changes requested by the
// callbacks only show up next frame.
func (g *Graph) DispatchCallbacks(ctx FrameContext) {
	var order []Handle
	for _, r := range g.roots {
		_ = g.walk(r, func(h Handle, _ *Node) { order = append(order, h) })
	}

	m := &Mutator{graph: g}
	for _, h := range order {
		n, err := g.Node(h)
		if err != nil {
			continue
		}
		m.self = h
		m.node = n
		// Index based: a callback may register more callbacks on its own node.
		for i := 0; i < len(n.callbacks); i++ {
			n.callbacks[i](m, ctx)
		}
	}
}

// Mutator is what a callback sees of the graph. It may change its own node
// directly; everything structural goes through the command queue.
type Mutator struct {
	graph *Graph
	self  Handle
	node  *Node
}

func (m *Mutator) Self() Handle {
	return m.self
}

func (m *Mutator) Node() *Node {
	return m.node
}

func (m *Mutator) Transform() *math.Transform {
	return &m.node.Transform
}

// Spawn creates a node right away and queues it to be attached under parent,
// or as a root when parent is InvalidHandle.
func (m *Mutator) Spawn(name string, mesh math.Mesh, transform math.Transform, material Material, parent Handle) Handle {
	h := m.graph.NewNode(name, mesh, transform)
	if n, err := m.graph.Node(h); err == nil {
		n.Material = material
	}
	if parent.IsValid() {
		m.graph.Enqueue(Command{Kind: CommandAttach, Parent: parent, Target: h})
	} else {
		m.graph.Enqueue(Command{Kind: CommandAddRoot, Target: h})
	}
	return h
}

func (m *Mutator) Attach(parent, child Handle) {
	m.graph.Enqueue(Command{Kind: CommandAttach, Parent: parent, Target: child})
}

func (m *Mutator) Detach(h Handle) {
	m.graph.Enqueue(Command{Kind: CommandDetach, Target: h})
}

func (m *Mutator) Remove(h Handle) {
	m.graph.Enqueue(Command{Kind: CommandRemove, Target: h})
}

func (m *Mutator) AddCallback(h Handle, cb Callback) {
	m.graph.Enqueue(Command{Kind: CommandAddCallback, Target: h, Callback: cb})
}

func (m *Mutator) SetTexture(h Handle, textureIndex uint32) {
	m.graph.Enqueue(Command{Kind: CommandSetTexture, Target: h, TextureIndex: textureIndex})
}

// Lookup gives read access to other nodes, e.g. to follow a target.
func (m *Mutator) Lookup(h Handle) (*Node, error) {
	return m.graph.Node(h)
}

// WorldPosition resolves the current world position of any node.
func (m *Mutator) WorldPosition(h Handle) (mgl32.Vec3, error) {
	w, err := m.graph.WorldMatrix(h)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return w.Col(3).Vec3(), nil
}
