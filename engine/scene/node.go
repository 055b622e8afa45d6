package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
)

// Handle addresses a node in a Graph. A handle whose node was removed is
// stale and is rejected by every graph operation.
type Handle struct {
	Index      uint32
	Generation uint32
}

// InvalidHandle never refers to a node; generations start at 1.
var InvalidHandle = Handle{}

func (h Handle) IsValid() bool {
	return h.Generation != 0
}

// Material selects the textures and blending used to draw a node.
type Material struct {
	TextureIndex  uint32
	NormalIndex   uint32
	EmissiveIndex uint32
	AlphaCutoff   float32
	Transparent   bool
}

// FrameContext is handed to every callback once per frame.
type FrameContext struct {
	// Seconds since the previous frame.
	Elapsed float32
	Held    core.KeySet
	// Cursor motion accumulated since the previous dispatch.
	Cursor mgl32.Vec2
}

// Callback runs once per frame for the node it is registered on.
type Callback func(m *Mutator, ctx FrameContext)

type Node struct {
	ID        uuid.UUID
	Name      string
	Transform math.Transform
	Mesh      math.Mesh
	Material  Material
	// Light is set on point light nodes; their position follows the node.
	Light *PointLight
	// Camera nodes are never drawn.
	Camera bool

	parent    Handle
	children  []Handle
	callbacks []Callback
	root      bool
}

func (n *Node) Parent() Handle {
	return n.parent
}

// Children returns a copy of the child handles in attachment order.
func (n *Node) Children() []Handle {
	return append([]Handle(nil), n.children...)
}

func newNode(name string, mesh math.Mesh, transform math.Transform) *Node {
	return &Node{
		ID:        uuid.New(),
		Name:      name,
		Transform: transform,
		Mesh:      mesh,
	}
}
