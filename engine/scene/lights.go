package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/math"
)

// AmbientLight is the constant term added to every lit pixel.
type AmbientLight struct {
	Color      mgl32.Vec3
	Brightness float32
}

// PointLight attaches a light to a node. It is called DirectionalLight in
// scene descriptions for historical reasons; it radiates from the node position.
type PointLight struct {
	Color      mgl32.Vec3
	Brightness float32
}

// LightInstance is a point light resolved to world space for one frame.
type LightInstance struct {
	Position   mgl32.Vec3
	Color      mgl32.Vec3
	Brightness float32
}

func (g *Graph) SetAmbient(light AmbientLight) {
	g.ambient = light
}

func (g *Graph) Ambient() AmbientLight {
	return g.ambient
}

// NewPointLight creates a detached light node at position.
func (g *Graph) NewPointLight(name string, position mgl32.Vec3, light PointLight) Handle {
	h := g.NewNode(name, math.Mesh{}, math.TransformFromPosition(position))
	n, _ := g.Node(h)
	n.Light = &light
	return h
}
