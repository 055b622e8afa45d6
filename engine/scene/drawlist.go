package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/math"
)

// DrawItem is one node as captured for the current frame.
type DrawItem struct {
	Handle   Handle
	Name     string
	World    mgl32.Mat4
	Mesh     math.Mesh
	Material Material
	Light    *PointLight
	Camera   bool
}

type DrawList []DrawItem

// Lights returns the point lights of the list with their world positions.
func (dl DrawList) Lights() []LightInstance {
	var lights []LightInstance
	for _, item := range dl {
		if item.Light == nil {
			continue
		}
		lights = append(lights, LightInstance{
			Position:   item.World.Col(3).Vec3(),
			Color:      item.Light.Color,
			Brightness: item.Light.Brightness,
		})
	}
	return lights
}
