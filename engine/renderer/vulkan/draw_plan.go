package vulkan

import (
	"github.com/spaghettifunk/volchara/engine/scene"
)

// DrawCall is one indexed draw into the packed geometry buffers.
type DrawCall struct {
	Name       string
	FirstIndex uint32
	IndexCount uint32
	Push       PushConstants
}

// DrawPlan splits a frame's draw list by subpass. Both lists keep draw list
// order; the index offsets come from the same packing the buffers were
// filled with.
type DrawPlan struct {
	Geometry     []DrawCall
	Transparency []DrawCall
	Debug        DebugFeatures
	// Material indices that pointed past the populated texture table and
	// were drawn with DefaultTextureIndex instead.
	Remapped int

	// Framebuffer size, filled in when recording.
	Width, Height uint32
}

// BuildDrawPlan turns list into draw calls. ranges must come from
// PackGeometry(list). textureCount is the number of populated bindless slots;
// shaders never see an index at or past it.
func BuildDrawPlan(list scene.DrawList, ranges []GeometryRange, debug DebugFeatures, textureCount uint32) DrawPlan {
	plan := DrawPlan{Debug: debug}
	flags := debug.Flags()
	bound := func(index uint32) uint32 {
		if index < textureCount {
			return index
		}
		plan.Remapped++
		return DefaultTextureIndex
	}
	for i, item := range list {
		if i >= len(ranges) {
			break
		}
		r := ranges[i]
		if item.Camera || r.IsEmpty() {
			continue
		}
		call := DrawCall{
			Name:       item.Name,
			FirstIndex: r.FirstIndex,
			IndexCount: r.IndexCount,
			Push: PushConstants{
				Model:         item.World,
				TextureIndex:  bound(item.Material.TextureIndex),
				NormalIndex:   bound(item.Material.NormalIndex),
				EmissiveIndex: bound(item.Material.EmissiveIndex),
				AlphaCutoff:   item.Material.AlphaCutoff,
				DebugFlags:    flags,
			},
		}
		if item.Material.Transparent {
			plan.Transparency = append(plan.Transparency, call)
		} else {
			plan.Geometry = append(plan.Geometry, call)
		}
	}
	return plan
}
