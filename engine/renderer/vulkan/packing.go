package vulkan

import (
	"unsafe"

	"github.com/spaghettifunk/volchara/engine/math"
	"github.com/spaghettifunk/volchara/engine/scene"
)

const (
	VertexSize = uint64(unsafe.Sizeof(math.Vertex{}))
	IndexSize  = uint64(unsafe.Sizeof(uint32(0)))
)

// GeometryRange locates one draw item inside the packed index buffer.
type GeometryRange struct {
	FirstIndex uint32
	IndexCount uint32
}

func (gr GeometryRange) IsEmpty() bool {
	return gr.IndexCount == 0
}

// PackedGeometry is the concatenation of every mesh of a draw list.
// Ranges is parallel to the draw list it was built from.
type PackedGeometry struct {
	Vertices []math.Vertex
	Indices  []uint32
	Ranges   []GeometryRange
}

// PackGeometry concatenates the meshes of list in order. Indices are rebased
// by the number of vertices packed before them so a single vertex buffer can
// be bound for the whole frame.
func PackGeometry(list scene.DrawList) PackedGeometry {
	packed := PackedGeometry{
		Ranges: make([]GeometryRange, len(list)),
	}
	for i, item := range list {
		if item.Mesh.IsEmpty() {
			packed.Ranges[i] = GeometryRange{FirstIndex: uint32(len(packed.Indices))}
			continue
		}
		base := uint32(len(packed.Vertices))
		indices := item.Mesh.ResolvedIndices()

		packed.Ranges[i] = GeometryRange{
			FirstIndex: uint32(len(packed.Indices)),
			IndexCount: uint32(len(indices)),
		}
		packed.Vertices = append(packed.Vertices, item.Mesh.Vertices...)
		for _, index := range indices {
			packed.Indices = append(packed.Indices, index+base)
		}
	}
	return packed
}

func (pg PackedGeometry) VertexBytes() []byte {
	if len(pg.Vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&pg.Vertices[0])), uint64(len(pg.Vertices))*VertexSize)
}

func (pg PackedGeometry) IndexBytes() []byte {
	if len(pg.Indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&pg.Indices[0])), uint64(len(pg.Indices))*IndexSize)
}
