package math

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Represents a single vertex in 3D space. The layout is tightly packed
 * and uploaded as-is to the vertex buffer.
 */
type Vertex struct {
	/** @brief The position of the vertex */
	Pos mgl32.Vec3
	/** @brief The normal of the vertex. */
	Normal mgl32.Vec3
	/** @brief The colour of the vertex. */
	Color mgl32.Vec3
	/** @brief The texture coordinate of the vertex. */
	TexCoord mgl32.Vec2
}

// Mesh is a vertex array and the triangle list indexing it.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// IsEmpty reports whether the mesh has nothing to draw.
func (m Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// ResolvedIndices returns the index list, or 0..n-1 when none was given.
func (m Mesh) ResolvedIndices() []uint32 {
	if len(m.Indices) > 0 || len(m.Vertices) == 0 {
		return m.Indices
	}
	indices := make([]uint32, len(m.Vertices))
	for i := range indices {
		indices[i] = uint32(i)
	}
	return indices
}

// SetColor recolors every vertex of the mesh.
func (m *Mesh) SetColor(color mgl32.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i].Color = color
	}
}

/**
 * @brief Represents the local transform of a scene node. Parent composition
 * is done by the owner while traversing, this only keeps the local state.
 */
type Transform struct {
	/** @brief The position relative to the parent. */
	Translation mgl32.Vec3
	/** @brief The rotation relative to the parent. Kept unit-length. */
	Orientation mgl32.Quat
	/** @brief The scale relative to the parent. */
	Scaling mgl32.Vec3
	/**
	 * @brief Indicates if the position, rotation or scale have changed,
	 * indicating that the local matrix needs to be recalculated.
	 */
	IsDirty bool
	/**
	 * @brief The local transformation matrix, updated whenever
	 * the position, rotation or scale have changed.
	 */
	Local mgl32.Mat4
}
