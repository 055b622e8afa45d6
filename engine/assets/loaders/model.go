package loaders

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
)

// ModelNode is one glTF node with its primitives merged into a single mesh.
type ModelNode struct {
	Name      string
	Mesh      math.Mesh
	Transform math.Transform
	// Index of the parent in Model.Nodes, -1 for roots.
	Parent int
	// Index into Model.Images of the base color texture, -1 without one.
	Texture int
}

type Model struct {
	Name   string
	Nodes  []ModelNode
	Images []*ImageData
}

var untexturedColor = mgl32.Vec3{1, 0, 0}

// ModelLoader reads .gltf and .glb files. A model either loads completely or
// not at all.
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string) (*Resource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
	default:
		return nil, fmt.Errorf("loading model %s: %w", path, core.ErrUnknownExtension)
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	model, err := buildModel(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	model.Name = filepath.Base(path)

	var size uint64
	for _, node := range model.Nodes {
		size += uint64(len(node.Mesh.Vertices))
	}
	return &Resource{
		Name:     model.Name,
		FullPath: path,
		Kind:     ResourceKindModel,
		DataSize: size,
		Data:     model,
	}, nil
}

func buildModel(doc *gltf.Document, dir string) (*Model, error) {
	model := &Model{}

	// Images are referenced by texture index.
	textureImages := make(map[int]int, len(doc.Textures))
	for i, texture := range doc.Textures {
		if texture.Source == nil {
			continue
		}
		image, err := readImage(doc, doc.Images[*texture.Source], dir)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		textureImages[i] = len(model.Images)
		model.Images = append(model.Images, image)
	}
	solidColor := len(model.Images) == 0

	sceneIndex := 0
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if sceneIndex >= len(doc.Scenes) {
		return nil, fmt.Errorf("default scene %d does not exist", sceneIndex)
	}

	type pending struct {
		node   int
		parent int
	}
	stack := make([]pending, 0, len(doc.Scenes[sceneIndex].Nodes))
	for i := len(doc.Scenes[sceneIndex].Nodes) - 1; i >= 0; i-- {
		stack = append(stack, pending{node: doc.Scenes[sceneIndex].Nodes[i], parent: -1})
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := doc.Nodes[current.node]
		out := ModelNode{
			Name:      node.Name,
			Transform: nodeTransform(node),
			Parent:    current.parent,
			Texture:   -1,
		}
		if out.Name == "" {
			out.Name = fmt.Sprintf("node %d", current.node)
		}
		if node.Mesh != nil {
			mesh, material, err := readMesh(doc, doc.Meshes[*node.Mesh], solidColor)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", out.Name, err)
			}
			out.Mesh = mesh
			out.Texture = baseColorImage(doc, material, textureImages)
		}

		index := len(model.Nodes)
		model.Nodes = append(model.Nodes, out)
		// Reverse so children come out in document order.
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: node.Children[i], parent: index})
		}
	}
	return model, nil
}

func nodeTransform(node *gltf.Node) math.Transform {
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	return math.TransformFromPositionRotationScale(
		mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
		mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	)
}

// readMesh merges the primitives of mesh. It returns the material of the
// first primitive that has one.
func readMesh(doc *gltf.Document, mesh *gltf.Mesh, solidColor bool) (math.Mesh, *int, error) {
	var out math.Mesh
	var material *int
	generateNormals := false

	for p, primitive := range mesh.Primitives {
		if primitive.Mode != gltf.PrimitiveTriangles {
			return out, nil, fmt.Errorf("primitive %d has mode %d: %w", p, primitive.Mode, core.ErrUnsupportedPrimitive)
		}
		positionIndex, ok := primitive.Attributes[gltf.POSITION]
		if !ok {
			return out, nil, fmt.Errorf("primitive %d: %s: %w", p, gltf.POSITION, core.ErrMissingAttribute)
		}
		texCoordIndex, ok := primitive.Attributes[gltf.TEXCOORD_0]
		if !ok {
			return out, nil, fmt.Errorf("primitive %d: %s: %w", p, gltf.TEXCOORD_0, core.ErrMissingAttribute)
		}
		positionAccessor := doc.Accessors[positionIndex]
		if positionAccessor.Type != gltf.AccessorVec3 || positionAccessor.ComponentType != gltf.ComponentFloat {
			return out, nil, fmt.Errorf("primitive %d: position is not vec3 float: %w", p, core.ErrMissingAttribute)
		}
		texCoordAccessor := doc.Accessors[texCoordIndex]
		if texCoordAccessor.Type != gltf.AccessorVec2 || texCoordAccessor.ComponentType != gltf.ComponentFloat {
			return out, nil, fmt.Errorf("primitive %d: uv is not vec2 float: %w", p, core.ErrMissingAttribute)
		}

		positions, err := modeler.ReadPosition(doc, positionAccessor, nil)
		if err != nil {
			return out, nil, err
		}
		texCoords, err := modeler.ReadTextureCoord(doc, texCoordAccessor, nil)
		if err != nil {
			return out, nil, err
		}
		var normals [][3]float32
		if normalIndex, ok := primitive.Attributes[gltf.NORMAL]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[normalIndex], nil); err != nil {
				return out, nil, err
			}
		} else {
			generateNormals = true
		}

		base := uint32(len(out.Vertices))
		color := mgl32.Vec3{1, 1, 1}
		if solidColor {
			color = untexturedColor
		}
		for i, position := range positions {
			v := math.Vertex{
				Pos:   mgl32.Vec3(position),
				Color: color,
			}
			if i < len(texCoords) {
				v.TexCoord = mgl32.Vec2(texCoords[i])
			}
			if i < len(normals) {
				v.Normal = mgl32.Vec3(normals[i])
			}
			out.Vertices = append(out.Vertices, v)
		}

		if primitive.Indices != nil {
			indices, err := modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil)
			if err != nil {
				return out, nil, err
			}
			for _, index := range indices {
				out.Indices = append(out.Indices, index+base)
			}
		} else {
			for i := range positions {
				out.Indices = append(out.Indices, base+uint32(i))
			}
		}

		if material == nil {
			material = primitive.Material
		}
	}

	if generateNormals {
		math.GenerateNormals(out.Vertices, out.Indices)
	}
	return out, material, nil
}

func baseColorImage(doc *gltf.Document, material *int, textureImages map[int]int) int {
	if material != nil {
		pbr := doc.Materials[*material].PBRMetallicRoughness
		if pbr != nil && pbr.BaseColorTexture != nil {
			if image, ok := textureImages[pbr.BaseColorTexture.Index]; ok {
				return image
			}
		}
	}
	// Models with textures but no materials use the first one.
	if image, ok := textureImages[0]; ok {
		return image
	}
	return -1
}

func readImage(doc *gltf.Document, image *gltf.Image, dir string) (*ImageData, error) {
	var data []byte
	var err error
	switch {
	case image.BufferView != nil:
		data, err = modeler.ReadBufferView(doc, doc.BufferViews[*image.BufferView])
	case image.IsEmbeddedResource():
		data, err = image.MarshalData()
	default:
		data, err = os.ReadFile(filepath.Join(dir, image.URI))
	}
	if err != nil {
		return nil, err
	}
	return DecodeImage(bytes.NewReader(data))
}
