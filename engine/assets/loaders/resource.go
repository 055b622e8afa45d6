package loaders

import (
	"path/filepath"
	"strings"
)

type ResourceKind int

const (
	ResourceKindNone ResourceKind = iota
	ResourceKindShader
	ResourceKindImage
	ResourceKindModel
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceKindShader:
		return "shader"
	case ResourceKindImage:
		return "image"
	case ResourceKindModel:
		return "model"
	default:
		return "none"
	}
}

// KindForPath classifies a file by extension.
func KindForPath(path string) ResourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return ResourceKindShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".webp", ".tif", ".tiff":
		return ResourceKindImage
	case ".gltf", ".glb":
		return ResourceKindModel
	default:
		return ResourceKindNone
	}
}

// Resource is a decoded file. Data holds []uint32 for shaders, *ImageData
// for images and *Model for models.
type Resource struct {
	Name     string
	FullPath string
	Kind     ResourceKind
	DataSize uint64
	Data     interface{}
}
