package renderer

import (
	"fmt"

	"github.com/spaghettifunk/volchara/engine/platform"
	"github.com/spaghettifunk/volchara/engine/renderer/vulkan"
	"github.com/spaghettifunk/volchara/engine/scene"
)

// Backend is what the engine drives every frame.
type Backend interface {
	Initialize(shaders vulkan.ShaderCode) error
	Shutdown() error
	Resized(width, height uint32)
	CreateTexture(name string, width, height uint32, pixels []byte) (uint32, error)
	Textures() *vulkan.TextureTable
	UploadScene(list scene.DrawList) error
	DrawFrame(prepare func(deltaTime float64) (vulkan.FramePacket, error)) error
	FramesPresented() uint64
}

var _ Backend = (*vulkan.VulkanRenderer)(nil)

type RendererType uint8

const (
	Vulkan RendererType = iota
	DirectX
	Metal
	OpenGL
)

func (rt RendererType) String() string {
	switch rt {
	case Vulkan:
		return "vulkan"
	case DirectX:
		return "directx"
	case Metal:
		return "metal"
	case OpenGL:
		return "opengl"
	}
	return fmt.Sprintf("renderer(%d)", uint8(rt))
}

// New creates an uninitialized backend. Only Vulkan is implemented.
func New(rendererType RendererType, p *platform.Platform, options vulkan.Options) (Backend, error) {
	switch rendererType {
	case Vulkan:
		return vulkan.New(p, options), nil
	default:
		return nil, fmt.Errorf("renderer backend %s is not supported", rendererType)
	}
}
