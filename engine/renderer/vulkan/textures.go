package vulkan

import (
	"fmt"

	"github.com/spaghettifunk/volchara/engine/core"
)

const (
	MaxTextures = 64
	// DefaultTextureIndex is the fallback texture every material starts with.
	DefaultTextureIndex = 0
)

// VulkanTexture is a sampled image living in the bindless table.
type VulkanTexture struct {
	Name  string
	Image *VulkanImage
}

// TextureTable is the append-only list of textures. The index of a texture is
// its slot in the bindless descriptor array and never changes.
type TextureTable struct {
	capacity uint32
	textures []*VulkanTexture
	byPath   map[string]uint32
}

func NewTextureTable(capacity uint32) *TextureTable {
	if capacity == 0 {
		capacity = MaxTextures
	}
	return &TextureTable{
		capacity: capacity,
		byPath:   make(map[string]uint32),
	}
}

// Append stores texture and returns its index. Identical content appended
// twice gets two indices.
func (tt *TextureTable) Append(texture *VulkanTexture) (uint32, error) {
	if uint32(len(tt.textures)) >= tt.capacity {
		err := fmt.Errorf("cannot add texture %q: %w", texture.Name, core.ErrTextureCapacity)
		core.LogError(err.Error())
		return 0, err
	}
	tt.textures = append(tt.textures, texture)
	return uint32(len(tt.textures) - 1), nil
}

// Publish appends texture and hands its index to bind. When bind fails the
// texture is taken back out, so Len never counts a slot the shaders cannot
// read.
func (tt *TextureTable) Publish(texture *VulkanTexture, bind func(index uint32) error) (uint32, error) {
	index, err := tt.Append(texture)
	if err != nil {
		return 0, err
	}
	if err := bind(index); err != nil {
		tt.textures[index] = nil
		tt.textures = tt.textures[:index]
		err = fmt.Errorf("publishing texture %q at %d: %w", texture.Name, index, err)
		core.LogError(err.Error())
		return 0, err
	}
	return index, nil
}

// Lookup returns the index cached for a file path.
func (tt *TextureTable) Lookup(path string) (uint32, bool) {
	index, ok := tt.byPath[path]
	return index, ok
}

// Remember caches the index a file path was loaded into.
func (tt *TextureTable) Remember(path string, index uint32) {
	tt.byPath[path] = index
}

func (tt *TextureTable) Get(index uint32) (*VulkanTexture, error) {
	if index >= uint32(len(tt.textures)) {
		return nil, fmt.Errorf("texture index %d out of range (%d textures)", index, len(tt.textures))
	}
	return tt.textures[index], nil
}

func (tt *TextureTable) Len() uint32 {
	return uint32(len(tt.textures))
}

func (tt *TextureTable) Capacity() uint32 {
	return tt.capacity
}

// Textures returns the stored textures in index order.
func (tt *TextureTable) Textures() []*VulkanTexture {
	return tt.textures
}

// CheckerPixels is the 2x2 magenta and black RGBA8 texture used when the
// default texture file cannot be read.
func CheckerPixels() (width, height uint32, pixels []byte) {
	magenta := []byte{255, 0, 255, 255}
	black := []byte{0, 0, 0, 255}
	pixels = make([]byte, 0, 2*2*4)
	pixels = append(pixels, magenta...)
	pixels = append(pixels, black...)
	pixels = append(pixels, black...)
	pixels = append(pixels, magenta...)
	return 2, 2, pixels
}
