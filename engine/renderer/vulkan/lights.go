package vulkan

import (
	"encoding/binary"
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/scene"
)

const MaxLights = 32

// GPULightHeader precedes the light array in the storage buffer.
// Ambient.W carries the brightness.
type GPULightHeader struct {
	Ambient mgl32.Vec4
	Count   uint32
	_       [3]uint32
}

// GPULight is one point light as read by the lighting subpass.
// Position.W is unused, Color.W carries the brightness.
type GPULight struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

const (
	lightHeaderSize = 32
	lightSize       = 32
	// LightBufferSize is the byte size of the light storage buffer.
	LightBufferSize = lightHeaderSize + MaxLights*lightSize
)

// LightBuffer is the CPU copy of the light storage buffer, rebuilt every frame.
type LightBuffer struct {
	header GPULightHeader
	lights [MaxLights]GPULight
}

func (lb *LightBuffer) SetAmbient(light scene.AmbientLight) {
	lb.header.Ambient = light.Color.Vec4(light.Brightness)
}

// Add appends a light. It fails once MaxLights lights are stored.
func (lb *LightBuffer) Add(light scene.LightInstance) error {
	if lb.header.Count >= MaxLights {
		return fmt.Errorf("cannot add light %d: %w", lb.header.Count+1, core.ErrLightCapacity)
	}
	lb.lights[lb.header.Count] = GPULight{
		Position: light.Position.Vec4(0),
		Color:    light.Color.Vec4(light.Brightness),
	}
	lb.header.Count++
	return nil
}

// Reset drops every point light. The ambient term is kept.
func (lb *LightBuffer) Reset() {
	lb.header.Count = 0
}

func (lb *LightBuffer) Count() uint32 {
	return lb.header.Count
}

// Fill resets the buffer and loads the ambient term plus every light of the
// list. Lights past capacity are dropped and reported.
func (lb *LightBuffer) Fill(ambient scene.AmbientLight, lights []scene.LightInstance) error {
	lb.Reset()
	lb.SetAmbient(ambient)
	for i, light := range lights {
		if err := lb.Add(light); err != nil {
			return fmt.Errorf("%d of %d lights dropped: %w", len(lights)-i, len(lights), err)
		}
	}
	return nil
}

// Bytes encodes the buffer in the std430 layout used by the shaders.
func (lb *LightBuffer) Bytes() []byte {
	out := make([]byte, LightBufferSize)
	putVec4(out[0:], lb.header.Ambient)
	binary.LittleEndian.PutUint32(out[16:], lb.header.Count)
	for i := uint32(0); i < lb.header.Count; i++ {
		offset := lightHeaderSize + i*lightSize
		putVec4(out[offset:], lb.lights[i].Position)
		putVec4(out[offset+16:], lb.lights[i].Color)
	}
	return out
}

// DecodeLightBuffer reads back what Bytes wrote, the way the lighting shader sees it.
func DecodeLightBuffer(data []byte) (GPULightHeader, []GPULight, error) {
	var header GPULightHeader
	if len(data) < lightHeaderSize {
		return header, nil, fmt.Errorf("light buffer too short: %d bytes", len(data))
	}
	header.Ambient = getVec4(data[0:])
	header.Count = binary.LittleEndian.Uint32(data[16:])
	if header.Count > MaxLights || len(data) < lightHeaderSize+int(header.Count)*lightSize {
		return header, nil, fmt.Errorf("light buffer holds %d lights in %d bytes", header.Count, len(data))
	}
	lights := make([]GPULight, header.Count)
	for i := range lights {
		offset := lightHeaderSize + i*lightSize
		lights[i].Position = getVec4(data[offset:])
		lights[i].Color = getVec4(data[offset+16:])
	}
	return header, lights, nil
}

func putVec4(dst []byte, v mgl32.Vec4) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], gomath.Float32bits(f))
	}
}

func getVec4(src []byte) mgl32.Vec4 {
	var v mgl32.Vec4
	for i := range v {
		v[i] = gomath.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return v
}
