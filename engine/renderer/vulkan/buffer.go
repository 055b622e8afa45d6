package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
)

// VulkanBuffer is a buffer with its own memory allocation. Host visible
// buffers stay mapped for their whole lifetime.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	Usage  vk.BufferUsageFlags

	mapped unsafe.Pointer
}

func NewVulkanBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		Size:  size,
		Usage: usage,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create buffer: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		buffer.Destroy(context)
		err := fmt.Errorf("failed to allocate buffer memory: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		buffer.Destroy(context)
		err := fmt.Errorf("failed to bind buffer memory: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}

	if properties&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0 {
		var data unsafe.Pointer
		if res := vk.MapMemory(context.Device.LogicalDevice, memory, 0, vk.DeviceSize(size), 0, &data); res != vk.Success {
			buffer.Destroy(context)
			err := fmt.Errorf("failed to map buffer memory: %w", VulkanResultToError(res))
			core.LogError(err.Error())
			return nil, err
		}
		buffer.mapped = data
	}
	return buffer, nil
}

// Write copies data into a mapped buffer at offset.
func (vb *VulkanBuffer) Write(offset uint64, data []byte) error {
	if vb.mapped == nil {
		return fmt.Errorf("buffer is not host visible")
	}
	if offset+uint64(len(data)) > vb.Size {
		return fmt.Errorf("write of %d bytes at %d overflows a %d byte buffer", len(data), offset, vb.Size)
	}
	if len(data) == 0 {
		return nil
	}
	dst := unsafe.Slice((*byte)(unsafe.Add(vb.mapped, offset)), len(data))
	copy(dst, data)
	return nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vb.mapped != nil {
		vk.UnmapMemory(device, vb.Memory)
		vb.mapped = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(device, vb.Handle, context.Allocator)
		vb.Handle = nil
	}
	if vb.Memory != nil {
		vk.FreeMemory(device, vb.Memory, context.Allocator)
		vb.Memory = nil
	}
	vb.Size = 0
}

// CopyBuffer copies size bytes from src into dst at dstOffset with a one-shot command.
func CopyBuffer(context *VulkanContext, src, dst *VulkanBuffer, dstOffset, size uint64) error {
	return RunSingleUse(context, func(cb vk.CommandBuffer) {
		region := vk.BufferCopy{
			SrcOffset: 0,
			DstOffset: vk.DeviceSize(dstOffset),
			Size:      vk.DeviceSize(size),
		}
		vk.CmdCopyBuffer(cb, src.Handle, dst.Handle, 1, []vk.BufferCopy{region})
	})
}

// StagingBuffer is the single host visible relay for uploads into device
// local memory. It grows to the largest transfer seen.
type StagingBuffer struct {
	buffer *VulkanBuffer
}

// Ensure makes room for size bytes. The old buffer is destroyed right away:
// one-shot transfers wait for the queue, so nothing can still read it.
func (sb *StagingBuffer) Ensure(context *VulkanContext, size uint64) (*VulkanBuffer, error) {
	if sb.buffer != nil && sb.buffer.Size >= size {
		return sb.buffer, nil
	}
	if sb.buffer != nil {
		sb.buffer.Destroy(context)
		sb.buffer = nil
	}
	buffer, err := NewVulkanBuffer(
		context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return nil, err
	}
	core.LogDebug("staging buffer resized to %d bytes", size)
	sb.buffer = buffer
	return buffer, nil
}

// Upload relays data into dst at dstOffset and waits for the copy.
func (sb *StagingBuffer) Upload(context *VulkanContext, dst *VulkanBuffer, dstOffset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	staging, err := sb.Ensure(context, uint64(len(data)))
	if err != nil {
		return err
	}
	if err := staging.Write(0, data); err != nil {
		return err
	}
	return CopyBuffer(context, staging, dst, dstOffset, uint64(len(data)))
}

func (sb *StagingBuffer) Destroy(context *VulkanContext) {
	if sb.buffer != nil {
		sb.buffer.Destroy(context)
		sb.buffer = nil
	}
}

// GeometryBuffers are the device local vertex and index buffers holding the
// packed geometry of the whole scene.
type GeometryBuffers struct {
	Vertex *VulkanBuffer
	Index  *VulkanBuffer
}

// GrowSize returns the capacity to allocate for needed bytes: current when it
// fits, otherwise the next power of two multiple of current. Capacity never
// shrinks, so a scene that loses nodes keeps its allocation size.
func GrowSize(current, needed uint64) uint64 {
	if current == 0 {
		current = 1
	}
	for current < needed {
		current *= 2
	}
	return current
}

func NewGeometryBuffers(context *VulkanContext, initialSize uint64) (*GeometryBuffers, error) {
	gb := &GeometryBuffers{}
	var err error
	if gb.Vertex, err = newGeometryBuffer(context, initialSize, vk.BufferUsageVertexBufferBit); err != nil {
		return nil, err
	}
	if gb.Index, err = newGeometryBuffer(context, initialSize, vk.BufferUsageIndexBufferBit); err != nil {
		gb.Vertex.Destroy(context)
		return nil, err
	}
	return gb, nil
}

func newGeometryBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlagBits) (*VulkanBuffer, error) {
	return NewVulkanBuffer(
		context,
		size,
		vk.BufferUsageFlags(usage|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
}

// Upload writes the packed geometry through staging into fresh buffers. The
// previous buffers may still be read by frames in flight, so they are handed
// to retire and destroyed once every slot's fence has signaled.
func (gb *GeometryBuffers) Upload(context *VulkanContext, staging *StagingBuffer, retire *RetireTable, packed PackedGeometry) error {
	vertexBytes := packed.VertexBytes()
	indexBytes := packed.IndexBytes()

	vertex, err := newGeometryBuffer(context, GrowSize(gb.Vertex.Size, uint64(len(vertexBytes))), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return err
	}
	index, err := newGeometryBuffer(context, GrowSize(gb.Index.Size, uint64(len(indexBytes))), vk.BufferUsageIndexBufferBit)
	if err != nil {
		vertex.Destroy(context)
		return err
	}
	if err := staging.Upload(context, vertex, 0, vertexBytes); err != nil {
		vertex.Destroy(context)
		index.Destroy(context)
		return fmt.Errorf("uploading vertices: %w", err)
	}
	if err := staging.Upload(context, index, 0, indexBytes); err != nil {
		vertex.Destroy(context)
		index.Destroy(context)
		return fmt.Errorf("uploading indices: %w", err)
	}

	previous := &GeometryBuffers{Vertex: gb.Vertex, Index: gb.Index}
	retire.DeferAll(func() error {
		previous.Destroy(context)
		return nil
	})
	gb.Vertex, gb.Index = vertex, index

	core.LogDebug("uploaded %d vertices and %d indices", len(packed.Vertices), len(packed.Indices))
	return nil
}

func (gb *GeometryBuffers) Destroy(context *VulkanContext) {
	if gb.Vertex != nil {
		gb.Vertex.Destroy(context)
	}
	if gb.Index != nil {
		gb.Index.Destroy(context)
	}
}
