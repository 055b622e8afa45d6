package vulkan

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
)

// UniformData is the per-frame uniform block: camera view and projection.
type UniformData struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

const UniformDataSize = uint64(unsafe.Sizeof(UniformData{}))

func (ud *UniformData) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ud)), UniformDataSize)
}

// FrameResources is everything a frame slot owns. None of it is touched by
// the CPU before the slot's fence signaled.
type FrameResources struct {
	CommandBuffer  *VulkanCommandBuffer
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	Fence          *VulkanFence

	Uniform *VulkanBuffer
	Lights  *VulkanBuffer

	UniformSet vk.DescriptorSet
	StorageSet vk.DescriptorSet
}

func createSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &semaphore); res != vk.Success {
		err := fmt.Errorf("failed to create semaphore: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

func NewFrameResources(context *VulkanContext, pool *VulkanDescriptorPool, layouts *DescriptorLayouts) (*FrameResources, error) {
	frame := &FrameResources{}
	var err error

	if frame.CommandBuffer, err = NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true); err != nil {
		return nil, err
	}
	if frame.ImageAvailable, err = createSemaphore(context); err != nil {
		frame.Destroy(context, pool)
		return nil, err
	}
	if frame.RenderFinished, err = createSemaphore(context); err != nil {
		frame.Destroy(context, pool)
		return nil, err
	}
	// Signaled so the first wait on a fresh slot returns at once.
	if frame.Fence, err = NewFence(context, true); err != nil {
		frame.Destroy(context, pool)
		return nil, err
	}

	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	if frame.Uniform, err = NewVulkanBuffer(context, UniformDataSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible); err != nil {
		frame.Destroy(context, pool)
		return nil, err
	}
	if frame.Lights, err = NewVulkanBuffer(context, LightBufferSize, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit), hostVisible); err != nil {
		frame.Destroy(context, pool)
		return nil, err
	}

	sets, err := pool.Allocate(context, []vk.DescriptorSetLayout{layouts.Uniform, layouts.Storage})
	if err != nil {
		frame.Destroy(context, pool)
		return nil, err
	}
	frame.UniformSet, frame.StorageSet = sets[0], sets[1]
	WriteBufferDescriptor(context, frame.UniformSet, vk.DescriptorTypeUniformBuffer, frame.Uniform)
	WriteBufferDescriptor(context, frame.StorageSet, vk.DescriptorTypeStorageBuffer, frame.Lights)
	return frame, nil
}

// Update writes the camera and light data of the next frame. The slot's fence
// must have signaled.
func (fr *FrameResources) Update(uniform UniformData, lights *LightBuffer) error {
	if err := fr.Uniform.Write(0, uniform.Bytes()); err != nil {
		return fmt.Errorf("writing uniform buffer: %w", err)
	}
	if err := fr.Lights.Write(0, lights.Bytes()); err != nil {
		return fmt.Errorf("writing light buffer: %w", err)
	}
	return nil
}

// Submit sends the recorded command buffer to the graphics queue. It waits
// on ImageAvailable, signals RenderFinished and the slot fence.
func (fr *FrameResources) Submit(context *VulkanContext) error {
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{fr.ImageAvailable},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{fr.CommandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{fr.RenderFinished},
		// Attachments are first written by depth tests and color output.
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		},
	}
	err := context.Locks.SafeQueueCall(uint32(context.Device.GraphicsQueueIndex), func() error {
		if res := vk.QueueSubmit(context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fr.Fence.Handle); res != vk.Success {
			err := fmt.Errorf("vkQueueSubmit failed with result: %s", VulkanResultString(res, true))
			core.LogError(err.Error())
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	fr.CommandBuffer.UpdateSubmitted()
	return nil
}

// Destroy releases the slot. Sets are returned to pool when it is given.
func (fr *FrameResources) Destroy(context *VulkanContext, pool *VulkanDescriptorPool) {
	if pool != nil && fr.UniformSet != nil {
		pool.Free(context, []vk.DescriptorSet{fr.UniformSet, fr.StorageSet})
		fr.UniformSet, fr.StorageSet = nil, nil
	}
	if fr.Lights != nil {
		fr.Lights.Destroy(context)
		fr.Lights = nil
	}
	if fr.Uniform != nil {
		fr.Uniform.Destroy(context)
		fr.Uniform = nil
	}
	if fr.Fence != nil {
		fr.Fence.Destroy()
		fr.Fence = nil
	}
	if fr.RenderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(context.Device.LogicalDevice, fr.RenderFinished, context.Allocator)
		fr.RenderFinished = vk.NullSemaphore
	}
	if fr.ImageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(context.Device.LogicalDevice, fr.ImageAvailable, context.Allocator)
		fr.ImageAvailable = vk.NullSemaphore
	}
	if fr.CommandBuffer != nil && fr.CommandBuffer.Handle != nil {
		fr.CommandBuffer.Free(context, context.Device.GraphicsCommandPool)
	}
}
