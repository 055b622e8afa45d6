package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
	Layout vk.ImageLayout
}

// ImageCreate creates a 2D image bound to memory with propertyFlags and,
// when createView is set, a view over aspectFlags.
func ImageCreate(
	context *VulkanContext,
	imageType vk.ImageType,
	width, height uint32,
	format vk.Format,
	tiling vk.ImageTiling,
	usage vk.ImageUsageFlags,
	memoryFlags vk.MemoryPropertyFlags,
	createView bool,
	viewAspectFlags vk.ImageAspectFlags,
) (*VulkanImage, error) {
	image := &VulkanImage{
		Width:  width,
		Height: height,
		Format: format,
		Layout: vk.ImageLayoutUndefined,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: imageType,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create image: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	image.Handle = handle

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		image.Destroy(context)
		return nil, err
	}

	memoryAllocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &memoryAllocateInfo, context.Allocator, &memory); res != vk.Success {
		image.Destroy(context)
		err := fmt.Errorf("failed to allocate image memory: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	image.Memory = memory

	// TODO: bind at an offset once images are suballocated from a shared block.
	if res := vk.BindImageMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		image.Destroy(context)
		err := fmt.Errorf("failed to bind image memory: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}

	if createView {
		if err := image.createView(context, format, viewAspectFlags); err != nil {
			image.Destroy(context)
			return nil, err
		}
	}
	return image, nil
}

func (vi *VulkanImage) createView(context *VulkanContext, format vk.Format, aspectFlags vk.ImageAspectFlags) error {
	view, err := createImageView(context, vi.Handle, format, aspectFlags)
	if err != nil {
		return err
	}
	vi.View = view
	return nil
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format, aspectFlags vk.ImageAspectFlags) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
		err := fmt.Errorf("failed to create image view: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	return view, nil
}

// layoutTransition is the access and stage masks of one supported layout change.
type layoutTransition struct {
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
}

func transitionFor(oldLayout, newLayout vk.ImageLayout) (layoutTransition, error) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return layoutTransition{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	}
	return layoutTransition{}, fmt.Errorf("unsupported layout transition %d -> %d", oldLayout, newLayout)
}

// TransitionLayout records a barrier moving the image to newLayout.
func (vi *VulkanImage) TransitionLayout(commandBuffer vk.CommandBuffer, newLayout vk.ImageLayout) error {
	transition, err := transitionFor(vi.Layout, newLayout)
	if err != nil {
		core.LogError(err.Error())
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vi.Layout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SrcAccessMask:       transition.srcAccess,
		DstAccessMask:       transition.dstAccess,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(commandBuffer, transition.srcStage, transition.dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	vi.Layout = newLayout
	return nil
}

// CopyFromBuffer records a copy of tightly packed texels from buffer into the whole image.
func (vi *VulkanImage) CopyFromBuffer(commandBuffer vk.CommandBuffer, buffer vk.Buffer) {
	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageExtent: vk.Extent3D{
			Width:  vi.Width,
			Height: vi.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(commandBuffer, buffer, vi.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vi.View != nil {
		vk.DestroyImageView(device, vi.View, context.Allocator)
		vi.View = nil
	}
	if vi.Memory != nil {
		vk.FreeMemory(device, vi.Memory, context.Allocator)
		vi.Memory = nil
	}
	if vi.Handle != nil {
		vk.DestroyImage(device, vi.Handle, context.Allocator)
		vi.Handle = nil
	}
}

// TextureFormat is the format every sampled texture is uploaded in.
const TextureFormat = vk.FormatR8g8b8a8Srgb

// UploadTexture creates a sampled RGBA8 image from pixels and leaves it
// ready for fragment shader reads.
func UploadTexture(context *VulkanContext, staging *StagingBuffer, width, height uint32, pixels []byte) (*VulkanImage, error) {
	if expected := int(width) * int(height) * 4; len(pixels) != expected {
		return nil, fmt.Errorf("texture of %dx%d needs %d bytes, got %d", width, height, expected, len(pixels))
	}

	image, err := ImageCreate(
		context,
		vk.ImageType2d,
		width,
		height,
		TextureFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit),
	)
	if err != nil {
		return nil, err
	}

	buffer, err := staging.Ensure(context, uint64(len(pixels)))
	if err != nil {
		image.Destroy(context)
		return nil, err
	}
	if err := buffer.Write(0, pixels); err != nil {
		image.Destroy(context)
		return nil, err
	}

	var recordErr error
	err = RunSingleUse(context, func(cb vk.CommandBuffer) {
		if recordErr = image.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal); recordErr != nil {
			return
		}
		image.CopyFromBuffer(cb, buffer.Handle)
		recordErr = image.TransitionLayout(cb, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err == nil {
		err = recordErr
	}
	if err != nil {
		image.Destroy(context)
		return nil, err
	}
	return image, nil
}
