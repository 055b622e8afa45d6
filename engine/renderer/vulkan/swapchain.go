package vulkan

import (
	"fmt"
	gomath "math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
)

// Offscreen formats of the geometry subpass outputs.
const (
	IntermediateFormat = vk.FormatR8g8b8a8Unorm
	EmissiveFormat     = vk.FormatR8g8b8a8Unorm
	NormalFormat       = vk.FormatR16g16b16a16Sfloat
)

// FrameAttachments are the offscreen images read back by the light subpass.
// There is one set per swapchain image.
type FrameAttachments struct {
	Intermediate *VulkanImage
	Emissive     *VulkanImage
	Normal       *VulkanImage
	Depth        *VulkanImage
}

// Views returns the attachment views in render pass order, ending with the
// swapchain view.
func (fa *FrameAttachments) Views(swapchainView vk.ImageView) []vk.ImageView {
	return []vk.ImageView{
		fa.Intermediate.View,
		fa.Emissive.View,
		fa.Normal.View,
		fa.Depth.View,
		swapchainView,
	}
}

func (fa *FrameAttachments) Destroy(context *VulkanContext) {
	for _, image := range []*VulkanImage{fa.Intermediate, fa.Emissive, fa.Normal, fa.Depth} {
		if image != nil {
			image.Destroy(context)
		}
	}
}

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	Attachments []*FrameAttachments

	// framebuffers used for on-screen rendering, one per image.
	Framebuffers []*VulkanFramebuffer
}

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

// ChooseSurfaceFormat prefers sRGB BGRA8 and falls back to the first format offered.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, fmt.Errorf("surface offers no formats")
	}
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode prefers mailbox; FIFO is always available.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent uses the surface extent when the surface fixes one, otherwise
// the framebuffer size, clamped to what the surface accepts.
func ChooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != gomath.MaxUint32 {
		return capabilities.CurrentExtent
	}
	low := capabilities.MinImageExtent
	high := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  math.Clamp(width, low.Width, high.Width),
		Height: math.Clamp(height, low.Height, high.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum; zero maximum means unbounded.
func ChooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func SwapchainCreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	return createSwapchain(context, width, height)
}

// SwapchainRecreate destroys vs and everything sized after it, then builds a new one.
// The caller regenerates framebuffers and light descriptor sets.
func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	vs.destroySwapchain(context)
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, &context.Device.SwapchainSupport); err != nil {
		return nil, err
	}
	return createSwapchain(context, width, height)
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// AcquireNextImage returns the index of the next image, signalling
// imageAvailable once it is ready. Out of date surfaces report ErrSwapchainOutOfDate.
func (vs *VulkanSwapchain) AcquireNextImage(context *VulkanContext, timeoutNs uint64, imageAvailable vk.Semaphore) (uint32, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNs, imageAvailable, vk.NullFence, &imageIndex)
	switch res {
	case vk.Success, vk.Suboptimal:
		return imageIndex, nil
	case vk.ErrorOutOfDate:
		return 0, core.ErrSwapchainOutOfDate
	}
	err := fmt.Errorf("failed to acquire swapchain image: %w", VulkanResultToError(res))
	core.LogError(err.Error())
	return 0, err
}

// Present hands the image back once renderComplete signals. Suboptimal and out
// of date both report ErrSwapchainOutOfDate so the caller rebuilds.
func (vs *VulkanSwapchain) Present(context *VulkanContext, renderComplete vk.Semaphore, imageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}

	return context.Locks.SafeQueueCall(uint32(context.Device.PresentQueueIndex), func() error {
		res := vk.QueuePresent(context.Device.PresentQueue, &presentInfo)
		if res == vk.Success {
			return nil
		}
		err := VulkanResultToError(res)
		if err == core.ErrSwapchainOutOfDate {
			return err
		}
		err = fmt.Errorf("failed to present swapchain image: %w", err)
		core.LogError(err.Error())
		return err
	})
}

func createSwapchain(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	support := context.Device.SwapchainSupport
	swapchain := &VulkanSwapchain{}

	format, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.ImageFormat = format
	swapchain.Extent = ChooseExtent(support.Capabilities, width, height)
	presentMode := ChoosePresentMode(support.PresentModes)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    ChooseImageCount(support.Capabilities),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}

	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		err := fmt.Errorf("failed to create swapchain: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = swapchainHandle

	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		swapchain.destroySwapchain(context)
		err := fmt.Errorf("failed to get swapchain images: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		swapchain.destroySwapchain(context)
		err := fmt.Errorf("failed to get swapchain images: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}

	swapchain.Views = make([]vk.ImageView, 0, swapchain.ImageCount)
	swapchain.Attachments = make([]*FrameAttachments, 0, swapchain.ImageCount)
	for i := uint32(0); i < swapchain.ImageCount; i++ {
		view, err := createImageView(context, swapchain.Images[i], format.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			swapchain.destroySwapchain(context)
			return nil, err
		}
		swapchain.Views = append(swapchain.Views, view)

		attachments, err := createFrameAttachments(context, swapchain.Extent)
		if err != nil {
			swapchain.destroySwapchain(context)
			return nil, err
		}
		swapchain.Attachments = append(swapchain.Attachments, attachments)
	}

	core.LogInfo("swapchain created: %dx%d, %d images, present mode %d", swapchain.Extent.Width, swapchain.Extent.Height, swapchain.ImageCount, presentMode)
	return swapchain, nil
}

func createFrameAttachments(context *VulkanContext, extent vk.Extent2D) (*FrameAttachments, error) {
	attachments := &FrameAttachments{}
	color := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageInputAttachmentBit)
	colorAspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)

	var err error
	create := func(format vk.Format, usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) *VulkanImage {
		if err != nil {
			return nil
		}
		var image *VulkanImage
		image, err = ImageCreate(
			context,
			vk.ImageType2d,
			extent.Width,
			extent.Height,
			format,
			vk.ImageTilingOptimal,
			usage,
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			true,
			aspect,
		)
		return image
	}

	attachments.Intermediate = create(IntermediateFormat, color, colorAspect)
	attachments.Emissive = create(EmissiveFormat, color, colorAspect)
	attachments.Normal = create(NormalFormat, color, colorAspect)
	attachments.Depth = create(
		context.Device.DepthFormat,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit|vk.ImageUsageInputAttachmentBit),
		vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	)
	if err != nil {
		attachments.Destroy(context)
		return nil, err
	}
	return attachments, nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	for _, framebuffer := range vs.Framebuffers {
		framebuffer.Destroy(context)
	}
	vs.Framebuffers = nil

	for _, attachments := range vs.Attachments {
		attachments.Destroy(context)
	}
	vs.Attachments = nil

	// Only destroy the views, not the images, since those are owned by the swapchain and are thus
	// destroyed when it is.
	for _, view := range vs.Views {
		vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
	}
	vs.Views = nil

	if vs.Handle != nil {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = nil
	}
}

// RegenerateFramebuffers builds one framebuffer per swapchain image for renderpass.
func (vs *VulkanSwapchain) RegenerateFramebuffers(context *VulkanContext, renderpass *VulkanRenderpass) error {
	for _, framebuffer := range vs.Framebuffers {
		framebuffer.Destroy(context)
	}
	vs.Framebuffers = make([]*VulkanFramebuffer, 0, vs.ImageCount)
	for i := uint32(0); i < vs.ImageCount; i++ {
		views := vs.Attachments[i].Views(vs.Views[i])
		framebuffer, err := FramebufferCreate(context, renderpass, vs.Extent.Width, vs.Extent.Height, views)
		if err != nil {
			return err
		}
		vs.Framebuffers = append(vs.Framebuffers, framebuffer)
	}
	return nil
}
