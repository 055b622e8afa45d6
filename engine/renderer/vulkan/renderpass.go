package vulkan

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
)

// Attachment indices shared by the render pass, framebuffers and light descriptors.
const (
	ATTACHMENT_INTERMEDIATE uint32 = iota
	ATTACHMENT_EMISSIVE
	ATTACHMENT_NORMAL
	ATTACHMENT_DEPTH
	ATTACHMENT_SWAPCHAIN
	ATTACHMENT_COUNT
)

// Subpass indices in execution order.
const (
	SUBPASS_GEOMETRY uint32 = iota
	SUBPASS_LIGHT
	SUBPASS_TRANSPARENCY
	SUBPASS_COUNT
)

type VulkanRenderpass struct {
	Handle     vk.RenderPass
	ClearColor mgl32.Vec4
	// Reversed-Z clears depth to the far plane at 0.
	Depth   float32
	Stencil uint32
}

// renderpassDescription is the attachment and subpass layout of the deferred pass.
type renderpassDescription struct {
	attachments  []vk.AttachmentDescription
	subpasses    []vk.SubpassDescription
	dependencies []vk.SubpassDependency
}

func describeRenderpass(swapchainFormat, depthFormat vk.Format) renderpassDescription {
	offscreen := func(format vk.Format, finalLayout vk.ImageLayout) vk.AttachmentDescription {
		return vk.AttachmentDescription{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    finalLayout,
		}
	}

	attachments := []vk.AttachmentDescription{
		offscreen(IntermediateFormat, vk.ImageLayoutShaderReadOnlyOptimal),
		offscreen(EmissiveFormat, vk.ImageLayoutShaderReadOnlyOptimal),
		offscreen(NormalFormat, vk.ImageLayoutShaderReadOnlyOptimal),
		offscreen(depthFormat, vk.ImageLayoutDepthStencilReadOnlyOptimal),
		{
			Format:         swapchainFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
	}

	geometry := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 3,
		PColorAttachments: []vk.AttachmentReference{
			{Attachment: ATTACHMENT_INTERMEDIATE, Layout: vk.ImageLayoutColorAttachmentOptimal},
			{Attachment: ATTACHMENT_EMISSIVE, Layout: vk.ImageLayoutColorAttachmentOptimal},
			{Attachment: ATTACHMENT_NORMAL, Layout: vk.ImageLayoutColorAttachmentOptimal},
		},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: ATTACHMENT_DEPTH,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	light := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		InputAttachmentCount: 4,
		PInputAttachments: []vk.AttachmentReference{
			{Attachment: ATTACHMENT_INTERMEDIATE, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
			{Attachment: ATTACHMENT_EMISSIVE, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
			{Attachment: ATTACHMENT_NORMAL, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
			{Attachment: ATTACHMENT_DEPTH, Layout: vk.ImageLayoutDepthStencilReadOnlyOptimal},
		},
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{
			{Attachment: ATTACHMENT_SWAPCHAIN, Layout: vk.ImageLayoutColorAttachmentOptimal},
		},
	}

	// Depth stays read-only: the light subpass still samples it as an input.
	transparency := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{
			{Attachment: ATTACHMENT_SWAPCHAIN, Layout: vk.ImageLayoutColorAttachmentOptimal},
		},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: ATTACHMENT_DEPTH,
			Layout:     vk.ImageLayoutDepthStencilReadOnlyOptimal,
		},
	}

	fragmentTests := vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	colorOutput := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)

	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    SUBPASS_GEOMETRY,
			SrcStageMask:  colorOutput | fragmentTests,
			DstStageMask:  colorOutput | fragmentTests,
			SrcAccessMask: 0,
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
		},
		{
			SrcSubpass:      SUBPASS_GEOMETRY,
			DstSubpass:      SUBPASS_LIGHT,
			SrcStageMask:    colorOutput | fragmentTests,
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessInputAttachmentReadBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
		{
			SrcSubpass:      SUBPASS_LIGHT,
			DstSubpass:      SUBPASS_TRANSPARENCY,
			SrcStageMask:    colorOutput | vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			DstStageMask:    colorOutput | fragmentTests,
			SrcAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessInputAttachmentReadBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentReadBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
	}

	return renderpassDescription{
		attachments:  attachments,
		subpasses:    []vk.SubpassDescription{geometry, light, transparency},
		dependencies: dependencies,
	}
}

func RenderpassCreate(context *VulkanContext, clearColor mgl32.Vec4, depth float32, stencil uint32) (*VulkanRenderpass, error) {
	renderpass := &VulkanRenderpass{
		ClearColor: clearColor,
		Depth:      depth,
		Stencil:    stencil,
	}

	description := describeRenderpass(context.Swapchain.ImageFormat.Format, context.Device.DepthFormat)
	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(description.attachments)),
		PAttachments:    description.attachments,
		SubpassCount:    uint32(len(description.subpasses)),
		PSubpasses:      description.subpasses,
		DependencyCount: uint32(len(description.dependencies)),
		PDependencies:   description.dependencies,
	}

	var handle vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create render pass: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	renderpass.Handle = handle
	return renderpass, nil
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

// clearValues returns one clear value per attachment.
func (vr *VulkanRenderpass) clearValues() []vk.ClearValue {
	clearValues := make([]vk.ClearValue, ATTACHMENT_COUNT)
	black := []float32{0, 0, 0, 0}
	clearValues[ATTACHMENT_INTERMEDIATE].SetColor(black)
	clearValues[ATTACHMENT_EMISSIVE].SetColor(black)
	clearValues[ATTACHMENT_NORMAL].SetColor(black)
	clearValues[ATTACHMENT_DEPTH].SetDepthStencil(vr.Depth, vr.Stencil)
	clearValues[ATTACHMENT_SWAPCHAIN].SetColor(vr.ClearColor[:])
	return clearValues
}

func (vr *VulkanRenderpass) RenderpassBegin(commandBuffer *VulkanCommandBuffer, framebuffer vk.Framebuffer, extent vk.Extent2D) {
	clearValues := vr.clearValues()
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) NextSubpass(commandBuffer *VulkanCommandBuffer) {
	vk.CmdNextSubpass(commandBuffer.Handle, vk.SubpassContentsInline)
}

func (vr *VulkanRenderpass) RenderpassEnd(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
