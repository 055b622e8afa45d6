package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// frameSets are the descriptor sets bound for one frame.
type frameSets struct {
	Uniform  vk.DescriptorSet
	Textures vk.DescriptorSet
	Storage  vk.DescriptorSet
	// Input attachments of the acquired swapchain image.
	Light vk.DescriptorSet
}

func (fs frameSets) geometry() []vk.DescriptorSet {
	return []vk.DescriptorSet{fs.Uniform, fs.Textures, fs.Storage}
}

func (fs frameSets) lighting() []vk.DescriptorSet {
	return []vk.DescriptorSet{fs.Uniform, fs.Light, fs.Storage}
}

// passEncoder is the command stream of one render pass instance.
type passEncoder interface {
	SetDrawState(cull vk.CullModeFlagBits, polygon vk.PolygonMode)
	BindPipeline(pipeline *VulkanPipeline, sets []vk.DescriptorSet)
	BindGeometry()
	Push(pipeline *VulkanPipeline, push *PushConstants)
	DrawIndexed(firstIndex, indexCount uint32)
	DrawFullscreen()
	NextSubpass()
}

func cullModeFor(debug DebugFeatures) vk.CullModeFlagBits {
	if debug.CullingDisabled {
		return vk.CullModeNone
	}
	return vk.CullModeBackBit
}

func polygonModeFor(debug DebugFeatures) vk.PolygonMode {
	if debug.Mode == DEBUG_VIEW_WIREFRAME {
		return vk.PolygonModeLine
	}
	return vk.PolygonModeFill
}

// encodePlan walks the three subpasses. The encoder is inside the render
// pass, in the geometry subpass, when called.
func encodePlan(enc passEncoder, pipelines *PipelineSet, sets frameSets, plan DrawPlan) {
	cull := cullModeFor(plan.Debug)
	polygon := polygonModeFor(plan.Debug)

	// Geometry: opaque draws into the offscreen attachments.
	enc.SetDrawState(cull, polygon)
	enc.BindPipeline(pipelines.Geometry, sets.geometry())
	enc.BindGeometry()
	for i := range plan.Geometry {
		call := &plan.Geometry[i]
		enc.Push(pipelines.Geometry, &call.Push)
		enc.DrawIndexed(call.FirstIndex, call.IndexCount)
	}

	// Lighting: one full screen triangle resolving the attachments.
	enc.NextSubpass()
	enc.SetDrawState(vk.CullModeNone, vk.PolygonModeFill)
	enc.BindPipeline(pipelines.Light, sets.lighting())
	light := LightPushConstants(plan.Debug.Flags(), plan.Width, plan.Height)
	enc.Push(pipelines.Light, &light)
	enc.DrawFullscreen()

	// Transparency: blended over the lit image, depth tested against the geometry.
	enc.NextSubpass()
	enc.SetDrawState(cull, polygon)
	enc.BindPipeline(pipelines.Transparency, sets.geometry())
	if len(plan.Transparency) > 0 {
		enc.BindGeometry()
	}
	for i := range plan.Transparency {
		call := &plan.Transparency[i]
		enc.Push(pipelines.Transparency, &call.Push)
		enc.DrawIndexed(call.FirstIndex, call.IndexCount)
	}
}

// vulkanEncoder records into a command buffer.
type vulkanEncoder struct {
	context       *VulkanContext
	commandBuffer *VulkanCommandBuffer
	renderpass    *VulkanRenderpass
	geometry      *GeometryBuffers
}

func (ve *vulkanEncoder) SetDrawState(cull vk.CullModeFlagBits, polygon vk.PolygonMode) {
	setCullMode(ve.context, ve.commandBuffer.Handle, cull)
	setPolygonMode(ve.context, ve.commandBuffer.Handle, polygon)
}

func (ve *vulkanEncoder) BindPipeline(pipeline *VulkanPipeline, sets []vk.DescriptorSet) {
	pipeline.Bind(ve.commandBuffer, vk.PipelineBindPointGraphics)
	vk.CmdBindDescriptorSets(ve.commandBuffer.Handle, vk.PipelineBindPointGraphics, pipeline.PipelineLayout, 0, uint32(len(sets)), sets, 0, nil)
}

func (ve *vulkanEncoder) BindGeometry() {
	vk.CmdBindVertexBuffers(ve.commandBuffer.Handle, 0, 1, []vk.Buffer{ve.geometry.Vertex.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(ve.commandBuffer.Handle, ve.geometry.Index.Handle, 0, vk.IndexTypeUint32)
}

func (ve *vulkanEncoder) Push(pipeline *VulkanPipeline, push *PushConstants) {
	vk.CmdPushConstants(
		ve.commandBuffer.Handle,
		pipeline.PipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit),
		0,
		PushConstantsSize,
		unsafe.Pointer(push),
	)
}

func (ve *vulkanEncoder) DrawIndexed(firstIndex, indexCount uint32) {
	vk.CmdDrawIndexed(ve.commandBuffer.Handle, indexCount, 1, firstIndex, 0, 0)
}

func (ve *vulkanEncoder) DrawFullscreen() {
	vk.CmdDraw(ve.commandBuffer.Handle, 3, 1, 0, 0)
}

func (ve *vulkanEncoder) NextSubpass() {
	ve.renderpass.NextSubpass(ve.commandBuffer)
}

// Recorder turns a DrawPlan into the command buffer of a frame slot.
type Recorder struct {
	context   *VulkanContext
	pipelines *PipelineSet
	geometry  *GeometryBuffers
	textures  *BindlessTable
}

func NewRecorder(context *VulkanContext, pipelines *PipelineSet, geometry *GeometryBuffers, textures *BindlessTable) *Recorder {
	return &Recorder{
		context:   context,
		pipelines: pipelines,
		geometry:  geometry,
		textures:  textures,
	}
}

// Record resets the slot's command buffer and records the whole render pass
// into the framebuffer of imageIndex.
func (r *Recorder) Record(frame *FrameResources, imageIndex uint32, lightSet vk.DescriptorSet, plan DrawPlan) error {
	commandBuffer := frame.CommandBuffer
	if err := commandBuffer.Reset(); err != nil {
		return err
	}
	if err := commandBuffer.Begin(false, false, false); err != nil {
		return err
	}

	swapchain := r.context.Swapchain
	extent := swapchain.Extent

	// Flip Y so +Y is up in clip space.
	viewport := vk.Viewport{
		X:        0.0,
		Y:        float32(extent.Height),
		Width:    float32(extent.Width),
		Height:   -float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}

	r.context.Renderpass.RenderpassBegin(commandBuffer, swapchain.Framebuffers[imageIndex].Handle, extent)
	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})

	encoder := &vulkanEncoder{
		context:       r.context,
		commandBuffer: commandBuffer,
		renderpass:    r.context.Renderpass,
		geometry:      r.geometry,
	}
	sets := frameSets{
		Uniform:  frame.UniformSet,
		Textures: r.textures.Set,
		Storage:  frame.StorageSet,
		Light:    lightSet,
	}
	plan.Width, plan.Height = extent.Width, extent.Height
	encodePlan(encoder, r.pipelines, sets, plan)

	r.context.Renderpass.RenderpassEnd(commandBuffer)
	return commandBuffer.End()
}
