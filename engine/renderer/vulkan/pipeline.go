package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
)

type BlendMode int

const (
	// Opaque writes, one state per color attachment.
	BLEND_MODE_NONE BlendMode = iota
	// dst + src, used to accumulate lights.
	BLEND_MODE_ADDITIVE
	// Premultiplied src over dst.
	BLEND_MODE_ALPHA
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
}

type VulkanPipelineConfig struct {
	Name string
	/** @brief The renderpass and subpass the pipeline draws in. */
	Renderpass *VulkanRenderpass
	Subpass    uint32
	/** @brief The stride of the vertex data. Zero means no vertex input. */
	Stride uint32
	/** @brief An array of attributes. */
	Attributes []vk.VertexInputAttributeDescription
	/** @brief An array of descriptor set layouts. */
	DescriptorSetLayouts []vk.DescriptorSetLayout
	Stages               []vk.PipelineShaderStageCreateInfo
	/** @brief Number of color attachments written by the subpass. */
	ColorAttachmentCount uint32
	Blend                BlendMode
	DepthTest            bool
	DepthWrite           bool
	/** @brief Size of the push constant block shared by vertex and fragment stages. */
	PushConstantSize uint32
	DynamicStates    []vk.DynamicState
}

// vertexAttributes describes math.Vertex: position, normal, color, UV.
func vertexAttributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 12},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 24},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 36},
	}
}

func blendAttachments(mode BlendMode, count uint32) []vk.PipelineColorBlendAttachmentState {
	writeMask := vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)
	state := vk.PipelineColorBlendAttachmentState{
		BlendEnable:    vk.False,
		ColorWriteMask: writeMask,
	}
	switch mode {
	case BLEND_MODE_ADDITIVE:
		state.BlendEnable = vk.True
		state.SrcColorBlendFactor = vk.BlendFactorOne
		state.DstColorBlendFactor = vk.BlendFactorOne
		state.ColorBlendOp = vk.BlendOpAdd
		state.SrcAlphaBlendFactor = vk.BlendFactorOne
		state.DstAlphaBlendFactor = vk.BlendFactorOne
		state.AlphaBlendOp = vk.BlendOpAdd
	case BLEND_MODE_ALPHA:
		state.BlendEnable = vk.True
		state.SrcColorBlendFactor = vk.BlendFactorOne
		state.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		state.ColorBlendOp = vk.BlendOpAdd
		state.SrcAlphaBlendFactor = vk.BlendFactorOne
		state.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		state.AlphaBlendOp = vk.BlendOpAdd
	}
	attachments := make([]vk.PipelineColorBlendAttachmentState, count)
	for i := range attachments {
		attachments[i] = state
	}
	return attachments
}

// depthState uses the reversed-Z convention: nearer fragments have greater depth.
func depthState(test, write bool) vk.PipelineDepthStencilStateCreateInfo {
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		DepthCompareOp:    vk.CompareOpGreater,
		StencilTestEnable: vk.False,
		MinDepthBounds:    0.0,
		MaxDepthBounds:    1.0,
	}
	if test {
		depthStencil.DepthTestEnable = vk.True
	}
	if write {
		depthStencil.DepthWriteEnable = vk.True
	}
	return depthStencil
}

func NewGraphicsPipeline(context *VulkanContext, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	pipeline := &VulkanPipeline{}

	// Viewport and scissor are dynamic; only the counts matter here.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Cull and polygon mode are set per draw when supported.
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	depthStencil := depthState(config.DepthTest, config.DepthWrite)

	attachments := blendAttachments(config.Blend, config.ColorAttachmentCount)
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
	}

	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(config.DynamicStates)),
		PDynamicStates:    config.DynamicStates,
	}

	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if config.Stride > 0 {
		vertexInputInfo.VertexBindingDescriptionCount = 1
		vertexInputInfo.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{{
			Binding:   0,
			Stride:    config.Stride,
			InputRate: vk.VertexInputRateVertex,
		}}
		vertexInputInfo.VertexAttributeDescriptionCount = uint32(len(config.Attributes))
		vertexInputInfo.PVertexAttributeDescriptions = config.Attributes
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(config.DescriptorSetLayouts)),
		PSetLayouts:    config.DescriptorSetLayouts,
	}
	if config.PushConstantSize > 0 {
		pipelineLayoutCreateInfo.PushConstantRangeCount = 1
		pipelineLayoutCreateInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
			Offset:     0,
			Size:       config.PushConstantSize,
		}}
	}

	var pipelineLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(context.Device.LogicalDevice, &pipelineLayoutCreateInfo, context.Allocator, &pipelineLayout); res != vk.Success {
		err := fmt.Errorf("vkCreatePipelineLayout failed for %s with %s", config.Name, VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	pipeline.PipelineLayout = pipelineLayout

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              pipeline.PipelineLayout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             config.Subpass,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(
		context.Device.LogicalDevice,
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		context.Allocator,
		pipelines); res != vk.Success {
		pipeline.Destroy(context)
		err := fmt.Errorf("vkCreateGraphicsPipelines failed for %s with %s", config.Name, VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	pipeline.Handle = pipelines[0]

	core.LogDebug("graphics pipeline %s created", config.Name)
	return pipeline, nil
}

func (pipeline *VulkanPipeline) Destroy(context *VulkanContext) {
	if pipeline.Handle != nil {
		vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
		pipeline.Handle = nil
	}
	if pipeline.PipelineLayout != nil {
		vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipeline.PipelineLayout, context.Allocator)
		pipeline.PipelineLayout = nil
	}
}

func (pipeline *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer, bindPoint vk.PipelineBindPoint) {
	vk.CmdBindPipeline(commandBuffer.Handle, bindPoint, pipeline.Handle)
}

// ShaderCode is the SPIR-V of every stage a PipelineSet needs.
type ShaderCode struct {
	BaseVertex          []uint32
	BaseFragment        []uint32
	LightVertex         []uint32
	LightFragment       []uint32
	TransparentFragment []uint32
}

// PipelineSet holds one pipeline per subpass.
type PipelineSet struct {
	Geometry     *VulkanPipeline
	Light        *VulkanPipeline
	Transparency *VulkanPipeline
}

// pipelineConfigs returns the fixed state of the three pipelines without their stages.
func pipelineConfigs(renderpass *VulkanRenderpass, layouts *DescriptorLayouts, states []vk.DynamicState) (geometry, light, transparency VulkanPipelineConfig) {
	geometry = VulkanPipelineConfig{
		Name:                 "geometry",
		Renderpass:           renderpass,
		Subpass:              SUBPASS_GEOMETRY,
		Stride:               uint32(VertexSize),
		Attributes:           vertexAttributes(),
		DescriptorSetLayouts: layouts.Geometry(),
		ColorAttachmentCount: 3,
		Blend:                BLEND_MODE_NONE,
		DepthTest:            true,
		DepthWrite:           true,
		PushConstantSize:     PushConstantsSize,
		DynamicStates:        states,
	}
	light = VulkanPipelineConfig{
		Name:                 "light",
		Renderpass:           renderpass,
		Subpass:              SUBPASS_LIGHT,
		DescriptorSetLayouts: layouts.Lighting(),
		ColorAttachmentCount: 1,
		Blend:                BLEND_MODE_ADDITIVE,
		PushConstantSize:     PushConstantsSize,
		DynamicStates:        states,
	}
	transparency = geometry
	transparency.Name = "transparency"
	transparency.Subpass = SUBPASS_TRANSPARENCY
	transparency.ColorAttachmentCount = 1
	transparency.Blend = BLEND_MODE_ALPHA
	transparency.DepthWrite = false
	return geometry, light, transparency
}

func NewPipelineSet(context *VulkanContext, renderpass *VulkanRenderpass, layouts *DescriptorLayouts, code ShaderCode) (*PipelineSet, error) {
	var stages []*VulkanShaderStage
	defer func() {
		for _, stage := range stages {
			stage.Destroy(context)
		}
	}()
	load := func(name string, stage vk.ShaderStageFlagBits, words []uint32) (*VulkanShaderStage, error) {
		s, err := NewShaderStage(context, name, stage, words)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
		return s, nil
	}

	baseVertex, err := load("base.vert", vk.ShaderStageVertexBit, code.BaseVertex)
	if err != nil {
		return nil, err
	}
	baseFragment, err := load("base.frag", vk.ShaderStageFragmentBit, code.BaseFragment)
	if err != nil {
		return nil, err
	}
	lightVertex, err := load("light.vert", vk.ShaderStageVertexBit, code.LightVertex)
	if err != nil {
		return nil, err
	}
	lightFragment, err := load("light.frag", vk.ShaderStageFragmentBit, code.LightFragment)
	if err != nil {
		return nil, err
	}
	transparentFragment, err := load("transparency.frag", vk.ShaderStageFragmentBit, code.TransparentFragment)
	if err != nil {
		return nil, err
	}

	geometry, light, transparency := pipelineConfigs(renderpass, layouts, dynamicStates(context.Device))
	geometry.Stages = []vk.PipelineShaderStageCreateInfo{baseVertex.CreateInfo(), baseFragment.CreateInfo()}
	light.Stages = []vk.PipelineShaderStageCreateInfo{lightVertex.CreateInfo(), lightFragment.CreateInfo()}
	transparency.Stages = []vk.PipelineShaderStageCreateInfo{baseVertex.CreateInfo(), transparentFragment.CreateInfo()}

	set := &PipelineSet{}
	if set.Geometry, err = NewGraphicsPipeline(context, &geometry); err != nil {
		return nil, err
	}
	if set.Light, err = NewGraphicsPipeline(context, &light); err != nil {
		set.Destroy(context)
		return nil, err
	}
	if set.Transparency, err = NewGraphicsPipeline(context, &transparency); err != nil {
		set.Destroy(context)
		return nil, err
	}
	return set, nil
}

func (ps *PipelineSet) Destroy(context *VulkanContext) {
	for _, pipeline := range []*VulkanPipeline{ps.Geometry, ps.Light, ps.Transparency} {
		if pipeline != nil {
			pipeline.Destroy(context)
		}
	}
}
