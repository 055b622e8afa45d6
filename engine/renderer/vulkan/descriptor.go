package vulkan

import (
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
)

// Descriptor set indices of the geometry and transparency pipeline layout.
const (
	SET_UNIFORM uint32 = iota
	SET_TEXTURES
	SET_STORAGE
)

// Bindings of the texture set.
const (
	BINDING_SAMPLER  uint32 = 0
	BINDING_TEXTURES uint32 = 1
)

// Upper bound on sets allocated from the shared pool.
const VULKAN_MAX_DESCRIPTOR_SETS uint32 = 1024

// DescriptorLayouts are the set layouts shared by every pipeline.
type DescriptorLayouts struct {
	Uniform  vk.DescriptorSetLayout
	Textures vk.DescriptorSetLayout
	Storage  vk.DescriptorSetLayout
	// Input attachments read by the light subpass.
	Light vk.DescriptorSetLayout
}

// textureBindings is the bindless table: one sampler and an array of
// sampled images indexed from push constants.
func textureBindings(maxTextures uint32) ([]vk.DescriptorSetLayoutBinding, []vk.DescriptorBindingFlags) {
	fragment := vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         BINDING_SAMPLER,
			DescriptorType:  vk.DescriptorTypeSampler,
			DescriptorCount: 1,
			StageFlags:      fragment,
		},
		{
			Binding:         BINDING_TEXTURES,
			DescriptorType:  vk.DescriptorTypeSampledImage,
			DescriptorCount: maxTextures,
			StageFlags:      fragment,
		},
	}
	flags := []vk.DescriptorBindingFlags{
		0,
		vk.DescriptorBindingFlags(vk.DescriptorBindingPartiallyBoundBit | vk.DescriptorBindingUpdateAfterBindBit),
	}
	return bindings, flags
}

// lightBindings are the four subpass inputs in attachment order.
func lightBindings() []vk.DescriptorSetLayoutBinding {
	bindings := make([]vk.DescriptorSetLayoutBinding, 0, ATTACHMENT_SWAPCHAIN)
	for i := uint32(0); i < ATTACHMENT_SWAPCHAIN; i++ {
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         i,
			DescriptorType:  vk.DescriptorTypeInputAttachment,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		})
	}
	return bindings
}

// descriptorPoolSizes sizes the pool for every frame slot, every swapchain
// image and the whole texture table.
func descriptorPoolSizes(framesInFlight, maxImages, maxTextures uint32) []vk.DescriptorPoolSize {
	return []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: framesInFlight},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: framesInFlight},
		{Type: vk.DescriptorTypeSampler, DescriptorCount: 1},
		{Type: vk.DescriptorTypeSampledImage, DescriptorCount: maxTextures},
		{Type: vk.DescriptorTypeInputAttachment, DescriptorCount: maxImages * ATTACHMENT_SWAPCHAIN},
	}
}

func createSetLayout(context *VulkanContext, bindings []vk.DescriptorSetLayoutBinding, bindingFlags []vk.DescriptorBindingFlags) (vk.DescriptorSetLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var keep any
	if bindingFlags != nil {
		layoutInfo.PNext, keep = bindingFlagsInfo(bindingFlags)
		layoutInfo.Flags = vk.DescriptorSetLayoutCreateFlags(vk.DescriptorSetLayoutCreateUpdateAfterBindPoolBit)
	}
	defer runtime.KeepAlive(keep)

	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor set layout: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	return layout, nil
}

func NewDescriptorLayouts(context *VulkanContext, maxTextures uint32) (*DescriptorLayouts, error) {
	layouts := &DescriptorLayouts{}
	vertexFragment := vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

	var err error
	single := func(descriptorType vk.DescriptorType) []vk.DescriptorSetLayoutBinding {
		return []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  descriptorType,
			DescriptorCount: 1,
			StageFlags:      vertexFragment,
		}}
	}
	if layouts.Uniform, err = createSetLayout(context, single(vk.DescriptorTypeUniformBuffer), nil); err != nil {
		return nil, err
	}
	if layouts.Storage, err = createSetLayout(context, single(vk.DescriptorTypeStorageBuffer), nil); err != nil {
		layouts.Destroy(context)
		return nil, err
	}
	bindings, flags := textureBindings(maxTextures)
	if layouts.Textures, err = createSetLayout(context, bindings, flags); err != nil {
		layouts.Destroy(context)
		return nil, err
	}
	if layouts.Light, err = createSetLayout(context, lightBindings(), nil); err != nil {
		layouts.Destroy(context)
		return nil, err
	}
	return layouts, nil
}

// Geometry returns the set layouts of the geometry and transparency pipelines in set order.
func (dl *DescriptorLayouts) Geometry() []vk.DescriptorSetLayout {
	return []vk.DescriptorSetLayout{dl.Uniform, dl.Textures, dl.Storage}
}

// Lighting returns the set layouts of the light pipeline: the input
// attachments take the texture slot.
func (dl *DescriptorLayouts) Lighting() []vk.DescriptorSetLayout {
	return []vk.DescriptorSetLayout{dl.Uniform, dl.Light, dl.Storage}
}

func (dl *DescriptorLayouts) Destroy(context *VulkanContext) {
	for _, layout := range []*vk.DescriptorSetLayout{&dl.Uniform, &dl.Textures, &dl.Storage, &dl.Light} {
		if *layout != nil {
			vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, *layout, context.Allocator)
			*layout = nil
		}
	}
}

type VulkanDescriptorPool struct {
	Handle vk.DescriptorPool
}

func NewDescriptorPool(context *VulkanContext, framesInFlight, maxImages, maxTextures uint32) (*VulkanDescriptorPool, error) {
	poolSizes := descriptorPoolSizes(framesInFlight, maxImages, maxTextures)
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateUpdateAfterBindBit | vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       VULKAN_MAX_DESCRIPTOR_SETS,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var handle vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor pool: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	return &VulkanDescriptorPool{Handle: handle}, nil
}

// Allocate returns one set per layout.
func (dp *VulkanDescriptorPool) Allocate(context *VulkanContext, layouts []vk.DescriptorSetLayout) ([]vk.DescriptorSet, error) {
	if len(layouts) == 0 {
		return nil, nil
	}
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     dp.Handle,
		DescriptorSetCount: uint32(len(layouts)),
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, len(layouts))
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[0]); res != vk.Success {
		err := fmt.Errorf("failed to allocate %d descriptor sets: %w", len(layouts), VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	return sets, nil
}

func (dp *VulkanDescriptorPool) Free(context *VulkanContext, sets []vk.DescriptorSet) {
	if len(sets) == 0 {
		return
	}
	vk.FreeDescriptorSets(context.Device.LogicalDevice, dp.Handle, uint32(len(sets)), &sets[0])
}

func (dp *VulkanDescriptorPool) Destroy(context *VulkanContext) {
	if dp.Handle != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, dp.Handle, context.Allocator)
		dp.Handle = nil
	}
}

// WriteBufferDescriptor points binding 0 of set at the whole of buffer.
func WriteBufferDescriptor(context *VulkanContext, set vk.DescriptorSet, descriptorType vk.DescriptorType, buffer *VulkanBuffer) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(buffer.Size),
		}},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// WriteLightInputs binds the offscreen attachments of one swapchain image to a light set.
func WriteLightInputs(context *VulkanContext, set vk.DescriptorSet, attachments *FrameAttachments) {
	images := []*VulkanImage{attachments.Intermediate, attachments.Emissive, attachments.Normal, attachments.Depth}
	writes := make([]vk.WriteDescriptorSet, 0, len(images))
	for i, image := range images {
		layout := vk.ImageLayoutShaderReadOnlyOptimal
		if uint32(i) == ATTACHMENT_DEPTH {
			layout = vk.ImageLayoutDepthStencilReadOnlyOptimal
		}
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      uint32(i),
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeInputAttachment,
			PImageInfo: []vk.DescriptorImageInfo{{
				ImageView:   image.View,
				ImageLayout: layout,
			}},
		})
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

// BindlessTable is the single texture descriptor set indexed by shaders.
// Slots are written once and never rebound.
type BindlessTable struct {
	Set      vk.DescriptorSet
	Sampler  vk.Sampler
	capacity uint32
}

func NewBindlessTable(context *VulkanContext, pool *VulkanDescriptorPool, layouts *DescriptorLayouts, capacity uint32) (*BindlessTable, error) {
	table := &BindlessTable{capacity: capacity}

	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           16.0,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}
	if limit := context.Device.Properties.Limits.MaxSamplerAnisotropy; limit > 0 && limit < samplerInfo.MaxAnisotropy {
		samplerInfo.MaxAnisotropy = limit
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("failed to create texture sampler: %w", VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	table.Sampler = sampler

	sets, err := pool.Allocate(context, []vk.DescriptorSetLayout{layouts.Textures})
	if err != nil {
		table.Destroy(context)
		return nil, err
	}
	table.Set = sets[0]

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          table.Set,
		DstBinding:      BINDING_SAMPLER,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeSampler,
		PImageInfo:      []vk.DescriptorImageInfo{{Sampler: sampler}},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return table, nil
}

// Bind publishes view at array element index. In-flight frames never index
// a slot before it is bound, which update-after-bind relies on.
func (bt *BindlessTable) Bind(context *VulkanContext, index uint32, view vk.ImageView) error {
	if index >= bt.capacity {
		return fmt.Errorf("binding texture %d of %d: %w", index, bt.capacity, core.ErrTextureCapacity)
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          bt.Set,
		DstBinding:      BINDING_TEXTURES,
		DstArrayElement: index,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeSampledImage,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return nil
}

// Destroy releases the sampler; the set goes with its pool.
func (bt *BindlessTable) Destroy(context *VulkanContext) {
	if bt.Sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, bt.Sampler, context.Allocator)
		bt.Sampler = nil
	}
}
