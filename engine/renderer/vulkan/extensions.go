package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/renderer/vulkan/dynstate"
)

// descriptorIndexingFeatures returns the C side feature struct enabling the
// bindless texture table, chained in front of next. keep must stay reachable
// until the struct was consumed.
func descriptorIndexingFeatures(next unsafe.Pointer) (ptr unsafe.Pointer, keep any) {
	features := vk.PhysicalDeviceDescriptorIndexingFeatures{
		SType:                                        vk.StructureTypePhysicalDeviceDescriptorIndexingFeatures,
		PNext:                                        next,
		ShaderSampledImageArrayNonUniformIndexing:    vk.True,
		DescriptorBindingSampledImageUpdateAfterBind: vk.True,
		DescriptorBindingUpdateUnusedWhilePending:    vk.True,
		DescriptorBindingPartiallyBound:              vk.True,
		RuntimeDescriptorArray:                       vk.True,
	}
	ref, allocs := features.PassRef()
	return unsafe.Pointer(ref), allocs
}

// bindingFlagsInfo returns the C side struct giving each binding its flags.
func bindingFlagsInfo(flags []vk.DescriptorBindingFlags) (ptr unsafe.Pointer, keep any) {
	info := vk.DescriptorSetLayoutBindingFlagsCreateInfo{
		SType:         vk.StructureTypeDescriptorSetLayoutBindingFlagsCreateInfo,
		BindingCount:  uint32(len(flags)),
		PBindingFlags: flags,
	}
	ref, allocs := info.PassRef()
	return unsafe.Pointer(ref), allocs
}

// setCullMode records the cull mode of the next draws.
func setCullMode(context *VulkanContext, commandBuffer vk.CommandBuffer, mode vk.CullModeFlagBits) {
	context.Dynamic.SetCullMode(unsafe.Pointer(commandBuffer), uint32(mode))
}

func setPolygonMode(context *VulkanContext, commandBuffer vk.CommandBuffer, mode vk.PolygonMode) {
	if !context.Device.SupportsPolygonMode {
		return
	}
	context.Dynamic.SetPolygonMode(unsafe.Pointer(commandBuffer), uint32(mode))
}

// dynamicStates lists the state every pipeline leaves to draw time.
func dynamicStates(device *VulkanDevice) []vk.DynamicState {
	states := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
		vk.DynamicState(dynstate.DynamicStateCullMode),
	}
	if device.SupportsPolygonMode {
		states = append(states, vk.DynamicState(dynstate.DynamicStatePolygonMode))
	}
	return states
}
