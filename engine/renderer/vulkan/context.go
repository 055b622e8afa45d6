package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/renderer/vulkan/dynstate"
)

type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Current generation of framebuffer size. If it does not match FramebufferSizeLastGeneration,
	// the swapchain must be rebuilt.
	FramebufferSizeGeneration uint64
	// The generation of the framebuffer when it was last created.
	FramebufferSizeLastGeneration uint64

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	Device *VulkanDevice

	Swapchain  *VulkanSwapchain
	Renderpass *VulkanRenderpass

	// Device commands goki does not wrap.
	Dynamic *dynstate.Commands

	// Serializes queue submissions coming from one-shot uploads and frames.
	Locks *VulkanLockPool
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has every propertyFlags bit.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	memoryProperties := vc.Device.Memory
	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return i, nil
		}
	}
	err := fmt.Errorf("unable to find a memory type for filter %b and properties %b", typeFilter, propertyFlags)
	core.LogError(err.Error())
	return 0, err
}
