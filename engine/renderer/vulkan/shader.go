package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
)

// shaderEntryPoint is NUL terminated for the C side.
const shaderEntryPoint = "main\x00"

// VulkanShaderStage is a shader module and the stage it runs in.
type VulkanShaderStage struct {
	Handle vk.ShaderModule
	Stage  vk.ShaderStageFlagBits
}

// NewShaderStage creates a module from SPIR-V words.
func NewShaderStage(context *VulkanContext, name string, stage vk.ShaderStageFlagBits, code []uint32) (*VulkanShaderStage, error) {
	if len(code) == 0 {
		err := fmt.Errorf("shader %s is empty", name)
		core.LogError(err.Error())
		return nil, err
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
		err := fmt.Errorf("failed to create shader module %s: %w", name, VulkanResultToError(res))
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("shader module %s created", name)
	return &VulkanShaderStage{Handle: module, Stage: stage}, nil
}

// CreateInfo describes the stage for pipeline creation.
func (s *VulkanShaderStage) CreateInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Handle,
		PName:  shaderEntryPoint,
	}
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = nil
	}
}
