// Package dynstate loads the extended dynamic state commands straight from
// the driver and builds the feature structs that enable them.
package dynstate

/*
#include <stdint.h>
#include <stdlib.h>

typedef void* (*pfn_get_proc_addr)(void* handle, const char* name);
typedef void (*pfn_cmd_u32)(void* commandBuffer, uint32_t value);

static void* get_proc(void* loader, void* handle, const char* name) {
	return ((pfn_get_proc_addr)loader)(handle, name);
}

static void cmd_u32(void* fn, void* commandBuffer, uint32_t value) {
	((pfn_cmd_u32)fn)(commandBuffer, value);
}

typedef struct {
	int32_t  sType;
	void*    pNext;
	uint32_t features[31];
} extended_dynamic_state3_features;
*/
import "C"

import (
	"fmt"
	"unsafe"
)

const (
	// VK_DYNAMIC_STATE_CULL_MODE
	DynamicStateCullMode = 1000267000
	// VK_DYNAMIC_STATE_POLYGON_MODE_EXT
	DynamicStatePolygonMode = 1000455004

	ExtendedDynamicState3ExtensionName = "VK_EXT_extended_dynamic_state3"

	structureTypeExtendedDynamicState3Features = 1000455000
	polygonModeFeature                         = 2
)

// Commands holds the device level entry points.
type Commands struct {
	setCullMode    unsafe.Pointer
	setPolygonMode unsafe.Pointer
}

// Load resolves the commands through vkGetInstanceProcAddr. The handles are
// the raw VkInstance and VkDevice.
func Load(getInstanceProcAddr, instance, device unsafe.Pointer) (*Commands, error) {
	if getInstanceProcAddr == nil {
		return nil, fmt.Errorf("no vkGetInstanceProcAddr")
	}
	getDeviceProcAddr := lookup(getInstanceProcAddr, instance, "vkGetDeviceProcAddr")
	if getDeviceProcAddr == nil {
		return nil, fmt.Errorf("vkGetDeviceProcAddr not found")
	}
	cmds := &Commands{
		setCullMode:    lookup(getDeviceProcAddr, device, "vkCmdSetCullMode"),
		setPolygonMode: lookup(getDeviceProcAddr, device, "vkCmdSetPolygonModeEXT"),
	}
	if cmds.setCullMode == nil {
		cmds.setCullMode = lookup(getDeviceProcAddr, device, "vkCmdSetCullModeEXT")
	}
	if cmds.setCullMode == nil {
		return nil, fmt.Errorf("vkCmdSetCullMode not found")
	}
	return cmds, nil
}

func lookup(loader, handle unsafe.Pointer, name string) unsafe.Pointer {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return C.get_proc(loader, handle, cname)
}

func (c *Commands) SetCullMode(commandBuffer unsafe.Pointer, mode uint32) {
	C.cmd_u32(c.setCullMode, commandBuffer, C.uint32_t(mode))
}

func (c *Commands) HasPolygonMode() bool {
	return c.setPolygonMode != nil
}

// SetPolygonMode is a no-op when the extension is missing.
func (c *Commands) SetPolygonMode(commandBuffer unsafe.Pointer, mode uint32) {
	if c.setPolygonMode == nil {
		return
	}
	C.cmd_u32(c.setPolygonMode, commandBuffer, C.uint32_t(mode))
}

// PolygonModeFeatures is a C allocated VkPhysicalDeviceExtendedDynamicState3FeaturesEXT
// with only extendedDynamicState3PolygonMode enabled.
type PolygonModeFeatures struct {
	ptr *C.extended_dynamic_state3_features
}

// NewPolygonModeFeatures chains next behind the new struct.
func NewPolygonModeFeatures(next unsafe.Pointer) *PolygonModeFeatures {
	ptr := (*C.extended_dynamic_state3_features)(C.calloc(1, C.size_t(unsafe.Sizeof(C.extended_dynamic_state3_features{}))))
	ptr.sType = structureTypeExtendedDynamicState3Features
	ptr.pNext = next
	ptr.features[polygonModeFeature] = 1
	return &PolygonModeFeatures{ptr: ptr}
}

func (f *PolygonModeFeatures) Pointer() unsafe.Pointer {
	return unsafe.Pointer(f.ptr)
}

func (f *PolygonModeFeatures) Free() {
	if f.ptr != nil {
		C.free(unsafe.Pointer(f.ptr))
		f.ptr = nil
	}
}
