package vulkan

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/core"
)

// DebugFlags selects a debug view in the shaders.
type DebugFlags uint32

const (
	DEBUG_FLAG_NORMALS   DebugFlags = 1 << 0
	DEBUG_FLAG_DEPTH     DebugFlags = 1 << 1
	DEBUG_FLAG_WIREFRAME DebugFlags = 1 << 2
	DEBUG_FLAG_UNLIT     DebugFlags = 1 << 3
)

// PushConstants is the per-draw block shared by every pipeline.
type PushConstants struct {
	Model         mgl32.Mat4
	TextureIndex  uint32
	NormalIndex   uint32
	EmissiveIndex uint32
	AlphaCutoff   float32
	DebugFlags    DebugFlags
	_             [3]uint32
}

const PushConstantsSize = uint32(unsafe.Sizeof(PushConstants{}))

// LightPushConstants is the block of the lighting subpass. It has no model;
// the first column of Model carries the framebuffer size instead.
func LightPushConstants(flags DebugFlags, width, height uint32) PushConstants {
	var push PushConstants
	push.Model[0] = float32(width)
	push.Model[1] = float32(height)
	push.DebugFlags = flags
	return push
}

type DebugViewMode int

const (
	DEBUG_VIEW_OFF DebugViewMode = iota
	DEBUG_VIEW_UNLIT
	DEBUG_VIEW_NORMALS
	DEBUG_VIEW_DEPTH
	DEBUG_VIEW_WIREFRAME
)

func (m DebugViewMode) String() string {
	switch m {
	case DEBUG_VIEW_UNLIT:
		return "unlit"
	case DEBUG_VIEW_NORMALS:
		return "normals"
	case DEBUG_VIEW_DEPTH:
		return "depth"
	case DEBUG_VIEW_WIREFRAME:
		return "wireframe"
	default:
		return "off"
	}
}

// DebugFeatures is the debug state toggled from the keyboard.
type DebugFeatures struct {
	Mode DebugViewMode
	// CullingDisabled draws back faces too.
	CullingDisabled bool
}

func NewDebugFeatures() DebugFeatures {
	return DebugFeatures{Mode: DEBUG_VIEW_OFF}
}

func (df DebugFeatures) Flags() DebugFlags {
	switch df.Mode {
	case DEBUG_VIEW_UNLIT:
		return DEBUG_FLAG_UNLIT
	case DEBUG_VIEW_NORMALS:
		return DEBUG_FLAG_NORMALS
	case DEBUG_VIEW_DEPTH:
		return DEBUG_FLAG_DEPTH
	case DEBUG_VIEW_WIREFRAME:
		return DEBUG_FLAG_WIREFRAME
	}
	return 0
}

var debugViewKeys = map[core.KeyCode]DebugViewMode{
	core.KEY_1: DEBUG_VIEW_OFF,
	core.KEY_2: DEBUG_VIEW_UNLIT,
	core.KEY_3: DEBUG_VIEW_NORMALS,
	core.KEY_4: DEBUG_VIEW_DEPTH,
	core.KEY_5: DEBUG_VIEW_WIREFRAME,
}

// HandleKeys applies right control + 1..5 and right control + C. It returns
// the keys it acted on so the caller can consume them.
func (df *DebugFeatures) HandleKeys(held core.KeySet) []core.KeyCode {
	if !held.Contains(core.KEY_RCONTROL) {
		return nil
	}
	var used []core.KeyCode
	for key, mode := range debugViewKeys {
		if held.Contains(key) {
			df.Mode = mode
			used = append(used, key)
			core.LogInfo("debug view: %s", mode)
		}
	}
	if held.Contains(core.KEY_C) {
		df.CullingDisabled = !df.CullingDisabled
		used = append(used, core.KEY_C)
		core.LogInfo("backface culling disabled: %t", df.CullingDisabled)
	}
	if len(used) > 0 {
		ctx := core.EventContext{}
		ctx.Data.U32[0] = uint32(df.Flags())
		if df.CullingDisabled {
			ctx.Data.U32[1] = 1
		}
		core.EventFire(core.EVENT_CODE_DEBUG_MODE_CHANGED, df, ctx)
	}
	return used
}
