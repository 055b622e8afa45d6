package vulkan

import (
	"testing"

	"github.com/spaghettifunk/volchara/engine/core"
)

func TestPushConstantsLayout(t *testing.T) {
	if PushConstantsSize != 96 {
		t.Fatalf("push constant block must be 96 bytes, got %d", PushConstantsSize)
	}
}

func TestDebugFeaturesKeys(t *testing.T) {
	tests := []struct {
		name     string
		held     core.KeySet
		mode     DebugViewMode
		flags    DebugFlags
		consumed int
	}{
		{"no modifier", core.NewKeySet(core.KEY_3), DEBUG_VIEW_OFF, 0, 0},
		{"unlit", core.NewKeySet(core.KEY_RCONTROL, core.KEY_2), DEBUG_VIEW_UNLIT, DEBUG_FLAG_UNLIT, 1},
		{"normals", core.NewKeySet(core.KEY_RCONTROL, core.KEY_3), DEBUG_VIEW_NORMALS, DEBUG_FLAG_NORMALS, 1},
		{"depth", core.NewKeySet(core.KEY_RCONTROL, core.KEY_4), DEBUG_VIEW_DEPTH, DEBUG_FLAG_DEPTH, 1},
		{"wireframe", core.NewKeySet(core.KEY_RCONTROL, core.KEY_5), DEBUG_VIEW_WIREFRAME, DEBUG_FLAG_WIREFRAME, 1},
		{"off", core.NewKeySet(core.KEY_RCONTROL, core.KEY_1), DEBUG_VIEW_OFF, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			df := NewDebugFeatures()
			used := df.HandleKeys(tt.held)
			if df.Mode != tt.mode || df.Flags() != tt.flags {
				t.Errorf("expected %s/%d, got %s/%d", tt.mode, tt.flags, df.Mode, df.Flags())
			}
			if len(used) != tt.consumed {
				t.Errorf("expected %d consumed keys, got %v", tt.consumed, used)
			}
		})
	}
}

func TestDebugFeaturesCullingToggle(t *testing.T) {
	df := NewDebugFeatures()
	held := core.NewKeySet(core.KEY_RCONTROL, core.KEY_C)
	df.HandleKeys(held)
	if !df.CullingDisabled {
		t.Fatalf("expected culling to be disabled")
	}
	df.HandleKeys(held)
	if df.CullingDisabled {
		t.Errorf("expected culling to be enabled again")
	}
}

func TestLightPushConstants(t *testing.T) {
	push := LightPushConstants(DEBUG_FLAG_DEPTH, 1280, 720)
	if push.Model[0] != 1280 || push.Model[1] != 720 {
		t.Errorf("framebuffer size %v, %v", push.Model[0], push.Model[1])
	}
	if push.DebugFlags != DEBUG_FLAG_DEPTH || push.TextureIndex != 0 {
		t.Errorf("unexpected block %+v", push)
	}
}
