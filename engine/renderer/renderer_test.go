package renderer

import (
	"testing"

	"github.com/spaghettifunk/volchara/engine/renderer/vulkan"
)

func TestNewRejectsUnsupportedBackends(t *testing.T) {
	for _, rt := range []RendererType{DirectX, Metal, OpenGL} {
		if _, err := New(rt, nil, vulkanOptions()); err == nil {
			t.Errorf("%s accepted", rt)
		}
	}
}

func TestNewVulkanDefersDeviceWork(t *testing.T) {
	backend, err := New(Vulkan, nil, vulkanOptions())
	if err != nil {
		t.Fatal(err)
	}
	if backend == nil {
		t.Fatal("nil backend")
	}
}

func vulkanOptions() vulkan.Options {
	return vulkan.Options{ApplicationName: "test", Width: 800, Height: 600, FramesInFlight: 2, MaxTextures: 64}
}
