package vulkan

import (
	gomath "math"
	"testing"

	vk "github.com/goki/vulkan"
)

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	got, err := ChooseSurfaceFormat([]vk.SurfaceFormat{unorm, srgb})
	if err != nil || got.Format != vk.FormatB8g8r8a8Srgb {
		t.Errorf("expected the sRGB format, got %v (%v)", got.Format, err)
	}
	got, err = ChooseSurfaceFormat([]vk.SurfaceFormat{unorm})
	if err != nil || got.Format != vk.FormatB8g8r8a8Unorm {
		t.Errorf("expected the first format as fallback, got %v (%v)", got.Format, err)
	}
	if _, err := ChooseSurfaceFormat(nil); err == nil {
		t.Errorf("expected an error without formats")
	}
}

func TestChoosePresentMode(t *testing.T) {
	if mode := ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}); mode != vk.PresentModeMailbox {
		t.Errorf("expected mailbox, got %v", mode)
	}
	if mode := ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}); mode != vk.PresentModeFifo {
		t.Errorf("expected FIFO fallback, got %v", mode)
	}
}

func TestChooseExtent(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: gomath.MaxUint32, Height: gomath.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 1024, Height: 768},
	}
	if got := ChooseExtent(capabilities, 800, 600); got.Width != 800 || got.Height != 600 {
		t.Errorf("expected 800x600, got %dx%d", got.Width, got.Height)
	}
	if got := ChooseExtent(capabilities, 4000, 0); got.Width != 1024 || got.Height != 1 {
		t.Errorf("expected clamping to 1024x1, got %dx%d", got.Width, got.Height)
	}

	capabilities.CurrentExtent = vk.Extent2D{Width: 640, Height: 480}
	if got := ChooseExtent(capabilities, 800, 600); got.Width != 640 || got.Height != 480 {
		t.Errorf("expected the surface extent, got %dx%d", got.Width, got.Height)
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max, want uint32
	}{
		{2, 0, 3},
		{2, 8, 3},
		{3, 3, 3},
	}
	for _, tt := range tests {
		capabilities := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if got := ChooseImageCount(capabilities); got != tt.want {
			t.Errorf("min=%d max=%d: expected %d, got %d", tt.min, tt.max, tt.want, got)
		}
	}
}
