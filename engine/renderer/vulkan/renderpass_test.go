package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestDescribeRenderpass(t *testing.T) {
	description := describeRenderpass(vk.FormatB8g8r8a8Srgb, vk.FormatD32Sfloat)

	if len(description.attachments) != int(ATTACHMENT_COUNT) {
		t.Fatalf("expected %d attachments, got %d", ATTACHMENT_COUNT, len(description.attachments))
	}
	swapchain := description.attachments[ATTACHMENT_SWAPCHAIN]
	if swapchain.Format != vk.FormatB8g8r8a8Srgb || swapchain.FinalLayout != vk.ImageLayoutPresentSrc {
		t.Errorf("swapchain attachment must end presentable, got %+v", swapchain)
	}
	if description.attachments[ATTACHMENT_NORMAL].Format != vk.FormatR16g16b16a16Sfloat {
		t.Errorf("unexpected normal format")
	}
	if description.attachments[ATTACHMENT_DEPTH].Format != vk.FormatD32Sfloat {
		t.Errorf("unexpected depth format")
	}

	if len(description.subpasses) != int(SUBPASS_COUNT) {
		t.Fatalf("expected %d subpasses, got %d", SUBPASS_COUNT, len(description.subpasses))
	}
	geometry := description.subpasses[SUBPASS_GEOMETRY]
	if geometry.ColorAttachmentCount != 3 || geometry.PDepthStencilAttachment.Attachment != ATTACHMENT_DEPTH {
		t.Errorf("geometry must write three colors and depth")
	}

	light := description.subpasses[SUBPASS_LIGHT]
	want := []uint32{ATTACHMENT_INTERMEDIATE, ATTACHMENT_EMISSIVE, ATTACHMENT_NORMAL, ATTACHMENT_DEPTH}
	for i, ref := range light.PInputAttachments {
		if ref.Attachment != want[i] {
			t.Errorf("input %d: expected attachment %d, got %d", i, want[i], ref.Attachment)
		}
	}
	if light.PColorAttachments[0].Attachment != ATTACHMENT_SWAPCHAIN {
		t.Errorf("light must write the swapchain image")
	}

	transparency := description.subpasses[SUBPASS_TRANSPARENCY]
	if transparency.PDepthStencilAttachment.Layout != vk.ImageLayoutDepthStencilReadOnlyOptimal {
		t.Errorf("transparency must test depth without writing it")
	}

	// Every subpass waits on the one before it.
	for i, dependency := range description.dependencies[1:] {
		if dependency.SrcSubpass != uint32(i) || dependency.DstSubpass != uint32(i+1) {
			t.Errorf("dependency %d links %d -> %d", i+1, dependency.SrcSubpass, dependency.DstSubpass)
		}
	}
}
