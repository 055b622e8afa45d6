package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestTextureLayoutTransitions(t *testing.T) {
	toTransfer, err := transitionFor(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if toTransfer.dstAccess != vk.AccessFlags(vk.AccessTransferWriteBit) {
		t.Errorf("upload must wait for transfer writes")
	}

	toShader, err := transitionFor(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if toShader.dstStage != vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit) {
		t.Errorf("textures are read by the fragment stage")
	}

	if _, err := transitionFor(vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal); err == nil {
		t.Errorf("expected skipping the copy layout to be rejected")
	}
}
