package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestTextureBindings(t *testing.T) {
	bindings, flags := textureBindings(MaxTextures)
	if len(bindings) != 2 || len(flags) != 2 {
		t.Fatalf("expected a sampler and an image array, got %d bindings", len(bindings))
	}
	if bindings[BINDING_SAMPLER].DescriptorType != vk.DescriptorTypeSampler {
		t.Errorf("binding 0 must be the sampler")
	}
	images := bindings[BINDING_TEXTURES]
	if images.DescriptorType != vk.DescriptorTypeSampledImage || images.DescriptorCount != MaxTextures {
		t.Errorf("binding 1 must hold %d sampled images, got %+v", MaxTextures, images)
	}
	want := vk.DescriptorBindingFlags(vk.DescriptorBindingPartiallyBoundBit | vk.DescriptorBindingUpdateAfterBindBit)
	if flags[BINDING_TEXTURES] != want {
		t.Errorf("the image array must be partially bound and updatable after bind")
	}
}

func TestLightBindingsFollowAttachments(t *testing.T) {
	bindings := lightBindings()
	if len(bindings) != 4 {
		t.Fatalf("expected 4 input attachments, got %d", len(bindings))
	}
	for i, binding := range bindings {
		if binding.Binding != uint32(i) || binding.DescriptorType != vk.DescriptorTypeInputAttachment {
			t.Errorf("binding %d: unexpected %+v", i, binding)
		}
	}
}

func TestDescriptorPoolSizes(t *testing.T) {
	sizes := descriptorPoolSizes(2, 3, 64)
	counts := map[vk.DescriptorType]uint32{}
	for _, size := range sizes {
		counts[size.Type] += size.DescriptorCount
	}
	tests := map[vk.DescriptorType]uint32{
		vk.DescriptorTypeUniformBuffer:   2,
		vk.DescriptorTypeStorageBuffer:   2,
		vk.DescriptorTypeSampler:         1,
		vk.DescriptorTypeSampledImage:    64,
		vk.DescriptorTypeInputAttachment: 12,
	}
	for descriptorType, want := range tests {
		if counts[descriptorType] != want {
			t.Errorf("type %d: expected %d descriptors, got %d", descriptorType, want, counts[descriptorType])
		}
	}
}
