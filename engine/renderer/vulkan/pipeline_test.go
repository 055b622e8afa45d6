package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestVertexAttributesCoverVertex(t *testing.T) {
	attributes := vertexAttributes()
	offsets := []uint32{0, 12, 24, 36}
	if len(attributes) != len(offsets) {
		t.Fatalf("expected %d attributes, got %d", len(offsets), len(attributes))
	}
	for i, attribute := range attributes {
		if attribute.Location != uint32(i) || attribute.Offset != offsets[i] {
			t.Errorf("attribute %d: expected location %d at offset %d, got %+v", i, i, offsets[i], attribute)
		}
	}
	if attributes[3].Format != vk.FormatR32g32Sfloat {
		t.Errorf("texture coordinates are two floats")
	}
	if last := attributes[3].Offset + 8; uint64(last) != VertexSize {
		t.Errorf("attributes end at %d, vertex is %d bytes", last, VertexSize)
	}
}

func TestBlendAttachments(t *testing.T) {
	tests := []struct {
		name   string
		mode   BlendMode
		count  uint32
		enable vk.Bool32
		dst    vk.BlendFactor
	}{
		{"opaque", BLEND_MODE_NONE, 3, vk.False, vk.BlendFactorZero},
		{"additive", BLEND_MODE_ADDITIVE, 1, vk.True, vk.BlendFactorOne},
		{"alpha", BLEND_MODE_ALPHA, 1, vk.True, vk.BlendFactorOneMinusSrcAlpha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attachments := blendAttachments(tt.mode, tt.count)
			if uint32(len(attachments)) != tt.count {
				t.Fatalf("expected %d attachments, got %d", tt.count, len(attachments))
			}
			for _, attachment := range attachments {
				if attachment.BlendEnable != tt.enable || attachment.DstColorBlendFactor != tt.dst {
					t.Errorf("unexpected blend state %+v", attachment)
				}
			}
		})
	}
}

func TestDepthStateIsReversed(t *testing.T) {
	state := depthState(true, false)
	if state.DepthCompareOp != vk.CompareOpGreater {
		t.Errorf("nearer fragments must win with a greater depth")
	}
	if state.DepthTestEnable != vk.True || state.DepthWriteEnable != vk.False {
		t.Errorf("expected test without write, got %+v", state)
	}
}

func TestPipelineConfigs(t *testing.T) {
	geometry, light, transparency := pipelineConfigs(&VulkanRenderpass{}, &DescriptorLayouts{}, nil)

	if geometry.Subpass != SUBPASS_GEOMETRY || light.Subpass != SUBPASS_LIGHT || transparency.Subpass != SUBPASS_TRANSPARENCY {
		t.Fatalf("pipelines bound to the wrong subpasses")
	}
	if geometry.ColorAttachmentCount != 3 || !geometry.DepthWrite {
		t.Errorf("geometry writes three attachments and depth")
	}
	if light.Stride != 0 || light.Blend != BLEND_MODE_ADDITIVE || light.DepthTest {
		t.Errorf("lighting is an additive full screen pass, got %+v", light)
	}
	if transparency.DepthWrite || !transparency.DepthTest || transparency.Blend != BLEND_MODE_ALPHA {
		t.Errorf("transparency tests depth without writing it")
	}
	for _, config := range []VulkanPipelineConfig{geometry, light, transparency} {
		if config.PushConstantSize != PushConstantsSize {
			t.Errorf("%s: push range of %d bytes, expected %d", config.Name, config.PushConstantSize, PushConstantsSize)
		}
		if len(config.DescriptorSetLayouts) != 3 {
			t.Errorf("%s: expected three set layouts", config.Name)
		}
	}
}
