package vulkan

import (
	"fmt"
	"reflect"
	"testing"

	vk "github.com/goki/vulkan"
)

type recordingEncoder struct {
	pipelines map[*VulkanPipeline]string
	ops       []string
	flags     []DebugFlags
}

func (re *recordingEncoder) SetDrawState(cull vk.CullModeFlagBits, polygon vk.PolygonMode) {
	re.ops = append(re.ops, fmt.Sprintf("state %d %d", cull, polygon))
}

func (re *recordingEncoder) BindPipeline(pipeline *VulkanPipeline, sets []vk.DescriptorSet) {
	re.ops = append(re.ops, "bind "+re.pipelines[pipeline])
}

func (re *recordingEncoder) BindGeometry() {
	re.ops = append(re.ops, "geometry")
}

func (re *recordingEncoder) Push(pipeline *VulkanPipeline, push *PushConstants) {
	re.flags = append(re.flags, push.DebugFlags)
}

func (re *recordingEncoder) DrawIndexed(firstIndex, indexCount uint32) {
	re.ops = append(re.ops, fmt.Sprintf("draw %d+%d", firstIndex, indexCount))
}

func (re *recordingEncoder) DrawFullscreen() {
	re.ops = append(re.ops, "fullscreen")
}

func (re *recordingEncoder) NextSubpass() {
	re.ops = append(re.ops, "next")
}

func newTestPipelines() (*PipelineSet, map[*VulkanPipeline]string) {
	set := &PipelineSet{
		Geometry:     &VulkanPipeline{},
		Light:        &VulkanPipeline{},
		Transparency: &VulkanPipeline{},
	}
	names := map[*VulkanPipeline]string{
		set.Geometry:     "geometry",
		set.Light:        "light",
		set.Transparency: "transparency",
	}
	return set, names
}

func TestEncodePlanOrdersSubpasses(t *testing.T) {
	pipelines, names := newTestPipelines()
	enc := &recordingEncoder{pipelines: names}
	plan := DrawPlan{
		Geometry:     []DrawCall{{FirstIndex: 0, IndexCount: 36}, {FirstIndex: 36, IndexCount: 6}},
		Transparency: []DrawCall{{FirstIndex: 42, IndexCount: 6}},
		Debug:        DebugFeatures{Mode: DEBUG_VIEW_NORMALS},
	}

	encodePlan(enc, pipelines, frameSets{}, plan)

	back := fmt.Sprintf("state %d %d", vk.CullModeBackBit, vk.PolygonModeFill)
	none := fmt.Sprintf("state %d %d", vk.CullModeNone, vk.PolygonModeFill)
	want := []string{
		back, "bind geometry", "geometry", "draw 0+36", "draw 36+6",
		"next", none, "bind light", "fullscreen",
		"next", back, "bind transparency", "geometry", "draw 42+6",
	}
	if !reflect.DeepEqual(enc.ops, want) {
		t.Errorf("unexpected command stream:\n got %v\nwant %v", enc.ops, want)
	}
	// The light pass sees the debug view too.
	if len(enc.flags) != 4 || enc.flags[2] != DEBUG_FLAG_NORMALS {
		t.Errorf("expected the light push to carry the debug flags, got %v", enc.flags)
	}
}

func TestEncodePlanEmptyScene(t *testing.T) {
	pipelines, names := newTestPipelines()
	enc := &recordingEncoder{pipelines: names}

	encodePlan(enc, pipelines, frameSets{}, DrawPlan{})

	draws := 0
	fullscreen := 0
	for _, op := range enc.ops {
		switch {
		case op == "fullscreen":
			fullscreen++
		case len(op) > 4 && op[:4] == "draw":
			draws++
		}
	}
	if draws != 0 || fullscreen != 1 {
		t.Errorf("an empty scene still resolves lighting once, got %d draws and %d full screen passes", draws, fullscreen)
	}
}

func TestDebugDrawState(t *testing.T) {
	debug := DebugFeatures{Mode: DEBUG_VIEW_WIREFRAME, CullingDisabled: true}
	if cullModeFor(debug) != vk.CullModeNone {
		t.Errorf("culling disabled must draw back faces")
	}
	if polygonModeFor(debug) != vk.PolygonModeLine {
		t.Errorf("wireframe view must draw lines")
	}
	if polygonModeFor(NewDebugFeatures()) != vk.PolygonModeFill {
		t.Errorf("default view fills polygons")
	}
}
