package engine

import (
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/renderer/vulkan"
	"github.com/spaghettifunk/volchara/engine/scene"
)

type sceneUploader interface {
	UploadScene(list scene.DrawList) error
}

// frameBuilder turns input and the scene graph into the packet of one frame.
type frameBuilder struct {
	graph    *scene.Graph
	input    *core.Input
	camera   scene.Handle
	debug    vulkan.DebugFeatures
	uploader sceneUploader

	update func(deltaTime float64) error
	quit   func()

	// Scene commands the graph refused since startup.
	rejected int
}

func (fb *frameBuilder) Build(deltaTime float64) (vulkan.FramePacket, error) {
	held, _ := fb.input.Snapshot()
	if used := fb.debug.HandleKeys(held); len(used) > 0 {
		fb.input.Consume(used...)
	}
	held, cursor := fb.input.Snapshot()
	fb.input.ResetCursor()

	if held.Contains(core.KEY_ESCAPE) && fb.quit != nil {
		fb.quit()
	}

	if fb.update != nil {
		if err := fb.update(deltaTime); err != nil {
			return vulkan.FramePacket{}, err
		}
	}

	fb.graph.DispatchCallbacks(scene.FrameContext{
		Elapsed: float32(deltaTime),
		Held:    held,
		Cursor:  cursor,
	})
	// A bad handle never stops the frame; the graph logs each failure.
	if err := fb.graph.ApplyCommands(); err != nil {
		fb.rejected += countErrors(err)
		core.LogDebug("%d scene commands rejected so far", fb.rejected)
	}

	list := fb.graph.Flatten()
	if fb.graph.Dirty() {
		if err := fb.uploader.UploadScene(list); err != nil {
			return vulkan.FramePacket{}, err
		}
		fb.graph.ClearDirty()
	}

	view, err := fb.graph.ViewMatrix(fb.camera)
	if err != nil {
		return vulkan.FramePacket{}, err
	}
	return vulkan.FramePacket{
		List:    list,
		View:    view,
		Ambient: fb.graph.Ambient(),
		Debug:   fb.debug,
	}, nil
}

// countErrors counts the errors joined into err.
func countErrors(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
