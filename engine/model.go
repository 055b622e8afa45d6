package engine

import (
	"fmt"

	"github.com/spaghettifunk/volchara/engine/assets/loaders"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
	"github.com/spaghettifunk/volchara/engine/scene"
)

// LoadTexture uploads an image from the resource directory once and returns
// its bindless index.
func (e *Engine) LoadTexture(name string) (uint32, error) {
	table := e.renderer.Textures()
	if index, ok := table.Lookup(name); ok {
		return index, nil
	}
	image, err := e.assetManager.LoadImage(name)
	if err != nil {
		return 0, err
	}
	index, err := e.renderer.CreateTexture(name, image.Width, image.Height, image.Pixels)
	if err != nil {
		return 0, err
	}
	table.Remember(name, index)
	return index, nil
}

// SpawnModel loads a glTF model and adds it below parent, or as a root when
// parent is invalid. The returned group node carries transform; the model's
// own nodes keep their hierarchy below it. Must not be called from a node
// callback.
func (e *Engine) SpawnModel(name string, transform math.Transform, parent scene.Handle) (scene.Handle, error) {
	model, err := e.assetManager.LoadModel(name)
	if err != nil {
		return scene.InvalidHandle, err
	}

	textures := make([]uint32, len(model.Images))
	for i, image := range model.Images {
		key := fmt.Sprintf("%s#%d", name, i)
		index, ok := e.renderer.Textures().Lookup(key)
		if !ok {
			if index, err = e.renderer.CreateTexture(key, image.Width, image.Height, image.Pixels); err != nil {
				return scene.InvalidHandle, err
			}
			e.renderer.Textures().Remember(key, index)
		}
		textures[i] = index
	}

	group, err := buildModelNodes(e.graph, model, textures, transform)
	if err != nil {
		return scene.InvalidHandle, err
	}
	if parent.IsValid() {
		err = e.graph.Attach(parent, group)
	} else {
		err = e.graph.AddRoot(group)
	}
	if err != nil {
		_ = e.graph.Remove(group)
		return scene.InvalidHandle, err
	}
	core.LogInfo("spawned model %s with %d nodes", name, len(model.Nodes))
	return group, nil
}

// buildModelNodes creates one graph node per model node under a detached
// group node. textures maps model image indices to bindless indices.
func buildModelNodes(graph *scene.Graph, model *loaders.Model, textures []uint32, transform math.Transform) (scene.Handle, error) {
	group := graph.NewNode(model.Name, math.Mesh{}, transform)
	handles := make([]scene.Handle, len(model.Nodes))
	for i, mn := range model.Nodes {
		h := graph.NewNode(mn.Name, mn.Mesh, mn.Transform)
		if mn.Texture >= 0 && mn.Texture < len(textures) {
			if err := graph.ReplaceTexture(h, textures[mn.Texture]); err != nil {
				return scene.InvalidHandle, err
			}
		}
		parent := group
		if mn.Parent >= 0 {
			parent = handles[mn.Parent]
		}
		if err := graph.Attach(parent, h); err != nil {
			_ = graph.Remove(group)
			return scene.InvalidHandle, err
		}
		handles[i] = h
	}
	return group, nil
}
