//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const shaderDir = "resources/shaders"

// GLSL sources compiled to <name>.spv next to themselves.
var shaderSources = []string{
	"base.vert",
	"base.frag",
	"light.vert",
	"light.frag",
	"transparency.frag",
}

// Compiles every GLSL shader to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the testbed binary into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", "volchara"), "."), withStream())
	return err
}

func buildShaders() error {
	for _, src := range shaderSources {
		args := withArgs("--target-env=vulkan1.3", src, "-o", src+".spv")
		if _, err := executeCmd("glslc", args, withDir(shaderDir), withStream()); err != nil {
			return err
		}
	}
	return nil
}
