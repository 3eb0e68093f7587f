//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderStages = []string{"vert", "frag"}

// Compiles the GLSL stages in shaders/ to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders, then builds the tesseract binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/tesseract", "."), withStream())
	return err
}

func buildShaders() error {
	for _, stage := range shaderStages {
		src := filepath.Join("shaders", fmt.Sprintf("shader.%s", stage))
		dst := src + ".spv"
		if _, err := executeCmd("glslc", withArgs(src, "-o", dst), withStream()); err != nil {
			return err
		}
	}
	return nil
}
