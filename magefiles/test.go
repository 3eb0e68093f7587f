//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package's tests with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Runs the tests that need neither a window nor a GPU.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "-count=1",
		"./engine/math/...",
		"./engine/containers/...",
		"./engine/core/...",
		"./engine/entities/...",
		"./engine/assets/...",
		"./engine/renderer/...",
	), withStream())
	return err
}
