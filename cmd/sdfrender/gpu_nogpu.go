//go:build nogpu

package main

import (
	"errors"

	"github.com/noxkit/sdf/render"
)

func newGPURenderer() (render.Renderer, func(), error) {
	return nil, nil, errors.New("built with -tags nogpu")
}
