//go:build !nogpu

package main

import (
	"fmt"

	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/allbackends"
	"github.com/noxkit/sdf/internal/gpu"
	"github.com/noxkit/sdf/render"
)

func newGPURenderer() (render.Renderer, func(), error) {
	dev, err := gpu.OpenDevice(gputypes.BackendEmpty)
	if err != nil {
		return nil, nil, fmt.Errorf("open gpu: %w", err)
	}
	r, err := render.NewGPURenderer(dev,
		render.WithSampleCount(4),
		render.WithSoftwareFallback(),
	)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return r, func() {
		r.Close()
		dev.Close()
	}, nil
}
