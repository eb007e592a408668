package render

import "errors"

var (
	// ErrNilTarget is returned when Render is called without a target.
	ErrNilTarget = errors.New("render: nil target")

	// ErrNoCPUAccess is returned when a CPU renderer is given a GPU-only
	// target.
	ErrNoCPUAccess = errors.New("render: target does not support CPU rendering")

	// ErrNilDevice is returned by NewGPURenderer for a nil or empty device
	// handle.
	ErrNilDevice = errors.New("render: nil device handle")

	// ErrFallbackToCPU signals that the GPU path cannot serve a request
	// and the caller should render on the CPU instead.
	ErrFallbackToCPU = errors.New("render: falling back to CPU rendering")
)
