// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image/color"
	"log/slog"
	"runtime"

	"github.com/gogpu/gputypes"
	"github.com/noxkit/sdf"
)

// Option configures a renderer.
//
// Example:
//
//	r := render.NewSoftwareRenderer(
//	    render.WithWorkers(4),
//	    render.WithClearColor(color.White),
//	)
type Option func(*options)

type options struct {
	workers          int
	clear            color.Color
	sampleCount      uint32
	logger           *slog.Logger
	softwareFallback bool
	depthFormat      gputypes.TextureFormat
}

func defaultOptions() options {
	return options{
		workers:     runtime.GOMAXPROCS(0),
		sampleCount: 1,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// log returns the configured logger or the package-wide one.
func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return sdf.Logger()
}

// WithWorkers sets the number of goroutines the CPU rasterizer uses.
// Values below 1 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithClearColor clears the target to c before drawing. Without it the
// frame is composited over the existing target contents.
func WithClearColor(c color.Color) Option {
	return func(o *options) {
		o.clear = c
	}
}

// WithSampleCount sets the MSAA sample count of the GPU pipeline (1 or 4).
// The CPU renderer ignores it.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		if n != 4 {
			n = 1
		}
		o.sampleCount = n
	}
}

// WithLogger sets the logger used by the renderer. By default the logger
// configured with sdf.SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSoftwareFallback makes GPURenderer render on the CPU when the GPU
// path reports ErrFallbackToCPU instead of returning the error.
func WithSoftwareFallback() Option {
	return func(o *options) {
		o.softwareFallback = true
	}
}

// WithHostDepth declares that passes given to GPURenderer.RecordFrame
// carry a depth/stencil attachment of the given format. Shapes pass the
// depth test unconditionally and do not write depth.
func WithHostDepth(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.depthFormat = format
	}
}

// FrameOption configures a Frame.
type FrameOption func(*Frame)

// WithAAMargin sets the padding in pixels added around each shape's
// bounding quad. Negative values are treated as zero.
func WithAAMargin(px float32) FrameOption {
	return func(f *Frame) {
		if px < 0 {
			px = 0
		}
		f.marginPx = px
	}
}
