// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

package render

// Renderer draws a Frame to a render target.
//
// Two implementations share the same vertex stream and shading rules:
//
//   - SoftwareRenderer: the CPU reference rasterizer
//   - GPURenderer: the WGSL pipeline on a gogpu/wgpu HAL device
//
// Renderers hold no shape state between Render calls, so the same renderer
// can be used with different targets and frames.
//
// Thread Safety: Renderers are NOT thread-safe. Each renderer should be used
// from a single goroutine, or external synchronization must be used.
//
// Example:
//
//	renderer := render.NewSoftwareRenderer()
//	target := render.NewPixmapTarget(800, 600)
//
//	if err := renderer.Render(target, frame); err != nil {
//	    log.Printf("render failed: %v", err)
//	}
type Renderer interface {
	// Render draws the frame to the target.
	Render(target RenderTarget, frame *Frame) error

	// Flush waits for all submitted work to complete.
	Flush() error
}

// RendererCapabilities describes what a renderer supports.
type RendererCapabilities struct {
	// IsGPU reports whether rendering runs on a GPU.
	IsGPU bool

	// SupportsAntialiasing reports analytic edge antialiasing.
	SupportsAntialiasing bool

	// SupportsMSAA reports whether WithSampleCount(4) takes effect.
	SupportsMSAA bool

	// MaxTextureSize is the largest target dimension, 0 for no limit.
	MaxTextureSize int
}

// CapableRenderer is a Renderer that reports its capabilities.
type CapableRenderer interface {
	Renderer

	// Capabilities returns the renderer's capabilities.
	Capabilities() RendererCapabilities
}
