//go:build !nogpu

// Package gpu renders SDF shape batches through gogpu/wgpu hal.
//
// The package receives a hal.Device and hal.Queue from its caller (or opens
// one headlessly with OpenDevice) and builds a single render pipeline from
// the embedded WGSL shader shaders/shape.wgsl. Every rectangle, rounded
// rectangle and circle of a frame is drawn by that one pipeline with one
// indexed draw call.
//
// # Architecture Overview
//
//	vertices + uniforms -> PrepareFrame -> RecordDraws / RenderOffscreen -> readback
//
// Key components:
//
//   - ShapePipeline: shader module, bind group layout, pipeline layout and
//     render pipelines, plus the MSAA/resolve textures for offscreen use
//   - FrameResources: per-frame vertex, index and uniform buffers and the
//     uniform bind group
//   - Translate: naga cross-compilation of the shader to SPIR-V, GLSL and MSL
//   - OpenDevice: headless adapter selection over the registered HAL backends
//
// # Pipeline variants
//
// The standalone pipeline renders into textures owned by ShapePipeline. When
// PipelineConfig.Depth is set, a second variant with a pass-through
// depth/stencil state is created for RecordDraws, so shapes can be recorded
// into a host render pass that carries a depth attachment. Discarded
// fragments write neither color nor depth.
package gpu
