// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

// Package render draws batches of SDF shapes to render targets.
//
// # Overview
//
// A Frame collects rectangles, rounded rectangles and circles into one
// homogeneous vertex stream (four vertices per shape) plus an index stream
// (six indices per shape). A Renderer draws the whole frame with a single
// pipeline: every fragment evaluates the signed distance of its shape,
// selected per vertex by the shape tag, and turns it into coverage with a
// smoothstep whose width is the screen-space derivative of the distance.
// Edges therefore stay about one pixel wide at any zoom.
//
// # Renderers
//
//   - SoftwareRenderer rasterizes on the CPU and is the reference for the
//     shading rules. It needs a target with CPU-accessible pixels.
//   - GPURenderer runs the WGSL pipeline on a device supplied by the host
//     through DeviceHandle and reads the result back, or records into a
//     host-owned render pass with RecordFrame.
//
// # Targets
//
// PixmapTarget wraps an *image.RGBA. Pixels are premultiplied; source
// colors are straight alpha and are blended source-over.
//
// # Example
//
//	cam := sdf.Camera{Width: 800, Height: 600, Zoom: 2}
//	frame := render.NewFrame(cam)
//	frame.RoundedRect(10, 10, 200, 100, 16, color.RGBA{0, 120, 255, 255})
//	frame.Circle(300, 200, 50, color.Black)
//
//	r := render.NewSoftwareRenderer(render.WithClearColor(color.White))
//	target := render.NewPixmapTarget(800, 600)
//	if err := r.Render(target, frame); err != nil {
//	    log.Fatal(err)
//	}
//	png.Encode(f, target.Image())
package render
