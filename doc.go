// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

// Package sdf implements a unified signed-distance-field pipeline for
// batched 2D primitives: rectangles, rounded rectangles and circles.
//
// # Overview
//
// All three primitives share one vertex layout and one shader program. Each
// shape is emitted as a bounding quad of four vertices; every vertex carries
// the owning rectangle, a corner radius and a floating-point shape tag, so
// shapes of different kinds can be mixed freely within a single draw call.
//
// The package holds the data model ([Vertex], [GlobalUniforms]), the two
// shading stages expressed in Go ([VertexStage], [FragmentStage]) and the
// distance functions they use. The same stages are compiled for the GPU from
// WGSL in internal/gpu; the Go versions drive the CPU reference renderer in
// the render package and serve as the executable definition of the pipeline.
//
// # Shape tags
//
// The tag is transmitted as a float32 and dispatched with half-open
// thresholds:
//
//	tag < 0.5         rectangle (rounded box with radius 0)
//	0.5 <= tag < 1.5  rounded rectangle
//	tag >= 1.5        circle inscribed in the shorter side
//
// # Quick Start
//
//	cam := sdf.Camera{Width: 800, Height: 600, Zoom: 1}
//	frame := render.NewFrame(cam)
//	frame.Rect(10, 10, 100, 50, color.NRGBA{R: 255, A: 255})
//	frame.Circle(200, 100, 30, color.NRGBA{B: 255, A: 255})
//
//	target := render.NewPixmapTarget(800, 600)
//	if err := render.NewSoftwareRenderer().Render(target, frame); err != nil {
//	    log.Fatal(err)
//	}
//
// # Logging
//
// The package is silent by default. Call [SetLogger] to route diagnostics
// from sdf and its sub-packages to a [log/slog] handler.
package sdf
