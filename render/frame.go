// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image/color"

	"github.com/noxkit/sdf"
	"golang.org/x/image/math/f32"
)

// Frame collects the shapes of one frame into a single vertex and index
// stream. Every shape becomes one bounding quad, so a Frame is drawn with
// one pipeline and one indexed draw regardless of how shape kinds are
// interleaved.
//
// Unlike a retained scene, a Frame keeps no identity for its shapes: call
// Reset and rebuild it for the next frame.
//
// Example:
//
//	f := render.NewFrame(sdf.Camera{Width: 800, Height: 600})
//	f.Rect(10, 10, 100, 50, color.White)
//	f.RoundedRect(10, 80, 100, 50, 12, color.RGBA{0, 128, 255, 255})
//	f.Circle(300, 300, 40, color.Black)
//
//	renderer.Render(target, f)
type Frame struct {
	cam      sdf.Camera
	marginPx float32

	vertices []sdf.Vertex
	indices  []uint32
}

// NewFrame creates an empty frame viewed through cam.
func NewFrame(cam sdf.Camera, opts ...FrameOption) *Frame {
	f := &Frame{
		cam:      cam,
		marginPx: sdf.DefaultAAMargin,
		vertices: make([]sdf.Vertex, 0, 64),
		indices:  make([]uint32, 0, 96),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Camera returns the frame's camera.
func (f *Frame) Camera() sdf.Camera {
	return f.cam
}

// SetCamera replaces the camera. Quads already added keep the margin they
// were built with.
func (f *Frame) SetCamera(cam sdf.Camera) {
	f.cam = cam
}

// Rect adds an axis-aligned rectangle with top-left (x, y).
func (f *Frame) Rect(x, y, w, h float32, c color.Color) {
	f.Add(sdf.Shape{
		Kind:   sdf.KindRect,
		Origin: f32.Vec2{x, y},
		Size:   f32.Vec2{w, h},
		Color:  sdf.ColorVec(c),
	})
}

// RoundedRect adds a rectangle with corner radius r.
func (f *Frame) RoundedRect(x, y, w, h, r float32, c color.Color) {
	f.Add(sdf.Shape{
		Kind:   sdf.KindRoundedRect,
		Origin: f32.Vec2{x, y},
		Size:   f32.Vec2{w, h},
		Radius: r,
		Color:  sdf.ColorVec(c),
	})
}

// Circle adds a circle centered at (cx, cy).
func (f *Frame) Circle(cx, cy, radius float32, c color.Color) {
	f.Add(sdf.Shape{
		Kind:   sdf.KindCircle,
		Origin: f32.Vec2{cx - radius, cy - radius},
		Size:   f32.Vec2{2 * radius, 2 * radius},
		Color:  sdf.ColorVec(c),
	})
}

// Add appends s as one quad. The AA margin is converted from pixels to
// world units with the current camera.
func (f *Frame) Add(s sdf.Shape) {
	base := uint32(len(f.vertices)) //nolint:gosec // vertex count fits uint32
	f.vertices = sdf.AppendQuad(f.vertices, s, f.cam.PixelsToWorld(f.marginPx))
	f.indices = sdf.AppendQuadIndices(f.indices, base)
}

// Len returns the number of shapes in the frame.
func (f *Frame) Len() int {
	return len(f.vertices) / 4
}

// IsEmpty reports whether the frame has no shapes.
func (f *Frame) IsEmpty() bool {
	return len(f.vertices) == 0
}

// Reset clears the frame for reuse, keeping its camera and allocations.
func (f *Frame) Reset() {
	f.vertices = f.vertices[:0]
	f.indices = f.indices[:0]
}

// Vertices returns the vertex stream. The slice is owned by the frame.
func (f *Frame) Vertices() []sdf.Vertex {
	return f.vertices
}

// Indices returns the index stream, six per quad. The slice is owned by
// the frame.
func (f *Frame) Indices() []uint32 {
	return f.indices
}

// Uniforms returns the frame's global uniforms.
func (f *Frame) Uniforms() sdf.GlobalUniforms {
	return f.cam.Uniforms()
}

// Validate checks the vertex stream the way the GPU path does before
// upload.
func (f *Frame) Validate() error {
	return sdf.ValidateVertices(f.vertices)
}
