// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

package sdf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// VertexStride is the byte stride of one encoded Vertex.
// Layout per vertex:
//
//	position      (vec2<f32>) = 8 bytes  (location 0)
//	color         (vec4<f32>) = 16 bytes (location 1)
//	rect_origin   (vec2<f32>) = 8 bytes  (location 2)
//	rect_size     (vec2<f32>) = 8 bytes  (location 3)
//	corner_radius (f32)       = 4 bytes  (location 4)
//	shape_type    (f32)       = 4 bytes  (location 5)
//
// Total = 48 bytes per vertex.
const VertexStride = 48

// Byte offsets of each attribute within an encoded vertex.
const (
	OffsetPosition     = 0
	OffsetColor        = 8
	OffsetRectOrigin   = 24
	OffsetRectSize     = 32
	OffsetCornerRadius = 40
	OffsetShapeType    = 44
)

// Vertex is one corner of a shape's bounding quad. All four vertices of a
// shape carry the same color, rectangle, radius and tag; only Position
// differs.
type Vertex struct {
	// Position is the world-space position of this corner.
	Position f32.Vec2
	// Color is RGBA with straight (non-premultiplied) alpha.
	Color f32.Vec4
	// RectOrigin is the world-space top-left of the owning shape's box.
	RectOrigin f32.Vec2
	// RectSize is the width and height of the owning shape's box.
	RectSize f32.Vec2
	// CornerRadius is used by rounded rectangles only.
	CornerRadius float32
	// ShapeType selects the distance function; see KindOf.
	ShapeType float32
}

// Center returns the center of the owning shape's box.
func (v Vertex) Center() f32.Vec2 {
	return f32.Vec2{
		v.RectOrigin[0] + v.RectSize[0]*0.5,
		v.RectOrigin[1] + v.RectSize[1]*0.5,
	}
}

// sameShape reports whether v and o describe the same shape.
// Bit patterns are compared so that NaN tags compare equal to themselves.
func (v Vertex) sameShape(o Vertex) bool {
	eq := func(a, b float32) bool { return math.Float32bits(a) == math.Float32bits(b) }
	for i := range v.Color {
		if !eq(v.Color[i], o.Color[i]) {
			return false
		}
	}
	return eq(v.RectOrigin[0], o.RectOrigin[0]) && eq(v.RectOrigin[1], o.RectOrigin[1]) &&
		eq(v.RectSize[0], o.RectSize[0]) && eq(v.RectSize[1], o.RectSize[1]) &&
		eq(v.CornerRadius, o.CornerRadius) && eq(v.ShapeType, o.ShapeType)
}

// VertexLayout returns the vertex buffer layout matching VertexStride.
func VertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: OffsetPosition, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x4, Offset: OffsetColor, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x2, Offset: OffsetRectOrigin, ShaderLocation: 2},
			{Format: gputypes.VertexFormatFloat32x2, Offset: OffsetRectSize, ShaderLocation: 3},
			{Format: gputypes.VertexFormatFloat32, Offset: OffsetCornerRadius, ShaderLocation: 4},
			{Format: gputypes.VertexFormatFloat32, Offset: OffsetShapeType, ShaderLocation: 5},
		},
	}
}

// EncodeVertices appends the little-endian encoding of vs to dst.
func EncodeVertices(dst []byte, vs []Vertex) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, len(vs)*VertexStride)...)
	buf := dst[start:]
	for i := range vs {
		putVertex(buf[i*VertexStride:], &vs[i])
	}
	return dst
}

// DecodeVertices decodes a vertex buffer. The length of b must be a
// multiple of VertexStride.
func DecodeVertices(b []byte) ([]Vertex, error) {
	if len(b)%VertexStride != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidStride, len(b), VertexStride)
	}
	vs := make([]Vertex, len(b)/VertexStride)
	for i := range vs {
		vs[i] = getVertex(b[i*VertexStride:])
	}
	return vs, nil
}

func putVertex(buf []byte, v *Vertex) {
	putF32(buf[OffsetPosition:], v.Position[0])
	putF32(buf[OffsetPosition+4:], v.Position[1])
	for i, c := range v.Color {
		putF32(buf[OffsetColor+4*i:], c)
	}
	putF32(buf[OffsetRectOrigin:], v.RectOrigin[0])
	putF32(buf[OffsetRectOrigin+4:], v.RectOrigin[1])
	putF32(buf[OffsetRectSize:], v.RectSize[0])
	putF32(buf[OffsetRectSize+4:], v.RectSize[1])
	putF32(buf[OffsetCornerRadius:], v.CornerRadius)
	putF32(buf[OffsetShapeType:], v.ShapeType)
}

func getVertex(buf []byte) Vertex {
	var v Vertex
	v.Position = f32.Vec2{getF32(buf[OffsetPosition:]), getF32(buf[OffsetPosition+4:])}
	for i := range v.Color {
		v.Color[i] = getF32(buf[OffsetColor+4*i:])
	}
	v.RectOrigin = f32.Vec2{getF32(buf[OffsetRectOrigin:]), getF32(buf[OffsetRectOrigin+4:])}
	v.RectSize = f32.Vec2{getF32(buf[OffsetRectSize:]), getF32(buf[OffsetRectSize+4:])}
	v.CornerRadius = getF32(buf[OffsetCornerRadius:])
	v.ShapeType = getF32(buf[OffsetShapeType:])
	return v
}

func putF32(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}

func getF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
