// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

package sdf

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// SDRoundedBox returns the signed distance from p to an axis-aligned box
// centered at the origin with half-extents b and uniform corner radius r.
// Negative values are inside.
//
//	q = |p| - b + r
//	d = length(max(q, 0)) + min(max(q.x, q.y), 0) - r
func SDRoundedBox(p, b f32.Vec2, r float32) float32 {
	qx := math32.Abs(p[0]) - b[0] + r
	qy := math32.Abs(p[1]) - b[1] + r
	outside := length(math32.Max(qx, 0), math32.Max(qy, 0))
	inside := math32.Min(math32.Max(qx, qy), 0)
	return outside + inside - r
}

// SDCircle returns the signed distance from p to a circle of radius r
// centered at the origin.
func SDCircle(p f32.Vec2, r float32) float32 {
	return length(p[0], p[1]) - r
}

// CircleRadius returns the radius of the circle inscribed in a box of the
// given size.
func CircleRadius(size f32.Vec2) float32 {
	return math32.Min(size[0], size[1]) * 0.5
}

// ShapeDistance evaluates the distance function selected by tag at the
// shape-local point p.
func ShapeDistance(p, size f32.Vec2, radius, tag float32) float32 {
	half := f32.Vec2{size[0] * 0.5, size[1] * 0.5}
	switch KindOf(tag) {
	case KindRect:
		return SDRoundedBox(p, half, 0)
	case KindRoundedRect:
		return SDRoundedBox(p, half, radius)
	default:
		return SDCircle(p, CircleRadius(size))
	}
}

// length matches WGSL length(vec2): sqrt(x*x + y*y), no Hypot scaling.
func length(x, y float32) float32 {
	return math32.Sqrt(x*x + y*y)
}
