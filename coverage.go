package sdf

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// MinSmoothing is the lower bound applied to the derivative-based
// smoothing width. smoothstep is undefined for equal edges, and a zero
// derivative occurs for degenerate quads and at extreme magnification.
const MinSmoothing float32 = 1e-5

// Smoothstep is the cubic Hermite step used by WGSL smoothstep:
// t = clamp((x-e0)/(e1-e0), 0, 1); t*t*(3-2t).
func Smoothstep(e0, e1, x float32) float32 {
	if e1 <= e0 {
		// Step at e0; matches what GPUs produce for the undefined case.
		if x < e0 {
			return 0
		}
		return 1
	}
	t := (x - e0) / (e1 - e0)
	t = math32.Min(math32.Max(t, 0), 1)
	return t * t * (3 - 2*t)
}

// Coverage converts a signed distance into antialiased alpha over a band
// of half-width smoothing: 1 - smoothstep(-smoothing, smoothing, dist).
func Coverage(dist, smoothing float32) float32 {
	return 1 - Smoothstep(-smoothing, smoothing, dist)
}

// Fwidth returns |ddx| + |ddy| of the distance field at p, where dpdx and
// dpdy are the changes of the local position across one pixel in x and y.
// Forward differences match what fragment derivatives compute over a quad.
func Fwidth(p, dpdx, dpdy, size f32.Vec2, radius, tag float32) float32 {
	d := ShapeDistance(p, size, radius, tag)
	dx := ShapeDistance(f32.Vec2{p[0] + dpdx[0], p[1] + dpdx[1]}, size, radius, tag) - d
	dy := ShapeDistance(f32.Vec2{p[0] + dpdy[0], p[1] + dpdy[1]}, size, radius, tag) - d
	return math32.Abs(dx) + math32.Abs(dy)
}
