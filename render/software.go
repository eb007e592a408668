// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

package render

import (
	"context"
	"image/color"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/noxkit/sdf"
	"golang.org/x/image/math/f32"
	"golang.org/x/sync/errgroup"
)

// bandRows is the height of the horizontal band each rasterizer task owns.
const bandRows = 32

// SoftwareRenderer is the CPU reference implementation of the shape
// pipeline.
//
// It runs sdf.VertexStage on every vertex, rasterizes the indexed
// triangles at pixel centers with a top-left fill rule on 8-bit sub-pixel
// positions, so pixels on a shared edge are drawn once. It interpolates the
// shape-local position and runs the same fragment stage the shader runs.
// Screen-space derivatives for the smoothing width are the per-triangle
// gradients of the interpolated position, which is what a GPU computes from
// neighbouring pixels for a linear varying. Shape attributes are taken from
// the triangle's first vertex; the four vertices of a quad agree on them.
//
// Rows are split into bands rasterized in parallel. Each pixel is owned by
// exactly one band and triangles are visited in index order, so blending
// order matches submission order.
//
// Example:
//
//	r := render.NewSoftwareRenderer(render.WithClearColor(color.White))
//	target := render.NewPixmapTarget(800, 600)
//	if err := r.Render(target, frame); err != nil {
//	    return err
//	}
//	img := target.Image()
type SoftwareRenderer struct {
	opts options
}

// NewSoftwareRenderer creates a new CPU renderer.
func NewSoftwareRenderer(opts ...Option) *SoftwareRenderer {
	return &SoftwareRenderer{opts: applyOptions(opts)}
}

// SetLogger sets the renderer's logger. Nil selects the package logger.
func (r *SoftwareRenderer) SetLogger(l *slog.Logger) {
	r.opts.logger = l
}

// Render draws the frame to the target.
func (r *SoftwareRenderer) Render(target RenderTarget, frame *Frame) error {
	return r.RenderContext(context.Background(), target, frame)
}

// RenderContext draws the frame to the target. Cancellation is checked
// between bands; bands already running complete.
//
// Returns ErrNoCPUAccess if the target is GPU-only.
func (r *SoftwareRenderer) RenderContext(ctx context.Context, target RenderTarget, frame *Frame) error {
	if target == nil {
		return ErrNilTarget
	}
	pixels := target.Pixels()
	if pixels == nil {
		return ErrNoCPUAccess
	}

	width := target.Width()
	height := target.Height()
	stride := target.Stride()

	if r.opts.clear != nil {
		clearPixels(pixels, width, height, stride, r.opts.clear)
	}
	if frame == nil || frame.IsEmpty() || width <= 0 || height <= 0 {
		return nil
	}
	if err := frame.Validate(); err != nil {
		return err
	}

	tris := setupTriangles(frame.Uniforms(), frame.Vertices(), frame.Indices(), width, height)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.workers)
	bands := 0
	for y0 := 0; y0 < height; y0 += bandRows {
		if err := gctx.Err(); err != nil {
			break
		}
		y1 := min(y0+bandRows, height)
		bands++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rasterBand(pixels, stride, width, y0, y1, tris)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	r.opts.log().Debug("cpu frame rasterized",
		"shapes", frame.Len(),
		"triangles", len(tris),
		"bands", bands,
		"workers", r.opts.workers,
	)
	return err
}

// Flush is a no-op; rendering is synchronous.
func (r *SoftwareRenderer) Flush() error {
	return nil
}

// Capabilities returns the renderer's capabilities.
func (r *SoftwareRenderer) Capabilities() RendererCapabilities {
	return RendererCapabilities{
		IsGPU:                false,
		SupportsAntialiasing: true,
		MaxTextureSize:       0, // No limit
	}
}

// subPixelBits is the fixed-point precision of snapped vertex positions.
const subPixelBits = 8

const (
	subPixelScale = 1 << subPixelBits
	halfPixel     = subPixelScale / 2
	// maxScreenCoord bounds snapped positions so edge functions fit int64.
	maxScreenCoord = 1 << 20
)

// screenVertex is a vertex after the vertex stage, snapped to fixed-point
// pixel coordinates.
type screenVertex struct {
	x, y int64
	v    sdf.Varyings
}

// triangle holds per-triangle raster setup.
type triangle struct {
	p    [3]screenVertex
	area int64
	// owned[i] reports whether pixels exactly on edge i (opposite vertex
	// i) belong to this triangle.
	owned                  [3]bool
	minX, maxX, minY, maxY int
	// Screen-space derivatives of LocalPos.
	dpdx, dpdy f32.Vec2
}

// setupTriangles runs the vertex stage and builds the triangle list.
// Degenerate triangles, triangles behind the camera, and triangles fully
// outside the viewport are dropped.
func setupTriangles(u sdf.GlobalUniforms, vs []sdf.Vertex, indices []uint32, width, height int) []triangle {
	sv := make([]screenVertex, len(vs))
	skip := make([]bool, len(vs))
	w, h := float32(width), float32(height)
	for i, v := range vs {
		out := sdf.VertexStage(u, v)
		cw := out.ClipPosition[3]
		if !(cw > 0) {
			skip[i] = true
			continue
		}
		x := (out.ClipPosition[0]/cw + 1) * 0.5 * w
		y := (1 - out.ClipPosition[1]/cw) * 0.5 * h
		if math32.IsNaN(x) || math32.IsNaN(y) {
			skip[i] = true
			continue
		}
		sv[i] = screenVertex{x: snap(x), y: snap(y), v: out}
	}

	tris := make([]triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vs) || int(i1) >= len(vs) || int(i2) >= len(vs) {
			continue
		}
		if skip[i0] || skip[i1] || skip[i2] {
			continue
		}
		t, ok := newTriangle(sv[i0], sv[i1], sv[i2], width, height)
		if ok {
			tris = append(tris, t)
		}
	}
	return tris
}

// snap converts a pixel coordinate to fixed point.
func snap(v float32) int64 {
	v = math32.Max(-maxScreenCoord, math32.Min(v, maxScreenCoord))
	return int64(math32.Round(v * subPixelScale))
}

func newTriangle(a, b, c screenVertex, width, height int) (triangle, bool) {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 {
		return triangle{}, false
	}
	// Flat attributes come from a, so keep a first and flip b/c to make
	// the winding positive.
	if area < 0 {
		b, c = c, b
		area = -area
	}
	t := triangle{p: [3]screenVertex{a, b, c}, area: area}

	for i := 0; i < 3; i++ {
		from, to := t.p[(i+1)%3], t.p[(i+2)%3]
		t.owned[i] = isTopLeft(to.x-from.x, to.y-from.y)
	}

	t.minX, t.maxX = pixelSpan(min(a.x, b.x, c.x), max(a.x, b.x, c.x), width)
	t.minY, t.maxY = pixelSpan(min(a.y, b.y, c.y), max(a.y, b.y, c.y), height)
	if t.minX > t.maxX || t.minY > t.maxY {
		return triangle{}, false
	}

	// Stepping one pixel in x changes edge i by -(to.y-from.y)*subPixelScale;
	// divided by area that is the barycentric gradient.
	fa := float64(area)
	var dpdx, dpdy f32.Vec2
	for i := 0; i < 3; i++ {
		from, to := t.p[(i+1)%3], t.p[(i+2)%3]
		gx := float32(float64(-(to.y-from.y)*subPixelScale) / fa)
		gy := float32(float64((to.x-from.x)*subPixelScale) / fa)
		lp := t.p[i].v.LocalPos
		dpdx[0] += gx * lp[0]
		dpdx[1] += gx * lp[1]
		dpdy[0] += gy * lp[0]
		dpdy[1] += gy * lp[1]
	}
	t.dpdx, t.dpdy = dpdx, dpdy
	return t, true
}

// pixelSpan returns the pixels in [0, n) whose centers lie in the
// fixed-point range [lo, hi].
func pixelSpan(lo, hi int64, n int) (int, int) {
	first := ceilDiv(lo-halfPixel, subPixelScale)
	last := floorDiv(hi-halfPixel, subPixelScale)
	return int(max(first, 0)), int(min(last, int64(n-1)))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}

// edge is the edge function of a->b evaluated at p. It is positive on the
// interior side of a positively wound triangle.
func edge(ax, ay, bx, by, px, py int64) int64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// isTopLeft reports whether an edge with direction (dx, dy) is a top or
// left edge of a positively wound triangle in y-down pixel space.
func isTopLeft(dx, dy int64) bool {
	return dy < 0 || (dy == 0 && dx > 0)
}

// rasterBand shades rows [y0, y1) of every triangle in order.
func rasterBand(pixels []byte, stride, width, y0, y1 int, tris []triangle) {
	for ti := range tris {
		t := &tris[ti]
		ys := max(t.minY, y0)
		ye := min(t.maxY, y1-1)
		if ys > ye {
			continue
		}
		a, b, c := &t.p[0], &t.p[1], &t.p[2]
		area := float32(t.area)
		in := a.v
		for y := ys; y <= ye; y++ {
			py := int64(y)*subPixelScale + halfPixel
			row := pixels[y*stride:]
			for x := t.minX; x <= t.maxX && x < width; x++ {
				px := int64(x)*subPixelScale + halfPixel
				w0 := edge(b.x, b.y, c.x, c.y, px, py)
				w1 := edge(c.x, c.y, a.x, a.y, px, py)
				w2 := edge(a.x, a.y, b.x, b.y, px, py)
				if !covers(w0, t.owned[0]) || !covers(w1, t.owned[1]) || !covers(w2, t.owned[2]) {
					continue
				}
				l0, l1, l2 := float32(w0)/area, float32(w1)/area, float32(w2)/area
				in.LocalPos = f32.Vec2{
					l0*a.v.LocalPos[0] + l1*b.v.LocalPos[0] + l2*c.v.LocalPos[0],
					l0*a.v.LocalPos[1] + l1*b.v.LocalPos[1] + l2*c.v.LocalPos[1],
				}
				col, ok := sdf.FragmentStage(in, t.dpdx, t.dpdy)
				if !ok {
					continue
				}
				blendOver(row[x*4:x*4+4], col)
			}
		}
	}
}

func covers(w int64, owned bool) bool {
	return w > 0 || (w == 0 && owned)
}

// blendOver composites a straight-alpha color over a premultiplied RGBA8
// pixel: rgb = src.rgb*src.a + dst.rgb*(1-src.a), a = src.a + dst.a*(1-src.a).
func blendOver(dst []byte, src f32.Vec4) {
	sa := clamp01(src[3])
	inv := 1 - sa
	dst[0] = toByte(clamp01(src[0])*sa + float32(dst[0])/255*inv)
	dst[1] = toByte(clamp01(src[1])*sa + float32(dst[1])/255*inv)
	dst[2] = toByte(clamp01(src[2])*sa + float32(dst[2])/255*inv)
	dst[3] = toByte(sa + float32(dst[3])/255*inv)
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

// clearPixels fills the target with a solid color.
func clearPixels(pixels []byte, width, height, stride int, c color.Color) {
	cr, cg, cb, ca := c.RGBA()
	// Convert from 16-bit to 8-bit (mask ensures value fits in uint8)
	//nolint:gosec // G115: mask ensures no overflow
	px := [4]byte{
		uint8((cr >> 8) & 0xFF),
		uint8((cg >> 8) & 0xFF),
		uint8((cb >> 8) & 0xFF),
		uint8((ca >> 8) & 0xFF),
	}
	for y := 0; y < height; y++ {
		row := pixels[y*stride : y*stride+width*4]
		for x := 0; x < width*4; x += 4 {
			copy(row[x:x+4], px[:])
		}
	}
}

// Ensure SoftwareRenderer implements Renderer and CapableRenderer.
var (
	_ Renderer        = (*SoftwareRenderer)(nil)
	_ CapableRenderer = (*SoftwareRenderer)(nil)
)
