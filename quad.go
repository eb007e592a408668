package sdf

import (
	"image/color"

	"golang.org/x/image/math/f32"
)

// DefaultAAMargin is the padding in pixels added to each side of a
// bounding quad so the outer half of the smoothstep band is rasterized.
const DefaultAAMargin = 1.5

// Shape describes one primitive before quad expansion.
type Shape struct {
	Kind ShapeKind
	// Origin is the top-left of the bounding box in world space.
	Origin f32.Vec2
	Size   f32.Vec2
	// Radius is the corner radius; ignored unless Kind is KindRoundedRect.
	Radius float32
	// Color is straight alpha.
	Color f32.Vec4
}

// Center returns the center of the shape's box.
func (s Shape) Center() f32.Vec2 {
	return f32.Vec2{s.Origin[0] + s.Size[0]*0.5, s.Origin[1] + s.Size[1]*0.5}
}

// AppendQuad appends the four vertices of s's bounding quad to dst in the
// order top-left, top-right, bottom-left, bottom-right. margin (world
// units) expands the quad on every side; the shape attributes are not
// affected by it.
func AppendQuad(dst []Vertex, s Shape, margin float32) []Vertex {
	base := Vertex{
		Color:        s.Color,
		RectOrigin:   s.Origin,
		RectSize:     s.Size,
		CornerRadius: s.Radius,
		ShapeType:    s.Kind.Tag(),
	}
	x0, y0 := s.Origin[0]-margin, s.Origin[1]-margin
	x1, y1 := s.Origin[0]+s.Size[0]+margin, s.Origin[1]+s.Size[1]+margin

	corners := [4]f32.Vec2{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}}
	for _, p := range corners {
		v := base
		v.Position = p
		dst = append(dst, v)
	}
	return dst
}

// AppendQuadIndices appends the two triangles (TL, TR, BL) and (TR, BR, BL)
// of the quad whose first vertex is at index base.
func AppendQuadIndices(dst []uint32, base uint32) []uint32 {
	return append(dst,
		base, base+1, base+2,
		base+1, base+3, base+2,
	)
}

// QuadIndices returns the index list for n consecutive quads.
func QuadIndices(n int) []uint32 {
	idx := make([]uint32, 0, n*6)
	for i := 0; i < n; i++ {
		idx = AppendQuadIndices(idx, uint32(i*4)) //nolint:gosec // quad count fits uint32
	}
	return idx
}

// ColorVec converts c to straight-alpha float RGBA.
func ColorVec(c color.Color) f32.Vec4 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return f32.Vec4{
		float32(n.R) / 255,
		float32(n.G) / 255,
		float32(n.B) / 255,
		float32(n.A) / 255,
	}
}
