package sdf

import (
	"golang.org/x/image/math/f32"
)

// Varyings is the vertex stage output consumed by the fragment stage.
// Field order follows the shader's VertexOutput struct.
type Varyings struct {
	ClipPosition f32.Vec4
	Color        f32.Vec4
	// LocalPos is the position relative to the owning shape's center.
	LocalPos     f32.Vec2
	RectSize     f32.Vec2
	CornerRadius float32
	ShapeType    float32
}

// VertexStage transforms v into clip space and derives its shape-local
// position. rect_size is passed through unvalidated.
func VertexStage(u GlobalUniforms, v Vertex) Varyings {
	c := v.Center()
	return Varyings{
		ClipPosition: Transform(u.ViewProjection, v.Position),
		Color:        v.Color,
		LocalPos:     f32.Vec2{v.Position[0] - c[0], v.Position[1] - c[1]},
		RectSize:     v.RectSize,
		CornerRadius: v.CornerRadius,
		ShapeType:    v.ShapeType,
	}
}

// Distance returns the signed distance of the fragment to its shape.
func (in Varyings) Distance() float32 {
	return ShapeDistance(in.LocalPos, in.RectSize, in.CornerRadius, in.ShapeType)
}

// Fragment is the result of shading one fragment.
type Fragment struct {
	// Color is straight alpha with coverage folded into A.
	Color     f32.Vec4
	Distance  float32
	Smoothing float32
	Alpha     float32
}

// Shade evaluates the fragment stage and returns the full intermediate
// state. dpdx and dpdy are the screen-space derivatives of LocalPos.
// Discarded reports alpha <= 0.
func Shade(in Varyings, dpdx, dpdy f32.Vec2) (frag Fragment, discarded bool) {
	dist := in.Distance()
	smoothing := Fwidth(in.LocalPos, dpdx, dpdy, in.RectSize, in.CornerRadius, in.ShapeType)
	if !(smoothing > MinSmoothing) {
		smoothing = MinSmoothing
	}
	alpha := Coverage(dist, smoothing)
	frag = Fragment{
		Color:     f32.Vec4{in.Color[0], in.Color[1], in.Color[2], in.Color[3] * alpha},
		Distance:  dist,
		Smoothing: smoothing,
		Alpha:     alpha,
	}
	return frag, alpha <= 0
}

// FragmentStage shades one fragment. It returns the output color and
// false when the fragment is discarded.
func FragmentStage(in Varyings, dpdx, dpdy f32.Vec2) (f32.Vec4, bool) {
	frag, discarded := Shade(in, dpdx, dpdy)
	if discarded {
		return f32.Vec4{}, false
	}
	return frag.Color, true
}
