package sdf

import (
	"errors"
	"image/color"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f32"
)

func TestVertexLayoutMatchesStruct(t *testing.T) {
	var v Vertex
	if got := unsafe.Sizeof(v); got != VertexStride {
		t.Fatalf("unsafe.Sizeof(Vertex) = %d, want %d", got, VertexStride)
	}
	offsets := []uintptr{
		unsafe.Offsetof(v.Position),
		unsafe.Offsetof(v.Color),
		unsafe.Offsetof(v.RectOrigin),
		unsafe.Offsetof(v.RectSize),
		unsafe.Offsetof(v.CornerRadius),
		unsafe.Offsetof(v.ShapeType),
	}

	layout := VertexLayout()
	assert.Equal(t, uint64(VertexStride), layout.ArrayStride)
	require.Len(t, layout.Attributes, len(offsets))

	var total uint64
	for i, a := range layout.Attributes {
		assert.Equal(t, uint32(i), a.ShaderLocation)
		assert.Equal(t, uint64(offsets[i]), a.Offset, "attribute %d", i)
		total += a.Format.Size()
	}
	assert.Equal(t, uint64(VertexStride), total)
}

func TestEncodeDecodeVertices(t *testing.T) {
	vs := AppendQuad(nil, Shape{
		Kind:   KindRoundedRect,
		Origin: f32.Vec2{10, 20},
		Size:   f32.Vec2{30, 40},
		Radius: 5,
		Color:  f32.Vec4{0.25, 0.5, 0.75, 1},
	}, 1.5)

	buf := EncodeVertices(nil, vs)
	require.Len(t, buf, 4*VertexStride)

	// Spot-check the wire format of the first vertex.
	assert.Equal(t, float32(8.5), getF32(buf[OffsetPosition:]))
	assert.Equal(t, float32(0.75), getF32(buf[OffsetColor+8:]))
	assert.Equal(t, float32(40), getF32(buf[OffsetRectSize+4:]))
	assert.Equal(t, float32(5), getF32(buf[OffsetCornerRadius:]))
	assert.Equal(t, TagRoundedRect, getF32(buf[OffsetShapeType:]))

	got, err := DecodeVertices(buf)
	require.NoError(t, err)
	assert.Equal(t, vs, got)
}

func TestDecodeVerticesBadStride(t *testing.T) {
	_, err := DecodeVertices(make([]byte, VertexStride+4))
	assert.ErrorIs(t, err, ErrInvalidStride)
}

func TestValidateVertices(t *testing.T) {
	good := AppendQuad(nil, Shape{Kind: KindRect, Size: f32.Vec2{10, 10}, Color: ColorVec(color.White)}, 1)
	good = AppendQuad(good, Shape{Kind: KindCircle, Origin: f32.Vec2{5, 5}, Size: f32.Vec2{8, 8}}, 1)
	require.NoError(t, ValidateVertices(good))
	require.NoError(t, ValidateVertices(nil))

	t.Run("incomplete", func(t *testing.T) {
		err := ValidateVertices(good[:5])
		assert.ErrorIs(t, err, ErrIncompleteQuad)
	})

	t.Run("inconsistent", func(t *testing.T) {
		bad := append([]Vertex(nil), good...)
		bad[6].CornerRadius = 3
		err := ValidateVertices(bad)
		assert.ErrorIs(t, err, ErrInconsistentQuad)
		assert.Contains(t, err.Error(), "quad 1 vertex 2")
	})

	t.Run("non-finite tag", func(t *testing.T) {
		bad := append([]Vertex(nil), good...)
		for i := 0; i < 4; i++ {
			bad[i].ShapeType = float32(math.Inf(1))
		}
		bad[7].Color[3] = 0.5
		err := ValidateVertices(bad)
		assert.ErrorIs(t, err, ErrNonFiniteTag)
		assert.ErrorIs(t, err, ErrInconsistentQuad)
		assert.False(t, errors.Is(err, ErrIncompleteQuad))
	})
}
