package sdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/math/f32"
)

func TestGlobalUniformsBytesColumnMajor(t *testing.T) {
	var m f32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[4*r+c] = float32(10*r + c)
		}
	}
	buf := GlobalUniforms{ViewProjection: m}.Bytes()
	if len(buf) != UniformSize {
		t.Fatalf("len(Bytes()) = %d, want %d", len(buf), UniformSize)
	}
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			got := getF32(buf[(4*c+r)*4:])
			if want := float32(10*r + c); got != want {
				t.Errorf("column %d row %d = %v, want %v", c, r, got, want)
			}
		}
	}
}

func TestMulIdentity(t *testing.T) {
	m := Camera{Width: 640, Height: 480, Zoom: 2, Pan: f32.Vec2{3, 4}}.ViewProjection()
	assert.Equal(t, m, Mul(Identity(), m))
	assert.Equal(t, m, Mul(m, Identity()))
}

func TestScreenProjection(t *testing.T) {
	m := ScreenProjection(200, 100)
	tests := []struct {
		p    f32.Vec2
		want f32.Vec4
	}{
		{f32.Vec2{0, 0}, f32.Vec4{-1, 1, 0, 1}},
		{f32.Vec2{200, 100}, f32.Vec4{1, -1, 0, 1}},
		{f32.Vec2{100, 50}, f32.Vec4{0, 0, 0, 1}},
	}
	for _, tt := range tests {
		assertVec4Near(t, tt.want, Transform(m, tt.p))
	}
}

func TestCameraZoomPan(t *testing.T) {
	cam := Camera{Width: 200, Height: 100, Zoom: 2, Pan: f32.Vec2{10, 10}}
	m := cam.ViewProjection()

	// Pan lands on the top-left corner.
	assertVec4Near(t, f32.Vec4{-1, 1, 0, 1}, Transform(m, f32.Vec2{10, 10}))
	// Half the viewport in world units from Pan is the center.
	assertVec4Near(t, f32.Vec4{0, 0, 0, 1}, Transform(m, f32.Vec2{60, 35}))

	assert.Equal(t, float32(0.75), cam.PixelsToWorld(1.5))
	assert.Equal(t, float32(1), Camera{}.Scale())
}

func assertVec4Near(t *testing.T, want, got f32.Vec4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "component %d of %v", i, got)
	}
}
