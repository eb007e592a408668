package sdf

import (
	"golang.org/x/image/math/f32"
)

// UniformSize is the byte size of the encoded GlobalUniforms.
// Layout: view_proj (mat4x4<f32>) = 64 bytes.
const UniformSize = 64

// GlobalUniforms holds the per-frame values shared by every vertex.
type GlobalUniforms struct {
	// ViewProjection maps world space to clip space. Row-major, as f32.Mat4.
	ViewProjection f32.Mat4
}

// Bytes encodes the uniforms for a WGSL uniform buffer. WGSL matrices are
// column-major, so the row-major ViewProjection is transposed on the way out.
func (u GlobalUniforms) Bytes() []byte {
	buf := make([]byte, UniformSize)
	m := &u.ViewProjection
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			putF32(buf[(4*c+r)*4:], m[4*r+c])
		}
	}
	return buf
}

// Identity returns the 4x4 identity matrix.
func Identity() f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns a*b.
func Mul(a, b f32.Mat4) f32.Mat4 {
	var m f32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a[4*r+k] * b[4*k+c]
			}
			m[4*r+c] = s
		}
	}
	return m
}

// Transform returns m*[p, 0, 1].
func Transform(m f32.Mat4, p f32.Vec2) f32.Vec4 {
	var out f32.Vec4
	for r := 0; r < 4; r++ {
		out[r] = m[4*r]*p[0] + m[4*r+1]*p[1] + m[4*r+3]
	}
	return out
}

// ScreenProjection maps a width x height pixel space with the origin at the
// top-left and y pointing down onto clip space.
func ScreenProjection(width, height float32) f32.Mat4 {
	return f32.Mat4{
		2 / width, 0, 0, -1,
		0, -2 / height, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Camera is a minimal 2D camera: world = screen/Zoom + Pan.
type Camera struct {
	// Width and Height are the viewport size in pixels.
	Width, Height float32
	// Zoom is the uniform scale from world units to pixels. Zero means 1.
	Zoom float32
	// Pan is the world-space point shown at the viewport's top-left.
	Pan f32.Vec2
}

// Scale returns the effective zoom.
func (c Camera) Scale() float32 {
	if c.Zoom == 0 {
		return 1
	}
	return c.Zoom
}

// View returns the world to pixel transform.
func (c Camera) View() f32.Mat4 {
	z := c.Scale()
	return f32.Mat4{
		z, 0, 0, -z * c.Pan[0],
		0, z, 0, -z * c.Pan[1],
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// ViewProjection returns the world to clip transform.
func (c Camera) ViewProjection() f32.Mat4 {
	return Mul(ScreenProjection(c.Width, c.Height), c.View())
}

// Uniforms returns the GlobalUniforms for the camera.
func (c Camera) Uniforms() GlobalUniforms {
	return GlobalUniforms{ViewProjection: c.ViewProjection()}
}

// PixelsToWorld converts a length in pixels to world units.
func (c Camera) PixelsToWorld(px float32) float32 {
	return px / c.Scale()
}
