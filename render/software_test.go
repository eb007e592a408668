// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"log/slog"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/noxkit/sdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gpuOnlyTarget is a target without CPU pixels.
type gpuOnlyTarget struct{}

func (gpuOnlyTarget) Width() int                     { return 16 }
func (gpuOnlyTarget) Height() int                    { return 16 }
func (gpuOnlyTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (gpuOnlyTarget) Pixels() []byte                 { return nil }
func (gpuOnlyTarget) Stride() int                    { return 0 }

func alphaAt(t *PixmapTarget, x, y int) uint8 {
	return t.GetPixel(x, y).A
}

func TestSoftwareRendererCapabilities(t *testing.T) {
	renderer := NewSoftwareRenderer()
	caps := renderer.Capabilities()

	if caps.IsGPU {
		t.Error("SoftwareRenderer should not be GPU")
	}
	if !caps.SupportsAntialiasing {
		t.Error("SoftwareRenderer should support antialiasing")
	}
	if err := renderer.Flush(); err != nil {
		t.Errorf("Flush() error = %v, want nil", err)
	}
}

func TestSoftwareRendererErrors(t *testing.T) {
	renderer := NewSoftwareRenderer()
	frame := NewFrame(sdf.Camera{Width: 16, Height: 16})

	assert.ErrorIs(t, renderer.Render(nil, frame), ErrNilTarget)
	assert.ErrorIs(t, renderer.Render(gpuOnlyTarget{}, frame), ErrNoCPUAccess)
}

func TestSoftwareRendererNilFrameClears(t *testing.T) {
	renderer := NewSoftwareRenderer(WithClearColor(color.RGBA{0, 0, 255, 255}))
	target := NewPixmapTarget(8, 8)

	require.NoError(t, renderer.Render(target, nil))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, target.GetPixel(3, 5))
}

func TestSoftwareRendererSolidRect(t *testing.T) {
	target := NewPixmapTarget(64, 64)
	frame := NewFrame(sdf.Camera{Width: 64, Height: 64})
	frame.Rect(10, 10, 20, 20, color.White)

	require.NoError(t, NewSoftwareRenderer().Render(target, frame))

	// Interior and center are fully covered.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, target.GetPixel(20, 20))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, target.GetPixel(12, 12))
	// Quad corner outside the AA band is discarded.
	assert.Equal(t, color.RGBA{}, target.GetPixel(8, 8))
	// Far outside the quad.
	assert.Equal(t, color.RGBA{}, target.GetPixel(50, 50))

	// Pixels straddling the left edge split one pixel of coverage:
	// d = +0.5 gives 0.15625, d = -0.5 gives 0.84375.
	outside, inside := alphaAt(target, 9, 20), alphaAt(target, 10, 20)
	assert.InDelta(t, 40, outside, 1)
	assert.InDelta(t, 215, inside, 1)
	assert.InDelta(t, 255, int(outside)+int(inside), 1)
}

func TestSoftwareRendererRoundedCorner(t *testing.T) {
	square := NewPixmapTarget(64, 64)
	rounded := NewPixmapTarget(64, 64)

	f := NewFrame(sdf.Camera{Width: 64, Height: 64})
	f.Rect(10, 10, 20, 20, color.White)
	require.NoError(t, NewSoftwareRenderer().Render(square, f))

	f.Reset()
	f.RoundedRect(10, 10, 20, 20, 8, color.White)
	require.NoError(t, NewSoftwareRenderer().Render(rounded, f))

	// The corner pixel is covered by the square but cut by the radius.
	assert.Equal(t, uint8(255), alphaAt(square, 11, 11))
	assert.Less(t, alphaAt(rounded, 11, 11), uint8(255))
	// Edge midpoints are unaffected by the corner radius.
	assert.InDelta(t, alphaAt(square, 10, 20), alphaAt(rounded, 10, 20), 1)
}

func TestSoftwareRendererCircle(t *testing.T) {
	target := NewPixmapTarget(64, 64)
	frame := NewFrame(sdf.Camera{Width: 64, Height: 64})
	frame.Circle(32, 32, 10, color.White)

	require.NoError(t, NewSoftwareRenderer().Render(target, frame))

	assert.Equal(t, uint8(255), alphaAt(target, 32, 32))
	// Bounding-box corner is outside the circle.
	assert.Equal(t, uint8(0), alphaAt(target, 23, 23))
	// The boundary straddles pixel 41/42 on the center row.
	boundary := int(alphaAt(target, 41, 32)) + int(alphaAt(target, 42, 32))
	assert.InDelta(t, 255, boundary, 10)
}

func TestSoftwareRendererStraightAlphaBlend(t *testing.T) {
	renderer := NewSoftwareRenderer(WithClearColor(color.White))
	target := NewPixmapTarget(40, 40)
	frame := NewFrame(sdf.Camera{Width: 40, Height: 40})
	frame.Rect(10, 10, 20, 20, color.NRGBA{255, 0, 0, 128})

	require.NoError(t, renderer.Render(target, frame))

	// src.rgb*a + dst*(1-a) with a = 128/255.
	got := target.GetPixel(15, 15)
	assert.Equal(t, uint8(255), got.R)
	assert.InDelta(t, 127, got.G, 1)
	assert.InDelta(t, 127, got.B, 1)
	assert.Equal(t, uint8(255), got.A)

	// The pixel center (19.5, 20.5) lies on the quad's diagonal; it must
	// be blended exactly once.
	assert.Equal(t, got, target.GetPixel(19, 20))
}

func TestSoftwareRendererSubmissionOrder(t *testing.T) {
	target := NewPixmapTarget(32, 32)
	frame := NewFrame(sdf.Camera{Width: 32, Height: 32})
	frame.Rect(0, 0, 32, 32, color.RGBA{255, 0, 0, 255})
	frame.Circle(16, 16, 6, color.RGBA{0, 0, 255, 255})

	require.NoError(t, NewSoftwareRenderer().Render(target, frame))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, target.GetPixel(16, 16))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, target.GetPixel(2, 2))
}

func TestSoftwareRendererWorkersDeterministic(t *testing.T) {
	build := func() *Frame {
		f := NewFrame(sdf.Camera{Width: 200, Height: 150, Zoom: 1.5, Pan: [2]float32{-5, 3}})
		for i := 0; i < 20; i++ {
			x := float32(i * 9)
			f.Circle(x, float32(i*6), 7, color.NRGBA{uint8(i * 12), 90, 200, 180})
			f.RoundedRect(x, 60, 14, 30, 5, color.NRGBA{30, uint8(i * 12), 60, 220})
		}
		return f
	}
	one := NewPixmapTarget(200, 150)
	many := NewPixmapTarget(200, 150)
	require.NoError(t, NewSoftwareRenderer(WithWorkers(1)).Render(one, build()))
	require.NoError(t, NewSoftwareRenderer(WithWorkers(8)).Render(many, build()))

	assert.True(t, bytes.Equal(one.Pixels(), many.Pixels()))
}

func TestSoftwareRendererZoomInvariantEdges(t *testing.T) {
	// The same on-screen circle built at zoom 1 and at zoom 2 yields the
	// same coverage: the AA band is one pixel wide regardless of zoom.
	render := func(zoom, radius float32) *PixmapTarget {
		target := NewPixmapTarget(64, 64)
		f := NewFrame(sdf.Camera{Width: 64, Height: 64, Zoom: zoom})
		f.Circle(32/zoom, 32/zoom, radius, color.White)
		require.NoError(t, NewSoftwareRenderer().Render(target, f))
		return target
	}
	a := render(1, 20)
	b := render(2, 10)
	for x := 0; x < 64; x++ {
		assert.InDelta(t, alphaAt(a, x, 32), alphaAt(b, x, 32), 2, "x=%d", x)
	}
}

func TestSoftwareRendererCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := NewPixmapTarget(64, 64)
	frame := NewFrame(sdf.Camera{Width: 64, Height: 64})
	frame.Rect(0, 0, 64, 64, color.White)

	err := NewSoftwareRenderer().RenderContext(ctx, target, frame)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uint8(0), alphaAt(target, 10, 10))
}

func TestSoftwareRendererContextCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := NewPixmapTarget(64, 80)
	frame := NewFrame(sdf.Camera{Width: 64, Height: 80})
	frame.Rect(0, 0, 64, 80, color.White)

	// More rows than one band, so several goroutines run and finish.
	require.NoError(t, NewSoftwareRenderer(WithWorkers(2)).RenderContext(ctx, target, frame))
	assert.NoError(t, ctx.Err())
	assert.Equal(t, uint8(255), alphaAt(target, 10, 10))
	assert.Equal(t, uint8(255), alphaAt(target, 10, 70))

	require.NoError(t, NewSoftwareRenderer().RenderContext(context.Background(), NewPixmapTarget(8, 8), frame))
}

func TestSoftwareRendererInvalidFrame(t *testing.T) {
	frame := NewFrame(sdf.Camera{Width: 16, Height: 16})
	frame.Rect(0, 0, 8, 8, color.White)
	frame.vertices[2].CornerRadius = 3

	err := NewSoftwareRenderer().Render(NewPixmapTarget(16, 16), frame)
	assert.ErrorIs(t, err, sdf.ErrInconsistentQuad)
}

func TestSoftwareRendererLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewSoftwareRenderer(WithLogger(l))

	frame := NewFrame(sdf.Camera{Width: 8, Height: 8})
	frame.Circle(4, 4, 2, color.White)
	require.NoError(t, r.Render(NewPixmapTarget(8, 8), frame))
	assert.Contains(t, buf.String(), "cpu frame rasterized")

	buf.Reset()
	sdf.SetLogger(l)
	defer sdf.SetLogger(nil)
	r2 := NewSoftwareRenderer()
	sdf.PropagateLogger(r2)
	require.NoError(t, r2.Render(NewPixmapTarget(8, 8), frame))
	assert.Contains(t, buf.String(), "shapes=1")
}

func TestPixelSpan(t *testing.T) {
	tests := []struct {
		lo, hi    float32
		n         int
		wantFirst int
		wantLast  int
	}{
		{0, 10, 100, 0, 9},
		{0.5, 1.5, 100, 0, 1},
		{0.6, 1.4, 100, 1, 0},
		{-50, 500, 100, 0, 99},
		{2.25, 7.75, 100, 2, 7},
	}
	for _, tt := range tests {
		first, last := pixelSpan(snap(tt.lo), snap(tt.hi), tt.n)
		assert.Equal(t, tt.wantFirst, first, "lo=%v", tt.lo)
		assert.Equal(t, tt.wantLast, last, "hi=%v", tt.hi)
	}
}

func TestIsTopLeftAntisymmetric(t *testing.T) {
	dirs := [][2]int64{{1, 0}, {0, 1}, {3, -2}, {-5, 7}, {4, 4}}
	for _, d := range dirs {
		assert.NotEqual(t, isTopLeft(d[0], d[1]), isTopLeft(-d[0], -d[1]), "dir %v", d)
	}
}

func TestBlendOver(t *testing.T) {
	dst := []byte{0, 0, 0, 0}
	blendOver(dst, [4]float32{1, 1, 1, 1})
	assert.Equal(t, []byte{255, 255, 255, 255}, dst)

	dst = []byte{0, 0, 255, 255}
	blendOver(dst, [4]float32{1, 0, 0, 0.5})
	assert.Equal(t, []byte{128, 0, 128, 255}, dst)
}
