package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/noxkit/sdf"
)

func TestNewPixmapTarget(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"small", 100, 100},
		{"wide", 1000, 100},
		{"tall", 100, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := NewPixmapTarget(tt.width, tt.height)

			if target.Width() != tt.width {
				t.Errorf("Width() = %d, want %d", target.Width(), tt.width)
			}
			if target.Height() != tt.height {
				t.Errorf("Height() = %d, want %d", target.Height(), tt.height)
			}
			if target.Format() != gputypes.TextureFormatRGBA8Unorm {
				t.Errorf("Format() = %v, want RGBA8Unorm", target.Format())
			}
			if target.Pixels() == nil {
				t.Error("Pixels() should not be nil for CPU target")
			}
			if target.Stride() != tt.width*4 {
				t.Errorf("Stride() = %d, want %d", target.Stride(), tt.width*4)
			}
		})
	}
}

func TestPixmapTargetFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	img.SetRGBA(50, 50, color.RGBA{255, 0, 0, 255})

	target := NewPixmapTargetFromImage(img)
	if target.Image() != img {
		t.Error("Image() should return the wrapped image")
	}
	if got := target.GetPixel(50, 50); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("GetPixel(50, 50) = %v, want red", got)
	}
}

func TestPixmapTargetClear(t *testing.T) {
	target := NewPixmapTarget(10, 10)
	target.Clear(color.NRGBA{0, 0, 255, 128})

	// Stored premultiplied.
	want := color.RGBA{0, 0, 128, 128}
	for _, p := range [][2]int{{0, 0}, {5, 5}, {9, 9}} {
		if got := target.GetPixel(p[0], p[1]); got != want {
			t.Errorf("GetPixel(%d, %d) = %v, want %v", p[0], p[1], got, want)
		}
	}
}

func TestPixmapTargetResize(t *testing.T) {
	target := NewPixmapTarget(10, 10)
	target.Resize(20, 5)
	if target.Width() != 20 || target.Height() != 5 {
		t.Errorf("size after Resize = %dx%d, want 20x5", target.Width(), target.Height())
	}
}

func TestPixmapTargetSubImageStride(t *testing.T) {
	// A sub-image has a stride wider than its width.
	parent := image.NewRGBA(image.Rect(0, 0, 32, 32))
	sub := parent.SubImage(image.Rect(8, 8, 24, 24)).(*image.RGBA)
	target := NewPixmapTargetFromImage(sub)

	frame := NewFrame(sdf.Camera{Width: 16, Height: 16})
	frame.Rect(-8, -8, 32, 32, color.White)
	if err := NewSoftwareRenderer().Render(target, frame); err != nil {
		t.Fatal(err)
	}
	if got := parent.RGBAAt(16, 16); got.A != 255 {
		t.Errorf("parent(16, 16) = %v, want opaque", got)
	}
	for _, p := range [][2]int{{4, 4}, {24, 16}, {16, 24}} {
		if got := parent.RGBAAt(p[0], p[1]); got.A != 0 {
			t.Errorf("parent(%d, %d) = %v, want untouched", p[0], p[1], got)
		}
	}
}
