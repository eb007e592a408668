// Package scenefile loads shape scenes for the command line tools.
//
// A scene is a TOML or YAML document, chosen by file extension:
//
//	[canvas]
//	width = 320
//	height = 240
//	background = "#ffffff"
//
//	[camera]
//	zoom = 1.0
//	pan = [0, 0]
//
//	[[shapes]]
//	kind = "rounded_rect"
//	x = 20
//	y = 20
//	w = 120
//	h = 60
//	radius = 12
//	color = "#3366ffcc"
//
//	[[shapes]]
//	kind = "circle"
//	x = 200   # center
//	y = 120
//	radius = 40
//	color = "#ff0000"
//
// Rectangles use x, y as their top-left corner; circles use them as the
// center.
package scenefile

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/noxkit/sdf"
	"github.com/noxkit/sdf/render"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/math/f32"
	"gopkg.in/yaml.v3"
)

// Default canvas size when a scene leaves it unset.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
)

var (
	// ErrUnknownFormat is returned for file extensions other than .toml,
	// .yaml and .yml.
	ErrUnknownFormat = errors.New("scenefile: unknown format")

	// ErrInvalidScene is wrapped by every validation failure.
	ErrInvalidScene = errors.New("scenefile: invalid scene")
)

// Format is a scene encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "toml"
}

// FormatFor picks the format from a file name's extension.
func FormatFor(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filename)
}

// Scene is a decoded scene file.
type Scene struct {
	Canvas Canvas  `toml:"canvas" yaml:"canvas"`
	Camera Camera  `toml:"camera" yaml:"camera"`
	Shapes []Shape `toml:"shapes" yaml:"shapes"`
}

// Canvas is the output image.
type Canvas struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
	// Background is a hex color; empty leaves the canvas transparent.
	Background string `toml:"background" yaml:"background"`
}

// Camera maps world units to canvas pixels.
type Camera struct {
	Zoom float32   `toml:"zoom" yaml:"zoom"`
	Pan  []float32 `toml:"pan" yaml:"pan"`
}

// Shape is one entry of the shapes list.
type Shape struct {
	Kind   string  `toml:"kind" yaml:"kind"`
	X      float32 `toml:"x" yaml:"x"`
	Y      float32 `toml:"y" yaml:"y"`
	W      float32 `toml:"w" yaml:"w"`
	H      float32 `toml:"h" yaml:"h"`
	Radius float32 `toml:"radius" yaml:"radius"`
	Color  string  `toml:"color" yaml:"color"`
}

// decoder is satisfied by both the TOML and the YAML decoder.
type decoder interface {
	Decode(v any) error
}

func newDecoder(r io.Reader, f Format) decoder {
	if f == FormatYAML {
		d := yaml.NewDecoder(r)
		d.KnownFields(true)
		return d
	}
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	return d
}

// Load reads and validates the scene at filename.
func Load(filename string) (*Scene, error) {
	f, err := FormatFor(filename)
	if err != nil {
		return nil, err
	}
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	s, err := Decode(bufio.NewReader(fp), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// Decode reads a scene in the given format, fills defaults and validates
// it.
func Decode(r io.Reader, f Format) (*Scene, error) {
	s := &Scene{}
	if err := newDecoder(r, f).Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", f, err)
	}
	if s.Canvas.Width == 0 {
		s.Canvas.Width = DefaultWidth
	}
	if s.Canvas.Height == 0 {
		s.Canvas.Height = DefaultHeight
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks sizes, colors and shape kinds. All problems are
// reported together.
func (s *Scene) Validate() error {
	var errs []error
	if s.Canvas.Width <= 0 || s.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: canvas %dx%d", ErrInvalidScene, s.Canvas.Width, s.Canvas.Height))
	}
	if s.Canvas.Background != "" {
		if _, err := ParseColor(s.Canvas.Background); err != nil {
			errs = append(errs, fmt.Errorf("%w: background: %w", ErrInvalidScene, err))
		}
	}
	if s.Camera.Zoom < 0 {
		errs = append(errs, fmt.Errorf("%w: zoom %v", ErrInvalidScene, s.Camera.Zoom))
	}
	if n := len(s.Camera.Pan); n != 0 && n != 2 {
		errs = append(errs, fmt.Errorf("%w: pan needs 2 values, got %d", ErrInvalidScene, n))
	}
	for i, sh := range s.Shapes {
		if _, err := sh.shape(); err != nil {
			errs = append(errs, fmt.Errorf("%w: shape %d: %w", ErrInvalidScene, i, err))
		}
	}
	return errors.Join(errs...)
}

// Background returns the background color, or nil when none is set.
func (s *Scene) Background() color.Color {
	if s.Canvas.Background == "" {
		return nil
	}
	c, err := ParseColor(s.Canvas.Background)
	if err != nil {
		return nil
	}
	return c
}

// SDFCamera returns the camera for the scene's canvas.
func (s *Scene) SDFCamera() sdf.Camera {
	cam := sdf.Camera{
		Width:  float32(s.Canvas.Width),
		Height: float32(s.Canvas.Height),
		Zoom:   s.Camera.Zoom,
	}
	if len(s.Camera.Pan) == 2 {
		cam.Pan = f32.Vec2{s.Camera.Pan[0], s.Camera.Pan[1]}
	}
	return cam
}

// Frame builds a render frame holding the scene's shapes in file order.
func (s *Scene) Frame(opts ...render.FrameOption) (*render.Frame, error) {
	frame := render.NewFrame(s.SDFCamera(), opts...)
	for i, sh := range s.Shapes {
		shape, err := sh.shape()
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		frame.Add(shape)
	}
	return frame, nil
}

func (sh Shape) shape() (sdf.Shape, error) {
	kind, err := sdf.ParseShapeKind(strings.ToLower(sh.Kind))
	if err != nil {
		return sdf.Shape{}, err
	}
	c, err := ParseColor(sh.Color)
	if err != nil {
		return sdf.Shape{}, err
	}
	out := sdf.Shape{Kind: kind, Color: sdf.ColorVec(c)}
	switch kind {
	case sdf.KindCircle:
		if sh.Radius <= 0 {
			return sdf.Shape{}, fmt.Errorf("circle radius %v", sh.Radius)
		}
		out.Origin = f32.Vec2{sh.X - sh.Radius, sh.Y - sh.Radius}
		out.Size = f32.Vec2{2 * sh.Radius, 2 * sh.Radius}
	default:
		if sh.W <= 0 || sh.H <= 0 {
			return sdf.Shape{}, fmt.Errorf("%s size %vx%v", kind, sh.W, sh.H)
		}
		out.Origin = f32.Vec2{sh.X, sh.Y}
		out.Size = f32.Vec2{sh.W, sh.H}
		if kind == sdf.KindRoundedRect {
			out.Radius = sh.Radius
		}
	}
	return out, nil
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa" as a straight-alpha
// color. An empty string is opaque black.
func ParseColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{A: 0xff}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("color %q: missing '#'", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("color %q: want 3, 6 or 8 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
