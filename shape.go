package sdf

import "fmt"

// Shape tag values as transmitted in Vertex.ShapeType.
const (
	TagRect        float32 = 0
	TagRoundedRect float32 = 1
	TagCircle      float32 = 2
)

// ShapeKind identifies the distance function a fragment is evaluated with.
type ShapeKind uint8

const (
	// KindRect is an axis-aligned rectangle (rounded box with radius 0).
	KindRect ShapeKind = iota
	// KindRoundedRect is a rectangle with a uniform corner radius.
	KindRoundedRect
	// KindCircle is a circle inscribed in the shorter side of its box.
	KindCircle
)

// String returns the kind name.
func (k ShapeKind) String() string {
	switch k {
	case KindRect:
		return "rect"
	case KindRoundedRect:
		return "rounded_rect"
	case KindCircle:
		return "circle"
	default:
		return fmt.Sprintf("ShapeKind(%d)", uint8(k))
	}
}

// Tag returns the canonical float tag for the kind.
func (k ShapeKind) Tag() float32 {
	switch k {
	case KindRect:
		return TagRect
	case KindRoundedRect:
		return TagRoundedRect
	default:
		return TagCircle
	}
}

// KindOf maps a shape tag to its kind using ordered half-open thresholds.
// The first matching test wins; anything not below 1.5, including NaN,
// selects the circle path.
func KindOf(tag float32) ShapeKind {
	if tag < 0.5 {
		return KindRect
	}
	if tag < 1.5 {
		return KindRoundedRect
	}
	return KindCircle
}

// ParseShapeKind parses the names produced by ShapeKind.String, plus a few
// common aliases.
func ParseShapeKind(s string) (ShapeKind, error) {
	switch s {
	case "rect", "rectangle":
		return KindRect, nil
	case "rounded_rect", "rrect", "rounded":
		return KindRoundedRect, nil
	case "circle":
		return KindCircle, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, s)
}
