package sdf

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// Errors returned by boundary validation. The shading stages never fail;
// these catch producer mistakes before a buffer reaches the GPU.
var (
	// ErrInvalidStride is returned for vertex buffers whose length is not a
	// multiple of VertexStride.
	ErrInvalidStride = errors.New("sdf: vertex buffer length is not a multiple of the stride")

	// ErrIncompleteQuad is returned when the vertex count is not a
	// multiple of 4.
	ErrIncompleteQuad = errors.New("sdf: vertex count is not a multiple of 4")

	// ErrInconsistentQuad is returned when the vertices of one quad carry
	// different shape attributes.
	ErrInconsistentQuad = errors.New("sdf: quad vertices disagree on shape attributes")

	// ErrNonFiniteTag is returned for NaN or infinite shape tags.
	ErrNonFiniteTag = errors.New("sdf: shape tag is not finite")

	// ErrUnknownShape is returned by ParseShapeKind.
	ErrUnknownShape = errors.New("sdf: unknown shape kind")
)

// ValidateVertices checks the producer contract of a vertex stream: whole
// quads, identical shape attributes within each quad, and finite tags.
// All violations are reported together.
func ValidateVertices(vs []Vertex) error {
	if len(vs)%4 != 0 {
		return fmt.Errorf("%w: got %d vertices", ErrIncompleteQuad, len(vs))
	}
	var errs []error
	for q := 0; q < len(vs); q += 4 {
		quad := vs[q : q+4]
		for i := 1; i < 4; i++ {
			if !quad[0].sameShape(quad[i]) {
				errs = append(errs, fmt.Errorf("%w: quad %d vertex %d", ErrInconsistentQuad, q/4, i))
				break
			}
		}
		if t := quad[0].ShapeType; math32.IsNaN(t) || math32.IsInf(t, 0) {
			errs = append(errs, fmt.Errorf("%w: quad %d", ErrNonFiniteTag, q/4))
		}
	}
	return errors.Join(errs...)
}
