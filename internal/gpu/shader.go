//go:build !nogpu

package gpu

import (
	_ "embed"
)

//go:embed shaders/shape.wgsl
var shapeShaderSource string

// Entry points of the shape shader.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// ShaderSource returns the WGSL source of the shape shader.
func ShaderSource() string {
	return shapeShaderSource
}
