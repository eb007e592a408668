//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	"github.com/gogpu/naga/spirv"
)

// Language is a shader target language for Translate.
type Language string

const (
	LangWGSL  Language = "wgsl"
	LangSPIRV Language = "spirv"
	LangGLSL  Language = "glsl"
	LangMSL   Language = "msl"
)

// ErrUnknownLanguage is returned by ParseLanguage and Translate.
var ErrUnknownLanguage = errors.New("gpu: unknown shader language")

// ParseLanguage parses a language name (case-insensitive). "spv" is
// accepted for SPIR-V and "metal" for MSL.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wgsl":
		return LangWGSL, nil
	case "spirv", "spv":
		return LangSPIRV, nil
	case "glsl":
		return LangGLSL, nil
	case "msl", "metal":
		return LangMSL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

// Output is one translated shader unit. GLSL yields one unit per entry
// point; the other languages yield a single unit covering both stages.
type Output struct {
	// EntryPoint is set for per-stage outputs.
	EntryPoint string
	// Text holds textual output (WGSL, GLSL, MSL).
	Text string
	// Binary holds SPIR-V bytes.
	Binary []byte
}

// Translate cross-compiles the shape shader with naga.
func Translate(lang Language) ([]Output, error) {
	switch lang {
	case LangWGSL:
		return []Output{{Text: shapeShaderSource}}, nil
	case LangSPIRV:
		b, err := CompileSPIRV()
		if err != nil {
			return nil, err
		}
		return []Output{{Binary: b}}, nil
	case LangGLSL:
		module, err := lowerShader()
		if err != nil {
			return nil, err
		}
		var outs []Output
		for _, ep := range module.EntryPoints {
			src, _, err := glsl.Compile(module, glsl.Options{
				LangVersion: glsl.Version330,
				EntryPoint:  ep.Name,
			})
			if err != nil {
				return nil, fmt.Errorf("glsl %s: %w", ep.Name, err)
			}
			outs = append(outs, Output{EntryPoint: ep.Name, Text: src})
		}
		return outs, nil
	case LangMSL:
		module, err := lowerShader()
		if err != nil {
			return nil, err
		}
		src, _, err := msl.Compile(module, msl.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("msl: %w", err)
		}
		return []Output{{Text: src}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
}

// CompileSPIRV compiles the shape shader to SPIR-V 1.3 with validation.
func CompileSPIRV() ([]byte, error) {
	b, err := naga.CompileWithOptions(shapeShaderSource, naga.CompileOptions{
		SPIRVVersion: spirv.Version1_3,
		Validate:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("compile shape shader: %w", err)
	}
	return b, nil
}

// SPIRVWords converts little-endian SPIR-V bytes to 32-bit words as
// expected by hal.ShaderSource.
func SPIRVWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

// EntryPoints lists the shader's entry points by stage name.
func EntryPoints() (map[string]string, error) {
	module, err := lowerShader()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(module.EntryPoints))
	for _, ep := range module.EntryPoints {
		switch ep.Stage {
		case ir.StageVertex:
			out["vertex"] = ep.Name
		case ir.StageFragment:
			out["fragment"] = ep.Name
		}
	}
	return out, nil
}

func lowerShader() (*ir.Module, error) {
	ast, err := naga.Parse(shapeShaderSource)
	if err != nil {
		return nil, fmt.Errorf("parse shape shader: %w", err)
	}
	module, err := naga.LowerWithSource(ast, shapeShaderSource)
	if err != nil {
		return nil, fmt.Errorf("lower shape shader: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validate shape shader: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validate shape shader: %w", verrs[0])
	}
	return module, nil
}
