//go:build !nogpu

package gpu

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/noxkit/sdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNagaLimitation skips when naga reports an unimplemented feature.
func skipIfNagaLimitation(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("naga limitation: %v", err)
	}
}

func TestShaderSourceEmbedded(t *testing.T) {
	src := ShaderSource()
	require.NotEmpty(t, src)
	for _, want := range []string{
		"fn " + VertexEntryPoint,
		"fn " + FragmentEntryPoint,
		"fwidth(dist)",
		"discard",
		"@location(5) shape_type",
	} {
		assert.Contains(t, src, want)
	}
}

var (
	thresholdRe    = regexp.MustCompile(`if shape_type (<=?|>=?) ([0-9.]+)`)
	minSmoothingRe = regexp.MustCompile(`const MIN_SMOOTHING: f32 = ([0-9.eE+-]+);`)
)

// The WGSL dispatch must split tags exactly where sdf.KindOf does.
func TestShaderDispatchMatchesKindOf(t *testing.T) {
	matches := thresholdRe.FindAllStringSubmatch(ShaderSource(), -1)
	require.Len(t, matches, 2, "shape_distance should have two tag comparisons")

	wantKinds := []sdf.ShapeKind{sdf.KindRect, sdf.KindRoundedRect}
	for i, m := range matches {
		assert.Equal(t, "<", m[1], "comparison %d must be strict less-than", i)
		v, err := strconv.ParseFloat(m[2], 32)
		require.NoError(t, err)
		th := float32(v)

		below := math.Nextafter32(th, float32(math.Inf(-1)))
		assert.Equal(t, wantKinds[i], sdf.KindOf(below), "just below %v", th)
		assert.NotEqual(t, wantKinds[i], sdf.KindOf(th), "at %v", th)
	}
	assert.Equal(t, sdf.KindCircle, sdf.KindOf(float32(math.NaN())))
}

func TestShaderMinSmoothingMatches(t *testing.T) {
	m := minSmoothingRe.FindStringSubmatch(ShaderSource())
	require.NotNil(t, m, "MIN_SMOOTHING constant not found")
	v, err := strconv.ParseFloat(m[1], 32)
	require.NoError(t, err)
	assert.Equal(t, sdf.MinSmoothing, float32(v))
	assert.Contains(t, ShaderSource(), "max(fwidth(dist), MIN_SMOOTHING)")
	assert.Contains(t, ShaderSource(), "if alpha <= 0.0 {")
}

func TestCompileSPIRV(t *testing.T) {
	b, err := CompileSPIRV()
	skipIfNagaLimitation(t, err)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), 4)

	words := SPIRVWords(b)
	assert.Len(t, words, len(b)/4)
	assert.Equal(t, uint32(0x07230203), words[0])
}

func TestEntryPoints(t *testing.T) {
	eps, err := EntryPoints()
	skipIfNagaLimitation(t, err)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"vertex":   VertexEntryPoint,
		"fragment": FragmentEntryPoint,
	}, eps)
}

func TestTranslate(t *testing.T) {
	out, err := Translate(LangWGSL)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, ShaderSource(), out[0].Text)

	out, err = Translate(LangGLSL)
	skipIfNagaLimitation(t, err)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, o := range out {
		assert.NotEmpty(t, o.EntryPoint)
		assert.Contains(t, o.Text, "#version 330")
	}

	out, err = Translate(LangMSL)
	skipIfNagaLimitation(t, err)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Text, "metal")

	_, err = Translate("hlsl")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"wgsl": LangWGSL, "SPIRV": LangSPIRV, "spv": LangSPIRV,
		"glsl": LangGLSL, "msl": LangMSL, " metal ": LangMSL,
	}
	for in, want := range tests {
		got, err := ParseLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLanguage("hlsl")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestPipelineFromSPIRV(t *testing.T) {
	if _, err := CompileSPIRV(); err != nil {
		skipIfNagaLimitation(t, err)
		t.Fatal(err)
	}
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewShapePipeline(device, queue, PipelineConfig{SPIRV: true})
	defer p.Destroy()
	res, err := p.PrepareFrame(sdf.GlobalUniforms{ViewProjection: sdf.Identity()}, testFrame(), nil)
	require.NoError(t, err)
	p.ReleaseFrame(res)
	assert.NotNil(t, p.pipeline)
}
