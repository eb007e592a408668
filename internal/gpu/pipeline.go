//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/noxkit/sdf"
)

// ErrUnsupportedFormat is returned when offscreen readback is requested for
// a color format other than RGBA8Unorm or BGRA8Unorm.
var ErrUnsupportedFormat = errors.New("gpu: unsupported color format for readback")

// copyRowAlignment is the required BytesPerRow alignment for
// texture-to-buffer copies.
const copyRowAlignment = 256

// DepthConfig describes the depth/stencil state of the host pass that
// RecordDraws records into.
type DepthConfig struct {
	// Format is the depth/stencil attachment format.
	Format gputypes.TextureFormat
	// WriteEnabled enables depth writes for covered fragments.
	WriteEnabled bool
	// Compare is the depth test. Zero means Always.
	Compare gputypes.CompareFunction
}

// PipelineConfig configures a ShapePipeline. The zero value renders into
// RGBA8Unorm without multisampling or depth.
type PipelineConfig struct {
	// Format is the color attachment format.
	Format gputypes.TextureFormat
	// SampleCount is the MSAA sample count (1 or 4).
	SampleCount uint32
	// Depth, when non-nil, enables the depth-compatible pipeline variant
	// used by RecordDraws.
	Depth *DepthConfig
	// SPIRV compiles the shader to SPIR-V with naga up front instead of
	// handing WGSL to the backend.
	SPIRV bool
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.Format == gputypes.TextureFormatUndefined {
		c.Format = gputypes.TextureFormatRGBA8Unorm
	}
	if c.SampleCount == 0 {
		c.SampleCount = 1
	}
	if c.Depth != nil {
		d := *c.Depth
		if d.Format == gputypes.TextureFormatUndefined {
			d.Format = gputypes.TextureFormatDepth24PlusStencil8
		}
		if d.Compare == gputypes.CompareFunctionUndefined {
			d.Compare = gputypes.CompareFunctionAlways
		}
		c.Depth = &d
	}
	return c
}

// ShapePipeline manages GPU resources for drawing SDF shape batches with a
// single vertex+fragment pipeline. Every shape is a bounding quad; the
// fragment shader evaluates the distance function selected by the shape tag
// and discards fully transparent fragments.
//
// The pipeline holds no per-shape state between frames. Per-frame buffers
// live in FrameResources and are released after the frame.
type ShapePipeline struct {
	device hal.Device
	queue  hal.Queue
	cfg    PipelineConfig

	// GPU objects for the render pipeline.
	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	// Variant with depth/stencil state for host passes that carry a depth
	// attachment. Created lazily by RecordDraws.
	pipelineWithDepth hal.RenderPipeline

	// Offscreen color attachment. msaaTex is nil when SampleCount is 1.
	msaaTex     hal.Texture
	msaaView    hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView

	width, height uint32
}

// NewShapePipeline creates a shape pipeline on the given device and queue.
// GPU objects are created on first use.
func NewShapePipeline(device hal.Device, queue hal.Queue, cfg PipelineConfig) *ShapePipeline {
	return &ShapePipeline{
		device: device,
		queue:  queue,
		cfg:    cfg.withDefaults(),
	}
}

// Config returns the effective configuration.
func (p *ShapePipeline) Config() PipelineConfig {
	return p.cfg
}

// Destroy releases all GPU resources held by the pipeline. Safe to call
// multiple times.
func (p *ShapePipeline) Destroy() {
	p.destroyPipeline()
	p.destroyTextures()
}

// Size returns the current offscreen texture dimensions.
func (p *ShapePipeline) Size() (uint32, uint32) {
	return p.width, p.height
}

// FrameResources holds the buffers and bind group of one frame. The vertex
// buffer is written once before the draw and only read afterwards.
type FrameResources struct {
	vertBuf    hal.Buffer
	indexBuf   hal.Buffer
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
	indexCount uint32
}

// IndexCount returns the number of indices drawn for the frame.
func (r *FrameResources) IndexCount() uint32 { return r.indexCount }

// PrepareFrame validates the vertex stream and uploads it together with the
// indices and uniforms. A nil index slice draws the vertices as consecutive
// quads. The returned resources must be released with ReleaseFrame.
func (p *ShapePipeline) PrepareFrame(u sdf.GlobalUniforms, vertices []sdf.Vertex, indices []uint32) (*FrameResources, error) {
	if err := sdf.ValidateVertices(vertices); err != nil {
		return nil, err
	}
	if indices == nil {
		indices = sdf.QuadIndices(len(vertices) / 4)
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("index %d out of range: %d >= %d vertices", i, idx, len(vertices))
		}
	}
	if err := p.ensurePipeline(); err != nil {
		return nil, err
	}

	res := &FrameResources{indexCount: uint32(len(indices))} //nolint:gosec // index count fits uint32
	var err error

	res.uniformBuf, err = p.createAndUploadBuffer("sdf_shape_uniform", u.Bytes(),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	if len(vertices) > 0 {
		res.vertBuf, err = p.createAndUploadBuffer("sdf_shape_verts", sdf.EncodeVertices(nil, vertices),
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			p.ReleaseFrame(res)
			return nil, err
		}
		res.indexBuf, err = p.createAndUploadBuffer("sdf_shape_indices", encodeIndices(indices),
			gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
		if err != nil {
			p.ReleaseFrame(res)
			return nil, err
		}
	}

	res.bindGroup, err = p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sdf_shape_bind",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: res.uniformBuf.NativeHandle(), Offset: 0, Size: sdf.UniformSize,
			}},
		},
	})
	if err != nil {
		p.ReleaseFrame(res)
		return nil, fmt.Errorf("create bind group: %w", err)
	}

	slogger().Debug("sdf frame prepared",
		"vertices", len(vertices),
		"indices", len(indices),
		"vertex_bytes", len(vertices)*sdf.VertexStride,
	)
	return res, nil
}

// ReleaseFrame destroys the per-frame resources.
func (p *ShapePipeline) ReleaseFrame(res *FrameResources) {
	if res == nil {
		return
	}
	if res.bindGroup != nil {
		p.device.DestroyBindGroup(res.bindGroup)
		res.bindGroup = nil
	}
	for _, b := range []*hal.Buffer{&res.indexBuf, &res.vertBuf, &res.uniformBuf} {
		if *b != nil {
			p.device.DestroyBuffer(*b)
			*b = nil
		}
	}
}

// RecordDraws records the frame's single indexed draw into a render pass
// owned by the caller. When the pipeline is configured with Depth the
// depth-compatible variant is used.
func (p *ShapePipeline) RecordDraws(rp hal.RenderPassEncoder, res *FrameResources) error {
	if res == nil || res.indexCount == 0 {
		return nil
	}
	pipeline := p.pipeline
	if p.cfg.Depth != nil {
		if err := p.ensurePipelineWithDepth(); err != nil {
			return err
		}
		pipeline = p.pipelineWithDepth
	}
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, res.bindGroup, nil)
	rp.SetVertexBuffer(0, res.vertBuf, 0)
	rp.SetIndexBuffer(res.indexBuf, gputypes.IndexFormatUint32, 0)
	rp.DrawIndexed(res.indexCount, 1, 0, 0, 0)
	return nil
}

// RenderOffscreen draws the frame into the pipeline's own w x h color
// texture cleared to clear, then copies the result back. The returned
// pixels are tightly packed RGBA8 rows, w*4 bytes each, with alpha
// premultiplied by the source-over blend.
func (p *ShapePipeline) RenderOffscreen(w, h uint32, res *FrameResources, clear gputypes.Color) ([]byte, error) {
	if p.cfg.Format != gputypes.TextureFormatRGBA8Unorm && p.cfg.Format != gputypes.TextureFormatBGRA8Unorm {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, p.cfg.Format)
	}
	if w == 0 || h == 0 {
		return nil, nil
	}
	if err := p.ensureReady(w, h); err != nil {
		return nil, err
	}
	return p.encodeAndReadback(w, h, res, clear)
}

// ensureReady creates textures and the pipeline if needed.
func (p *ShapePipeline) ensureReady(w, h uint32) error {
	if err := p.ensureTextures(w, h); err != nil {
		return fmt.Errorf("ensure textures: %w", err)
	}
	return p.ensurePipeline()
}

func (p *ShapePipeline) ensurePipeline() error {
	if p.pipeline != nil {
		return nil
	}
	if err := p.createPipeline(); err != nil {
		p.destroyPipeline()
		return fmt.Errorf("create pipeline: %w", err)
	}
	return nil
}

// ensureTextures creates or recreates the offscreen textures if the
// requested dimensions differ from the current size.
func (p *ShapePipeline) ensureTextures(w, h uint32) error {
	if p.width == w && p.height == h && p.resolveTex != nil {
		return nil
	}
	p.destroyTextures()

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	if p.cfg.SampleCount > 1 {
		msaaTex, err := p.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "sdf_shape_msaa",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   p.cfg.SampleCount,
			Dimension:     gputypes.TextureDimension2D,
			Format:        p.cfg.Format,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create MSAA texture: %w", err)
		}
		p.msaaTex = msaaTex

		msaaView, err := p.device.CreateTextureView(msaaTex, p.colorViewDescriptor("sdf_shape_msaa_view"))
		if err != nil {
			p.destroyTextures()
			return fmt.Errorf("create MSAA view: %w", err)
		}
		p.msaaView = msaaView
	}

	// Single-sample target (CopySrc for readback).
	resolveTex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sdf_shape_resolve",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        p.cfg.Format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		p.destroyTextures()
		return fmt.Errorf("create resolve texture: %w", err)
	}
	p.resolveTex = resolveTex

	resolveView, err := p.device.CreateTextureView(resolveTex, p.colorViewDescriptor("sdf_shape_resolve_view"))
	if err != nil {
		p.destroyTextures()
		return fmt.Errorf("create resolve view: %w", err)
	}
	p.resolveView = resolveView

	p.width = w
	p.height = h
	slogger().Debug("sdf offscreen textures created", "width", w, "height", h, "samples", p.cfg.SampleCount)
	return nil
}

func (p *ShapePipeline) colorViewDescriptor(label string) *hal.TextureViewDescriptor {
	return &hal.TextureViewDescriptor{
		Label:         label,
		Format:        p.cfg.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	}
}

// destroyTextures releases all texture resources and resets dimensions.
func (p *ShapePipeline) destroyTextures() {
	if p.resolveView != nil {
		p.device.DestroyTextureView(p.resolveView)
		p.resolveView = nil
	}
	if p.resolveTex != nil {
		p.device.DestroyTexture(p.resolveTex)
		p.resolveTex = nil
	}
	if p.msaaView != nil {
		p.device.DestroyTextureView(p.msaaView)
		p.msaaView = nil
	}
	if p.msaaTex != nil {
		p.device.DestroyTexture(p.msaaTex)
		p.msaaTex = nil
	}
	p.width = 0
	p.height = 0
}

// createPipeline compiles the shape shader and creates the standalone
// render pipeline with straight-alpha source-over blending.
func (p *ShapePipeline) createPipeline() error {
	if shapeShaderSource == "" {
		return fmt.Errorf("shape shader source is empty")
	}

	source := hal.ShaderSource{WGSL: shapeShaderSource}
	if p.cfg.SPIRV {
		b, err := CompileSPIRV()
		if err != nil {
			return err
		}
		source = hal.ShaderSource{SPIRV: SPIRVWords(b)}
	}
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sdf_shape_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("compile shape shader: %w", err)
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sdf_shape_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sdf_shape_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := p.device.CreateRenderPipeline(p.pipelineDescriptor("sdf_shape_pipeline", nil))
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = pipeline

	slogger().Debug("sdf shape pipeline created",
		"format", p.cfg.Format,
		"samples", p.cfg.SampleCount,
		"stride", sdf.VertexStride,
	)
	return nil
}

// ensurePipelineWithDepth creates the variant used inside host passes with
// a depth/stencil attachment. The stencil is ignored (Always/Keep, masks 0).
func (p *ShapePipeline) ensurePipelineWithDepth() error {
	if err := p.ensurePipeline(); err != nil {
		return err
	}
	if p.pipelineWithDepth != nil {
		return nil
	}
	d := p.cfg.Depth
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	pipeline, err := p.device.CreateRenderPipeline(p.pipelineDescriptor("sdf_shape_pipeline_with_depth", &hal.DepthStencilState{
		Format:            d.Format,
		DepthWriteEnabled: d.WriteEnabled,
		DepthCompare:      d.Compare,
		StencilFront:      keep,
		StencilBack:       keep,
		StencilReadMask:   0x00,
		StencilWriteMask:  0x00,
	}))
	if err != nil {
		return fmt.Errorf("create shape pipeline with depth: %w", err)
	}
	p.pipelineWithDepth = pipeline
	return nil
}

func (p *ShapePipeline) pipelineDescriptor(label string, depth *hal.DepthStencilState) *hal.RenderPipelineDescriptor {
	blend := gputypes.BlendStateAlpha()
	return &hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: VertexEntryPoint,
			Buffers:    []gputypes.VertexBufferLayout{sdf.VertexLayout()},
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.cfg.Format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		DepthStencil: depth,
		Multisample: gputypes.MultisampleState{
			Count: p.cfg.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	}
}

// destroyPipeline releases all pipeline resources in reverse creation order.
func (p *ShapePipeline) destroyPipeline() {
	if p.device == nil {
		return
	}
	if p.pipelineWithDepth != nil {
		p.device.DestroyRenderPipeline(p.pipelineWithDepth)
		p.pipelineWithDepth = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// encodeAndReadback encodes the render pass, copies the target texture to
// a staging buffer, submits, waits and reads the pixels back.
func (p *ShapePipeline) encodeAndReadback(w, h uint32, res *FrameResources, clear gputypes.Color) ([]byte, error) {
	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sdf_shape_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sdf_shape"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	color := hal.RenderPassColorAttachment{
		View:       p.resolveView,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: clear,
	}
	if p.msaaView != nil {
		color.View = p.msaaView
		color.ResolveTarget = p.resolveView
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "sdf_shape_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{color},
	})
	if res != nil && res.indexCount > 0 {
		rp.SetPipeline(p.pipeline)
		rp.SetBindGroup(0, res.bindGroup, nil)
		rp.SetVertexBuffer(0, res.vertBuf, 0)
		rp.SetIndexBuffer(res.indexBuf, gputypes.IndexFormatUint32, 0)
		rp.DrawIndexed(res.indexCount, 1, 0, 0, 0)
	}
	rp.End()

	// After the pass the texture is in attachment layout; the copy needs
	// transfer-source layout. No-op on backends without layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: p.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := paddedBytesPerRow(w)
	stagingSize := uint64(bytesPerRow) * uint64(h)
	stagingBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sdf_shape_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer p.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(p.resolveTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: p.resolveTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	if _, err := p.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if err := p.device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}

	mapping, err := p.device.MapBuffer(stagingBuf, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	staged := unsafe.Slice((*byte)(mapping.Ptr), stagingSize)
	pixels := unpackRows(staged, w, h, bytesPerRow, p.cfg.Format == gputypes.TextureFormatBGRA8Unorm)
	if err := p.device.UnmapBuffer(stagingBuf); err != nil {
		slogger().Warn("unmap staging buffer", "err", err)
	}
	return pixels, nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (p *ShapePipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := p.queue.WriteBuffer(buf, 0, data); err != nil {
		p.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}

// paddedBytesPerRow rounds a row of w RGBA8 pixels up to copyRowAlignment.
func paddedBytesPerRow(w uint32) uint32 {
	return (w*4 + copyRowAlignment - 1) &^ (copyRowAlignment - 1)
}

// unpackRows strips row padding and, for BGRA sources, swaps to RGBA.
func unpackRows(src []byte, w, h, bytesPerRow uint32, bgra bool) []byte {
	rowBytes := int(w) * 4
	out := make([]byte, rowBytes*int(h))
	for y := 0; y < int(h); y++ {
		row := out[y*rowBytes : (y+1)*rowBytes]
		copy(row, src[y*int(bytesPerRow):])
		if bgra {
			for i := 0; i < rowBytes; i += 4 {
				row[i], row[i+2] = row[i+2], row[i]
			}
		}
	}
	return out
}

func encodeIndices(indices []uint32) []byte {
	buf := make([]byte, 4*len(indices))
	for i, idx := range indices {
		buf[4*i] = byte(idx)
		buf[4*i+1] = byte(idx >> 8)
		buf[4*i+2] = byte(idx >> 16)
		buf[4*i+3] = byte(idx >> 24)
	}
	return buf
}
