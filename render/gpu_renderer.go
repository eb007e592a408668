//go:build !nogpu

// Copyright 2026 The noxkit Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/noxkit/sdf"
	"github.com/noxkit/sdf/internal/gpu"
)

// maxGPUTextureSize is the largest offscreen texture the renderer
// allocates; larger targets fall back to the CPU.
const maxGPUTextureSize = 8192

// GPURenderer renders frames with the WGSL shape pipeline on a HAL device
// provided by the host application.
//
// Frames are drawn offscreen with one indexed draw and read back into
// CPU-accessible targets. Hosts that own a render pass can instead record
// the draw into it with RecordFrame.
//
// Example:
//
//	dev, err := gpu.OpenDevice(gputypes.BackendEmpty) // or the host's provider
//	renderer, err := render.NewGPURenderer(dev, render.WithSoftwareFallback())
//	defer renderer.Close()
//
//	target := render.NewPixmapTarget(800, 600)
//	err = renderer.Render(target, frame)
type GPURenderer struct {
	// handle is the GPU device handle from the host application.
	handle DeviceHandle

	device hal.Device
	queue  hal.Queue

	pipeline *gpu.ShapePipeline
	opts     options

	// softwareFallback is used when the GPU path cannot serve a target.
	softwareFallback *SoftwareRenderer
}

// NewGPURenderer creates a GPU renderer on the handle's device.
//
// The handle's Device and Queue must be a hal.Device and hal.Queue, or the
// handle must expose them through HalDevice() any and HalQueue() any.
// The renderer does NOT create its own GPU device.
func NewGPURenderer(handle DeviceHandle, opts ...Option) (*GPURenderer, error) {
	if handle == nil {
		return nil, ErrNilDevice
	}
	device, queue, err := resolveHal(handle)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	var depth *gpu.DepthConfig
	if o.depthFormat != gputypes.TextureFormatUndefined {
		depth = &gpu.DepthConfig{Format: o.depthFormat}
	}
	r := &GPURenderer{
		handle: handle,
		device: device,
		queue:  queue,
		pipeline: gpu.NewShapePipeline(device, queue, gpu.PipelineConfig{
			Format:      gputypes.TextureFormatRGBA8Unorm,
			SampleCount: o.sampleCount,
			Depth:       depth,
		}),
		opts:             o,
		softwareFallback: NewSoftwareRenderer(opts...),
	}
	if o.logger != nil {
		gpu.SetLogger(o.logger)
	}

	info := handle.AdapterInfo()
	o.log().Debug("gpu renderer created",
		"adapter", info.Name,
		"type", info.Type,
		"samples", o.sampleCount,
	)
	return r, nil
}

// resolveHal extracts the HAL device and queue from a provider.
func resolveHal(handle DeviceHandle) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	var devAny, queueAny any = handle.Device(), handle.Queue()
	if hp, ok := handle.(halProvider); ok {
		devAny, queueAny = hp.HalDevice(), hp.HalQueue()
	}
	device, ok := devAny.(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: device is not a hal.Device", ErrNilDevice)
	}
	queue, ok := queueAny.(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: queue is not a hal.Queue", ErrNilDevice)
	}
	return device, queue, nil
}

// SetLogger sets the logger for the renderer and the GPU pipeline. Nil
// makes both follow sdf.Logger again.
func (r *GPURenderer) SetLogger(l *slog.Logger) {
	r.opts.logger = l
	r.softwareFallback.SetLogger(l)
	gpu.SetLogger(l)
}

// Render draws the frame to the target on the GPU and reads the result
// back into the target's pixels.
//
// Targets that are not RGBA8, exceed the texture limit, or lack CPU access
// produce ErrFallbackToCPU; with WithSoftwareFallback they are rendered by
// the CPU renderer instead.
func (r *GPURenderer) Render(target RenderTarget, frame *Frame) error {
	if target == nil {
		return ErrNilTarget
	}
	err := r.renderGPU(target, frame)
	if err != nil && r.opts.softwareFallback && errors.Is(err, ErrFallbackToCPU) {
		r.opts.log().Warn("gpu render fell back to CPU", "reason", err)
		return r.softwareFallback.Render(target, frame)
	}
	return err
}

func (r *GPURenderer) renderGPU(target RenderTarget, frame *Frame) error {
	pixels := target.Pixels()
	if pixels == nil {
		return fmt.Errorf("%w: %w", ErrFallbackToCPU, ErrNoCPUAccess)
	}
	if target.Format() != gputypes.TextureFormatRGBA8Unorm {
		return fmt.Errorf("%w: target format %v", ErrFallbackToCPU, target.Format())
	}
	w, h := target.Width(), target.Height()
	if w <= 0 || h <= 0 {
		return nil
	}
	if w > maxGPUTextureSize || h > maxGPUTextureSize {
		return fmt.Errorf("%w: target %dx%d exceeds %d", ErrFallbackToCPU, w, h, maxGPUTextureSize)
	}
	if frame == nil {
		frame = NewFrame(sdf.Camera{Width: float32(w), Height: float32(h)})
	}

	res, err := r.pipeline.PrepareFrame(frame.Uniforms(), frame.Vertices(), frame.Indices())
	if err != nil {
		return fmt.Errorf("prepare frame: %w", err)
	}
	defer r.pipeline.ReleaseFrame(res)

	clearValue := gputypes.Color{}
	if r.opts.clear != nil {
		clearValue = premultipliedColor(r.opts.clear)
	}
	//nolint:gosec // bounded by maxGPUTextureSize
	out, err := r.pipeline.RenderOffscreen(uint32(w), uint32(h), res, clearValue)
	if err != nil {
		return fmt.Errorf("render offscreen: %w", err)
	}

	stride := target.Stride()
	if r.opts.clear != nil {
		copyRows(pixels, stride, out, w, h)
	} else {
		compositeRows(pixels, stride, out, w, h)
	}

	r.opts.log().Debug("gpu frame rendered",
		"shapes", frame.Len(),
		"width", w,
		"height", h,
	)
	return nil
}

// RecordFrame uploads the frame and records its draw into a render pass
// owned by the host. The returned release function must be called after
// the host has submitted the pass.
func (r *GPURenderer) RecordFrame(rp hal.RenderPassEncoder, frame *Frame) (release func(), err error) {
	if frame == nil || frame.IsEmpty() {
		return func() {}, nil
	}
	res, err := r.pipeline.PrepareFrame(frame.Uniforms(), frame.Vertices(), frame.Indices())
	if err != nil {
		return nil, fmt.Errorf("prepare frame: %w", err)
	}
	if err := r.pipeline.RecordDraws(rp, res); err != nil {
		r.pipeline.ReleaseFrame(res)
		return nil, err
	}
	return func() { r.pipeline.ReleaseFrame(res) }, nil
}

// Flush waits until the GPU is idle.
func (r *GPURenderer) Flush() error {
	return r.device.WaitIdle()
}

// Close releases the pipeline's GPU resources. The device belongs to the
// host and is not destroyed.
func (r *GPURenderer) Close() {
	r.pipeline.Destroy()
}

// Capabilities returns the renderer's capabilities.
func (r *GPURenderer) Capabilities() RendererCapabilities {
	return RendererCapabilities{
		IsGPU:                true,
		SupportsAntialiasing: true,
		SupportsMSAA:         true,
		MaxTextureSize:       maxGPUTextureSize,
	}
}

// DeviceHandle returns the underlying device handle.
// This allows advanced users to access the GPU device for custom rendering.
func (r *GPURenderer) DeviceHandle() DeviceHandle {
	return r.handle
}

// premultipliedColor converts c to the float clear color of a
// premultiplied target.
func premultipliedColor(c color.Color) gputypes.Color {
	cr, cg, cb, ca := c.RGBA()
	return gputypes.Color{
		R: float64(cr) / 0xFFFF,
		G: float64(cg) / 0xFFFF,
		B: float64(cb) / 0xFFFF,
		A: float64(ca) / 0xFFFF,
	}
}

// copyRows copies tightly packed RGBA rows into a strided buffer.
func copyRows(dst []byte, stride int, src []byte, w, h int) {
	row := w * 4
	for y := 0; y < h; y++ {
		copy(dst[y*stride:y*stride+row], src[y*row:(y+1)*row])
	}
}

// compositeRows composites premultiplied RGBA rows over a premultiplied
// strided buffer: dst = src + dst*(1-src.a).
func compositeRows(dst []byte, stride int, src []byte, w, h int) {
	row := w * 4
	for y := 0; y < h; y++ {
		d := dst[y*stride : y*stride+row]
		s := src[y*row : (y+1)*row]
		for i := 0; i < row; i += 4 {
			inv := 255 - uint32(s[i+3])
			d[i] = uint8(min(uint32(s[i])+(uint32(d[i])*inv+127)/255, 255))
			d[i+1] = uint8(min(uint32(s[i+1])+(uint32(d[i+1])*inv+127)/255, 255))
			d[i+2] = uint8(min(uint32(s[i+2])+(uint32(d[i+2])*inv+127)/255, 255))
			d[i+3] = uint8(min(uint32(s[i+3])+(uint32(d[i+3])*inv+127)/255, 255))
		}
	}
}

// Ensure GPURenderer implements Renderer and CapableRenderer.
var (
	_ Renderer        = (*GPURenderer)(nil)
	_ CapableRenderer = (*GPURenderer)(nil)
)
