//go:build nogpu

package render

import "log/slog"

// GPURenderer is unavailable in nogpu builds. NewGPURenderer always
// returns ErrFallbackToCPU.
type GPURenderer struct{}

// NewGPURenderer reports that GPU rendering is compiled out.
func NewGPURenderer(handle DeviceHandle, _ ...Option) (*GPURenderer, error) {
	if handle == nil {
		return nil, ErrNilDevice
	}
	return nil, ErrFallbackToCPU
}

// SetLogger is a no-op.
func (r *GPURenderer) SetLogger(*slog.Logger) {}

// Render always returns ErrFallbackToCPU.
func (r *GPURenderer) Render(RenderTarget, *Frame) error { return ErrFallbackToCPU }

// Flush is a no-op.
func (r *GPURenderer) Flush() error { return nil }

// Close is a no-op.
func (r *GPURenderer) Close() {}

// Capabilities reports no GPU support.
func (r *GPURenderer) Capabilities() RendererCapabilities {
	return RendererCapabilities{}
}
