//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoAdapter is returned by OpenDevice when no registered backend exposes
// a usable adapter.
var ErrNoAdapter = errors.New("gpu: no GPU adapter available")

// Device is a headless device opened by OpenDevice. It implements
// gpucontext.DeviceProvider so it can be handed to anything that accepts a
// host-provided device.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  hal.Adapter
	info     gputypes.AdapterInfo
	format   gputypes.TextureFormat
}

var _ gpucontext.DeviceProvider = (*Device)(nil)

// OpenDevice opens a device on the first backend that exposes an adapter.
// When backend is BackendEmpty every registered backend is tried, preferring
// discrete and integrated GPUs over software adapters.
func OpenDevice(backend gputypes.Backend) (*Device, error) {
	var variants []gputypes.Backend
	if backend != gputypes.BackendEmpty {
		variants = []gputypes.Backend{backend}
	} else {
		variants = preferredOrder(hal.AvailableBackends())
	}

	var errs []error
	for _, v := range variants {
		d, err := openBackend(v)
		if err == nil {
			slogger().Info("gpu device opened",
				"backend", v,
				"adapter", d.info.Name,
				"type", d.info.DeviceType,
			)
			return d, nil
		}
		slogger().Debug("gpu backend unavailable", "backend", v, "err", err)
		errs = append(errs, fmt.Errorf("%v: %w", v, err))
	}
	if len(errs) == 0 {
		return nil, ErrNoAdapter
	}
	return nil, errors.Join(append([]error{ErrNoAdapter}, errs...)...)
}

func openBackend(variant gputypes.Backend) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("backend not registered")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no adapters")
	}
	selected := selectAdapter(adapters)
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	info := selected.Info
	info.Backend = variant
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Adapter,
		info:     info,
		format:   gputypes.TextureFormatRGBA8Unorm,
	}, nil
}

// selectAdapter prefers a discrete or integrated GPU and falls back to the
// first adapter.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// preferredOrder sorts hardware backends before the software one.
func preferredOrder(available []gputypes.Backend) []gputypes.Backend {
	rank := func(b gputypes.Backend) int {
		switch b {
		case gputypes.BackendVulkan, gputypes.BackendMetal, gputypes.BackendDX12:
			return 0
		case gputypes.BackendGL:
			return 1
		default:
			return 2
		}
	}
	out := make([]gputypes.Backend, 0, len(available))
	for r := 0; r <= 2; r++ {
		for _, b := range available {
			if rank(b) == r {
				out = append(out, b)
			}
		}
	}
	return out
}

// HalDevice returns the underlying hal.Device.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the underlying hal.Queue.
func (d *Device) HalQueue() any { return d.queue }

// Device implements gpucontext.DeviceProvider.
func (d *Device) Device() gpucontext.Device { return d.device }

// Queue implements gpucontext.DeviceProvider.
func (d *Device) Queue() gpucontext.Queue { return d.queue }

// Adapter implements gpucontext.DeviceProvider.
func (d *Device) Adapter() gpucontext.Adapter { return d.adapter }

// SurfaceFormat returns the color format offscreen targets are created with.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.format }

// AdapterInfo implements gpucontext.DeviceProvider.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{
		Name: d.info.Name,
		Type: adapterType(d.info.DeviceType),
	}
}

// Backend returns the backend the device was opened on.
func (d *Device) Backend() gputypes.Backend { return d.info.Backend }

// Close releases the device and its instance.
func (d *Device) Close() {
	if d.device != nil {
		if err := d.device.WaitIdle(); err != nil {
			slogger().Warn("wait idle before close", "err", err)
		}
		d.device.Destroy()
		d.device = nil
		d.queue = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
