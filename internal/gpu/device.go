package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Device bundles the HAL device and queue every GPU component is built on.
type Device struct {
	Device hal.Device
	Queue  hal.Queue
	Name   string

	// SurfaceFormat is the provider's preferred surface format, or
	// TextureFormatUndefined for a device opened by OpenDevice.
	SurfaceFormat gputypes.TextureFormat

	instance hal.Instance
	external bool
}

// OpenDevice creates a Vulkan instance and opens the first discrete or
// integrated adapter, falling back to whatever adapter comes first. It is
// used when no windowing library hands over a device, as in headless runs.
func OpenDevice() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrNoBackend
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	d, err := openFromInstance(instance)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return d, nil
}

// openFromInstance opens a device on one of instance's adapters. The
// returned Device owns instance.
func openFromInstance(instance hal.Instance) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("gpu: device opened", "adapter", selected.Info.Name)
	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Name:     selected.Info.Name,
		instance: instance,
	}, nil
}

// FromProvider borrows the device and queue of an external provider such
// as a gogpu window. Two shapes are accepted: a provider with HalDevice() any
// and HalQueue() any returning hal.Device and hal.Queue, or a
// gpucontext.DeviceProvider whose Device() exposes HalDevice() and
// HalQueue(), as *wgpu.Device does. Close does not destroy a borrowed
// device.
func FromProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	type halDevice interface {
		HalDevice() hal.Device
		HalQueue() hal.Queue
	}

	var (
		device hal.Device
		queue  hal.Queue
		format gputypes.TextureFormat
	)
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		format = dp.SurfaceFormat()
	}
	switch p := provider.(type) {
	case halProvider:
		var ok bool
		if device, ok = p.HalDevice().(hal.Device); !ok {
			return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
		}
		if queue, ok = p.HalQueue().(hal.Queue); !ok {
			return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
		}
	case gpucontext.DeviceProvider:
		hd, ok := p.Device().(halDevice)
		if !ok {
			return nil, fmt.Errorf("%w: device %T", ErrNoHAL, p.Device())
		}
		device, queue = hd.HalDevice(), hd.HalQueue()
	default:
		return nil, ErrNoHAL
	}
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrNoHAL)
	}
	return &Device{
		Device:        device,
		Queue:         queue,
		Name:          "external",
		SurfaceFormat: format,
		external:      true,
	}, nil
}

// Close destroys the device and instance unless they were borrowed.
func (d *Device) Close() {
	if d == nil || d.external {
		return
	}
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.Queue = nil
}
