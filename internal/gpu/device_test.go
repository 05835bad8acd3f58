package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func TestOpenFromInstanceFallsBackToFirstAdapter(t *testing.T) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	d, err := openFromInstance(instance)
	if err != nil {
		instance.Destroy()
		t.Fatalf("openFromInstance: %v", err)
	}
	defer d.Close()

	if d.Device == nil || d.Queue == nil {
		t.Fatal("device or queue is nil")
	}
	if d.Name == "" {
		t.Error("adapter name is empty")
	}
	if d.external {
		t.Error("opened device marked external")
	}
}

type anyHALProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p anyHALProvider) HalDevice() any { return p.device }
func (p anyHALProvider) HalQueue() any  { return p.queue }

// halDeviceHandle stands in for *wgpu.Device.
type halDeviceHandle struct {
	device hal.Device
	queue  hal.Queue
}

func (h *halDeviceHandle) HalDevice() hal.Device { return h.device }
func (h *halDeviceHandle) HalQueue() hal.Queue   { return h.queue }

type contextProvider struct {
	device gpucontext.Device
	format gputypes.TextureFormat
}

func (p contextProvider) Device() gpucontext.Device             { return p.device }
func (p contextProvider) Queue() gpucontext.Queue               { return nil }
func (p contextProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }
func (p contextProvider) Adapter() gpucontext.Adapter           { return nil }
func (p contextProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name       string
		provider   any
		wantErr    bool
		wantFormat gputypes.TextureFormat
	}{
		{"hal_any", anyHALProvider{device, queue}, false, gputypes.TextureFormatUndefined},
		{"hal_any_wrong_types", anyHALProvider{}, true, 0},
		{"device_provider", contextProvider{
			device: &halDeviceHandle{device, queue},
			format: gputypes.TextureFormatRGBA8Unorm,
		}, false, gputypes.TextureFormatRGBA8Unorm},
		{"device_provider_opaque", contextProvider{device: struct{}{}}, true, 0},
		{"device_provider_nil_queue", contextProvider{device: &halDeviceHandle{device: device}}, true, 0},
		{"unrelated", 42, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := FromProvider(tt.provider)
			if tt.wantErr {
				if !errors.Is(err, ErrNoHAL) {
					t.Errorf("err = %v, want ErrNoHAL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromProvider: %v", err)
			}
			if d.Device != device || d.Queue != queue {
				t.Error("borrowed device or queue differs from the provider's")
			}
			if d.SurfaceFormat != tt.wantFormat {
				t.Errorf("SurfaceFormat = %v, want %v", d.SurfaceFormat, tt.wantFormat)
			}
			d.Close()
			if d.Device == nil {
				t.Error("Close released a borrowed device")
			}
		})
	}
}
