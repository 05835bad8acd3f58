package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

var _ Surface = (*OffscreenSurface)(nil)

func TestOffscreenSurfaceLifecycle(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()
	cd := &countingDevice{Device: device}

	s := NewOffscreenSurface(cd, gputypes.TextureFormatBGRA8Unorm)
	defer s.Destroy()

	if s.Configured() {
		t.Fatal("new surface reports configured")
	}
	if _, err := s.Acquire(); !errors.Is(err, ErrSurfaceOutdated) {
		t.Errorf("Acquire before Configure = %v, want ErrSurfaceOutdated", err)
	}
	if err := s.Configure(0, 10); err == nil {
		t.Error("Configure(0, 10) succeeded")
	}

	if err := s.Configure(320, 200); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := s.Configure(320, 200); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if cd.textures != 1 {
		t.Errorf("textures created = %d, want 1", cd.textures)
	}
	if w, h := s.Size(); w != 320 || h != 200 {
		t.Errorf("Size() = (%d, %d), want (320, 200)", w, h)
	}
	if s.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format() = %v", s.Format())
	}

	if err := s.Configure(640, 400); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if cd.textures != 2 {
		t.Errorf("textures created = %d, want 2", cd.textures)
	}

	view, err := s.Acquire()
	if err != nil || view == nil {
		t.Fatalf("Acquire = (%v, %v)", view, err)
	}
	for range 3 {
		if err := s.Present(); err != nil {
			t.Fatalf("Present: %v", err)
		}
	}
	if s.Presented() != 3 {
		t.Errorf("Presented() = %d, want 3", s.Presented())
	}

	s.Destroy()
	if s.Configured() || s.Texture() != nil {
		t.Error("surface still configured after Destroy")
	}
}
