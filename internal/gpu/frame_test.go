package gpu

import (
	"errors"
	"fmt"
	"testing"
)

func TestRenderFailure(t *testing.T) {
	tests := []struct {
		err         error
		want        Failure
		recoverable bool
	}{
		{ErrSurfaceLost, FailureLost, true},
		{fmt.Errorf("acquire: %w", ErrSurfaceOutdated), FailureOutdated, true},
		{ErrSurfaceTimeout, FailureOther, false},
		{errors.New("device lost"), FailureOther, false},
	}
	for _, tt := range tests {
		got := RenderFailure(tt.err)
		if got != tt.want {
			t.Errorf("RenderFailure(%v) = %v, want %v", tt.err, got, tt.want)
		}
		if got.Recoverable() != tt.recoverable {
			t.Errorf("%v.Recoverable() = %v, want %v", got, got.Recoverable(), tt.recoverable)
		}
	}
}

func newTestFrame(t *testing.T, samples uint32) (*simFixture, *Compositor, *OffscreenSurface) {
	t.Helper()
	f := newTestSimulator(t, 10)
	cfg := DefaultCompositorConfig()
	cfg.SampleCount = samples
	comp, err := NewCompositor(f.device, cfg, f.uniforms, f.sim, nil)
	if err != nil {
		t.Fatalf("NewCompositor: %v", err)
	}
	t.Cleanup(comp.Destroy)
	surface := NewOffscreenSurface(f.device, cfg.Format)
	t.Cleanup(surface.Destroy)
	return f, comp, surface
}

func TestFrameEncoderSubmit(t *testing.T) {
	f, comp, surface := newTestFrame(t, 4)
	if err := comp.Resize(320, 240); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := surface.Configure(320, 240); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	view, err := surface.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	fe := NewFrameEncoder(f.device, f.queue)
	for range 3 {
		if err := fe.Submit(f.sim, comp, view); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	// The noop queue completes every submission immediately, so each frame
	// reclaims the one before it.
	if fe.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", fe.Pending())
	}
	if f.device.freed != 2 {
		t.Errorf("freed = %d, want 2", f.device.freed)
	}
	if err := fe.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if fe.Pending() != 0 || f.device.freed != 3 {
		t.Errorf("after Drain: pending %d, freed %d", fe.Pending(), f.device.freed)
	}
}

func TestFrameEncoderKeepsInFlightBuffers(t *testing.T) {
	f, comp, surface := newTestFrame(t, 1)
	if err := comp.Resize(64, 64); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := surface.Configure(64, 64); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	view, _ := surface.Acquire()

	q := &laggingQueue{Queue: f.queue}
	fe := NewFrameEncoder(f.device, q)
	for range 3 {
		if err := fe.Submit(f.sim, comp, view); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if fe.Pending() != 3 || f.device.freed != 0 {
		t.Fatalf("pending %d, freed %d; want 3, 0", fe.Pending(), f.device.freed)
	}

	q.completed = 2
	if err := fe.Submit(f.sim, comp, view); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if fe.Pending() != 2 || f.device.freed != 2 {
		t.Errorf("pending %d, freed %d; want 2, 2", fe.Pending(), f.device.freed)
	}
}

func TestFrameEncoderPassError(t *testing.T) {
	f, comp, _ := newTestFrame(t, 4)
	fe := NewFrameEncoder(f.device, f.queue)
	if err := fe.Submit(f.sim, comp, nil); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Submit before Resize = %v, want ErrNoTarget", err)
	}
	if fe.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", fe.Pending())
	}
}
