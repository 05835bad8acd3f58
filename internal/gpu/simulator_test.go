package gpu

import (
	"math/rand/v2"
	"testing"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dots/internal/particle"
)

type simFixture struct {
	device   *countingDevice
	queue    hal.Queue
	uniforms *Uniforms
	sim      *Simulator
}

func newTestSimulator(t *testing.T, count uint32) *simFixture {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	cd := &countingDevice{Device: device}
	u, err := NewUniforms(cd, queue, 5, 1)
	if err != nil {
		t.Fatalf("NewUniforms: %v", err)
	}
	t.Cleanup(u.Destroy)
	sim, err := NewSimulator(cd, queue, count, u)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	t.Cleanup(sim.Destroy)
	return &simFixture{device: cd, queue: queue, uniforms: u, sim: sim}
}

func TestNewSimulatorRejectsZeroCount(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	u, err := NewUniforms(device, queue, 5, 1)
	if err != nil {
		t.Fatalf("NewUniforms: %v", err)
	}
	defer u.Destroy()

	if _, err := NewSimulator(device, queue, 0, u); err == nil {
		t.Error("expected error for zero particles")
	}
}

func TestSimulatorReseedUploads(t *testing.T) {
	f := newTestSimulator(t, 100)
	cd, sim := f.device, f.sim

	if cd.computePipelines != 1 {
		t.Errorf("compute pipelines = %d, want 1", cd.computePipelines)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	ps, err := sim.Reseed(rng, 800, 600)
	if err != nil {
		t.Fatalf("Reseed: %v", err)
	}
	if len(ps) != 100 {
		t.Fatalf("Reseed returned %d particles, want 100", len(ps))
	}

	got := particle.Decode(readBuffer(t, cd, sim.Buffer(), sim.bufferSize()))
	if len(got) != len(ps) {
		t.Fatalf("buffer holds %d particles, want %d", len(got), len(ps))
	}
	for i := range ps {
		if got[i] != ps[i] {
			t.Fatalf("particle %d = %+v, want %+v", i, got[i], ps[i])
		}
		p := got[i].Position
		if p[0] < 0 || p[0] >= 800 || p[1] < 0 || p[1] >= 600 {
			t.Errorf("particle %d at %v is outside 800x600", i, p)
		}
	}
}

func TestSimulatorUploadLengthMismatch(t *testing.T) {
	f := newTestSimulator(t, 10)
	if err := f.sim.Upload(make([]particle.Particle, 9)); err == nil {
		t.Error("expected error for short upload")
	}
}

func TestSimulatorRecordDispatch(t *testing.T) {
	tests := []struct {
		count uint32
		want  uint32
	}{
		{1, 1},
		{64, 1},
		{65, 2},
		{1000, 16},
	}
	for _, tt := range tests {
		f := newTestSimulator(t, tt.count)
		enc := newRecordingEncoder(t, f.device)
		f.sim.RecordDispatch(enc)

		if len(enc.dispatches) != 1 {
			t.Fatalf("count %d: %d dispatches, want 1", tt.count, len(enc.dispatches))
		}
		if got := enc.dispatches[0]; got != [3]uint32{tt.want, 1, 1} {
			t.Errorf("count %d: dispatch = %v, want [%d 1 1]", tt.count, got, tt.want)
		}
	}
}
