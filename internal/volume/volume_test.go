package volume

import (
	"errors"
	"testing"

	"github.com/jfreymuth/pulse/proto"
)

func TestConstantAlwaysReports(t *testing.T) {
	c := Constant{Value: 0.5}
	for i := 0; i < 3; i++ {
		v, ok := c.Poll()
		if !ok || v != 0.5 {
			t.Fatalf("Poll() = (%v, %v), want (0.5, true)", v, ok)
		}
	}
}

func withOpener(t *testing.T, fn func(Options) (Provider, error)) {
	t.Helper()
	orig := opener
	opener = fn
	t.Cleanup(func() { opener = orig })
}

func TestOpenFallsBackOnFailure(t *testing.T) {
	withOpener(t, func(Options) (Provider, error) {
		return nil, ErrUnavailable
	})
	p := Open(Options{Live: true, Constant: 0.3}, nil)
	c, ok := p.(Constant)
	if !ok {
		t.Fatalf("Open returned %T, want Constant", p)
	}
	if c.Value != 0.3 {
		t.Errorf("constant = %v, want 0.3", c.Value)
	}
}

func TestOpenDisabledSkipsLive(t *testing.T) {
	called := false
	withOpener(t, func(Options) (Provider, error) {
		called = true
		return nil, errors.New("unexpected")
	})
	p := Open(Options{Live: false, Constant: 0.7}, nil)
	if called {
		t.Error("live opener called while disabled")
	}
	if _, ok := p.(Constant); !ok {
		t.Fatalf("Open returned %T, want Constant", p)
	}
}

type fakeLive struct{ closed bool }

func (f *fakeLive) Poll() (float32, bool) { return 0.1, true }
func (f *fakeLive) Close() error          { f.closed = true; return nil }

func TestOpenReturnsLive(t *testing.T) {
	live := &fakeLive{}
	withOpener(t, func(Options) (Provider, error) { return live, nil })
	p := Open(Options{Live: true, Constant: 0.3}, nil)
	if p != Provider(live) {
		t.Fatalf("Open returned %T, want live provider", p)
	}
	if err := Close(p); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !live.closed {
		t.Error("live provider not closed")
	}
}

func TestCloseConstantIsNoop(t *testing.T) {
	if err := Close(Constant{Value: 1}); err != nil {
		t.Errorf("Close(Constant) = %v", err)
	}
}

func TestPulsePollReportsEachSampleOnce(t *testing.T) {
	p := &Pulse{}
	if _, ok := p.Poll(); ok {
		t.Fatal("Poll reported a peak before any sample")
	}

	if n, err := p.write([]float32{0.1, -0.9, 0.25}); n != 3 || err != nil {
		t.Fatalf("write = (%d, %v), want (3, nil)", n, err)
	}
	v, ok := p.Poll()
	if !ok || v != 0.9 {
		t.Fatalf("Poll() = (%v, %v), want (0.9, true)", v, ok)
	}
	if _, ok := p.Poll(); ok {
		t.Error("Poll reported the same sample twice")
	}

	p.write([]float32{-1.5})
	v, ok = p.Poll()
	if !ok || v != 1.5 {
		t.Errorf("Poll() = (%v, %v), want (1.5, true)", v, ok)
	}
}

func TestPulseWriteKeepsChunkPeak(t *testing.T) {
	tests := []struct {
		name  string
		chunk []float32
		want  float32
	}{
		{"peak_in_middle", []float32{0.9, -0.95, 0.02}, 0.95},
		{"peak_first", []float32{0.7, 0.1, 0.0}, 0.7},
		{"negative_last", []float32{0.1, 0.2, -0.6}, 0.6},
		{"silence", []float32{0, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pulse{}
			p.write(tt.chunk)
			v, ok := p.Poll()
			if !ok || v != tt.want {
				t.Errorf("Poll() = (%v, %v), want (%v, true)", v, ok, tt.want)
			}
		})
	}
}

func TestPeakDetectOption(t *testing.T) {
	var req proto.CreateRecordStream
	peakDetect(&req)
	if !req.PeakDetect || !req.AdjustLatency {
		t.Errorf("stream request = %+v, want PeakDetect and AdjustLatency", req)
	}
}

func TestPulseWriteEmpty(t *testing.T) {
	p := &Pulse{}
	if n, err := p.write(nil); n != 0 || err != nil {
		t.Fatalf("write(nil) = (%d, %v)", n, err)
	}
	if _, ok := p.Poll(); ok {
		t.Error("empty chunk produced a peak")
	}
}

func TestPulseCloseWithoutConnection(t *testing.T) {
	p := &Pulse{}
	if err := p.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
