package volume

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// DefaultPeakRate is the monitor stream sample rate. At 144 Hz every frame
// of a typical display sees at least one fresh peak.
const DefaultPeakRate = 144

// Pulse monitors the default PulseAudio sink and reports the latest peak.
//
// The sound server delivers samples on the client's own goroutine; the
// latest peak is handed to the render thread through atomics so Poll never
// blocks.
type Pulse struct {
	client *pulse.Client
	stream *pulse.RecordStream

	latest atomic.Uint32 // math.Float32bits of the last peak
	fresh  atomic.Bool
}

var _ Provider = (*Pulse)(nil)

// OpenPulse connects to the sound server and starts recording the monitor
// source of the default sink in mono.
func OpenPulse(opts Options) (*Pulse, error) {
	name := opts.ApplicationName
	if name == "" {
		name = "dots"
	}
	rate := opts.PeakRate
	if rate <= 0 {
		rate = DefaultPeakRate
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName(name))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}

	sink, err := client.DefaultSink()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: default sink: %v", ErrUnavailable, err)
	}

	p := &Pulse{client: client}
	stream, err := client.NewRecord(
		pulse.Float32Writer(p.write),
		pulse.RecordMonitor(sink),
		pulse.RecordMono,
		pulse.RecordSampleRate(rate),
		pulse.RecordRawOption(peakDetect),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: monitor stream: %v", ErrUnavailable, err)
	}
	p.stream = stream
	stream.Start()
	return p, nil
}

// peakDetect asks the server to deliver one peak value per sample period
// instead of the raw waveform.
func peakDetect(s *proto.CreateRecordStream) {
	s.PeakDetect = true
	s.AdjustLatency = true
}

// write receives a chunk of samples and keeps its largest magnitude.
func (p *Pulse) write(samples []float32) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	var peak float32
	for _, s := range samples {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}
	p.observe(peak)
	return len(samples), nil
}

func (p *Pulse) observe(peak float32) {
	p.latest.Store(math.Float32bits(peak))
	p.fresh.Store(true)
}

// Poll returns the latest peak once per delivered sample.
func (p *Pulse) Poll() (float32, bool) {
	if !p.fresh.Swap(false) {
		return 0, false
	}
	return math.Float32frombits(p.latest.Load()), true
}

// Close stops the monitor stream and disconnects.
func (p *Pulse) Close() error {
	if p.stream != nil {
		p.stream.Stop()
		p.stream.Close()
		p.stream = nil
	}
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	return nil
}
