// Package telemetry records the intensity controller's per-frame state to
// CSV and summarizes a run.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Frame is one row of the AGC trace.
type Frame struct {
	Index     int     `csv:"frame"`
	DeltaTime float64 `csv:"dt"`
	Sample    float64 `csv:"sample"`
	HasSample bool    `csv:"has_sample"`
	Intensity float64 `csv:"intensity"`
	Gain      float64 `csv:"gain"`
}

// Trace writes Frames to a CSV stream. A nil *Trace discards everything,
// so callers need no enabled check.
type Trace struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool

	intensities []float64
	gains       []float64
	sampled     int
	clips       int
	lastGain    float64
}

// NewTrace writes to w. If w is also an io.Closer it is closed by Close.
func NewTrace(w io.Writer) *Trace {
	t := &Trace{w: w}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// Create opens a trace file at path. Returns nil if path is empty (tracing
// disabled).
func Create(path string) (*Trace, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	return NewTrace(f), nil
}

// Record appends one frame.
func (t *Trace) Record(f Frame) error {
	if t == nil {
		return nil
	}

	records := []Frame{f}
	if !t.headerWritten {
		if err := gocsv.Marshal(records, t.w); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		t.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, t.w); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}

	if f.HasSample {
		t.sampled++
	}
	if len(t.gains) > 0 && f.Gain < t.lastGain {
		t.clips++
	}
	t.lastGain = f.Gain
	t.intensities = append(t.intensities, f.Intensity)
	t.gains = append(t.gains, f.Gain)
	return nil
}

// Summary describes a traced run.
type Summary struct {
	Frames        int
	Sampled       int // Frames that received an audio peak
	Clips         int // Frames where the gain was reduced
	MeanIntensity float64
	StdIntensity  float64
	MaxIntensity  float64
	MeanGain      float64
	MaxGain       float64
}

// Summary computes statistics over every recorded frame.
func (t *Trace) Summary() Summary {
	if t == nil || len(t.intensities) == 0 {
		return Summary{}
	}
	s := Summary{
		Frames:        len(t.intensities),
		Sampled:       t.sampled,
		Clips:         t.clips,
		MeanIntensity: stat.Mean(t.intensities, nil),
		MaxIntensity:  floats.Max(t.intensities),
		MeanGain:      stat.Mean(t.gains, nil),
		MaxGain:       floats.Max(t.gains),
	}
	if len(t.intensities) > 1 {
		s.StdIntensity = stat.StdDev(t.intensities, nil)
	}
	return s
}

// Close closes the underlying writer if it is closable.
func (t *Trace) Close() error {
	if t == nil || t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
