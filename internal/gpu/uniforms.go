package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// uniformSize is the size of every uniform buffer. Each holds at most a
// vec2<f32>, padded to the 16-byte uniform alignment.
const uniformSize = 16

// InitialDeltaTime seeds the delta time uniform before the first update.
const InitialDeltaTime = 0.016

// Uniforms owns the five per-frame uniform buffers. Each buffer is written
// independently by queue.WriteBuffer, so a consumer sees either the previous
// or the new value, never a mix.
type Uniforms struct {
	device hal.Device
	queue  hal.Queue

	WindowSize     hal.Buffer
	WindowPosition hal.Buffer
	DeltaTime      hal.Buffer
	PointSize      hal.Buffer
	Intensity      hal.Buffer

	size      [2]float32
	position  [2]float32
	deltaTime float32
	pointSize float32
	intensity float32
}

// NewUniforms creates the buffers and writes their seed values.
func NewUniforms(device hal.Device, queue hal.Queue, pointSize, intensity float32) (*Uniforms, error) {
	u := &Uniforms{device: device, queue: queue}
	bufs := []struct {
		dst   *hal.Buffer
		label string
	}{
		{&u.WindowSize, "window_size_uniform"},
		{&u.WindowPosition, "window_position_uniform"},
		{&u.DeltaTime, "delta_time_uniform"},
		{&u.PointSize, "point_size_uniform"},
		{&u.Intensity, "intensity_uniform"},
	}
	for _, b := range bufs {
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: b.label,
			Size:  uniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			u.Destroy()
			return nil, fmt.Errorf("create %s: %w", b.label, err)
		}
		*b.dst = buf
	}

	u.SetWindowSize(0, 0)
	u.SetWindowPosition(0, 0)
	u.SetDeltaTime(InitialDeltaTime)
	u.SetPointSize(pointSize)
	u.SetIntensity(intensity)
	return u, nil
}

// SetWindowSize writes the window size in pixels.
func (u *Uniforms) SetWindowSize(w, h float32) {
	u.size = [2]float32{w, h}
	u.write(u.WindowSize, w, h)
}

// SetWindowPosition writes the window origin on its monitor, bottom-left
// based.
func (u *Uniforms) SetWindowPosition(x, y float32) {
	u.position = [2]float32{x, y}
	u.write(u.WindowPosition, x, y)
}

// SetDeltaTime writes the frame time in seconds.
func (u *Uniforms) SetDeltaTime(dt float32) {
	u.deltaTime = dt
	u.write(u.DeltaTime, dt)
}

// SetPointSize writes the particle half-extent in pixels.
func (u *Uniforms) SetPointSize(s float32) {
	u.pointSize = s
	u.write(u.PointSize, s)
}

// SetIntensity writes the particle opacity scale.
func (u *Uniforms) SetIntensity(v float32) {
	u.intensity = v
	u.write(u.Intensity, v)
}

// Values returns the last written values.
func (u *Uniforms) Values() (size, position [2]float32, deltaTime, pointSize, intensity float32) {
	return u.size, u.position, u.deltaTime, u.pointSize, u.intensity
}

func (u *Uniforms) write(buf hal.Buffer, values ...float32) {
	if buf == nil {
		return
	}
	if err := u.queue.WriteBuffer(buf, 0, packFloats(values...)); err != nil {
		slogger().Warn("gpu: uniform write failed", "error", err)
	}
}

// packFloats encodes values little-endian into a uniform-sized block.
func packFloats(values ...float32) []byte {
	out := make([]byte, uniformSize)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// Destroy releases all buffers.
func (u *Uniforms) Destroy() {
	for _, b := range []*hal.Buffer{&u.WindowSize, &u.WindowPosition, &u.DeltaTime, &u.PointSize, &u.Intensity} {
		if *b != nil {
			u.device.DestroyBuffer(*b)
			*b = nil
		}
	}
}
