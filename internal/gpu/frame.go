package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// inFlight is a submitted command buffer the GPU may still be reading.
type inFlight struct {
	cmdBuf hal.CommandBuffer
	index  uint64
}

// FrameEncoder records and submits one frame per call and frees command
// buffers once the GPU reports them complete.
type FrameEncoder struct {
	device  hal.Device
	queue   hal.Queue
	pending []inFlight
}

// NewFrameEncoder returns an encoder for device and queue.
func NewFrameEncoder(device hal.Device, queue hal.Queue) *FrameEncoder {
	return &FrameEncoder{device: device, queue: queue}
}

// Submit records the compute pass and then the render pass into one
// command buffer and submits it. The render pass resolves into view.
func (f *FrameEncoder) Submit(sim *Simulator, comp *Compositor, view hal.TextureView) error {
	f.reclaim()

	encoder, err := f.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	sim.RecordDispatch(encoder)
	if err := comp.RecordPass(encoder, view); err != nil {
		encoder.DiscardEncoding()
		return err
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}

	index, err := f.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		f.device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("submit: %w", err)
	}
	f.pending = append(f.pending, inFlight{cmdBuf: cmdBuf, index: index})
	return nil
}

// Pending returns the number of command buffers not yet reclaimed.
func (f *FrameEncoder) Pending() int { return len(f.pending) }

// reclaim frees every command buffer the GPU has finished.
func (f *FrameEncoder) reclaim() {
	if len(f.pending) == 0 {
		return
	}
	done := f.queue.PollCompleted()
	kept := f.pending[:0]
	for _, p := range f.pending {
		if p.index <= done {
			f.device.FreeCommandBuffer(p.cmdBuf)
			continue
		}
		kept = append(kept, p)
	}
	f.pending = kept
}

// Drain waits for the GPU to go idle and frees all command buffers.
func (f *FrameEncoder) Drain() error {
	if len(f.pending) == 0 {
		return nil
	}
	err := f.device.WaitIdle()
	for _, p := range f.pending {
		f.device.FreeCommandBuffer(p.cmdBuf)
	}
	f.pending = nil
	if err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	return nil
}
