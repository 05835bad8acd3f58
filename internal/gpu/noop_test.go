package gpu

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// countingDevice counts resource creation on top of a real device.
type countingDevice struct {
	hal.Device

	textures         int
	renderPipelines  int
	computePipelines int
	bindGroups       int
	freed            int
}

func (d *countingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	d.textures++
	return d.Device.CreateTexture(desc)
}

func (d *countingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.renderPipelines++
	return d.Device.CreateRenderPipeline(desc)
}

func (d *countingDevice) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	d.computePipelines++
	return d.Device.CreateComputePipeline(desc)
}

func (d *countingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.bindGroups++
	return d.Device.CreateBindGroup(desc)
}

func (d *countingDevice) FreeCommandBuffer(cmdBuf hal.CommandBuffer) {
	d.freed++
	d.Device.FreeCommandBuffer(cmdBuf)
}

// laggingQueue reports submissions complete only when told to.
type laggingQueue struct {
	hal.Queue

	submitted uint64
	completed uint64
}

func (q *laggingQueue) Submit(cmdBufs []hal.CommandBuffer) (uint64, error) {
	q.submitted++
	return q.submitted, nil
}

func (q *laggingQueue) PollCompleted() uint64 { return q.completed }

type recordedDraw struct {
	vertices, instances uint32
}

// recordingEncoder keeps the render passes, draws and dispatches recorded
// through it.
type recordingEncoder struct {
	hal.CommandEncoder

	passes     []*hal.RenderPassDescriptor
	draws      []recordedDraw
	pipelines  []hal.RenderPipeline
	dispatches [][3]uint32
}

func newRecordingEncoder(t *testing.T, device hal.Device) *recordingEncoder {
	t.Helper()
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "test_encoder"})
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	if err := enc.BeginEncoding("test"); err != nil {
		t.Fatalf("BeginEncoding: %v", err)
	}
	return &recordingEncoder{CommandEncoder: enc}
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.passes = append(e.passes, desc)
	return &recordingRenderPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), enc: e}
}

func (e *recordingEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	return &recordingComputePass{ComputePassEncoder: e.CommandEncoder.BeginComputePass(desc), enc: e}
}

type recordingRenderPass struct {
	hal.RenderPassEncoder
	enc *recordingEncoder
}

func (p *recordingRenderPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.enc.pipelines = append(p.enc.pipelines, pipeline)
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *recordingRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.enc.draws = append(p.enc.draws, recordedDraw{vertexCount, instanceCount})
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

type recordingComputePass struct {
	hal.ComputePassEncoder
	enc *recordingEncoder
}

func (p *recordingComputePass) Dispatch(x, y, z uint32) {
	p.enc.dispatches = append(p.enc.dispatches, [3]uint32{x, y, z})
	p.ComputePassEncoder.Dispatch(x, y, z)
}

// readBuffer copies size bytes out of buf through a mapping.
func readBuffer(t *testing.T, device hal.Device, buf hal.Buffer, size uint64) []byte {
	t.Helper()
	m, err := device.MapBuffer(buf, 0, size)
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	defer func() { _ = device.UnmapBuffer(buf) }()
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(m.Ptr), size))
	return out
}

// readFloats reads the first n little-endian float32 values of buf.
func readFloats(t *testing.T, device hal.Device, buf hal.Buffer, n int) []float32 {
	t.Helper()
	raw := readBuffer(t, device, buf, uniformSize)
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
