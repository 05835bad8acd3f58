package gpu

import (
	"fmt"
	"math/rand/v2"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dots/internal/particle"
)

// Simulator owns the particle storage buffer and the compute pipeline that
// advances it. The particle count is fixed at construction.
type Simulator struct {
	device   hal.Device
	queue    hal.Queue
	uniforms *Uniforms
	count    uint32

	particles  hal.Buffer
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
	bindGroup  hal.BindGroup
}

// NewSimulator creates a simulator for count particles. The storage buffer
// is zeroed until the first Reseed.
func NewSimulator(device hal.Device, queue hal.Queue, count uint32, uniforms *Uniforms) (*Simulator, error) {
	if count == 0 {
		return nil, fmt.Errorf("gpu: particle count must be positive")
	}
	s := &Simulator{device: device, queue: queue, uniforms: uniforms, count: count}
	if err := s.createResources(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *Simulator) createResources() error {
	buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "particles",
		Size:  s.bufferSize(),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create particle buffer: %w", err)
	}
	s.particles = buf

	shader, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "compute_positions",
		Source: hal.ShaderSource{WGSL: computePositionsShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile compute_positions shader: %w", err)
	}
	s.shader = shader

	bindLayout, err := s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "compute_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return fmt.Errorf("create compute bind group layout: %w", err)
	}
	s.bindLayout = bindLayout

	pipeLayout, err := s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "compute_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{s.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline layout: %w", err)
	}
	s.pipeLayout = pipeLayout

	pipeline, err := s.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "compute_positions_pipeline", Layout: s.pipeLayout,
		Compute: hal.ComputeState{Module: s.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	s.pipeline = pipeline

	bindGroup, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "compute_bind_group",
		Layout: s.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: s.particles.NativeHandle(), Offset: 0, Size: s.bufferSize()}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: s.uniforms.WindowSize.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: s.uniforms.DeltaTime.NativeHandle(), Offset: 0, Size: uniformSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create compute bind group: %w", err)
	}
	s.bindGroup = bindGroup
	return nil
}

func (s *Simulator) bufferSize() uint64 {
	return uint64(s.count) * particle.Size
}

// Count returns the number of particles.
func (s *Simulator) Count() uint32 { return s.count }

// Buffer returns the particle storage buffer.
func (s *Simulator) Buffer() hal.Buffer { return s.particles }

// Reseed scatters every particle over a w x h viewport with a fresh random
// velocity and uploads the result. It returns the uploaded particles.
func (s *Simulator) Reseed(rng *rand.Rand, w, h uint32) ([]particle.Particle, error) {
	ps := particle.Seed(rng, int(s.count), w, h)
	if err := s.Upload(ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// Upload overwrites the storage buffer with ps.
func (s *Simulator) Upload(ps []particle.Particle) error {
	if len(ps) != int(s.count) {
		return fmt.Errorf("gpu: upload of %d particles into a buffer of %d", len(ps), s.count)
	}
	if err := s.queue.WriteBuffer(s.particles, 0, particle.Encode(ps)); err != nil {
		return fmt.Errorf("upload particles: %w", err)
	}
	return nil
}

// RecordDispatch records one compute pass advancing every particle.
func (s *Simulator) RecordDispatch(encoder hal.CommandEncoder) {
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "compute_positions_pass"})
	pass.SetPipeline(s.pipeline)
	pass.SetBindGroup(0, s.bindGroup, nil)
	pass.Dispatch(particle.Workgroups(int(s.count)), 1, 1)
	pass.End()
}

// Destroy releases all GPU resources.
func (s *Simulator) Destroy() {
	if s.device == nil {
		return
	}
	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	if s.pipeline != nil {
		s.device.DestroyComputePipeline(s.pipeline)
		s.pipeline = nil
	}
	if s.pipeLayout != nil {
		s.device.DestroyPipelineLayout(s.pipeLayout)
		s.pipeLayout = nil
	}
	if s.bindLayout != nil {
		s.device.DestroyBindGroupLayout(s.bindLayout)
		s.bindLayout = nil
	}
	if s.shader != nil {
		s.device.DestroyShaderModule(s.shader)
		s.shader = nil
	}
	if s.particles != nil {
		s.device.DestroyBuffer(s.particles)
		s.particles = nil
	}
}
