package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoTarget is returned by RecordPass before the first Resize.
var ErrNoTarget = errors.New("gpu: compositor has no render target")

// quadVertices is the vertex count of the triangle-strip quad every draw
// uses.
const quadVertices = 4

// CompositorConfig describes the render target.
type CompositorConfig struct {
	// Format is the surface texture format.
	Format gputypes.TextureFormat

	// SampleCount is 1 or 4. With 4 the pass renders into a multisampled
	// texture resolved into the surface view.
	SampleCount uint32

	// ClearColor fills the target before the background is drawn.
	ClearColor gputypes.Color
}

// DefaultCompositorConfig returns BGRA8 with 4x MSAA cleared to opaque black.
func DefaultCompositorConfig() CompositorConfig {
	return CompositorConfig{
		Format:      gputypes.TextureFormatBGRA8Unorm,
		SampleCount: 4,
		ClearColor:  gputypes.Color{R: 0, G: 0, B: 0, A: 1},
	}
}

// Compositor draws the optional background and the particles in a single
// render pass.
type Compositor struct {
	device   hal.Device
	cfg      CompositorConfig
	uniforms *Uniforms
	sim      *Simulator
	bg       *BackgroundImage

	particleShader     hal.ShaderModule
	particleBindLayout hal.BindGroupLayout
	particlePipeLayout hal.PipelineLayout
	particlePipeline   hal.RenderPipeline
	particleBindGroup  hal.BindGroup

	bgShader     hal.ShaderModule
	bgBindLayout hal.BindGroupLayout
	bgPipeLayout hal.PipelineLayout
	bgPipeline   hal.RenderPipeline
	bgBindGroup  hal.BindGroup

	target msaaTarget
}

// NewCompositor builds the particle pipeline and, when bg is not nil, the
// background pipeline. The compositor does not own bg.
func NewCompositor(device hal.Device, cfg CompositorConfig, uniforms *Uniforms, sim *Simulator, bg *BackgroundImage) (*Compositor, error) {
	if cfg.SampleCount == 0 {
		cfg.SampleCount = 1
	}
	if cfg.SampleCount != 1 && cfg.SampleCount != 4 {
		return nil, fmt.Errorf("gpu: unsupported sample count %d", cfg.SampleCount)
	}
	c := &Compositor{device: device, cfg: cfg, uniforms: uniforms, sim: sim, bg: bg}
	if err := c.createParticlePipeline(); err != nil {
		c.Destroy()
		return nil, err
	}
	if bg != nil {
		if err := c.createBackgroundPipeline(); err != nil {
			c.Destroy()
			return nil, err
		}
	}
	return c, nil
}

func (c *Compositor) multisample() gputypes.MultisampleState {
	return gputypes.MultisampleState{Count: c.cfg.SampleCount, Mask: 0xFFFFFFFF}
}

func (c *Compositor) createParticlePipeline() error {
	shader, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "particles",
		Source: hal.ShaderSource{WGSL: particlesShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile particles shader: %w", err)
	}
	c.particleShader = shader

	bindLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "render_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 2, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 3, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return fmt.Errorf("create render bind group layout: %w", err)
	}
	c.particleBindLayout = bindLayout

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "render_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{c.particleBindLayout},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline layout: %w", err)
	}
	c.particlePipeLayout = pipeLayout

	alphaBlend := gputypes.BlendStateAlpha()
	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "particles_pipeline",
		Layout: c.particlePipeLayout,
		Vertex: hal.VertexState{
			Module:     c.particleShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     c.particleShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    c.cfg.Format,
					Blend:     &alphaBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleStrip,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: c.multisample(),
	})
	if err != nil {
		return fmt.Errorf("create particles pipeline: %w", err)
	}
	c.particlePipeline = pipeline

	u := c.uniforms
	bindGroup, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "render_bind_group",
		Layout: c.particleBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: c.sim.Buffer().NativeHandle(), Offset: 0, Size: c.sim.bufferSize()}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: u.WindowSize.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: u.PointSize.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: u.Intensity.NativeHandle(), Offset: 0, Size: uniformSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create render bind group: %w", err)
	}
	c.particleBindGroup = bindGroup
	return nil
}

func (c *Compositor) createBackgroundPipeline() error {
	shader, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "background",
		Source: hal.ShaderSource{WGSL: backgroundShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile background shader: %w", err)
	}
	c.bgShader = shader

	bindLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "background_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageFragment, Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}},
			{Binding: 1, Visibility: gputypes.ShaderStageFragment, Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
			{Binding: 2, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 3, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return fmt.Errorf("create background bind group layout: %w", err)
	}
	c.bgBindLayout = bindLayout

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "background_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{c.bgBindLayout},
	})
	if err != nil {
		return fmt.Errorf("create background pipeline layout: %w", err)
	}
	c.bgPipeLayout = pipeLayout

	replace := gputypes.BlendStateReplace()
	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "background_pipeline",
		Layout: c.bgPipeLayout,
		Vertex: hal.VertexState{
			Module:     c.bgShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     c.bgShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    c.cfg.Format,
					Blend:     &replace,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleStrip,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: c.multisample(),
	})
	if err != nil {
		return fmt.Errorf("create background pipeline: %w", err)
	}
	c.bgPipeline = pipeline

	u := c.uniforms
	bindGroup, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "background_bind_group",
		Layout: c.bgBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: c.bg.view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: c.bg.sampler.NativeHandle()}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: u.WindowSize.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: u.WindowPosition.NativeHandle(), Offset: 0, Size: uniformSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create background bind group: %w", err)
	}
	c.bgBindGroup = bindGroup
	return nil
}

// HasBackground reports whether a background layer is drawn.
func (c *Compositor) HasBackground() bool { return c.bgPipeline != nil }

// Config returns the render target configuration.
func (c *Compositor) Config() CompositorConfig { return c.cfg }

// Resize prepares the render target for a w x h surface. Only the
// multisampled color texture depends on the size.
func (c *Compositor) Resize(w, h uint32) error {
	if w == 0 || h == 0 {
		return nil
	}
	if c.cfg.SampleCount == 1 {
		c.target.width, c.target.height = w, h
		return nil
	}
	return c.target.ensure(c.device, w, h, c.cfg.Format, c.cfg.SampleCount)
}

// Size returns the size of the render target, or zeros before the first
// Resize.
func (c *Compositor) Size() (w, h uint32) { return c.target.width, c.target.height }

// RecordPass records the render pass into encoder, clearing the target and
// resolving into view.
func (c *Compositor) RecordPass(encoder hal.CommandEncoder, view hal.TextureView) error {
	if c.target.width == 0 || c.target.height == 0 {
		return ErrNoTarget
	}
	attachment := hal.RenderPassColorAttachment{
		View:       view,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: c.cfg.ClearColor,
	}
	if c.cfg.SampleCount > 1 {
		attachment.View = c.target.view
		attachment.ResolveTarget = view
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "compositor_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})
	if c.bgPipeline != nil {
		rp.SetPipeline(c.bgPipeline)
		rp.SetBindGroup(0, c.bgBindGroup, nil)
		rp.Draw(quadVertices, 1, 0, 0)
	}
	rp.SetPipeline(c.particlePipeline)
	rp.SetBindGroup(0, c.particleBindGroup, nil)
	rp.Draw(quadVertices, c.sim.Count(), 0, 0)
	rp.End()
	return nil
}

// Destroy releases the pipelines, bind groups and render target.
func (c *Compositor) Destroy() {
	if c.device == nil {
		return
	}
	c.target.destroy(c.device)
	c.destroyLayer(&c.bgBindGroup, &c.bgPipeline, &c.bgPipeLayout, &c.bgBindLayout, &c.bgShader)
	c.destroyLayer(&c.particleBindGroup, &c.particlePipeline, &c.particlePipeLayout, &c.particleBindLayout, &c.particleShader)
}

func (c *Compositor) destroyLayer(bg *hal.BindGroup, p *hal.RenderPipeline, pl *hal.PipelineLayout, bl *hal.BindGroupLayout, sh *hal.ShaderModule) {
	if *bg != nil {
		c.device.DestroyBindGroup(*bg)
		*bg = nil
	}
	if *p != nil {
		c.device.DestroyRenderPipeline(*p)
		*p = nil
	}
	if *pl != nil {
		c.device.DestroyPipelineLayout(*pl)
		*pl = nil
	}
	if *bl != nil {
		c.device.DestroyBindGroupLayout(*bl)
		*bl = nil
	}
	if *sh != nil {
		c.device.DestroyShaderModule(*sh)
		*sh = nil
	}
}
