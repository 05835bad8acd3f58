// Package gpu holds the GPU side of the particle visualizer.
//
// Everything is built on the gogpu/wgpu HAL (zero CGO), on a device either
// opened directly through the Vulkan backend or borrowed from a window
// provider.
//
// # Frame Layout
//
// One command buffer is submitted per frame:
//
//	compute pass (Simulator)  ->  render pass (Compositor)  ->  present
//
// The compute pass advances the particle storage buffer in place. The render
// pass clears the target, draws the optional background quad and then one
// instanced quad per particle reading the same buffer. Both passes read the
// per-frame values from Uniforms.
//
// # Resources
//
//   - Uniforms: five 16-byte uniform buffers (window size, window position,
//     delta time, point size, intensity)
//   - Simulator: particle storage buffer and compute pipeline
//   - BackgroundImage: sampled texture uploaded once at startup
//   - Compositor: particle and background render pipelines plus the
//     multisampled color target, the only size-dependent resource
//   - OffscreenSurface: a Surface for headless runs and tests
//
// # Shaders
//
// WGSL sources live in shaders/ and are embedded at build time.
package gpu
