// Package dots renders an audio-reactive field of particles over the
// desktop.
//
// # Overview
//
// A fixed number of particles bounce around the window. Their positions are
// advanced on the GPU by a compute shader and drawn as soft round sprites,
// optionally on top of a wallpaper that stays fixed on screen while the
// window moves. The sprites' opacity follows the system audio level through
// an auto-gain controller, so quiet and loud sources both use the full
// range.
//
// # Quick Start
//
//	v, err := dots.New(device, queue, nil, dots.WithSurface(surface))
//	if err != nil {
//	    return err
//	}
//	defer v.Close()
//
//	// On every resize event:
//	v.Resize(w, h)
//
//	// On every redraw tick:
//	v.Update(dt)
//	if err := v.Render(nil); err != nil {
//	    v.HandleRenderError(err, nil)
//	}
//
// # Frame Structure
//
// Update writes the delta time and intensity uniforms. Render records one
// compute pass and one render pass into a single command buffer, submits it,
// waits for the GPU and presents. A lost or outdated surface is not fatal:
// HandleRenderError reconfigures it and the next frame proceeds.
//
// # Configuration
//
// Settings come from internal/config: embedded YAML defaults optionally
// overlaid by a user file. Collaborators that touch the outside world (the
// volume provider, the window position query, the random source, the
// surface) can be replaced with functional options.
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package dots
