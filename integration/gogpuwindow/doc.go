// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gogpuwindow connects the visualizer to a gogpu window.
//
// gogpu owns the window, the swapchain and the event loop. It configures
// the swapchain on resize and presents after each OnDraw callback. This
// package adapts that model to dots.Surface:
//
//	gogpu.App (OnDraw) -> Surface.SetFrame(dc.SurfaceView()) -> Visualizer.Render
//
// # Usage
//
//	device, err := gogpuwindow.Device(app.GPUContextProvider())
//	surface := gogpuwindow.NewSurface(device.SurfaceFormat)
//	v, err := dots.New(device.Device, device.Queue, cfg, dots.WithSurface(surface))
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    if err := surface.SetFrame(dc.SurfaceView()); err != nil {
//	        return
//	    }
//	    v.Update(dt)
//	    if err := v.Render(surface); err != nil {
//	        v.HandleRenderError(err, surface)
//	    }
//	})
//
// # Integration Without Circular Imports
//
// The package does not import gogpu. It relies on gpucontext.DeviceProvider
// for device access and on type switches for the frame view, so it works
// with any gogpu release that hands out gpucontext or wgpu views.
package gogpuwindow
