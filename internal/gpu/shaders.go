package gpu

import (
	_ "embed"
)

// Embedded WGSL shader sources.

//go:embed shaders/compute_positions.wgsl
var computePositionsShaderSource string

//go:embed shaders/particles.wgsl
var particlesShaderSource string

//go:embed shaders/background.wgsl
var backgroundShaderSource string
