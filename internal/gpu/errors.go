package gpu

import "errors"

// Device errors.
var (
	// ErrNoBackend is returned when no HAL backend is compiled in.
	ErrNoBackend = errors.New("gpu: vulkan backend not available")

	// ErrNoGPU is returned when the backend reports no adapter.
	ErrNoGPU = errors.New("gpu: no GPU adapters found")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("gpu: provider does not expose HAL device and queue")
)

// Surface errors. A window surface reports them from Acquire.
var (
	// ErrSurfaceLost means the surface must be reconfigured before the next
	// frame.
	ErrSurfaceLost = errors.New("gpu: surface lost")

	// ErrSurfaceOutdated means the surface no longer matches the window and
	// must be reconfigured.
	ErrSurfaceOutdated = errors.New("gpu: surface outdated")

	// ErrSurfaceTimeout means no frame became available in time.
	ErrSurfaceTimeout = errors.New("gpu: surface acquire timeout")
)

// Failure classifies a frame error.
type Failure int

const (
	// FailureOther errors are logged and the frame is dropped.
	FailureOther Failure = iota
	// FailureLost requires reconfiguring the surface.
	FailureLost
	// FailureOutdated requires reconfiguring the surface.
	FailureOutdated
)

// String returns a short name for logs.
func (f Failure) String() string {
	switch f {
	case FailureLost:
		return "lost"
	case FailureOutdated:
		return "outdated"
	default:
		return "other"
	}
}

// Recoverable reports whether reconfiguring the surface fixes the failure.
func (f Failure) Recoverable() bool {
	return f == FailureLost || f == FailureOutdated
}

// RenderFailure classifies err.
func RenderFailure(err error) Failure {
	switch {
	case errors.Is(err, ErrSurfaceLost):
		return FailureLost
	case errors.Is(err, ErrSurfaceOutdated):
		return FailureOutdated
	default:
		return FailureOther
	}
}
