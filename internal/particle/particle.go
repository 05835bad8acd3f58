// Package particle defines the particle record shared by the host and the
// GPU kernel, how a field is seeded, and a CPU reference of the kernel that
// advances it.
//
// The GPU kernel (internal/gpu/shaders/compute_positions.wgsl) and Step in
// this package implement the same contract:
//
//   - velocity is expressed in pixels per 1/60 s, so a frame of dt seconds
//     moves a particle by velocity * dt * FrameRate;
//   - a coordinate leaving [0, size] is mirrored back inside the viewport and
//     the matching velocity component changes sign (reflection).
package particle

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
)

// Size is the byte size of one particle in the storage buffer.
// Layout: position (vec2<f32>) + velocity (vec2<f32>) = 16 bytes.
const Size = 16

// WorkgroupSize is the number of kernel invocations per workgroup. It must
// match @workgroup_size in the compute shader.
const WorkgroupSize = 64

// FrameRate converts per-frame velocities into per-second motion.
const FrameRate = 60

// Seeded velocity magnitude range per axis, in pixels per frame.
const (
	MinSpeed = 1.0
	MaxSpeed = 3.0
)

// Particle is one simulated point.
type Particle struct {
	Position [2]float32
	Velocity [2]float32
}

// Workgroups returns the number of workgroups needed to cover n particles.
func Workgroups(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32((n + WorkgroupSize - 1) / WorkgroupSize) //nolint:gosec // particle count fits uint32
}

// Seed creates n particles uniformly spread over a w x h viewport. Positions
// are whole pixels in [0, w) x [0, h); each velocity component has a
// magnitude in [MinSpeed, MaxSpeed) and a random sign.
func Seed(rng *rand.Rand, n int, w, h uint32) []Particle {
	out := make([]Particle, n)
	Reseed(rng, out, w, h)
	return out
}

// Reseed overwrites every particle in ps in place, as Seed does.
func Reseed(rng *rand.Rand, ps []Particle, w, h uint32) {
	w, h = max(w, 1), max(h, 1)
	for i := range ps {
		ps[i] = Particle{
			Position: [2]float32{
				float32(rng.Uint32N(w)),
				float32(rng.Uint32N(h)),
			},
			Velocity: [2]float32{
				randomVelocity(rng),
				randomVelocity(rng),
			},
		}
	}
}

func randomVelocity(rng *rand.Rand) float32 {
	v := float32(MinSpeed + rng.Float64()*(MaxSpeed-MinSpeed))
	if rng.IntN(2) == 0 {
		v = -v
	}
	return v
}

// Encode packs particles into the little-endian layout of the storage buffer.
func Encode(ps []Particle) []byte {
	buf := make([]byte, len(ps)*Size)
	for i, p := range ps {
		off := i * Size
		binary.LittleEndian.PutUint32(buf[off+0:], math.Float32bits(p.Position[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(p.Position[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(p.Velocity[0]))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(p.Velocity[1]))
	}
	return buf
}

// Decode is the inverse of Encode. Trailing bytes that do not form a whole
// particle are ignored.
func Decode(buf []byte) []Particle {
	ps := make([]Particle, len(buf)/Size)
	for i := range ps {
		off := i * Size
		ps[i] = Particle{
			Position: [2]float32{
				math.Float32frombits(binary.LittleEndian.Uint32(buf[off+0:])),
				math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:])),
			},
			Velocity: [2]float32{
				math.Float32frombits(binary.LittleEndian.Uint32(buf[off+8:])),
				math.Float32frombits(binary.LittleEndian.Uint32(buf[off+12:])),
			},
		}
	}
	return ps
}

// Step advances every particle by dt seconds inside a w x h viewport. It is
// the CPU reference of the compute kernel.
func Step(ps []Particle, dt, w, h float32) {
	for i := range ps {
		p := &ps[i]
		p.Position[0], p.Velocity[0] = reflect(p.Position[0]+p.Velocity[0]*dt*FrameRate, p.Velocity[0], w)
		p.Position[1], p.Velocity[1] = reflect(p.Position[1]+p.Velocity[1]*dt*FrameRate, p.Velocity[1], h)
	}
}

// reflect folds x back into [0, limit] and flips v when a wall was hit.
func reflect(x, v, limit float32) (float32, float32) {
	if limit <= 0 {
		return 0, v
	}
	if x < 0 {
		x = -x
		v = float32(math.Abs(float64(v)))
	} else if x > limit {
		x = 2*limit - x
		v = -float32(math.Abs(float64(v)))
	}
	// A step longer than the viewport can overshoot the opposite wall.
	return min(max(x, 0), limit), v
}
