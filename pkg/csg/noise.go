package csg

import (
	"github.com/ahlgreen/isofield/pkg/volume"
	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ volume.Source = (*Noise)(nil)

// gradientStep is the offset used for the numeric gradient of the
// noise field.
const gradientStep = 1e-3

// NoiseParams configures a fractal noise source.
type NoiseParams struct {
	Seed        int64
	Frequency   float64 // spatial frequency of the first octave
	Amplitude   float64 // density amplitude of the first octave
	Octaves     int
	Persistence float64 // amplitude falloff per octave
	Lacunarity  float64 // frequency growth per octave
}

// DefaultNoiseParams returns a usable general-purpose parameter set:
// four octaves of standard fractal falloff at unit frequency.
func DefaultNoiseParams(seed int64) NoiseParams {
	return NoiseParams{
		Seed:        seed,
		Frequency:   1,
		Amplitude:   1,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
	}
}

// Noise is a fractal OpenSimplex density field. Densities oscillate
// around zero, so it is mostly useful combined into another source
// via Plus or as a displacement term.
type Noise struct {
	noise  opensimplex.Noise
	params NoiseParams
}

// NewNoise returns a deterministic noise source for the given
// parameters; the same seed always produces the same field.
func NewNoise(params NoiseParams) *Noise {
	if params.Octaves < 1 {
		params.Octaves = 1
	}
	return &Noise{
		noise:  opensimplex.New(params.Seed),
		params: params,
	}
}

// GetValue returns the summed octave noise density at pos.
func (n *Noise) GetValue(pos r3.Vec) float64 {
	value := 0.0
	freq := n.params.Frequency
	amp := n.params.Amplitude
	for i := 0; i < n.params.Octaves; i++ {
		value += amp * n.noise.Eval3(pos.X*freq, pos.Y*freq, pos.Z*freq)
		freq *= n.params.Lacunarity
		amp *= n.params.Persistence
	}
	return value
}

// GetValueAndGradient estimates the normal by central differences over
// the noise field; there is no closed form for the octave sum.
func (n *Noise) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	h := gradientStep
	grad := r3.Vec{
		X: (n.GetValue(r3.Vec{X: pos.X + h, Y: pos.Y, Z: pos.Z}) - n.GetValue(r3.Vec{X: pos.X - h, Y: pos.Y, Z: pos.Z})) / (2 * h),
		Y: (n.GetValue(r3.Vec{X: pos.X, Y: pos.Y + h, Z: pos.Z}) - n.GetValue(r3.Vec{X: pos.X, Y: pos.Y - h, Z: pos.Z})) / (2 * h),
		Z: (n.GetValue(r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z + h}) - n.GetValue(r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z - h})) / (2 * h),
	}
	return r3.Scale(-1, grad), n.GetValue(pos)
}
