package csg

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNoiseDeterministicPerSeed(t *testing.T) {
	a := NewNoise(DefaultNoiseParams(42))
	b := NewNoise(DefaultNoiseParams(42))

	positions := []r3.Vec{
		{},
		{X: 0.3, Y: 1.7, Z: -2.2},
		{X: 10, Y: -5, Z: 3.25},
	}
	for _, pos := range positions {
		va, vb := a.GetValue(pos), b.GetValue(pos)
		if va != vb {
			t.Errorf("same seed diverged at %v: %v vs %v", pos, va, vb)
		}
	}
}

func TestNoiseAmplitudeBound(t *testing.T) {
	params := DefaultNoiseParams(7)
	n := NewNoise(params)

	// Octave amplitudes 1 + 0.5 + 0.25 + 0.125 bound the field.
	bound := 1.875 + 1e-9
	for _, pos := range []r3.Vec{{X: 0.1}, {X: 3.7, Y: 2.1}, {Y: -8, Z: 4.4}} {
		if v := n.GetValue(pos); math.Abs(v) > bound {
			t.Errorf("GetValue(%v) = %v, exceeds octave amplitude bound %v", pos, v, bound)
		}
	}
}

func TestNoiseOctavesDefaultToOne(t *testing.T) {
	params := DefaultNoiseParams(1)
	params.Octaves = 0
	n := NewNoise(params)

	// A zero octave count would yield a constant zero field; the
	// constructor bumps it to one.
	if n.params.Octaves != 1 {
		t.Errorf("octaves = %d, want 1", n.params.Octaves)
	}
}

func TestNoiseGradientValueMatchesGetValue(t *testing.T) {
	n := NewNoise(DefaultNoiseParams(13))
	pos := r3.Vec{X: 0.4, Y: -1.1, Z: 2.6}

	_, v := n.GetValueAndGradient(pos)
	if want := n.GetValue(pos); v != want {
		t.Errorf("value = %v, want %v", v, want)
	}
}

func TestNoiseScaledIntoSoftDisplacement(t *testing.T) {
	// Typical use: a small noise displacement added onto a solid.
	sphere := NewSphere(r3.Vec{}, 2)
	noisy := NewPlus(sphere, NewScale(NewNoise(DefaultNoiseParams(5)), 0.1))

	pos := r3.Vec{X: 1, Y: 0.5}
	base := sphere.GetValue(pos)
	if got := noisy.GetValue(pos); math.Abs(got-base) > 0.1*1.875+1e-9 {
		t.Errorf("displacement %v exceeds scaled noise bound", got-base)
	}
}
