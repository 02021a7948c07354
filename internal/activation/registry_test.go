package activation

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

// elementWiseActivations excludes Softmax, which is a row reduction rather
// than an element-wise map and has no meaningful per-scalar derivative to
// finite-difference against.
func elementWiseActivations() []Activation {
	return []Activation{Linear, Sigmoid, Tanh, ReLU, LeakyReLU, Swish}
}

func TestDerivative_MatchesFiniteDifference(t *testing.T) {
	const h = 1e-6
	rng := rand.New(rand.NewPCG(7, 0))

	for _, act := range elementWiseActivations() {
		for i := 0; i < 20; i++ {
			z := rng.Float64()*4 - 2 // [-2, 2]

			zPlus := []float64{z + h}
			zMinus := []float64{z - h}
			aPlus := make([]float64, 1)
			aMinus := make([]float64, 1)
			act.Forward(zPlus, aPlus)
			act.Forward(zMinus, aMinus)
			numerical := (aPlus[0] - aMinus[0]) / (2 * h)

			zv := []float64{z}
			av := make([]float64, 1)
			act.Forward(zv, av)
			grad := []float64{1}
			act.Derivative(zv, av, grad)

			assert.InDelta(t, numerical, grad[0], 1e-6, "%s at z=%f", act.Name(), z)
		}
	}
}

func TestSoftmax_SumsToOne(t *testing.T) {
	z := []float64{1, 2, 3, -1, 0.5}
	a := make([]float64, len(z))
	SoftmaxFunc.Forward(z, a)

	sum := 0.0
	for _, v := range a {
		sum += v
		assert.Greater(t, v, 0.0)
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestSoftmax_ShiftInvariant(t *testing.T) {
	z := []float64{1000, 1001, 1002}
	a := make([]float64, len(z))
	SoftmaxFunc.Forward(z, a)

	for _, v := range a {
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
	}

	shifted := []float64{0, 1, 2}
	b := make([]float64, len(shifted))
	SoftmaxFunc.Forward(shifted, b)
	for i := range a {
		assert.InDelta(t, b[i], a[i], 1e-12)
	}
}

func TestReLU_Sign(t *testing.T) {
	z := []float64{-2, -0.5, 0, 0.5, 2}
	a := make([]float64, len(z))
	ReLU.Forward(z, a)
	assert.Equal(t, []float64{0, 0, 0, 0.5, 2}, a)

	grad := []float64{1, 1, 1, 1, 1}
	ReLU.Derivative(z, a, grad)
	assert.Equal(t, []float64{0, 0, 0, 1, 1}, grad)
}

func TestLeakyReLU_Sign(t *testing.T) {
	z := []float64{-1, 2}
	a := make([]float64, len(z))
	LeakyReLU.Forward(z, a)
	assert.InDelta(t, -0.01, a[0], 1e-12)
	assert.InDelta(t, 2.0, a[1], 1e-12)

	grad := []float64{1, 1}
	LeakyReLU.Derivative(z, a, grad)
	assert.InDelta(t, 0.01, grad[0], 1e-12)
	assert.InDelta(t, 1.0, grad[1], 1e-12)
}

func TestByName_UnknownDefaultsToLinear(t *testing.T) {
	assert.Equal(t, Linear, ByName("not-a-real-activation"))
	assert.Equal(t, Sigmoid, ByName("Sigmoid"))
	assert.Equal(t, SoftmaxFunc, ByName("Softmax"))
}
