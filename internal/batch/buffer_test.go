package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"denseforge/internal/activation"
	"denseforge/internal/initialize"
	"denseforge/internal/layer"
	"denseforge/internal/loss"
)

func smallNetwork(seed uint64) []*layer.Layer {
	l1 := layer.New(3, 4, initialize.Xavier, activation.Tanh)
	l2 := layer.New(4, 2, initialize.Xavier, activation.Sigmoid)
	stream := initialize.NewStream(seed)
	l1.Initialize(stream)
	l2.Initialize(stream)
	return []*layer.Layer{l1, l2}
}

func TestForward_DimensionalCorrectness(t *testing.T) {
	layers := smallNetwork(1)
	buf := New(layers)

	buf.Forward([]float64{0.1, -0.2, 0.3})
	assert.Len(t, buf.Output().Activations, 2)
}

func TestBackpropagate_MatchesFiniteDifference(t *testing.T) {
	layers := smallNetwork(42)
	x := []float64{0.1, -0.2, 0.3}
	y := []float64{0.5, 0.5}
	lossFn := loss.MSE
	const eps = 1e-5

	buf := New(layers)
	buf.Forward(x)
	lossFn.OutputGradient(loss.OutputLayer{
		Activation:    layers[len(layers)-1].Activation,
		Preactivation: buf.Output().Preactivation,
		Activations:   buf.Output().Activations,
		LocalGradient: buf.Output().LocalGradient,
	}, y)
	buf.Backpropagate()

	grad := make([]float64, layers[0].ParameterCount()+layers[1].ParameterCount())
	MergeGradients([]*Buffer{buf}, grad)

	forwardLoss := func() float64 {
		probe := New(layers)
		probe.Forward(x)
		return lossFn.Compute(probe.Output().Activations, y)
	}

	idx := 0
	check := func(param *float64) {
		orig := *param
		*param = orig + eps
		plus := forwardLoss()
		*param = orig - eps
		minus := forwardLoss()
		*param = orig

		numerical := (plus - minus) / (2 * eps)
		assert.InDelta(t, numerical, grad[idx], 1e-5)
		idx++
	}

	for _, l := range layers {
		for j := range l.Biases {
			check(&l.Biases[j])
		}
		for k := range l.Weights {
			check(&l.Weights[k])
		}
	}
}

func TestMergeGradients_SumsAcrossBuffers(t *testing.T) {
	layers := smallNetwork(7)
	lossFn := loss.MSE

	samples := [][]float64{{0.1, 0.2, 0.3}, {-0.1, 0.0, 0.2}}
	targets := [][]float64{{0.4, 0.6}, {0.5, 0.5}}

	buffers := make([]*Buffer, len(samples))
	for i, x := range samples {
		buf := New(layers)
		buf.Forward(x)
		lossFn.OutputGradient(loss.OutputLayer{
			Activation:    layers[len(layers)-1].Activation,
			Preactivation: buf.Output().Preactivation,
			Activations:   buf.Output().Activations,
			LocalGradient: buf.Output().LocalGradient,
		}, targets[i])
		buf.Backpropagate()
		buffers[i] = buf
	}

	total := layers[0].ParameterCount() + layers[1].ParameterCount()
	merged := make([]float64, total)
	MergeGradients(buffers, merged)

	single := make([]float64, total)
	MergeGradients(buffers[:1], single)
	require.NotEqual(t, single, merged)

	second := make([]float64, total)
	MergeGradients(buffers[1:], second)
	for k := range merged {
		assert.InDelta(t, single[k]+second[k], merged[k], 1e-12)
	}
}
