// Package batch implements the per-sample forward/backward scratch buffers
// and the batch-level gradient accumulation the training loop merges into
// the optimizer's flat parameter vector.
package batch

import (
	"math"

	"denseforge/internal/layer"
)

// LayerScratch holds one layer's per-sample forward/backward state: a
// borrowed reference to the layer's input (the sample, for the first
// layer, or the previous layer's Activations otherwise), the preactivation
// sums, the activations, and the local gradient dL/dz.
type LayerScratch struct {
	Input         []float64 // borrowed, valid only within one forward/backward/merge cycle
	Preactivation []float64
	Activations   []float64
	LocalGradient []float64
}

// Buffer is one sample's complete forward/backward scratch across every
// layer of a network. Buffers are allocated once per training run and
// reused across batches/epochs.
type Buffer struct {
	layers  []*layer.Layer // borrowed from the network, fixed for the buffer's lifetime
	scratch []*LayerScratch
}

// New allocates scratch sized to match layers. layers is borrowed: the
// buffer never outlives the network that owns them.
func New(layers []*layer.Layer) *Buffer {
	scratch := make([]*LayerScratch, len(layers))
	for i, l := range layers {
		scratch[i] = &LayerScratch{
			Preactivation: make([]float64, l.OutputSize),
			Activations:   make([]float64, l.OutputSize),
			LocalGradient: make([]float64, l.OutputSize),
		}
	}
	return &Buffer{layers: layers, scratch: scratch}
}

// Forward runs one sample through every layer, recording preactivation and
// activation vectors and the borrowed input reference per layer.
func (b *Buffer) Forward(sample []float64) {
	input := sample
	for i, l := range b.layers {
		s := b.scratch[i]
		s.Input = input
		for j := 0; j < l.OutputSize; j++ {
			sum := l.Biases[j]
			offset := j * l.InputSize
			for k := 0; k < l.InputSize; k++ {
				sum = math.FMA(l.Weights[offset+k], input[k], sum)
			}
			s.Preactivation[j] = sum
		}
		l.Activation.Forward(s.Preactivation, s.Activations)
		input = s.Activations
	}
}

// Backpropagate propagates the output layer's already-populated local
// gradient back through every layer but the last. The output layer's
// local gradient must already hold dL/dz (written by the loss's
// OutputGradient before this is called).
func (b *Buffer) Backpropagate() {
	for idx := len(b.layers) - 1; idx > 0; idx-- {
		next := b.layers[idx]
		nextScratch := b.scratch[idx]
		current := b.layers[idx-1]
		currentScratch := b.scratch[idx-1]

		for i := 0; i < current.OutputSize; i++ {
			errorSum := 0.0
			for j := 0; j < next.OutputSize; j++ {
				errorSum = math.FMA(next.Weight(j, i), nextScratch.LocalGradient[j], errorSum)
			}
			currentScratch.LocalGradient[i] = errorSum
		}
		current.Activation.Derivative(currentScratch.Preactivation, currentScratch.Activations, currentScratch.LocalGradient)
	}
}

// Output returns the final layer's scratch, the view the loss's
// OutputGradient writes into and inference reads Activations from.
func (b *Buffer) Output() *LayerScratch {
	return b.scratch[len(b.scratch)-1]
}

// Scratch returns the scratch for layer i, used by gradient-merge and by
// tests that need to inspect intermediate state.
func (b *Buffer) Scratch(i int) *LayerScratch {
	return b.scratch[i]
}

// MergeGradients sums the local-gradient/outer-input products across every
// buffer in a batch into grad, in the canonical parameter order (biases
// then row-major weights, per layer in order) the optimizer indexes by.
// grad must be sized to the network's total parameter count and buffers
// must all have been produced from the same network architecture.
func MergeGradients(buffers []*Buffer, grad []float64) {
	layers := buffers[0].layers
	idx := 0
	for li, l := range layers {
		for j := 0; j < l.OutputSize; j++ {
			sum := 0.0
			for _, buf := range buffers {
				sum += buf.scratch[li].LocalGradient[j]
			}
			grad[idx] = sum
			idx++
		}
		for j := 0; j < l.OutputSize; j++ {
			for i := 0; i < l.InputSize; i++ {
				sum := 0.0
				for _, buf := range buffers {
					s := buf.scratch[li]
					sum += s.LocalGradient[j] * s.Input[i]
				}
				grad[idx] = sum
				idx++
			}
		}
	}
}
