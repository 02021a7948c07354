// Package layer implements a single dense layer's parameter arena: the
// weight matrix and bias vector, row-major with biases ordered first, the
// canonical parameter ordering the optimizer and batch-merge code depend
// on.
package layer

import (
	"denseforge/internal/activation"
	"denseforge/internal/initialize"
)

// Layer is a dense transform from InputSize inputs to OutputSize outputs.
// Weights is row-major, output-neuron-major: Weights[j*InputSize+i] is the
// weight from input i to output neuron j.
type Layer struct {
	InputSize  int
	OutputSize int

	Weights []float64 // OutputSize * InputSize
	Biases  []float64 // OutputSize

	Activation  activation.Activation
	Initializer initialize.Initializer
}

// New allocates a layer's weight and bias arrays, zero-valued until
// Initialize is called. InputSize and OutputSize must both be > 0.
func New(inputSize, outputSize int, initializer initialize.Initializer, act activation.Activation) *Layer {
	return &Layer{
		InputSize:   inputSize,
		OutputSize:  outputSize,
		Weights:     make([]float64, outputSize*inputSize),
		Biases:      make([]float64, outputSize),
		Activation:  act,
		Initializer: initializer,
	}
}

// Initialize populates Weights and Biases via the layer's initializer,
// drawing weights before biases from the shared stream.
func (l *Layer) Initialize(stream *initialize.Stream) {
	l.Initializer.Initialize(l.Weights, l.Biases, l.InputSize, l.OutputSize, stream)
}

// ParameterCount is O*I + O: the layer's contribution to the network's
// total parameter count, and the length of its slice of the optimizer's
// canonical parameter vectors.
func (l *Layer) ParameterCount() int {
	return l.OutputSize*l.InputSize + l.OutputSize
}

// Weight returns the weight from input i to output neuron j.
func (l *Layer) Weight(j, i int) float64 {
	return l.Weights[j*l.InputSize+i]
}
