package initialize

import "math"

// Initializer populates a layer's weight and bias slices in place, drawing
// from the shared Stream in weights-then-biases order.
type Initializer interface {
	Name() string
	Initialize(weights, biases []float64, fanIn, fanOut int, stream *Stream)
}

// xavier samples Uniform(-delta, delta) with delta = sqrt(6/(fanIn+fanOut)).
// Recommended for tanh/sigmoid output layers.
type xavier struct{}

func (xavier) Name() string { return "Xavier" }

func (xavier) Initialize(weights, biases []float64, fanIn, fanOut int, stream *Stream) {
	delta := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := range weights {
		weights[i] = stream.UniformRange(-delta, delta)
	}
	for i := range biases {
		biases[i] = stream.UniformRange(-delta, delta)
	}
}

// he samples Normal(0, sigma^2) with sigma^2 = 2/fanIn. Recommended for
// ReLU/Swish layers. Takes the variance's square root before handing it to
// the Gaussian draw, rather than passing the variance itself where a
// standard deviation is expected.
type he struct{}

func (he) Name() string { return "He" }

func (he) Initialize(weights, biases []float64, fanIn, fanOut int, stream *Stream) {
	sigma := math.Sqrt(2.0 / float64(fanIn))
	for i := range weights {
		weights[i] = stream.Gaussian(0, sigma)
	}
	for i := range biases {
		biases[i] = stream.Gaussian(0, sigma)
	}
}

// Registry instances, selected by the config loader from the JSON init
// name.
var (
	Xavier Initializer = xavier{}
	He     Initializer = he{}
)

// ByName resolves a config initializer name to a registry instance,
// defaulting to Xavier for anything unrecognized.
func ByName(name string) Initializer {
	if name == "He" {
		return He
	}
	return Xavier
}
