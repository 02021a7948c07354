// Package loss implements the loss registry: each loss couples a
// reporting-time compute with an output-layer local-gradient rule, fusing
// the activation derivative where the pairing allows it.
package loss

import (
	"math"

	"denseforge/internal/activation"
)

// minProbability is DBL_MIN (the smallest positive *normalized* double,
// not Go's math.SmallestNonzeroFloat64 which is subnormal), the lower
// clamp BCE/CCE use to keep log() away from -Inf.
const minProbability = 2.2250738585072014e-308

// maxProbability is the BCE upper clamp, 1-DBL_EPSILON.
const maxProbability = 1 - 2.220446049250313e-16

// OutputLayer is the slice of layer state a loss's output gradient rule
// needs: the output activation (the layer's Activation, for the generic
// rules that must invoke its derivative) and the per-sample scratch
// (preactivation, activation, local gradient) to read from and write into.
type OutputLayer struct {
	Activation    activation.Activation
	Preactivation []float64
	Activations   []float64
	LocalGradient []float64
}

// Loss exposes a reporting-time scalar and the output-layer local-gradient
// rule (dL/dz at the output preactivation).
type Loss interface {
	Name() string
	// Compute returns the scalar loss for one sample's predicted vs.
	// expected output vectors.
	Compute(predicted, expected []float64) float64
	// OutputGradient writes dL/dz into out.LocalGradient.
	OutputGradient(out OutputLayer, expected []float64)
}

func clampBCE(p float64) float64 {
	if p < minProbability {
		p = minProbability
	}
	if p > maxProbability {
		p = maxProbability
	}
	return p
}

func clampCCE(p float64) float64 {
	if p < minProbability {
		return minProbability
	}
	return p
}

// mse is mean squared error: sum((p-y)^2)/n, with the generic dL/da = p-y
// rule run through the output activation's own derivative.
type mse struct{}

func (mse) Name() string { return "MSE" }

func (mse) Compute(predicted, expected []float64) float64 {
	sum := 0.0
	for i, p := range predicted {
		d := p - expected[i]
		sum += d * d
	}
	return sum / float64(len(predicted))
}

func (mse) OutputGradient(out OutputLayer, expected []float64) {
	for i, a := range out.Activations {
		out.LocalGradient[i] = a - expected[i]
	}
	out.Activation.Derivative(out.Preactivation, out.Activations, out.LocalGradient)
}

// MSE is the mean-squared-error loss.
var MSE Loss = mse{}

// bce is generic binary cross-entropy, usable with any output activation:
// dL/da = (p-y)/(p(1-p)), run through the output activation's derivative.
type bce struct{}

func (bce) Name() string { return "BinaryCrossEntropy" }

func (bce) Compute(predicted, expected []float64) float64 {
	sum := 0.0
	for i, raw := range predicted {
		p := clampBCE(raw)
		sum -= expected[i]*math.Log(p) + (1-expected[i])*math.Log(1-p)
	}
	return sum
}

func (bce) OutputGradient(out OutputLayer, expected []float64) {
	for i, p := range out.Activations {
		out.LocalGradient[i] = (p - expected[i]) / (p * (1 - p))
	}
	out.Activation.Derivative(out.Preactivation, out.Activations, out.LocalGradient)
}

// BCE is generic binary cross-entropy.
var BCE Loss = bce{}

// bceSigmoid is BCE fused with a sigmoid output layer: dL/dz = p-y
// directly, skipping the sigmoid derivative. Only correct when the output
// layer's activation actually is Sigmoid; the config loader is responsible
// for choosing this over BCE based on that check.
type bceSigmoid struct{ bce }

func (bceSigmoid) Name() string { return "BinaryCrossEntropy+Sigmoid" }

func (bceSigmoid) OutputGradient(out OutputLayer, expected []float64) {
	for i, p := range out.Activations {
		out.LocalGradient[i] = p - expected[i]
	}
}

// BCESigmoid is BCE fused with a sigmoid output layer.
var BCESigmoid Loss = bceSigmoid{}

// cceSoftmax is categorical cross-entropy fused with a softmax output
// layer: dL/dz = p-y directly, the Jacobian-vector product of softmax's
// full Jacobian with the generic CCE gradient collapsing to this form.
type cceSoftmax struct{}

func (cceSoftmax) Name() string { return "CategoricalCrossEntropy+Softmax" }

func (cceSoftmax) Compute(predicted, expected []float64) float64 {
	sum := 0.0
	for i, p := range predicted {
		sum -= expected[i] * math.Log(clampCCE(p))
	}
	return sum
}

func (cceSoftmax) OutputGradient(out OutputLayer, expected []float64) {
	for i, p := range out.Activations {
		out.LocalGradient[i] = p - expected[i]
	}
}

// CCESoftmax is categorical cross-entropy fused with a softmax output
// layer.
var CCESoftmax Loss = cceSoftmax{}

// ByName resolves a config loss_function name and the output layer's
// activation to the correct registry instance, fusing BCE with sigmoid
// only when the output activation actually is Sigmoid (treated as generic
// BCE otherwise), defaulting unknown names to MSE.
func ByName(name string, outputActivation activation.Activation) Loss {
	switch name {
	case "BinaryCrossEntropy":
		if activation.IsSigmoid(outputActivation) {
			return BCESigmoid
		}
		return BCE
	case "CategoricalCrossEntropy":
		return CCESoftmax
	default:
		return MSE
	}
}
