// Package optimizer implements the AdamW optimizer with an optional
// AMSGrad variant, consuming a flat per-step gradient vector in the
// network's canonical parameter order and applying bias-corrected moment
// updates with decoupled weight decay.
package optimizer

import (
	"math"

	"denseforge/internal/layer"
)

// Config holds the optimizer's hyperparameters.
type Config struct {
	Alpha       float64 // learning rate
	Beta1       float64
	Beta2       float64
	Epsilon     float64
	WeightDecay float64
	AMSGrad     bool
}

// DefaultConfig returns the documented defaults
// (2e-3/0.8/0.99/1e-8/1e-3, AMSGrad always on).
func DefaultConfig() Config {
	return Config{
		Alpha:       2e-3,
		Beta1:       0.8,
		Beta2:       0.99,
		Epsilon:     1e-8,
		WeightDecay: 1e-3,
		AMSGrad:     true,
	}
}

// AdamW owns the first/second moment vectors, the AMSGrad running max, the
// step counter, and the scratch gradient accumulator batch.MergeGradients
// writes into — all indexed in the network's canonical parameter order
// (biases then row-major weights, per layer in order).
type AdamW struct {
	cfg    Config
	layers []*layer.Layer // borrowed from the network

	m, v, vHat []float64
	grad       []float64
	t          uint64
}

// New allocates optimizer state sized to the sum of layers' parameter
// counts, zeroed until the first Step.
func New(layers []*layer.Layer, cfg Config) *AdamW {
	count := 0
	for _, l := range layers {
		count += l.ParameterCount()
	}
	return &AdamW{
		cfg:    cfg,
		layers: layers,
		m:      make([]float64, count),
		v:      make([]float64, count),
		vHat:   make([]float64, count),
		grad:   make([]float64, count),
	}
}

// ParameterCount is the length of the optimizer's moment vectors, which
// must equal the network's parameter_count.
func (o *AdamW) ParameterCount() int {
	return len(o.m)
}

// Grad returns the scratch gradient accumulator for batch.MergeGradients
// to fill before Step is called.
func (o *AdamW) Grad() []float64 {
	return o.grad
}

// Step increments t, and applies one AdamW (optionally AMSGrad) update to
// every parameter from the gradient vector returned by Grad.
func (o *AdamW) Step() {
	o.t++
	cm := 1 / (1 - math.Pow(o.cfg.Beta1, float64(o.t)))
	cv := 1 / (1 - math.Pow(o.cfg.Beta2, float64(o.t)))

	idx := 0
	for _, l := range o.layers {
		for j := 0; j < l.OutputSize; j++ {
			o.update(&l.Biases[j], idx, cm, cv, 0.0)
			idx++
		}
		n := l.OutputSize * l.InputSize
		for k := 0; k < n; k++ {
			o.update(&l.Weights[k], idx, cm, cv, o.cfg.WeightDecay)
			idx++
		}
	}
}

func (o *AdamW) update(param *float64, idx int, mCorrection, vCorrection, weightDecay float64) {
	g := o.grad[idx]
	o.m[idx] = o.cfg.Beta1*o.m[idx] + (1-o.cfg.Beta1)*g
	o.v[idx] = o.cfg.Beta2*o.v[idx] + (1-o.cfg.Beta2)*g*g

	mHat := o.m[idx] * mCorrection
	vHatCandidate := o.v[idx] * vCorrection

	if o.cfg.AMSGrad {
		if vHatCandidate > o.vHat[idx] {
			o.vHat[idx] = vHatCandidate
		}
	} else {
		o.vHat[idx] = vHatCandidate
	}

	*param -= o.cfg.Alpha * (mHat/(math.Sqrt(o.vHat[idx])+o.cfg.Epsilon) + weightDecay*(*param))
}

// StepCount returns the current step counter, exported for determinism and
// AMSGrad-monotonicity tests.
func (o *AdamW) StepCount() uint64 {
	return o.t
}
