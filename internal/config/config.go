// Package config decodes the JSON training configuration document and
// builds the network layout, optimizer config, and training parameters
// cmd/train needs, so main contains no parsing logic of its own.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"denseforge/internal/activation"
	"denseforge/internal/initialize"
	"denseforge/internal/loss"
	"denseforge/internal/network"
	"denseforge/internal/optimizer"
)

// LayerDocument is one entry of the "layers" array.
type LayerDocument struct {
	Units      int    `json:"units"`
	Activation string `json:"activation"`
	Init       string `json:"init"`
}

// OptimizerDocument is the optional "optimizer" object; any omitted field
// falls back to AdamW's documented default.
type OptimizerDocument struct {
	LearningRate *float64 `json:"learning_rate,omitempty"`
	Beta1        *float64 `json:"beta1,omitempty"`
	Beta2        *float64 `json:"beta2,omitempty"`
	Epsilon      *float64 `json:"epsilon,omitempty"`
	WeightDecay  *float64 `json:"weight_decay,omitempty"`
}

// TrainingDocument is the "training" object. TrainDataset is the CSV
// loaded and split 80/20 into the training prefix and validation suffix
// the training loop runs against. TestDataset is optional; when set, it is
// loaded separately and used only as the source for the final prediction
// dump, in place of the validation suffix.
type TrainingDocument struct {
	BatchSize    int    `json:"batch_size"`
	EpochCount   int    `json:"epoch_count"`
	TrainDataset string `json:"train_dataset"`
	TestDataset  string `json:"test_dataset"`
}

// Document is the full JSON configuration.
type Document struct {
	InputSize    int               `json:"input_size"`
	Layers       []LayerDocument   `json:"layers"`
	LossFunction string            `json:"loss_function"`
	Optimizer    OptimizerDocument `json:"optimizer"`
	Training     TrainingDocument  `json:"training"`
}

// Load decodes a configuration document from path. A malformed or
// structurally invalid document is a fatal configuration error, surfaced
// before any network/dataset allocation happens.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if doc.InputSize <= 0 {
		return nil, fmt.Errorf("config: %s: input_size must be > 0", path)
	}
	if len(doc.Layers) == 0 {
		return nil, fmt.Errorf("config: %s: layers must be non-empty", path)
	}
	if doc.Training.TrainDataset == "" {
		return nil, fmt.Errorf("config: %s: training.train_dataset is required", path)
	}
	return &doc, nil
}

// Layout converts the layers array into a network.Layout, resolving
// activation/init names through their registries (unknown -> Linear /
// Xavier).
func (d *Document) Layout() network.Layout {
	layout := network.Layout{InputSize: d.InputSize, Layers: make([]network.LayerSpec, len(d.Layers))}
	for i, ld := range d.Layers {
		layout.Layers[i] = network.LayerSpec{
			Units:       ld.Units,
			Activation:  activation.ByName(ld.Activation),
			Initializer: initialize.ByName(ld.Init),
		}
	}
	return layout
}

// Loss resolves loss_function against the output layer's activation,
// fusing BinaryCrossEntropy with Sigmoid only when the output layer
// actually is Sigmoid.
func (d *Document) Loss() loss.Loss {
	outputActivation := activation.ByName(d.Layers[len(d.Layers)-1].Activation)
	return loss.ByName(d.LossFunction, outputActivation)
}

// OptimizerConfig applies the documented defaults
// (2e-3/0.8/0.99/1e-8/1e-3) for any field the document omitted. AMSGrad is
// always enabled.
func (d *Document) OptimizerConfig() optimizer.Config {
	cfg := optimizer.DefaultConfig()
	if d.Optimizer.LearningRate != nil {
		cfg.Alpha = *d.Optimizer.LearningRate
	}
	if d.Optimizer.Beta1 != nil {
		cfg.Beta1 = *d.Optimizer.Beta1
	}
	if d.Optimizer.Beta2 != nil {
		cfg.Beta2 = *d.Optimizer.Beta2
	}
	if d.Optimizer.Epsilon != nil {
		cfg.Epsilon = *d.Optimizer.Epsilon
	}
	if d.Optimizer.WeightDecay != nil {
		cfg.WeightDecay = *d.Optimizer.WeightDecay
	}
	return cfg
}

// TrainingParams applies batch_size/epoch_count defaults (1/100) for any
// zero-valued field; sinks and Progress are left for cmd/train to attach.
func (d *Document) TrainingParams() network.TrainingParams {
	batchSize := d.Training.BatchSize
	if batchSize == 0 {
		batchSize = 1
	}
	epochCount := d.Training.EpochCount
	if epochCount == 0 {
		epochCount = 100
	}
	return network.TrainingParams{BatchSize: batchSize, EpochCount: epochCount}
}

// OutputSize is the trailing field count of the configured architecture's
// final layer, the width the dataset loader's output_size argument needs.
func (d *Document) OutputSize() int {
	return d.Layers[len(d.Layers)-1].Units
}
