// Package network builds a layered network from a layout, orchestrates the
// epoch/mini-batch training loop against a held-out validation split, and
// supports single-sample inference and weights-only JSON snapshotting.
package network

import (
	"encoding/json"
	"fmt"

	"denseforge/internal/activation"
	"denseforge/internal/batch"
	"denseforge/internal/initialize"
	"denseforge/internal/layer"
	"denseforge/internal/loss"
	"denseforge/internal/optimizer"
)

// LayerSpec describes one layer of a network.Layout: its width, activation,
// and initializer.
type LayerSpec struct {
	Units       int
	Activation  activation.Activation
	Initializer initialize.Initializer
}

// Layout is the architectural description config.Document.Layout
// produces: an input width and an ordered list of layer specs.
type Layout struct {
	InputSize int
	Layers    []LayerSpec
}

// Dataset is the narrow view the training loop and inference need: row-major
// access to entries, the input/output field widths, and the ability to
// divide itself into a training prefix and a validation suffix.
// *dataset.Dataset satisfies this; network never imports the dataset
// package directly.
type Dataset interface {
	InputSize() int
	OutputSize() int
	EntryCount() int
	Row(i int) []float64

	// Split divides the dataset into a prefix holding the given fraction
	// of entries (by entry count) and a suffix holding the remainder.
	Split(ratio float64) (train, validation Dataset)
}

// trainValidationRatio is the fixed training/validation split Train
// carves out of the dataset it's given: 80% training prefix, 20%
// validation suffix.
const trainValidationRatio = 0.8

// LossSink receives one (epoch, avgLoss) pair per emitted epoch.
type LossSink interface {
	WriteEpoch(epoch int, avgLoss float64) error
}

// ScatterSink receives one (input, expected, predicted) row per validation
// entry, at the end of training.
type ScatterSink interface {
	WriteRow(input, expected, predicted []float64) error
}

// ProgressCallback is an additional observer invoked once per emitted epoch
// loss, alongside the mandated LossSink write. internal/trainlive.Bridge
// implements this to broadcast epochs to a live dashboard.
type ProgressCallback interface {
	OnEpoch(epoch int, avgLoss float64)
}

// TrainingParams bundles the loop's per-run knobs and output sinks.
type TrainingParams struct {
	EpochCount  int
	BatchSize   int
	LossSink    LossSink
	ScatterSink ScatterSink
	Progress    ProgressCallback

	// ScatterDataset, if set, is dumped to ScatterSink at the end of
	// training instead of the validation split — a separately curated
	// held-out set rather than the validation suffix Train carves out of
	// the training data.
	ScatterDataset Dataset
}

// Network is an ordered sequence of layers sharing a fan-in chain, bound to
// a loss for training, with a cached total parameter count.
type Network struct {
	Layers         []*layer.Layer
	Loss           loss.Loss
	ParameterCount int

	stream *initialize.Stream
}

// New builds a network from layout, binds lossFn for training, and
// initializes every layer's parameters from a single seeded stream in
// layer order (weights before biases per layer — the stream's own draw
// order), the same stream the training loop later shuffles from.
func New(layout Layout, lossFn loss.Loss, seed uint64) (*Network, error) {
	if layout.InputSize <= 0 {
		return nil, fmt.Errorf("network: input_size must be > 0")
	}
	if len(layout.Layers) == 0 {
		return nil, fmt.Errorf("network: layout must declare at least one layer")
	}

	layers := make([]*layer.Layer, len(layout.Layers))
	fanIn := layout.InputSize
	count := 0
	for i, spec := range layout.Layers {
		if spec.Units <= 0 {
			return nil, fmt.Errorf("network: layer %d: units must be > 0", i)
		}
		l := layer.New(fanIn, spec.Units, spec.Initializer, spec.Activation)
		layers[i] = l
		count += l.ParameterCount()
		fanIn = spec.Units
	}

	stream := initialize.NewStream(seed)
	for _, l := range layers {
		l.Initialize(stream)
	}

	return &Network{Layers: layers, Loss: lossFn, ParameterCount: count, stream: stream}, nil
}

// Infer runs one forward pass on x into buf (caller-owned, reused across
// calls) and copies the final layer's activations into out.
func (n *Network) Infer(buf *batch.Buffer, x, out []float64) {
	buf.Forward(x)
	copy(out, buf.Output().Activations)
}

func (n *Network) outputLayer(s *batch.LayerScratch) loss.OutputLayer {
	last := n.Layers[len(n.Layers)-1]
	return loss.OutputLayer{
		Activation:    last.Activation,
		Preactivation: s.Preactivation,
		Activations:   s.Activations,
		LocalGradient: s.LocalGradient,
	}
}

// Train splits full into an 80% training prefix (shuffled every epoch) and
// a 20% validation suffix (used for loss reporting and, unless
// params.ScatterDataset overrides it, the final prediction dump when
// params.ScatterSink is set), then runs the full epoch/mini-batch loop
// described by params. opt must have been constructed against n.Layers.
func (n *Network) Train(opt *optimizer.AdamW, full Dataset, params TrainingParams) error {
	if params.BatchSize <= 0 {
		return fmt.Errorf("network: batch_size must be > 0")
	}

	train, validation := full.Split(trainValidationRatio)

	buffers := make([]*batch.Buffer, params.BatchSize)
	for i := range buffers {
		buffers[i] = batch.New(n.Layers)
	}
	reportBuf := batch.New(n.Layers)

	indices := make([]int, train.EntryCount())
	for i := range indices {
		indices[i] = i
	}

	emit := func(epoch int) error {
		avg, err := n.validationLoss(reportBuf, validation)
		if err != nil {
			return err
		}
		if params.LossSink != nil {
			if err := params.LossSink.WriteEpoch(epoch, avg); err != nil {
				return fmt.Errorf("network: writing loss for epoch %d: %w", epoch, err)
			}
		}
		if params.Progress != nil {
			params.Progress.OnEpoch(epoch, avg)
		}
		return nil
	}

	if err := emit(0); err != nil {
		return err
	}

	inputSize := train.InputSize()

	for epoch := 1; epoch <= params.EpochCount; epoch++ {
		n.stream.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		batchCount := len(indices) / params.BatchSize
		for b := 0; b < batchCount; b++ {
			for s := 0; s < params.BatchSize; s++ {
				row := train.Row(indices[b*params.BatchSize+s])
				x := row[:inputSize]
				y := row[inputSize:]

				buf := buffers[s]
				buf.Forward(x)
				n.Loss.OutputGradient(n.outputLayer(buf.Output()), y)
				buf.Backpropagate()
			}
			batch.MergeGradients(buffers, opt.Grad())
			opt.Step()
		}

		if err := emit(epoch); err != nil {
			return err
		}
	}

	if params.ScatterSink != nil {
		scatterSet := params.ScatterDataset
		if scatterSet == nil {
			scatterSet = validation
		}
		if err := n.writeScatter(reportBuf, scatterSet, params.ScatterSink); err != nil {
			return err
		}
	}

	return nil
}

func (n *Network) validationLoss(buf *batch.Buffer, validation Dataset) (float64, error) {
	count := validation.EntryCount()
	if count == 0 {
		return 0, fmt.Errorf("network: validation split has no entries")
	}
	inputSize := validation.InputSize()

	sum := 0.0
	for i := 0; i < count; i++ {
		row := validation.Row(i)
		x := row[:inputSize]
		y := row[inputSize:]
		buf.Forward(x)
		sum += n.Loss.Compute(buf.Output().Activations, y)
	}
	return sum / float64(count), nil
}

func (n *Network) writeScatter(buf *batch.Buffer, validation Dataset, sink ScatterSink) error {
	count := validation.EntryCount()
	inputSize := validation.InputSize()

	for i := 0; i < count; i++ {
		row := validation.Row(i)
		x := row[:inputSize]
		y := row[inputSize:]
		buf.Forward(x)
		predicted := buf.Output().Activations
		if err := sink.WriteRow(x, y, predicted); err != nil {
			return fmt.Errorf("network: writing scatter row %d: %w", i, err)
		}
	}
	return nil
}

// snapshot is the weights-only JSON form a trained Network marshals to and
// unmarshals from: architecture plus parameters, no optimizer state (the
// module never serializes resumable checkpoints).
type snapshot struct {
	InputSize int              `json:"input_size"`
	Layers    []layerSnapshot  `json:"layers"`
}

type layerSnapshot struct {
	Units      int       `json:"units"`
	Activation string    `json:"activation"`
	Weights    []float64 `json:"weights"`
	Biases     []float64 `json:"biases"`
}

// MarshalJSON writes the network's architecture and trained parameters.
func (n *Network) MarshalJSON() ([]byte, error) {
	snap := snapshot{
		InputSize: n.Layers[0].InputSize,
		Layers:    make([]layerSnapshot, len(n.Layers)),
	}
	for i, l := range n.Layers {
		snap.Layers[i] = layerSnapshot{
			Units:      l.OutputSize,
			Activation: l.Activation.Name(),
			Weights:    l.Weights,
			Biases:     l.Biases,
		}
	}
	return json.Marshal(snap)
}

// UnmarshalJSON rebuilds layers from a snapshot written by MarshalJSON. The
// resulting network has no bound Loss: only Infer is meaningful on a
// network loaded this way, matching cmd/infer's use.
func (n *Network) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("network: decoding snapshot: %w", err)
	}
	if len(snap.Layers) == 0 {
		return fmt.Errorf("network: snapshot has no layers")
	}

	layers := make([]*layer.Layer, len(snap.Layers))
	fanIn := snap.InputSize
	count := 0
	for i, ls := range snap.Layers {
		l := layer.New(fanIn, ls.Units, initialize.Xavier, activation.ByName(ls.Activation))
		if len(ls.Weights) != len(l.Weights) || len(ls.Biases) != len(l.Biases) {
			return fmt.Errorf("network: snapshot layer %d has mismatched parameter count", i)
		}
		copy(l.Weights, ls.Weights)
		copy(l.Biases, ls.Biases)
		layers[i] = l
		count += l.ParameterCount()
		fanIn = ls.Units
	}

	n.Layers = layers
	n.ParameterCount = count
	return nil
}
