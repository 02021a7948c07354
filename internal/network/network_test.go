package network

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"denseforge/internal/activation"
	"denseforge/internal/batch"
	"denseforge/internal/initialize"
	"denseforge/internal/loss"
	"denseforge/internal/optimizer"
)

// memDataset is a minimal in-memory Dataset for tests, avoiding a
// dependency on the dataset package and keeping these tests self-contained.
type memDataset struct {
	rows       [][]float64
	inputSize  int
	outputSize int
}

func (d *memDataset) InputSize() int      { return d.inputSize }
func (d *memDataset) OutputSize() int     { return d.outputSize }
func (d *memDataset) EntryCount() int     { return len(d.rows) }
func (d *memDataset) Row(i int) []float64 { return d.rows[i] }

func (d *memDataset) Split(ratio float64) (train, validation Dataset) {
	cut := int(float64(len(d.rows)) * ratio)
	return &memDataset{rows: d.rows[:cut], inputSize: d.inputSize, outputSize: d.outputSize},
		&memDataset{rows: d.rows[cut:], inputSize: d.inputSize, outputSize: d.outputSize}
}

// xorDataset returns five repeats of the four XOR truth-table rows, so an
// 80/20 split leaves a 16-row training prefix evenly divisible by the
// small batch sizes these tests use.
func xorDataset() *memDataset {
	base := [][]float64{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	rows := make([][]float64, 0, len(base)*5)
	for i := 0; i < 5; i++ {
		rows = append(rows, base...)
	}
	return &memDataset{inputSize: 2, outputSize: 1, rows: rows}
}

func testLayout() Layout {
	return Layout{
		InputSize: 2,
		Layers: []LayerSpec{
			{Units: 8, Activation: activation.Tanh, Initializer: initialize.Xavier},
			{Units: 1, Activation: activation.Sigmoid, Initializer: initialize.Xavier},
		},
	}
}

func TestNew_ParameterCountConsistency(t *testing.T) {
	net, err := New(testLayout(), loss.BCESigmoid, 1)
	require.NoError(t, err)

	want := (2*8 + 8) + (8*1 + 1)
	assert.Equal(t, want, net.ParameterCount)

	opt := optimizer.New(net.Layers, optimizer.DefaultConfig())
	assert.Equal(t, net.ParameterCount, opt.ParameterCount())
}

func TestNew_RejectsInvalidLayout(t *testing.T) {
	_, err := New(Layout{InputSize: 0, Layers: []LayerSpec{{Units: 1}}}, loss.MSE, 1)
	assert.Error(t, err)

	_, err = New(Layout{InputSize: 2, Layers: nil}, loss.MSE, 1)
	assert.Error(t, err)

	_, err = New(Layout{InputSize: 2, Layers: []LayerSpec{{Units: 0}}}, loss.MSE, 1)
	assert.Error(t, err)
}

func TestTrain_ConvergesOnXOR(t *testing.T) {
	net, err := New(testLayout(), loss.BCESigmoid, 42)
	require.NoError(t, err)
	opt := optimizer.New(net.Layers, optimizer.Config{
		Alpha: 0.05, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8, WeightDecay: 0, AMSGrad: true,
	})

	ds := xorDataset()
	var lastLoss float64
	params := TrainingParams{
		EpochCount: 400,
		BatchSize:  4,
		LossSink:   recordingSink{&lastLoss},
	}

	require.NoError(t, net.Train(opt, ds, params))
	assert.Less(t, lastLoss, 0.1)
}

type recordingSink struct {
	last *float64
}

func (r recordingSink) WriteEpoch(epoch int, avgLoss float64) error {
	*r.last = avgLoss
	return nil
}

func TestTrain_Determinism(t *testing.T) {
	runOnce := func() float64 {
		net, err := New(testLayout(), loss.BCESigmoid, 7)
		require.NoError(t, err)
		opt := optimizer.New(net.Layers, optimizer.DefaultConfig())
		ds := xorDataset()
		var last float64
		params := TrainingParams{EpochCount: 20, BatchSize: 2, LossSink: recordingSink{&last}}
		require.NoError(t, net.Train(opt, ds, params))
		return net.Layers[0].Weights[0]
	}

	assert.Equal(t, runOnce(), runOnce())
}

func TestInfer_MatchesForwardOutput(t *testing.T) {
	net, err := New(testLayout(), loss.BCESigmoid, 3)
	require.NoError(t, err)

	buf := batch.New(net.Layers)
	out := make([]float64, 1)
	net.Infer(buf, []float64{0.3, -0.1}, out)

	probe := batch.New(net.Layers)
	probe.Forward([]float64{0.3, -0.1})
	assert.Equal(t, probe.Output().Activations, out)

	assert.Len(t, out, 1)
	assert.GreaterOrEqual(t, out[0], 0.0)
	assert.LessOrEqual(t, out[0], 1.0)
}

func TestSnapshot_RoundTripPreservesInference(t *testing.T) {
	net, err := New(testLayout(), loss.BCESigmoid, 11)
	require.NoError(t, err)

	x := []float64{0.2, 0.4}
	bufBefore := batch.New(net.Layers)
	before := make([]float64, 1)
	net.Infer(bufBefore, x, before)

	data, err := json.Marshal(net)
	require.NoError(t, err)

	var loaded Network
	require.NoError(t, json.Unmarshal(data, &loaded))

	bufAfter := batch.New(loaded.Layers)
	after := make([]float64, 1)
	loaded.Infer(bufAfter, x, after)

	assert.Equal(t, before, after)
}
