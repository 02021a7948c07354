// Package report writes the two CSV outputs the training loop emits: the
// per-epoch loss sink and the final validation-set prediction scatter.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// LossWriter writes the loss CSV: header row reserves a third "accuracy"
// column that is never populated, data rows carry only epoch and loss.
type LossWriter struct {
	w         *csv.Writer
	wroteHead bool
}

// NewLossWriter wraps w, writing nothing until the first WriteEpoch call.
func NewLossWriter(w io.Writer) *LossWriter {
	return &LossWriter{w: csv.NewWriter(w)}
}

// WriteEpoch appends one {epoch, loss} row, writing the header first if
// this is the first call.
func (lw *LossWriter) WriteEpoch(epoch int, avgLoss float64) error {
	if !lw.wroteHead {
		if err := lw.w.Write([]string{"epoch", "loss", "accuracy"}); err != nil {
			return fmt.Errorf("report: writing loss header: %w", err)
		}
		lw.wroteHead = true
	}
	row := []string{
		strconv.Itoa(epoch),
		strconv.FormatFloat(avgLoss, 'g', -1, 64),
	}
	if err := lw.w.Write(row); err != nil {
		return fmt.Errorf("report: writing loss row for epoch %d: %w", epoch, err)
	}
	lw.w.Flush()
	return lw.w.Error()
}

// ScatterWriter writes the final prediction scatter CSV: one row per
// validation entry, input fields then expected fields then predicted
// fields.
type ScatterWriter struct {
	w         *csv.Writer
	inputSize int
	wroteHead bool
}

// NewScatterWriter wraps w for a dataset with the given input width,
// writing a header sized to inputSize+outputSize+outputSize columns.
func NewScatterWriter(w io.Writer, inputSize int) *ScatterWriter {
	return &ScatterWriter{w: csv.NewWriter(w), inputSize: inputSize}
}

// WriteRow appends one scatter row. input, expected, and predicted must be
// non-empty and expected/predicted must be the same length.
func (sw *ScatterWriter) WriteRow(input, expected, predicted []float64) error {
	if !sw.wroteHead {
		header := make([]string, 0, len(input)+2*len(expected))
		for i := range input {
			header = append(header, fmt.Sprintf("input_%d", i+1))
		}
		for i := range expected {
			header = append(header, fmt.Sprintf("expected_%d", i+1))
		}
		for i := range predicted {
			header = append(header, fmt.Sprintf("predicted_%d", i+1))
		}
		if err := sw.w.Write(header); err != nil {
			return fmt.Errorf("report: writing scatter header: %w", err)
		}
		sw.wroteHead = true
	}

	row := make([]string, 0, len(input)+len(expected)+len(predicted))
	for _, v := range input {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, v := range expected {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, v := range predicted {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if err := sw.w.Write(row); err != nil {
		return fmt.Errorf("report: writing scatter row: %w", err)
	}
	sw.w.Flush()
	return sw.w.Error()
}
