// Package dataset loads the CSV row block the training loop consumes and
// splits it into disjoint training/validation views.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"denseforge/internal/network"
)

// Dataset is a row-major block of N entries, each inputSize+outputSize
// float64 fields, backing both the full load and any split view over it.
type Dataset struct {
	rows       []float64
	entryCount int
	inputSize  int
	outputSize int
}

// InputSize is the number of input fields per row.
func (d *Dataset) InputSize() int { return d.inputSize }

// OutputSize is the number of output fields per row.
func (d *Dataset) OutputSize() int { return d.outputSize }

// EntryCount is the number of rows.
func (d *Dataset) EntryCount() int { return d.entryCount }

// Row returns the i-th row's input+output fields, input_size+output_size
// long. The returned slice aliases the dataset's backing array.
func (d *Dataset) Row(i int) []float64 {
	width := d.inputSize + d.outputSize
	return d.rows[i*width : (i+1)*width]
}

// Load reads a CSV file where every row has exactly inputSize+outputSize
// numeric fields. A short/long row, a non-numeric field, or an empty file
// is a fatal dataset schema error; row errors name the offending line
// number.
func Load(path string, inputSize, outputSize int) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: opening %s: %w", path, err)
	}
	defer f.Close()

	width := inputSize + outputSize
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []float64
	entries := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: line %d: %w", path, line, err)
		}
		if len(record) != width {
			return nil, fmt.Errorf("dataset: %s: line %d: expected %d fields, got %d", path, line, width, len(record))
		}
		for _, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: %s: line %d: non-numeric field %q", path, line, field)
			}
			rows = append(rows, v)
		}
		entries++
	}

	if entries == 0 {
		return nil, fmt.Errorf("dataset: %s: no data rows", path)
	}

	return &Dataset{rows: rows, entryCount: entries, inputSize: inputSize, outputSize: outputSize}, nil
}

// Split returns the training prefix and validation suffix views Train
// needs, as slices over the same backing array: no copy, and disjoint by
// construction.
func (d *Dataset) Split(ratio float64) (train, validation network.Dataset) {
	cut := int(float64(d.entryCount) * ratio)
	width := d.inputSize + d.outputSize

	trainSet := &Dataset{
		rows:       d.rows[:cut*width],
		entryCount: cut,
		inputSize:  d.inputSize,
		outputSize: d.outputSize,
	}
	validationSet := &Dataset{
		rows:       d.rows[cut*width:],
		entryCount: d.entryCount - cut,
		inputSize:  d.inputSize,
		outputSize: d.outputSize,
	}
	return trainSet, validationSet
}
