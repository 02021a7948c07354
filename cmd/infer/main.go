// Command infer loads a trained model snapshot and runs a single forward
// pass on one CSV row of input fields, printing the predicted outputs.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"denseforge/internal/batch"
	"denseforge/internal/network"
)

func main() {
	modelPath := flag.String("model", "", "path to a trained model snapshot JSON (written by cmd/train -model-out)")
	inputRow := flag.String("input", "", "comma-separated input fields, e.g. 0.1,-0.2,0.3")
	flag.Parse()

	if *modelPath == "" || *inputRow == "" {
		log.Fatal("both -model and -input are required")
	}

	data, err := os.ReadFile(*modelPath)
	if err != nil {
		log.Fatalf("reading %s: %v", *modelPath, err)
	}

	var net network.Network
	if err := net.UnmarshalJSON(data); err != nil {
		log.Fatalf("loading model: %v", err)
	}

	x, err := parseRow(*inputRow)
	if err != nil {
		log.Fatalf("parsing -input: %v", err)
	}
	if len(x) != net.Layers[0].InputSize {
		log.Fatalf("input has %d fields, model expects %d", len(x), net.Layers[0].InputSize)
	}

	buf := batch.New(net.Layers)
	out := make([]float64, net.Layers[len(net.Layers)-1].OutputSize)
	net.Infer(buf, x, out)

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	row := make([]string, len(out))
	for i, v := range out {
		row[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if err := w.Write(row); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func parseRow(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
