// Command train wires a JSON configuration, a CSV training dataset, the
// numerical training core, and the CSV/JSON output sinks together. It
// contains no parsing or numerical logic of its own.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"denseforge/internal/config"
	"denseforge/internal/dataset"
	"denseforge/internal/network"
	"denseforge/internal/optimizer"
	"denseforge/internal/report"
	"denseforge/internal/runstore"
	"denseforge/internal/trainlive"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the training configuration JSON")
	lossPath := flag.String("loss-out", "loss.csv", "path to write the per-epoch loss CSV")
	scatterPath := flag.String("scatter-out", "", "optional path to write the final prediction scatter CSV")
	modelPath := flag.String("model-out", "", "optional path to write the trained model snapshot JSON")
	seed := flag.Uint64("seed", 1, "PRNG seed for initialization and shuffling")
	serveAddr := flag.String("serve", "", "optional address (e.g. :8090) to serve a live training dashboard on")
	runID := flag.String("run-id", "run", "run identifier reported to the live dashboard")
	flag.Parse()

	doc, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ds, err := dataset.Load(doc.Training.TrainDataset, doc.InputSize, doc.OutputSize())
	if err != nil {
		log.Fatalf("loading training dataset: %v", err)
	}

	net, err := network.New(doc.Layout(), doc.Loss(), *seed)
	if err != nil {
		log.Fatalf("building network: %v", err)
	}
	opt := optimizer.New(net.Layers, doc.OptimizerConfig())

	params := doc.TrainingParams()

	lossFile, err := os.Create(*lossPath)
	if err != nil {
		log.Fatalf("creating %s: %v", *lossPath, err)
	}
	defer lossFile.Close()
	params.LossSink = report.NewLossWriter(lossFile)

	if *scatterPath != "" {
		scatterFile, err := os.Create(*scatterPath)
		if err != nil {
			log.Fatalf("creating %s: %v", *scatterPath, err)
		}
		defer scatterFile.Close()
		params.ScatterSink = report.NewScatterWriter(scatterFile, doc.InputSize)

		if doc.Training.TestDataset != "" {
			testSet, err := dataset.Load(doc.Training.TestDataset, doc.InputSize, doc.OutputSize())
			if err != nil {
				log.Fatalf("loading test dataset: %v", err)
			}
			params.ScatterDataset = testSet
		}
	}

	var store *runstore.Store
	if *serveAddr != "" {
		hub := trainlive.NewHub()
		store = runstore.New()
		params.Progress = trainlive.NewBridge(hub, store, *runID)

		mux := http.NewServeMux()
		mux.Handle("/ws", trainlive.NewHandler(hub, store, *runID))
		mux.Handle("/runs", trainlive.NewIndexHandler(store))
		go func() {
			log.Printf("serving live training dashboard on %s", *serveAddr)
			if err := http.ListenAndServe(*serveAddr, mux); err != nil {
				log.Printf("dashboard server stopped: %v", err)
			}
		}()
	}

	if err := net.Train(opt, ds, params); err != nil {
		log.Fatalf("training: %v", err)
	}

	if *modelPath != "" {
		data, err := net.MarshalJSON()
		if err != nil {
			log.Fatalf("marshaling trained model: %v", err)
		}
		if err := os.WriteFile(*modelPath, data, 0o644); err != nil {
			log.Fatalf("writing %s: %v", *modelPath, err)
		}
	}

	fmt.Println("training complete")
}
