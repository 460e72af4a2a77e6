// Package main trains the linear MNIST classifier and reports timing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/born-ml/mnistlinear/internal/autodiff"
	"github.com/born-ml/mnistlinear/internal/backend/cpu"
	"github.com/born-ml/mnistlinear/internal/classifier"
	"github.com/born-ml/mnistlinear/internal/config"
	"github.com/born-ml/mnistlinear/internal/mnist"
	"github.com/born-ml/mnistlinear/internal/train"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("mnist-linear %s\n", version)
		return
	}

	cfgPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	dataDir := flag.String("data", "", "Override directory with MNIST IDX files")
	synthetic := flag.Bool("synthetic", false, "Train on generated data instead of MNIST files")
	samples := flag.Int("samples", 0, "Number of synthetic samples")
	seed := flag.Int64("seed", 0, "PRNG seed")
	steps := flag.Int("steps", 0, "Number of timed training steps")
	batchSize := flag.Int("batch", 0, "Batch size")
	lr := flag.Float64("lr", 0, "Learning rate")
	logEvery := flag.Int("log-every", 0, "Progress log interval in steps (0 disables)")
	sequential := flag.Bool("sequential", false, "Serve training samples in order instead of shuffled")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Only flags given on the command line override the file.
	var o config.Overrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			o.DataDir = dataDir
		case "synthetic":
			o.Synthetic = synthetic
		case "samples":
			o.SyntheticSamples = samples
		case "seed":
			o.Seed = seed
		case "steps":
			o.Steps = steps
		case "batch":
			o.BatchSize = batchSize
		case "lr":
			v := float32(*lr)
			o.LearningRate = &v
		case "log-every":
			o.LogEvery = logEvery
		case "sequential":
			o.Sequential = sequential
		}
	})
	cfg.ApplyOverrides(o)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("training failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.File) error {
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())
	loader, err := mnist.NewLoader(ds, backend, mnist.LoaderOptions{
		Seed:       cfg.Seed,
		Sequential: cfg.Sequential,
	})
	if err != nil {
		return err
	}
	log.Printf("train_samples=%d test_samples=%d", loader.TrainLen(), loader.TestLen())

	params := classifier.NewParameters(backend, cfg.Seed)
	defer params.Release()

	res, err := train.Run(ctx, train.FromFile(cfg), params, loader, backend)
	if err != nil {
		return err
	}
	if err := train.Report(os.Stdout, res); err != nil {
		return err
	}

	batch := loader.NextTestBatch(cfg.BatchSize)
	defer batch.Release()

	pred := classifier.Predict(params, batch.Images)
	truth := classifier.ClassesFromLabel(batch.Labels)
	fmt.Printf("accuracy %.4f (%d test images)\n", classifier.Accuracy(pred, truth), len(truth))
	return nil
}

func loadDataset(ctx context.Context, cfg *config.File) (*mnist.Dataset, error) {
	if cfg.Synthetic {
		log.Printf("data=synthetic samples=%d seed=%d", cfg.SyntheticSamples, cfg.Seed)
		return mnist.Synthetic(cfg.SyntheticSamples, cfg.Seed), nil
	}

	ds, err := mnist.LoadIDX(ctx, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.DataDir, err)
	}
	log.Printf("data=%s samples=%d", cfg.DataDir, ds.Len())
	return ds, nil
}
