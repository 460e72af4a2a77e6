// Package train drives a classifier training run: one warm-up step, a
// timed loop, and a final cost readback.
package train

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/born-ml/mnistlinear/internal/autodiff"
	"github.com/born-ml/mnistlinear/internal/classifier"
	"github.com/born-ml/mnistlinear/internal/mnist"
	"github.com/born-ml/mnistlinear/internal/tensor"
	"github.com/google/uuid"
)

// Result summarizes a training run.
type Result struct {
	RunID      string
	WarmupCost float32
	FinalCost  float32
	Elapsed    time.Duration // timed loop plus the final readback
	Steps      int
}

// Run trains params on batches from src.
//
// The warm-up step's cost is read back before the clock starts. In the
// timed loop only the last step keeps its cost; each step's tensors are
// released before the next step begins. Elapsed stops after the final
// cost has been read.
//
// Returns an error for an invalid config, a cancelled ctx, or a
// non-finite cost.
func Run[B autodiff.BackwardCapable](
	ctx context.Context,
	cfg Config,
	params *classifier.Parameters[B],
	src mnist.Source[B],
	backend B,
) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{RunID: uuid.NewString(), Steps: cfg.Steps}
	trainer := classifier.NewTrainer(params, cfg.LearningRate, backend)

	log.Printf("run=%s backend=%s steps=%d batch_size=%d lr=%g",
		res.RunID, backend.Name(), cfg.Steps, cfg.BatchSize, cfg.LearningRate)

	warmup, err := readCost(ctx, trainer.StepFrom(src, cfg.BatchSize, true))
	if err != nil {
		return res, fmt.Errorf("train: warm-up: %w", err)
	}
	res.WarmupCost = warmup
	log.Printf("run=%s warmup_cost=%.4f", res.RunID, warmup)

	start := time.Now()
	var final *tensor.Tensor[float32, B]
	for i := 0; i < cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("train: step %d: %w", i+1, err)
		}

		last := i == cfg.Steps-1
		tensor.Tidy(func(s *tensor.Scope) {
			cost := trainer.StepFrom(src, cfg.BatchSize, last)
			if last {
				s.Keep(cost.Raw())
				final = cost
			}
		})

		if cfg.LogEvery > 0 && (i+1)%cfg.LogEvery == 0 {
			snap := tensor.Memory()
			log.Printf("run=%s step=%d elapsed_ms=%.2f live_tensors=%d live_bytes=%d",
				res.RunID, i+1, msSince(start), snap.LiveBuffers, snap.LiveBytes)
		}
	}

	cost, err := readCost(ctx, final)
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("train: final step: %w", err)
	}
	res.FinalCost = cost

	log.Printf("run=%s done elapsed_ms=%.2f cost=%.4f", res.RunID, msSince(start), cost)
	return res, nil
}

// readCost awaits a scalar cost, releases it, and checks it is finite.
func readCost[B tensor.Backend](ctx context.Context, cost *tensor.Tensor[float32, B]) (float32, error) {
	defer cost.Release()

	values, err := cost.Await(ctx)
	if err != nil {
		return 0, err
	}
	v := values[0]
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return v, fmt.Errorf("non-finite cost %v", v)
	}
	return v, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

// Report prints the elapsed time of the timed loop and the final cost.
func Report(w io.Writer, r Result) error {
	ms := float64(r.Elapsed.Microseconds()) / 1000
	_, err := fmt.Fprintf(w, "Train took %.3f ms\ncost %v\n", ms, r.FinalCost)
	return err
}
