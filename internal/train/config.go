package train

import (
	"errors"
	"fmt"
	"math"

	"github.com/born-ml/mnistlinear/internal/config"
)

// Config captures the knobs required by the training loop.
type Config struct {
	LearningRate float32
	BatchSize    int
	Steps        int // timed steps after the warm-up step
	LogEvery     int // progress log interval in steps; 0 disables
}

// DefaultConfig returns the fixed hyperparameters.
func DefaultConfig() Config {
	return Config{
		LearningRate: config.LearningRate,
		BatchSize:    config.BatchSize,
		Steps:        config.TrainSteps,
		LogEvery:     config.DefaultLogEvery,
	}
}

// FromFile converts a loaded config file into a training Config.
func FromFile(f *config.File) Config {
	return Config{
		LearningRate: f.LearningRate,
		BatchSize:    f.BatchSize,
		Steps:        f.Steps,
		LogEvery:     f.LogEvery,
	}
}

// Validate verifies the config is runnable.
func (c Config) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("train: steps must be > 0 (got %d)", c.Steps)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("train: batch size must be > 0 (got %d)", c.BatchSize)
	}
	lr := float64(c.LearningRate)
	if lr <= 0 || math.IsNaN(lr) || math.IsInf(lr, 0) {
		return fmt.Errorf("train: learning rate must be a positive number (got %v)", c.LearningRate)
	}
	if c.LogEvery < 0 {
		return errors.New("train: log interval must be >= 0")
	}
	return nil
}
