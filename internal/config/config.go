// Package config holds the run hyperparameters and the optional YAML file
// that overrides them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/mnistlinear/internal/mnist"
	"gopkg.in/yaml.v3"
)

// Hyperparameters.
const (
	LearningRate = 0.05
	BatchSize    = 64
	TrainSteps   = 200
)

// Data constants.
const (
	ImageSize  = mnist.ImageSize
	LabelsSize = mnist.NumClasses
)

// Defaults for the non-hyperparameter knobs.
const (
	DefaultDataDir          = "data/mnist"
	DefaultSeed             = 1
	DefaultSyntheticSamples = 6500
	DefaultLogEvery         = 50
)

// File captures the runtime knobs for a training run.
type File struct {
	DataDir          string  `yaml:"data_dir"`
	Seed             int64   `yaml:"seed"`
	Synthetic        bool    `yaml:"synthetic"`
	SyntheticSamples int     `yaml:"synthetic_samples"`
	Steps            int     `yaml:"steps"`
	BatchSize        int     `yaml:"batch_size"`
	LearningRate     float32 `yaml:"learning_rate"`
	LogEvery         int     `yaml:"log_every"` // 0 disables progress logs
	Sequential       bool    `yaml:"sequential"`
}

// Overrides captures CLI supplied values. Nil fields leave the file alone.
type Overrides struct {
	DataDir          *string
	Seed             *int64
	Synthetic        *bool
	SyntheticSamples *int
	Steps            *int
	BatchSize        *int
	LearningRate     *float32
	LogEvery         *int
	Sequential       *bool
}

// Default returns the configuration used when no file is given.
func Default() *File {
	return &File{
		DataDir:          DefaultDataDir,
		Seed:             DefaultSeed,
		SyntheticSamples: DefaultSyntheticSamples,
		Steps:            TrainSteps,
		BatchSize:        BatchSize,
		LearningRate:     LearningRate,
		LogEvery:         DefaultLogEvery,
	}
}

// Load reads and validates a File from YAML. Keys missing from the file
// keep their defaults. An empty path returns Default().
func Load(path string) (*File, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML on top of Default(). Unknown keys are an error.
func Parse(data []byte) (*File, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c with every override that is set.
func (c *File) ApplyOverrides(o Overrides) {
	set(&c.DataDir, o.DataDir)
	set(&c.Seed, o.Seed)
	set(&c.Synthetic, o.Synthetic)
	set(&c.SyntheticSamples, o.SyntheticSamples)
	set(&c.Steps, o.Steps)
	set(&c.BatchSize, o.BatchSize)
	set(&c.LearningRate, o.LearningRate)
	set(&c.LogEvery, o.LogEvery)
	set(&c.Sequential, o.Sequential)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate verifies the config is runnable.
func (c *File) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if !c.Synthetic && c.DataDir == "" {
		return errors.New("data_dir must be set unless synthetic is true")
	}
	if c.Synthetic && c.SyntheticSamples < 2 {
		return fmt.Errorf("synthetic_samples must be >= 2 (got %d)", c.SyntheticSamples)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be > 0 (got %d)", c.Steps)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	lr := float64(c.LearningRate)
	if lr <= 0 || math.IsInf(lr, 0) || math.IsNaN(lr) {
		return fmt.Errorf("learning_rate must be a positive number (got %v)", c.LearningRate)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log_every must be >= 0 (got %d)", c.LogEvery)
	}
	return nil
}
