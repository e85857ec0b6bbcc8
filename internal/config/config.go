// Package config loads engine and store settings from YAML.
//
// Every field has a default, so an absent file or an empty document yields a
// working local configuration. Command-line flags override loaded values.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/discochess/connect4/internal/codec"
	"github.com/discochess/connect4/internal/eval"
	"github.com/discochess/connect4/internal/seeder"
	"github.com/discochess/connect4/internal/shard"
	"github.com/discochess/connect4/internal/shard/flatshard"
	"github.com/discochess/connect4/internal/shard/plyshard"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/store"
	"github.com/discochess/connect4/internal/store/badgerstore"
	"github.com/discochess/connect4/internal/store/diskstore"
	"github.com/discochess/connect4/internal/store/gcsstore"
	"github.com/discochess/connect4/internal/store/memstore"
	"github.com/discochess/connect4/internal/store/s3store"
	"github.com/discochess/connect4/internal/zobrist"
)

// Backends.
const (
	BackendDisk   = "disk"
	BackendBadger = "badger"
	BackendS3     = "s3"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Partitionings.
const (
	PartitioningPly  = "ply"
	PartitioningFlat = "flat"
)

// Evaluators.
const (
	EvaluatorHeuristic = "heuristic"
	EvaluatorRollout   = "rollout"
)

// ErrInvalid indicates a configuration value outside its allowed set.
var ErrInvalid = errors.New("config: invalid value")

// Config is the complete engine configuration.
type Config struct {
	DataDir string `yaml:"data_dir"`
	Backend string `yaml:"backend"`
	Codec   string `yaml:"codec"`

	// Partitioning is "ply" (Window plies per partition) or "flat" (one
	// partition for every position, for small stores).
	Partitioning string `yaml:"partitioning"`
	Window       int    `yaml:"window"`

	// Strict fails partition loads on malformed records instead of skipping
	// them.
	Strict bool `yaml:"strict"`

	// ZobristFile defaults to zobrist_hashes.txt in DataDir.
	ZobristFile string `yaml:"zobrist_file"`

	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Seed      SeedConfig      `yaml:"seed"`
	S3        S3Config        `yaml:"s3"`
	GCS       GCSConfig       `yaml:"gcs"`
}

// EvaluatorConfig selects the horizon evaluator.
type EvaluatorConfig struct {
	Name        string `yaml:"name"`
	Simulations int    `yaml:"simulations"`
	Workers     int    `yaml:"workers"`
}

// SeedConfig tunes offline seeding.
type SeedConfig struct {
	Depth       int `yaml:"depth"`
	Workers     int `yaml:"workers"`
	MaxAttempts int `yaml:"max_attempts"`
}

// S3Config locates partitions in an S3 bucket.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// GCSConfig locates partitions in a Cloud Storage bucket.
type GCSConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataDir:      "./data",
		Backend:      BackendDisk,
		Codec:        "none",
		Partitioning: PartitioningPly,
		Window:       plyshard.DefaultWindow,
		Evaluator: EvaluatorConfig{
			Name:        EvaluatorHeuristic,
			Simulations: eval.DefaultSimulations,
		},
		Seed: SeedConfig{
			Depth: seeder.DefaultDepth,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every enumerated field.
func (c Config) Validate() error {
	var errs []error
	switch c.Partitioning {
	case PartitioningPly:
		if c.Window != 3 && c.Window != 6 {
			errs = append(errs, fmt.Errorf("%w: window %d, want 3 or 6", ErrInvalid, c.Window))
		}
	case PartitioningFlat:
	default:
		errs = append(errs, fmt.Errorf("%w: partitioning %q", ErrInvalid, c.Partitioning))
	}
	switch c.Backend {
	case BackendDisk, BackendBadger, BackendMemory:
	case BackendS3:
		if c.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("%w: s3 backend needs s3.bucket", ErrInvalid))
		}
	case BackendGCS:
		if c.GCS.Bucket == "" {
			errs = append(errs, fmt.Errorf("%w: gcs backend needs gcs.bucket", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend))
	}
	if _, err := codec.ByName(c.Codec); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	switch c.Evaluator.Name {
	case EvaluatorHeuristic, EvaluatorRollout:
	default:
		errs = append(errs, fmt.Errorf("%w: evaluator %q", ErrInvalid, c.Evaluator.Name))
	}
	if c.Seed.Depth < 1 {
		errs = append(errs, fmt.Errorf("%w: seed.depth %d", ErrInvalid, c.Seed.Depth))
	}
	return errors.Join(errs...)
}

// ZobristPath returns the key table location.
func (c Config) ZobristPath() string {
	if c.ZobristFile != "" {
		return c.ZobristFile
	}
	return filepath.Join(c.DataDir, zobrist.FileName)
}

// Strategy returns the partitioning strategy.
func (c Config) Strategy() (shard.Strategy, error) {
	if c.Partitioning == PartitioningFlat {
		return flatshard.New(), nil
	}
	s, err := plyshard.New(c.Window)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CompressionCodec returns the partition codec.
func (c Config) CompressionCodec() (codec.Codec, error) {
	return codec.ByName(c.Codec)
}

// OpenStore opens the configured backend.
func (c Config) OpenStore(ctx context.Context, strategy shard.Strategy) (store.Store, error) {
	cd, err := c.CompressionCodec()
	if err != nil {
		return nil, err
	}

	switch c.Backend {
	case BackendDisk:
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return diskstore.New(c.DataDir, strategy, cd)
	case BackendBadger:
		return badgerstore.New(filepath.Join(c.DataDir, "badger"))
	case BackendMemory:
		return memstore.New(), nil
	case BackendS3:
		opts := []s3store.Option{s3store.WithPrefix(c.S3.Prefix)}
		if c.S3.Region != "" {
			opts = append(opts, s3store.WithRegion(c.S3.Region))
		}
		if c.S3.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(c.S3.Endpoint))
		}
		st, err := s3store.New(ctx, c.S3.Bucket, strategy, cd, opts...)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendGCS:
		st, err := gcsstore.New(ctx, c.GCS.Bucket, strategy, cd, gcsstore.WithPrefix(c.GCS.Prefix))
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend)
	}
}

// NewEvaluator returns the configured horizon evaluator.
func (c Config) NewEvaluator(collector stats.Collector) (eval.Evaluator, error) {
	switch c.Evaluator.Name {
	case EvaluatorHeuristic:
		return eval.NewHeuristic(), nil
	case EvaluatorRollout:
		opts := []eval.RolloutOption{eval.WithStats(collector)}
		if c.Evaluator.Simulations > 0 {
			opts = append(opts, eval.WithSimulations(c.Evaluator.Simulations))
		}
		if c.Evaluator.Workers > 0 {
			opts = append(opts, eval.WithWorkers(c.Evaluator.Workers))
		}
		return eval.NewRollout(opts...), nil
	default:
		return nil, fmt.Errorf("%w: evaluator %q", ErrInvalid, c.Evaluator.Name)
	}
}
