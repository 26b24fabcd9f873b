package shelfdetect

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

const (
	// DefaultMaxViewSize is the default largest accepted view width or height
	DefaultMaxViewSize = 8192
	// MaxViewSizeLimit bounds MaxViewSize and is the largest view width or
	// height a canvas is rendered for
	MaxViewSizeLimit = 16384
)

// Config defines the settings of the detection pipeline and of the services
// built on it
type Config struct {
	// ModelFile is the path to the detector model
	ModelFile string `yaml:"model_file"`
	// NumThreads is the number of CPU threads the engine may use per
	// interpreter
	NumThreads int `yaml:"num_threads"`
	// InputWidth is the width of the model input tensor
	InputWidth int `yaml:"input_width"`
	// InputHeight is the height of the model input tensor
	InputHeight int `yaml:"input_height"`
	// MaxDetections is the fixed box capacity of the model output tensors
	MaxDetections int `yaml:"max_detections"`
	// CountClasses is the length of the per class count tensor
	CountClasses int `yaml:"count_classes"`
	// ScoreThreshold drops detections scoring below it, zero keeps them all
	ScoreThreshold float32 `yaml:"score_threshold"`
	// ShelfThreshold is the maximum top edge distance in view pixels between
	// consecutive boxes on the same shelf
	ShelfThreshold float32 `yaml:"shelf_threshold"`
	// MaxViewSize is the largest view width or height accepted from callers
	MaxViewSize float32 `yaml:"max_view_size"`
	// LabelFile is an optional text file naming each class, one per line
	LabelFile string `yaml:"label_file"`
	// Server holds the settings of the HTTP service
	Server ServerConfig `yaml:"server"`
}

// ServerConfig defines the settings of the HTTP service
type ServerConfig struct {
	// Addr is the listen address
	Addr string `yaml:"addr"`
	// PoolSize is the number of detectors, each with its own engine, serving
	// requests concurrently
	PoolSize int `yaml:"pool_size"`
	// RedisAddr enables the scene cache when set
	RedisAddr string `yaml:"redis_addr"`
	// CacheTTL is the expiry of cached scenes
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// HistoryDriver selects the history database, one of sqlite or postgres.
	// History is disabled when empty
	HistoryDriver string `yaml:"history_driver"`
	// HistoryDSN is the data source name passed to the history driver
	HistoryDSN string `yaml:"history_dsn"`
}

// DefaultConfig returns the configuration of the bundled shelf detector model
func DefaultConfig() Config {
	return Config{
		ModelFile:      "sku-base-640-480-fp16.tflite",
		NumThreads:     4,
		InputWidth:     480,
		InputHeight:    640,
		MaxDetections:  1000,
		CountClasses:   4,
		ScoreThreshold: 0,
		ShelfThreshold: 110,
		MaxViewSize:    DefaultMaxViewSize,
		Server: ServerConfig{
			Addr:     ":8080",
			PoolSize: 1,
			CacheTTL: 10 * time.Minute,
		},
	}
}

// LoadConfig reads a YAML configuration file.  Settings missing from the file
// keep their default value.
func LoadConfig(path string) (Config, error) {

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)

	if err != nil {
		return cfg, errors.Wrap(err, "error reading config")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "error parsing config %s", path)
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the pipeline can not run with
func (c Config) Validate() error {

	switch {
	case c.InputWidth <= 0 || c.InputHeight <= 0:
		return errors.Errorf("invalid input size %dx%d", c.InputWidth, c.InputHeight)
	case c.MaxDetections <= 0:
		return errors.Errorf("max_detections must be positive, got %d", c.MaxDetections)
	case c.CountClasses <= 0:
		return errors.Errorf("count_classes must be positive, got %d", c.CountClasses)
	case c.NumThreads <= 0:
		return errors.Errorf("num_threads must be positive, got %d", c.NumThreads)
	case !(c.ShelfThreshold >= 0):
		return errors.Errorf("shelf_threshold must not be negative, got %v", c.ShelfThreshold)
	case !(c.MaxViewSize > 0) || c.MaxViewSize > MaxViewSizeLimit:
		return errors.Errorf("max_view_size must be in (0, %d], got %v", MaxViewSizeLimit, c.MaxViewSize)
	case c.Server.PoolSize <= 0:
		return errors.Errorf("server.pool_size must be positive, got %d", c.Server.PoolSize)
	case c.Server.CacheTTL < 0:
		return errors.Errorf("server.cache_ttl must not be negative, got %s", c.Server.CacheTTL)
	}

	switch c.Server.HistoryDriver {
	case "", "sqlite", "postgres":
	default:
		return errors.Errorf("unknown history driver %q", c.Server.HistoryDriver)
	}

	return nil
}
