package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/cnclabs/genevec/internal/export"
	"github.com/cnclabs/genevec/internal/models/node2vec"
	"github.com/cnclabs/genevec/internal/models/skipgram"
)

// EnvPrefix prefixes every environment override. Names follow the field
// path, e.g. GENEVEC_WALK_NUM_WALKS or GENEVEC_INPUT_NA_VALUES. Fields must
// not carry envconfig tags: envconfig also reads a tag as a bare variable
// name (PATH, FORMAT, P) when the prefixed one is unset.
const EnvPrefix = "GENEVEC"

type InputConfig struct {
	Path     string   `toml:"path" yaml:"path" split_words:"true"`
	NAValues []string `toml:"na_values" yaml:"na_values" split_words:"true"`
}

type OutputConfig struct {
	Path   string `toml:"path" yaml:"path" split_words:"true"`
	Format string `toml:"format" yaml:"format" split_words:"true"`
}

type WalkConfig struct {
	Length   int     `toml:"length" yaml:"length" split_words:"true"`
	NumWalks int     `toml:"num_walks" yaml:"num_walks" split_words:"true"`
	P        float64 `toml:"p" yaml:"p" split_words:"true"`
	Q        float64 `toml:"q" yaml:"q" split_words:"true"`
}

type TrainConfig struct {
	Dimensions int     `toml:"dimensions" yaml:"dimensions" split_words:"true"`
	WindowSize int     `toml:"window_size" yaml:"window_size" split_words:"true"`
	Epochs     int     `toml:"epochs" yaml:"epochs" split_words:"true"`
	MinCount   int     `toml:"min_count" yaml:"min_count" split_words:"true"`
	Negative   int     `toml:"negative" yaml:"negative" split_words:"true"`
	Alpha      float64 `toml:"alpha" yaml:"alpha" split_words:"true"`
	MinAlpha   float64 `toml:"min_alpha" yaml:"min_alpha" split_words:"true"`
	Sample     float64 `toml:"sample" yaml:"sample" split_words:"true"`
	CBOW       bool    `toml:"cbow" yaml:"cbow" split_words:"true"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level" split_words:"true"`
	Format string `toml:"format" yaml:"format" split_words:"true"`
	Output string `toml:"output" yaml:"output" split_words:"true"`
}

// Config is the full run configuration
type Config struct {
	Input   InputConfig  `toml:"input" yaml:"input" split_words:"true"`
	Output  OutputConfig `toml:"output" yaml:"output" split_words:"true"`
	Walk    WalkConfig   `toml:"walk" yaml:"walk" split_words:"true"`
	Train   TrainConfig  `toml:"train" yaml:"train" split_words:"true"`
	Log     LogConfig    `toml:"log" yaml:"log" split_words:"true"`
	Workers int          `toml:"workers" yaml:"workers" split_words:"true"`
	Seed    int64        `toml:"seed" yaml:"seed" split_words:"true"`
}

// Default returns the configuration used when nothing is overridden. Walk
// and training defaults come from the model packages.
func Default() *Config {
	walk := node2vec.DefaultOptions()
	train := skipgram.DefaultOptions()
	return &Config{
		Walk: WalkConfig{
			Length:   walk.WalkLength,
			NumWalks: walk.NumWalks,
			P:        walk.P,
			Q:        walk.Q,
		},
		Train: TrainConfig{
			Dimensions: train.Dimensions,
			WindowSize: train.WindowSize,
			Epochs:     train.Epochs,
			MinCount:   train.MinCount,
			Negative:   train.Negative,
			Alpha:      train.Alpha,
			MinAlpha:   train.MinAlpha,
			Sample:     train.Sample,
			CBOW:       train.CBOW,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Workers: train.Workers,
		Seed:    train.Seed,
	}
}

// LoadFile overlays a TOML or YAML file (chosen by extension) onto cfg
func (cfg *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotatef(err, "failed to read config file '%s'", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return errors.Annotatef(err, "failed to parse TOML")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Annotatef(err, "failed to parse YAML")
		}
	default:
		return errors.NotValidf("config file extension %q", filepath.Ext(path))
	}
	return nil
}

// LoadEnv overlays GENEVEC_* environment variables onto cfg. Variables in
// envFiles are loaded first without replacing ones already set; missing
// files are skipped.
func (cfg *Config) LoadEnv(envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Annotatef(err, "failed to load %s", f)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return errors.Annotatef(err, "invalid environment override")
	}
	return nil
}

// Validate rejects configurations no stage could run with
func (cfg *Config) Validate() error {
	if cfg.Input.Path == "" {
		return errors.NotValidf("empty input path")
	}
	if cfg.Output.Path == "" {
		return errors.NotValidf("empty output path")
	}
	if _, err := export.ParseFormat(cfg.Output.Format); err != nil {
		return errors.Trace(err)
	}
	checks := []struct {
		name  string
		value int
	}{
		{"dimensions", cfg.Train.Dimensions},
		{"walk_length", cfg.Walk.Length},
		{"num_walks", cfg.Walk.NumWalks},
		{"window_size", cfg.Train.WindowSize},
		{"epochs", cfg.Train.Epochs},
		{"min_count", cfg.Train.MinCount},
		{"workers", cfg.Workers},
	}
	for _, c := range checks {
		if c.value < 1 {
			return errors.NotValidf("%s %d (must be positive)", c.name, c.value)
		}
	}
	if cfg.Walk.P <= 0 || cfg.Walk.Q <= 0 {
		return errors.NotValidf("p=%v q=%v (must be positive)", cfg.Walk.P, cfg.Walk.Q)
	}
	if cfg.Train.Negative < 0 {
		return errors.NotValidf("negative %d", cfg.Train.Negative)
	}
	if cfg.Train.Alpha <= 0 || cfg.Train.MinAlpha < 0 || cfg.Train.MinAlpha > cfg.Train.Alpha {
		return errors.NotValidf("learning rate %v..%v", cfg.Train.Alpha, cfg.Train.MinAlpha)
	}
	return nil
}
