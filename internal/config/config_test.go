package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/genevec/internal/models/node2vec"
	"github.com/cnclabs/genevec/internal/models/skipgram"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func validConfig() *Config {
	cfg := Default()
	cfg.Input.Path = "edges.tsv"
	cfg.Output.Path = "emb.csv"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 128, cfg.Train.Dimensions)
	assert.Equal(t, 50, cfg.Walk.Length)
	assert.Equal(t, 10, cfg.Walk.NumWalks)
	assert.Equal(t, 10, cfg.Train.WindowSize)
	assert.Equal(t, 20, cfg.Train.Epochs)
	assert.Equal(t, 1, cfg.Train.MinCount)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 1.0, cfg.Walk.P)
	assert.Equal(t, 1.0, cfg.Walk.Q)
	assert.False(t, cfg.Train.CBOW)
}

func TestDefaultsMatchModelOptions(t *testing.T) {
	cfg := Default()
	walk := node2vec.DefaultOptions()
	train := skipgram.DefaultOptions()

	assert.Equal(t, walk.WalkLength, cfg.Walk.Length)
	assert.Equal(t, walk.NumWalks, cfg.Walk.NumWalks)
	assert.Equal(t, train.Sample, cfg.Train.Sample)
	assert.Equal(t, train.Negative, cfg.Train.Negative)
	assert.Equal(t, train.Workers, cfg.Workers)
	assert.Equal(t, train.Seed, cfg.Seed)
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "genevec.toml", `
workers = 2

[walk]
length = 30
q = 0.5

[train]
dimensions = 64

[output]
format = "parquet"
`)
	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, 30, cfg.Walk.Length)
	assert.Equal(t, 0.5, cfg.Walk.Q)
	assert.Equal(t, 10, cfg.Walk.NumWalks, "unset keys keep defaults")
	assert.Equal(t, 64, cfg.Train.Dimensions)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "parquet", cfg.Output.Format)
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "genevec.yaml", `
input:
  na_values: ["-", "?"]
train:
  epochs: 3
  cbow: true
log:
  level: debug
`)
	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, []string{"-", "?"}, cfg.Input.NAValues)
	assert.Equal(t, 3, cfg.Train.Epochs)
	assert.True(t, cfg.Train.CBOW)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()

	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.toml")))
	assert.Error(t, cfg.LoadFile(writeFile(t, "bad.toml", "walk = [")))
	assert.Error(t, cfg.LoadFile(writeFile(t, "conf.ini", "a=1")))
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GENEVEC_WALK_NUM_WALKS", "4")
	t.Setenv("GENEVEC_TRAIN_DIMENSIONS", "32")
	t.Setenv("GENEVEC_OUTPUT_FORMAT", "arrow")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, 4, cfg.Walk.NumWalks)
	assert.Equal(t, 32, cfg.Train.Dimensions)
	assert.Equal(t, "arrow", cfg.Output.Format)
	assert.Equal(t, 50, cfg.Walk.Length)
}

func TestLoadEnvIgnoresUnprefixedVariables(t *testing.T) {
	t.Setenv("PATH", "/usr/local/bin:/usr/bin")
	t.Setenv("FORMAT", "json")
	t.Setenv("P", "0.5")
	t.Setenv("LEVEL", "debug")
	t.Setenv("WORKERS", "64")
	t.Setenv("NUM_WALKS", "3")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv(filepath.Join(t.TempDir(), "absent.env")))

	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Input.Path)
	assert.Empty(t, cfg.Output.Path)
}

func TestLoadEnvSplitWordNames(t *testing.T) {
	t.Setenv("GENEVEC_INPUT_PATH", "ppi.tsv")
	t.Setenv("GENEVEC_INPUT_NA_VALUES", "-,?")
	t.Setenv("GENEVEC_TRAIN_MIN_ALPHA", "0.001")
	t.Setenv("GENEVEC_TRAIN_CBOW", "true")
	t.Setenv("GENEVEC_LOG_FORMAT", "json")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, "ppi.tsv", cfg.Input.Path)
	assert.Equal(t, []string{"-", "?"}, cfg.Input.NAValues)
	assert.Equal(t, 0.001, cfg.Train.MinAlpha)
	assert.True(t, cfg.Train.CBOW)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Output.Format)
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "GENEVEC_TRAIN_EPOCHS=7\n")
	t.Cleanup(func() { os.Unsetenv("GENEVEC_TRAIN_EPOCHS") })

	cfg := Default()
	require.NoError(t, cfg.LoadEnv(path, filepath.Join(t.TempDir(), "absent.env")))

	assert.Equal(t, 7, cfg.Train.Epochs)
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("GENEVEC_TRAIN_EPOCHS", "many")

	assert.Error(t, Default().LoadEnv())
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	for name, mutate := range map[string]func(*Config){
		"no input":        func(c *Config) { c.Input.Path = "" },
		"no output":       func(c *Config) { c.Output.Path = "" },
		"zero dimensions": func(c *Config) { c.Train.Dimensions = 0 },
		"zero walk":       func(c *Config) { c.Walk.Length = 0 },
		"zero walks":      func(c *Config) { c.Walk.NumWalks = 0 },
		"zero window":     func(c *Config) { c.Train.WindowSize = 0 },
		"zero epochs":     func(c *Config) { c.Train.Epochs = 0 },
		"zero workers":    func(c *Config) { c.Workers = 0 },
		"negative p":      func(c *Config) { c.Walk.P = -1 },
		"bad format":      func(c *Config) { c.Output.Format = "xlsx" },
		"bad alpha":       func(c *Config) { c.Train.MinAlpha = 1 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
