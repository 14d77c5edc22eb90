package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	jujuerrors "github.com/juju/errors"

	"github.com/cnclabs/genevec/internal/config"
	"github.com/cnclabs/genevec/internal/logger"
	"github.com/cnclabs/genevec/internal/pipeline"
)

const version = "0.3.0"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type flags struct {
	input, output        string
	dimensions           int
	walkLength, numWalks int
	windowSize, epochs   int
	p, q                 float64
	workers              int
	seed                 int64
	format               string
	configPath, envFile  string
	logLevel, logFormat  string
	cbow                 bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(f *flags, stderr io.Writer) *flag.FlagSet {
	def := config.Default()
	fs := flag.NewFlagSet("genevec", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.input, "input", "", "Input TSV file with gene interactions")
	fs.StringVar(&f.input, "i", "", "Shorthand for -input")
	fs.StringVar(&f.output, "output", "", "Output file for embeddings")
	fs.StringVar(&f.output, "o", "", "Shorthand for -output")
	fs.IntVar(&f.dimensions, "dimensions", def.Train.Dimensions, "Embedding dimensions")
	fs.IntVar(&f.dimensions, "d", def.Train.Dimensions, "Shorthand for -dimensions")
	fs.IntVar(&f.walkLength, "walk_length", def.Walk.Length, "Random walk length")
	fs.IntVar(&f.numWalks, "num_walks", def.Walk.NumWalks, "Number of walks per node")
	fs.IntVar(&f.windowSize, "window_size", def.Train.WindowSize, "Size of skip-gram window")
	fs.IntVar(&f.epochs, "epochs", def.Train.Epochs, "Training epochs")
	fs.Float64Var(&f.p, "p", def.Walk.P, "Return parameter (controls likelihood to return to previous node)")
	fs.Float64Var(&f.q, "q", def.Walk.Q, "In-out parameter (BFS vs DFS: q > 1 = BFS, q < 1 = DFS)")
	fs.IntVar(&f.workers, "workers", def.Workers, "Number of sampling and training workers")
	fs.Int64Var(&f.seed, "seed", def.Seed, "Random seed")
	fs.BoolVar(&f.cbow, "cbow", def.Train.CBOW, "Train CBOW instead of skip-gram")
	fs.StringVar(&f.format, "format", "", "Output format: csv, parquet, arrow, word2vec (default: by extension)")
	fs.StringVar(&f.configPath, "config", "", "TOML or YAML configuration file")
	fs.StringVar(&f.envFile, "env_file", ".env", "Environment file with GENEVEC_* overrides")
	fs.StringVar(&f.logLevel, "log_level", def.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log_format", def.Log.Format, "Log format: console or json")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintln(out, "[genevec]")
		fmt.Fprintln(out, "\tGene network embeddings with node2vec walks and skip-gram training")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Options Description:")
		fs.PrintDefaults()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Usage:")
		fmt.Fprintln(out, "./genevec -i interactions.tsv -o embeddings.csv -d 128 -walk_length 50 -num_walks 10 -window_size 10 -epochs 20")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Examples:")
		fmt.Fprintln(out, "\t# Parquet output, BFS-like walks")
		fmt.Fprintln(out, "\t./genevec -i ppi.tsv -o ppi.parquet -q 2")
	}
	return fs
}

// applyFlags copies explicitly set flags over cfg
func applyFlags(fs *flag.FlagSet, f *flags, cfg *config.Config) {
	setters := map[string]func(){
		"input":       func() { cfg.Input.Path = f.input },
		"output":      func() { cfg.Output.Path = f.output },
		"dimensions":  func() { cfg.Train.Dimensions = f.dimensions },
		"walk_length": func() { cfg.Walk.Length = f.walkLength },
		"num_walks":   func() { cfg.Walk.NumWalks = f.numWalks },
		"window_size": func() { cfg.Train.WindowSize = f.windowSize },
		"epochs":      func() { cfg.Train.Epochs = f.epochs },
		"p":           func() { cfg.Walk.P = f.p },
		"q":           func() { cfg.Walk.Q = f.q },
		"workers":     func() { cfg.Workers = f.workers },
		"seed":        func() { cfg.Seed = f.seed },
		"cbow":        func() { cfg.Train.CBOW = f.cbow },
		"format":      func() { cfg.Output.Format = f.format },
		"log_level":   func() { cfg.Log.Level = f.logLevel },
		"log_format":  func() { cfg.Log.Format = f.logFormat },
	}
	aliases := map[string]string{"i": "input", "o": "output", "d": "dimensions"}

	fs.Visit(func(fl *flag.Flag) {
		name := fl.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		if set, ok := setters[name]; ok {
			set()
		}
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f flags
	fs := newFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg := config.Default()
	if f.configPath != "" {
		if err := cfg.LoadFile(f.configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
	}
	if err := cfg.LoadEnv(f.envFile); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	applyFlags(fs, &f, cfg)

	if cfg.Input.Path == "" || cfg.Output.Path == "" {
		fs.Usage()
		fmt.Fprintln(stderr, "Error: -input and -output are required")
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	log, closer, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer closer.Close()

	log = log.With().Str("run_id", uuid.NewString()).Logger()
	log.Info().Str("version", version).Msg("genevec")

	report, err := pipeline.New(cfg, pipeline.WithLogger(log)).Run(ctx)
	if err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) {
			log.Error().Str("kind", se.Kind()).Msg(se.Stage.String() + " failed")
			log.Debug().Msg(jujuerrors.ErrorStack(se.Err))
		}
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	log.Info().
		Str("output", report.Output).
		Int("genes", report.Shape[0]).
		Int("dimensions", report.Shape[1]).
		Msg("Done")
	return exitOK
}
