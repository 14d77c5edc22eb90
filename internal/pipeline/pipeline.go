// Package pipeline runs the gene embedding stages in order: load edges,
// build the graph, sample walks, train, extract and write vectors.
package pipeline

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/rs/zerolog"

	"github.com/cnclabs/genevec/internal/config"
	"github.com/cnclabs/genevec/internal/edgelist"
	"github.com/cnclabs/genevec/internal/export"
	"github.com/cnclabs/genevec/internal/models/node2vec"
	"github.com/cnclabs/genevec/internal/models/skipgram"
	"github.com/cnclabs/genevec/pkg/pronet"
)

// GraphBuilder turns an edge collection into a network
type GraphBuilder interface {
	Build(edges []edgelist.Edge) (*pronet.ProNet, error)
}

// WalkSampler produces random walks over a network
type WalkSampler interface {
	Sample(ctx context.Context, g *pronet.ProNet) ([][]string, error)
}

// Vectors resolves a node identifier to its embedding
type Vectors interface {
	Vector(token string) ([]float32, bool)
	Dimensions() int
}

// EmbeddingTrainer learns vectors from walks treated as sentences
type EmbeddingTrainer interface {
	Train(ctx context.Context, walks [][]string) (Vectors, error)
}

// ProNetBuilder is the default GraphBuilder
type ProNetBuilder struct{}

func (ProNetBuilder) Build(edges []edgelist.Edge) (*pronet.ProNet, error) {
	sources := make([]string, len(edges))
	targets := make([]string, len(edges))
	for i, e := range edges {
		sources[i], targets[i] = e.Source, e.Target
	}
	return pronet.FromEdges(sources, targets)
}

// SkipGramTrainer adapts skipgram.Trainer to EmbeddingTrainer
type SkipGramTrainer struct {
	*skipgram.Trainer
}

func (t SkipGramTrainer) Train(ctx context.Context, walks [][]string) (Vectors, error) {
	model, err := t.Trainer.Train(ctx, walks)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Report summarises a successful run
type Report struct {
	Rows           int
	DroppedMissing int
	Duplicates     int
	Edges          int
	Nodes          int
	GraphEdges     int
	Walks          int
	Shape          [2]int
	Homophily      float64
	Output         string
	Format         export.Format
}

// Pipeline wires the stages together
type Pipeline struct {
	cfg     *config.Config
	log     zerolog.Logger
	builder GraphBuilder
	sampler WalkSampler
	trainer EmbeddingTrainer
}

// Option replaces a default collaborator
type Option func(*Pipeline)

func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

func WithGraphBuilder(b GraphBuilder) Option {
	return func(p *Pipeline) { p.builder = b }
}

func WithWalkSampler(s WalkSampler) Option {
	return func(p *Pipeline) { p.sampler = s }
}

func WithTrainer(t EmbeddingTrainer) Option {
	return func(p *Pipeline) { p.trainer = t }
}

// New creates a pipeline for cfg. Options are applied before the default
// sampler and trainer are built, so those share the configured logger.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.builder == nil {
		p.builder = ProNetBuilder{}
	}
	if p.sampler == nil {
		p.sampler = node2vec.New(node2vec.Options{
			WalkLength: cfg.Walk.Length,
			NumWalks:   cfg.Walk.NumWalks,
			P:          cfg.Walk.P,
			Q:          cfg.Walk.Q,
			Workers:    cfg.Workers,
			Seed:       cfg.Seed,
		}, p.log)
	}
	if p.trainer == nil {
		p.trainer = SkipGramTrainer{skipgram.New(skipgram.Options{
			Dimensions: cfg.Train.Dimensions,
			WindowSize: cfg.Train.WindowSize,
			Epochs:     cfg.Train.Epochs,
			MinCount:   cfg.Train.MinCount,
			Workers:    cfg.Workers,
			Negative:   cfg.Train.Negative,
			Alpha:      cfg.Train.Alpha,
			MinAlpha:   cfg.Train.MinAlpha,
			Sample:     cfg.Train.Sample,
			CBOW:       cfg.Train.CBOW,
			Seed:       cfg.Seed,
		}, p.log)}
	}
	return p
}

// Run executes every stage. Any failure is returned as a *StageError.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{Output: p.cfg.Output.Path}

	// 1. Load and process data
	p.log.Info().Str("input", p.cfg.Input.Path).Msg("Loading data...")
	loaded, err := edgelist.Load(p.cfg.Input.Path, edgelist.Options{NAValues: p.cfg.Input.NAValues})
	if err != nil {
		return nil, fail(DataLoad, err)
	}
	report.Rows = loaded.Rows
	report.DroppedMissing = loaded.DroppedMissing
	report.Duplicates = loaded.Duplicates
	report.Edges = len(loaded.Edges)
	p.log.Info().
		Int("edges", report.Edges).
		Int("dropped_missing", loaded.DroppedMissing).
		Int("duplicates", loaded.Duplicates).
		Msg("Total unique edges")

	// 2. Create graph
	if err := ctx.Err(); err != nil {
		return nil, fail(GraphConstruction, err)
	}
	p.log.Info().Msg("Creating graph...")
	graph, err := p.builder.Build(loaded.Edges)
	if err != nil {
		return nil, fail(GraphConstruction, err)
	}
	report.Nodes = graph.NumNodes()
	report.GraphEdges = graph.NumEdges()
	p.log.Info().
		Int("nodes", report.Nodes).
		Int("edges", report.GraphEdges).
		Float64("mean_degree", graph.MeanDegree()).
		Msg("Graph created")

	// 3. Generate random walks
	if err := ctx.Err(); err != nil {
		return nil, fail(WalkGeneration, err)
	}
	p.log.Info().Msg("Generating random walks...")
	walks, err := p.sampler.Sample(ctx, graph)
	if err != nil {
		return nil, fail(WalkGeneration, err)
	}
	report.Walks = len(walks)
	p.log.Info().Int("walks", report.Walks).Msg("Generated walks")

	// 4. Train
	p.log.Info().Msg("Training Word2Vec model...")
	vectors, err := p.trainer.Train(ctx, walks)
	if err != nil {
		return nil, fail(Training, err)
	}

	// 5. Extract embeddings
	p.log.Info().Msg("Extracting embeddings...")
	table, err := Extract(graph, vectors)
	if err != nil {
		return nil, fail(Extraction, err)
	}
	report.Homophily = node2vec.ComputeHomophily(graph, vectors.Vector)
	p.log.Info().Float64("homophily", report.Homophily).Msg("Homophily ratio")

	// 6. Save results
	format, err := export.ParseFormat(p.cfg.Output.Format)
	if err != nil {
		return nil, fail(Write, err)
	}
	if format == "" {
		format = export.FormatFor(p.cfg.Output.Path)
	}
	report.Format = format
	p.log.Info().Str("output", p.cfg.Output.Path).Str("format", string(format)).Msg("Saving embeddings...")
	if err := export.Write(p.cfg.Output.Path, format, table); err != nil {
		return nil, fail(Write, err)
	}
	rows, cols := table.Shape()
	report.Shape = [2]int{rows, cols}
	p.log.Info().Str("shape", fmt.Sprintf("(%d, %d)", rows, cols)).Msg("Embeddings saved!")
	p.log.Info().Int("genes", rows).Msg("Number of genes")

	return report, nil
}

// Extract collects one vector per graph node in native node order
func Extract(graph *pronet.ProNet, vectors Vectors) (*export.Table, error) {
	nodes := graph.Nodes()
	table := &export.Table{
		Dimensions: vectors.Dimensions(),
		Genes:      nodes,
		Vectors:    make([][]float32, len(nodes)),
	}
	for i, name := range nodes {
		vec, ok := vectors.Vector(name)
		if !ok {
			return nil, errors.NotFoundf("vector for gene %q", name)
		}
		if len(vec) != table.Dimensions {
			return nil, errors.NotValidf("vector for gene %q of length %d (want %d)", name, len(vec), table.Dimensions)
		}
		table.Vectors[i] = vec
	}
	return table, nil
}
