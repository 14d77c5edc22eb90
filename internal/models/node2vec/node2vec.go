package node2vec

import (
	"context"
	"math/rand"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cnclabs/genevec/pkg/pronet"
)

// Options configures walk sampling
type Options struct {
	WalkLength int     // Nodes per walk, including the start node
	NumWalks   int     // Walks started from every node
	P          float64 // Return parameter (controls likelihood to return to previous node)
	Q          float64 // In-out parameter (BFS vs DFS: q > 1 = BFS, q < 1 = DFS)
	Workers    int
	Seed       int64
}

// DefaultOptions returns the unbiased settings used for gene networks
func DefaultOptions() Options {
	return Options{
		WalkLength: 50,
		NumWalks:   10,
		P:          1.0,
		Q:          1.0,
		Workers:    4,
		Seed:       1,
	}
}

// Validate checks that the options describe a runnable walk
func (o Options) Validate() error {
	if o.WalkLength < 1 {
		return errors.NotValidf("walk length %d", o.WalkLength)
	}
	if o.NumWalks < 1 {
		return errors.NotValidf("number of walks %d", o.NumWalks)
	}
	if o.P <= 0 || o.Q <= 0 {
		return errors.NotValidf("p=%v q=%v (must be positive)", o.P, o.Q)
	}
	return nil
}

// Sampler generates node2vec random walks over a ProNet.
// Node2Vec extends DeepWalk by using biased random walks that balance
// BFS and DFS exploration strategies via p (return) and q (in-out) parameters
type Sampler struct {
	opts Options
	log  zerolog.Logger
}

// New creates a Sampler
func New(opts Options, log zerolog.Logger) *Sampler {
	return &Sampler{opts: opts, log: log}
}

// Sample returns NumWalks walks for every node of pnet, grouped by node in
// native order. Walks are rendered as node names.
func (s *Sampler) Sample(ctx context.Context, pnet *pronet.ProNet) ([][]string, error) {
	if err := s.opts.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	s.log.Info().
		Int("walk_length", s.opts.WalkLength).
		Int("num_walks", s.opts.NumWalks).
		Float64("p", s.opts.P).
		Float64("q", s.opts.Q).
		Str("exploration", s.exploration()).
		Msg("Walk setting")

	numNodes := pnet.NumNodes()
	walks := make([][]string, numNodes*s.opts.NumWalks)
	workers := s.opts.Workers
	if workers < 1 {
		workers = 1
	}

	var done int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for vid := 0; vid < numNodes; vid++ {
		vid := vid
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Seeding per start node keeps the output independent of scheduling
			rng := rand.New(rand.NewSource(s.opts.Seed*1_000_003 + int64(vid)))
			for k := 0; k < s.opts.NumWalks; k++ {
				walk := s.walk(pnet, int64(vid), rng)
				names := make([]string, len(walk))
				for i, v := range walk {
					names[i] = pnet.GetVertexName(v)
				}
				walks[vid*s.opts.NumWalks+k] = names
			}
			if n := atomic.AddInt64(&done, 1); n%pronet.Monitor == 0 {
				s.log.Debug().Int64("nodes", n).Int("total", numNodes).Msg("Sampling progress")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Annotate(err, "walk sampling interrupted")
	}

	return walks, nil
}

func (s *Sampler) exploration() string {
	switch {
	case s.opts.Q > 1.0:
		return "BFS-like (local neighborhood)"
	case s.opts.Q < 1.0:
		return "DFS-like (outward expansion)"
	default:
		return "balanced"
	}
}

func (s *Sampler) walk(pnet *pronet.ProNet, start int64, rng *rand.Rand) []int64 {
	steps := s.opts.WalkLength - 1
	if s.opts.P == 1.0 && s.opts.Q == 1.0 {
		// p=1, q=1: unbiased, equivalent to DeepWalk
		return pnet.RandomWalk(start, steps, rng)
	}
	return s.biasedRandomWalk(pnet, start, steps, rng)
}

// biasedRandomWalk performs a second-order random walk with bias parameters p and q
func (s *Sampler) biasedRandomWalk(pnet *pronet.ProNet, start int64, steps int, rng *rand.Rand) []int64 {
	walk := make([]int64, 0, steps+1)
	walk = append(walk, start)

	if steps == 0 {
		return walk
	}

	// First step is unbiased
	firstNeighbor := pnet.TargetSample(start, rng)
	if firstNeighbor == -1 {
		return walk
	}
	walk = append(walk, firstNeighbor)

	var weights []float64
	for i := 1; i < steps; i++ {
		current := walk[len(walk)-1]
		previous := walk[len(walk)-2]

		next := s.biasedTargetSample(pnet, previous, current, &weights, rng)
		if next == -1 {
			break
		}
		walk = append(walk, next)
	}

	return walk
}

// biasedTargetSample samples the next node of a second-order walk that
// arrived at current from prev. buf is reused across steps.
func (s *Sampler) biasedTargetSample(pnet *pronet.ProNet, prev, current int64, buf *[]float64, rng *rand.Rand) int64 {
	neighbors := pnet.Neighbors(current)
	if len(neighbors) == 0 {
		return -1
	}

	weights := (*buf)[:0]
	totalWeight := 0.0
	for _, neighbor := range neighbors {
		var bias float64
		if neighbor == prev {
			bias = 1.0 / s.opts.P
		} else if pnet.HasEdge(prev, neighbor) {
			bias = 1.0
		} else {
			bias = 1.0 / s.opts.Q
		}
		weights = append(weights, bias)
		totalWeight += bias
	}
	*buf = weights

	r := rng.Float64() * totalWeight
	cumWeight := 0.0
	for i, w := range weights {
		cumWeight += w
		if r < cumWeight {
			return neighbors[i]
		}
	}

	return neighbors[len(neighbors)-1]
}
