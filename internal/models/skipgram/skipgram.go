// Package skipgram trains word2vec-style token embeddings over walk corpora.
package skipgram

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cnclabs/genevec/pkg/pronet"
)

// Options configures training
type Options struct {
	Dimensions int
	WindowSize int
	Epochs     int
	MinCount   int
	Workers    int
	Negative   int
	Alpha      float64
	MinAlpha   float64
	Sample     float64 // Down-sampling threshold for frequent tokens; 0 disables it
	CBOW       bool
	Seed       int64
}

// DefaultOptions matches the gene embedding defaults: skip-gram, every token kept
func DefaultOptions() Options {
	return Options{
		Dimensions: 128,
		WindowSize: 10,
		Epochs:     20,
		MinCount:   1,
		Workers:    4,
		Negative:   5,
		Alpha:      0.025,
		MinAlpha:   0.0001,
		Sample:     0.001,
		Seed:       1,
	}
}

// Validate checks option ranges
func (o Options) Validate() error {
	switch {
	case o.Dimensions < 1:
		return errors.NotValidf("dimensions %d", o.Dimensions)
	case o.WindowSize < 1:
		return errors.NotValidf("window size %d", o.WindowSize)
	case o.Epochs < 1:
		return errors.NotValidf("epochs %d", o.Epochs)
	case o.Negative < 0:
		return errors.NotValidf("negative samples %d", o.Negative)
	case o.Alpha <= 0 || o.MinAlpha < 0 || o.MinAlpha > o.Alpha:
		return errors.NotValidf("learning rate %v..%v", o.Alpha, o.MinAlpha)
	case o.Sample < 0:
		return errors.NotValidf("sample %v", o.Sample)
	}
	return nil
}

// Trainer learns one vector per distinct token of a corpus
type Trainer struct {
	opts Options
	log  zerolog.Logger
}

// New creates a Trainer
func New(opts Options, log zerolog.Logger) *Trainer {
	return &Trainer{opts: opts, log: log}
}

type vocab struct {
	words  []string
	index  map[string]int64
	counts []float64
	total  float64
}

// buildVocab keeps tokens seen at least minCount times, most frequent first
func buildVocab(sentences [][]string, minCount int) *vocab {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, s := range sentences {
		for _, tok := range s {
			if _, ok := counts[tok]; !ok {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	words := make([]string, 0, len(order))
	for _, tok := range order {
		if counts[tok] >= minCount {
			words = append(words, tok)
		}
	}
	sort.SliceStable(words, func(i, j int) bool {
		return counts[words[i]] > counts[words[j]]
	})

	v := &vocab{
		words:  words,
		index:  make(map[string]int64, len(words)),
		counts: make([]float64, len(words)),
	}
	for i, w := range words {
		v.index[w] = int64(i)
		v.counts[i] = float64(counts[w])
		v.total += float64(counts[w])
	}
	return v
}

// keepProbs returns the per-token probability of surviving down-sampling
func (v *vocab) keepProbs(sample float64) []float64 {
	probs := make([]float64, len(v.words))
	threshold := sample * v.total
	for i, c := range v.counts {
		if sample <= 0 {
			probs[i] = 1
			continue
		}
		p := (math.Sqrt(c/threshold) + 1) * threshold / c
		probs[i] = math.Min(p, 1)
	}
	return probs
}

// Train fits the model on sentences. Each sentence is a walk; each token a node name.
func (t *Trainer) Train(ctx context.Context, sentences [][]string) (*Model, error) {
	if err := t.opts.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	voc := buildVocab(sentences, t.opts.MinCount)
	if len(voc.words) == 0 {
		return nil, errors.New("you must first build vocabulary before training the model: no tokens in corpus")
	}

	corpus := make([][]int64, 0, len(sentences))
	for _, s := range sentences {
		ids := make([]int64, 0, len(s))
		for _, tok := range s {
			if id, ok := voc.index[tok]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			corpus = append(corpus, ids)
		}
	}

	workers := t.opts.Workers
	if workers < 1 {
		workers = 1
	}
	dim := t.opts.Dimensions

	mode := "skip-gram"
	if t.opts.CBOW {
		mode = "cbow"
	}
	t.log.Info().
		Str("mode", mode).
		Int("dimension", dim).
		Int("window_size", t.opts.WindowSize).
		Int("epochs", t.opts.Epochs).
		Int("negative_samples", t.opts.Negative).
		Float64("alpha", t.opts.Alpha).
		Int("workers", workers).
		Int("vocabulary", len(voc.words)).
		Msg("Learning parameters")

	// Initialize vertex embeddings; context embeddings start at zero
	initRng := rand.New(rand.NewSource(t.opts.Seed))
	wVertex := make([][]float64, len(voc.words))
	wContext := make([][]float64, len(voc.words))
	for vid := range wVertex {
		wVertex[vid] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			wVertex[vid][d] = (initRng.Float64() - 0.5) / float64(dim)
		}
		wContext[vid] = make([]float64, dim)
	}

	opt := pronet.NewOptimizer(voc.counts)
	keep := voc.keepProbs(t.opts.Sample)

	total := int64(t.opts.Epochs) * int64(voc.total)
	var processed, sentencesDone int64
	alphaAt := func() float64 {
		progress := float64(atomic.LoadInt64(&processed)) / float64(total)
		alpha := t.opts.Alpha - (t.opts.Alpha-t.opts.MinAlpha)*progress
		return math.Max(alpha, t.opts.MinAlpha)
	}

	chunkSize := (len(corpus) + workers - 1) / workers
	for epoch := 0; epoch < t.opts.Epochs; epoch++ {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for w := 0; w < workers; w++ {
			start := w * chunkSize
			end := min(start+chunkSize, len(corpus))
			if start >= end {
				continue
			}
			seed := t.opts.Seed + int64(epoch*workers+w) + 1
			g.Go(func() error {
				// Each worker has its own RNG and scratch buffers
				rng := rand.New(rand.NewSource(seed))
				hidden := make([]float64, dim)
				grad := make([]float64, dim)
				kept := make([]int64, 0)
				for _, sentence := range corpus[start:end] {
					if err := gctx.Err(); err != nil {
						return err
					}
					kept = kept[:0]
					for _, id := range sentence {
						if keep[id] >= 1 || keep[id] > rng.Float64() {
							kept = append(kept, id)
						}
					}
					alpha := alphaAt()
					t.trainSentence(opt, wVertex, wContext, kept, alpha, hidden, grad, rng)

					n := atomic.AddInt64(&processed, int64(len(sentence)))
					if atomic.AddInt64(&sentencesDone, 1)%pronet.Monitor == 0 {
						t.log.Debug().
							Float64("alpha", alpha).
							Float64("progress", float64(n)/float64(total)*100).
							Msg("Training progress")
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, errors.Annotatef(err, "training interrupted in epoch %d", epoch+1)
		}
	}

	t.log.Info().Float64("alpha", alphaAt()).Msg("Training finished")

	return newModel(voc, wVertex), nil
}

// trainSentence applies one pass of updates over a sentence using a randomly
// shrunk window per position
func (t *Trainer) trainSentence(
	opt *pronet.Optimizer,
	wVertex, wContext [][]float64,
	sentence []int64,
	alpha float64,
	hidden, grad []float64,
	rng *rand.Rand,
) {
	contexts := make([]int64, 0, 2*t.opts.WindowSize)
	for i, target := range sentence {
		reduced := rng.Intn(t.opts.WindowSize)
		start := max(i-t.opts.WindowSize+reduced, 0)
		end := min(i+t.opts.WindowSize-reduced+1, len(sentence))

		if t.opts.CBOW {
			contexts = contexts[:0]
			for j := start; j < end; j++ {
				if j != i {
					contexts = append(contexts, sentence[j])
				}
			}
			opt.UpdateCBOW(wVertex, wContext, contexts, target, t.opts.Negative, alpha, hidden, grad, rng)
			continue
		}

		for j := start; j < end; j++ {
			if j != i {
				opt.UpdatePair(wVertex, wContext, sentence[j], target, t.opts.Negative, alpha, grad, rng)
			}
		}
	}
}
