package pronet

import (
	"math"
	"math/rand"
)

// Optimizer applies negative-sampling SGD updates to vertex/context weight
// matrices. Negatives are drawn from the alias table built at construction.
// An Optimizer is read-only after NewOptimizer and safe to share between
// goroutines; the weight matrices are updated lock-free.
type Optimizer struct {
	NegativeAT    []AliasTable
	CachedSigmoid []float64
}

// NewOptimizer builds the negative alias table from per-vertex frequencies
// raised to PowerSample.
func NewOptimizer(frequencies []float64) *Optimizer {
	opt := &Optimizer{
		NegativeAT:    BuildAliasMethod(frequencies, PowerSample),
		CachedSigmoid: make([]float64, SigmoidTableSize+1),
	}
	for i := 0; i <= SigmoidTableSize; i++ {
		x := float64(i)*2.0*MaxSigmoid/float64(SigmoidTableSize) - MaxSigmoid
		opt.CachedSigmoid[i] = 1.0 / (1.0 + math.Exp(-x))
	}
	return opt
}

// FastSigmoid returns sigmoid using lookup table for performance
func (opt *Optimizer) FastSigmoid(x float64) float64 {
	if x < -MaxSigmoid {
		return 0.0
	} else if x > MaxSigmoid {
		return 1.0
	}
	idx := int((x + MaxSigmoid) * float64(SigmoidTableSize) / MaxSigmoid / 2.0)
	if idx >= len(opt.CachedSigmoid) {
		idx = len(opt.CachedSigmoid) - 1
	}
	return opt.CachedSigmoid[idx]
}

// NegativeSample samples a negative vertex
func (opt *Optimizer) NegativeSample(rng *rand.Rand) int64 {
	return AliasSample(opt.NegativeAT, rng)
}

// UpdatePair trains vertex to predict context with one positive and
// negativeSamples negative updates. grad is scratch space of len(dim).
func (opt *Optimizer) UpdatePair(
	wVertex, wContext [][]float64,
	vertex, context int64,
	negativeSamples int,
	alpha float64,
	grad []float64,
	rng *rand.Rand,
) {
	for d := range grad {
		grad[d] = 0
	}

	opt.sgdUpdate(wVertex[vertex], wContext[context], 1.0, alpha, grad)

	for i := 0; i < negativeSamples; i++ {
		negSample := opt.NegativeSample(rng)
		if negSample == context || negSample < 0 {
			continue
		}
		opt.sgdUpdate(wVertex[vertex], wContext[negSample], 0.0, alpha, grad)
	}

	vec := wVertex[vertex]
	for d := range grad {
		vec[d] += grad[d]
	}
}

// UpdateCBOW trains the mean of the context vertices to predict target.
// hidden and grad are scratch space of len(dim).
func (opt *Optimizer) UpdateCBOW(
	wVertex, wContext [][]float64,
	contexts []int64,
	target int64,
	negativeSamples int,
	alpha float64,
	hidden, grad []float64,
	rng *rand.Rand,
) {
	if len(contexts) == 0 {
		return
	}

	for d := range hidden {
		hidden[d] = 0
		grad[d] = 0
	}
	for _, ctx := range contexts {
		for d, v := range wVertex[ctx] {
			hidden[d] += v
		}
	}
	for d := range hidden {
		hidden[d] /= float64(len(contexts))
	}

	opt.sgdUpdate(hidden, wContext[target], 1.0, alpha, grad)

	for i := 0; i < negativeSamples; i++ {
		negSample := opt.NegativeSample(rng)
		if negSample == target || negSample < 0 {
			continue
		}
		opt.sgdUpdate(hidden, wContext[negSample], 0.0, alpha, grad)
	}

	// Distribute the hidden-layer gradient to all context vectors
	for _, ctx := range contexts {
		vec := wVertex[ctx]
		for d := range grad {
			vec[d] += grad[d]
		}
	}
}

// sgdUpdate accumulates the input gradient into inputGrad and applies the
// output-side update to outputEmb in place.
func (opt *Optimizer) sgdUpdate(
	inputEmb, outputEmb []float64,
	label, alpha float64,
	inputGrad []float64,
) {
	score := 0.0
	for d := range inputEmb {
		score += inputEmb[d] * outputEmb[d]
	}

	g := alpha * (label - opt.FastSigmoid(score))

	for d := range inputEmb {
		inputGrad[d] += g * outputEmb[d]
		outputEmb[d] += g * inputEmb[d]
	}
}
