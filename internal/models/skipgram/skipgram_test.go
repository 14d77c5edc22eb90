package skipgram

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoCommunities returns walks that never cross between {A,B,C,D} and {W,X,Y,Z}
func twoCommunities(n int) [][]string {
	rng := rand.New(rand.NewSource(1))
	groups := [][]string{{"A", "B", "C", "D"}, {"W", "X", "Y", "Z"}}
	sentences := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		g := groups[i%2]
		s := make([]string, 20)
		for j := range s {
			s[j] = g[rng.Intn(len(g))]
		}
		sentences = append(sentences, s)
	}
	return sentences
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Dimensions = 16
	opts.WindowSize = 3
	opts.Epochs = 5
	opts.Workers = 1
	opts.Sample = 0
	return opts
}

func TestTrainSeparatesCommunities(t *testing.T) {
	model, err := New(testOptions(), zerolog.Nop()).Train(context.Background(), twoCommunities(400))
	require.NoError(t, err)

	vec := func(tok string) []float32 {
		v, ok := model.Vector(tok)
		require.True(t, ok, tok)
		return v
	}

	within := cosine(vec("A"), vec("B"))
	across := cosine(vec("A"), vec("W"))
	assert.Greater(t, within, across)
}

func TestTrainVectorForEveryToken(t *testing.T) {
	sentences := append(twoCommunities(20), []string{"RARE"})
	opts := testOptions()
	opts.Dimensions = 7

	model, err := New(opts, zerolog.Nop()).Train(context.Background(), sentences)
	require.NoError(t, err)

	assert.Equal(t, 7, model.Dimensions())
	assert.Len(t, model.Words(), 9)
	for _, tok := range []string{"A", "B", "C", "D", "W", "X", "Y", "Z", "RARE"} {
		v, ok := model.Vector(tok)
		require.True(t, ok, tok)
		assert.Len(t, v, 7)
	}
	assert.Equal(t, 1, model.Count("RARE"))
	assert.Equal(t, "RARE", model.Words()[len(model.Words())-1])

	_, ok := model.Vector("MISSING")
	assert.False(t, ok)
}

func TestTrainMinCountFilters(t *testing.T) {
	opts := testOptions()
	opts.MinCount = 2

	model, err := New(opts, zerolog.Nop()).Train(context.Background(), [][]string{{"A", "B", "A"}, {"C"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, model.Words())
}

func TestTrainParallelWorkers(t *testing.T) {
	opts := testOptions()
	opts.Workers = 4
	opts.Sample = 0.001

	model, err := New(opts, zerolog.Nop()).Train(context.Background(), twoCommunities(100))
	require.NoError(t, err)

	for _, tok := range model.Words() {
		v, _ := model.Vector(tok)
		for _, x := range v {
			assert.False(t, math.IsNaN(float64(x)))
		}
	}
}

func TestTrainCBOW(t *testing.T) {
	opts := testOptions()
	opts.CBOW = true

	model, err := New(opts, zerolog.Nop()).Train(context.Background(), twoCommunities(400))
	require.NoError(t, err)

	a, _ := model.Vector("A")
	b, _ := model.Vector("B")
	w, _ := model.Vector("W")
	assert.Greater(t, cosine(a, b), cosine(a, w))
}

func TestTrainDeterministicSingleWorker(t *testing.T) {
	sentences := twoCommunities(50)

	m1, err := New(testOptions(), zerolog.Nop()).Train(context.Background(), sentences)
	require.NoError(t, err)
	m2, err := New(testOptions(), zerolog.Nop()).Train(context.Background(), sentences)
	require.NoError(t, err)

	v1, _ := m1.Vector("C")
	v2, _ := m2.Vector("C")
	assert.Equal(t, v1, v2)
}

func TestTrainEmptyCorpus(t *testing.T) {
	_, err := New(testOptions(), zerolog.Nop()).Train(context.Background(), nil)
	assert.Error(t, err)
}

func TestTrainInvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.Dimensions = 0

	_, err := New(opts, zerolog.Nop()).Train(context.Background(), [][]string{{"A"}})
	assert.Error(t, err)
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testOptions(), zerolog.Nop()).Train(ctx, twoCommunities(10))
	assert.Error(t, err)
}

func TestKeepProbs(t *testing.T) {
	voc := buildVocab([][]string{{"A", "A", "A", "B"}}, 1)

	assert.Equal(t, []string{"A", "B"}, voc.words)
	assert.Equal(t, []float64{1, 1}, voc.keepProbs(0))

	probs := voc.keepProbs(0.01)
	assert.Less(t, probs[0], probs[1])
	assert.LessOrEqual(t, probs[1], 1.0)
}
