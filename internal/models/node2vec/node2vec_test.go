package node2vec

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/genevec/pkg/pronet"
)

func network(t *testing.T, sources, targets []string) *pronet.ProNet {
	t.Helper()
	pn, err := pronet.FromEdges(sources, targets)
	require.NoError(t, err)
	return pn
}

func TestSampleCountAndLength(t *testing.T) {
	pn := network(t, []string{"A", "B", "A", "C"}, []string{"B", "C", "C", "D"})
	opts := Options{WalkLength: 7, NumWalks: 3, P: 1, Q: 1, Workers: 2, Seed: 5}

	walks, err := New(opts, zerolog.Nop()).Sample(context.Background(), pn)
	require.NoError(t, err)

	require.Len(t, walks, 4*3)
	nodes := pn.Nodes()
	for i, walk := range walks {
		assert.Len(t, walk, 7)
		assert.Equal(t, nodes[i/3], walk[0], "walks are grouped by start node")
		for j := 1; j < len(walk); j++ {
			assert.True(t, pn.HasEdge(pn.VertexHash[walk[j-1]], pn.VertexHash[walk[j]]))
		}
	}
}

func TestSampleBiasedStaysOnEdges(t *testing.T) {
	pn := network(t, []string{"A", "B", "C", "D", "A"}, []string{"B", "C", "D", "E", "C"})
	opts := Options{WalkLength: 12, NumWalks: 4, P: 0.5, Q: 2, Workers: 3, Seed: 9}

	walks, err := New(opts, zerolog.Nop()).Sample(context.Background(), pn)
	require.NoError(t, err)

	require.Len(t, walks, 5*4)
	for _, walk := range walks {
		assert.LessOrEqual(t, len(walk), 12)
		for j := 1; j < len(walk); j++ {
			assert.True(t, pn.HasEdge(pn.VertexHash[walk[j-1]], pn.VertexHash[walk[j]]))
		}
	}
}

func TestSampleDeterministicForSeed(t *testing.T) {
	pn := network(t, []string{"A", "B", "C", "D"}, []string{"B", "C", "D", "A"})
	opts := Options{WalkLength: 10, NumWalks: 5, P: 1, Q: 1, Workers: 4, Seed: 11}

	first, err := New(opts, zerolog.Nop()).Sample(context.Background(), pn)
	require.NoError(t, err)
	second, err := New(opts, zerolog.Nop()).Sample(context.Background(), pn)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSampleSelfLoopOnly(t *testing.T) {
	pn := network(t, []string{"A"}, []string{"A"})
	opts := DefaultOptions()
	opts.WalkLength = 4
	opts.NumWalks = 2

	walks, err := New(opts, zerolog.Nop()).Sample(context.Background(), pn)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"A", "A", "A", "A"}, {"A", "A", "A", "A"}}, walks)
}

func TestSampleLengthOne(t *testing.T) {
	pn := network(t, []string{"A"}, []string{"B"})
	opts := Options{WalkLength: 1, NumWalks: 1, P: 2, Q: 0.5, Workers: 1}

	walks, err := New(opts, zerolog.Nop()).Sample(context.Background(), pn)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"A"}, {"B"}}, walks)
}

func TestSampleRejectsInvalidOptions(t *testing.T) {
	pn := network(t, []string{"A"}, []string{"B"})

	for name, opts := range map[string]Options{
		"zero length": {WalkLength: 0, NumWalks: 1, P: 1, Q: 1},
		"zero walks":  {WalkLength: 5, NumWalks: 0, P: 1, Q: 1},
		"negative p":  {WalkLength: 5, NumWalks: 1, P: -1, Q: 1},
		"zero q":      {WalkLength: 5, NumWalks: 1, P: 1, Q: 0},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(opts, zerolog.Nop()).Sample(context.Background(), pn)
			assert.Error(t, err)
		})
	}
}

func TestSampleCancelled(t *testing.T) {
	pn := network(t, []string{"A"}, []string{"B"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultOptions(), zerolog.Nop()).Sample(ctx, pn)
	assert.Error(t, err)
}

func TestComputeHomophily(t *testing.T) {
	pn := network(t, []string{"A", "B"}, []string{"B", "C"})
	vectors := map[string][]float32{
		"A": {1, 0},
		"B": {1, 0.1},
		"C": {-1, 0},
	}
	lookup := func(name string) ([]float32, bool) {
		v, ok := vectors[name]
		return v, ok
	}

	// A-B similar in both directions, B-C dissimilar in both directions
	assert.InDelta(t, 0.5, ComputeHomophily(pn, lookup), 1e-9)
}

func TestComputeHomophilyEmpty(t *testing.T) {
	assert.Equal(t, 0.0, ComputeHomophily(pronet.NewProNet(), nil))
}
