package pronet

import (
	"math/rand"

	"github.com/juju/errors"
)

const (
	Monitor          = 10000
	PowerSample      = 0.75
	SigmoidTableSize = 1000
	MaxSigmoid       = 8.0
)

// Vertex holds per-vertex degree statistics
type Vertex struct {
	Degree float64
}

// ProNet is the in-memory undirected network shared by the samplers.
// Vertex ids are dense int64 values in first-appearance order.
type ProNet struct {
	Vertices []Vertex

	// Hash tables for vertex name mapping
	VertexHash map[string]int64
	VertexKeys []string

	// Graph structure (adjacency list)
	Graph [][]int64

	// Statistics
	MaxVid  int64
	MaxLine int64
}

// NewProNet creates an empty network
func NewProNet() *ProNet {
	return &ProNet{
		VertexHash: make(map[string]int64),
		VertexKeys: make([]string, 0),
	}
}

// FromEdges builds an undirected network from parallel source/target columns.
// Vertices are numbered by first appearance over all sources, then all targets.
func FromEdges(sources, targets []string) (*ProNet, error) {
	if len(sources) != len(targets) {
		return nil, errors.NotValidf("edge columns of length %d and %d", len(sources), len(targets))
	}

	pn := NewProNet()
	for i, name := range sources {
		if name == "" {
			return nil, errors.NotValidf("empty source identifier in edge %d", i)
		}
		pn.getOrCreateVertex(name)
	}
	for i, name := range targets {
		if name == "" {
			return nil, errors.NotValidf("empty target identifier in edge %d", i)
		}
		pn.getOrCreateVertex(name)
	}

	pn.Graph = make([][]int64, pn.MaxVid)
	pn.Vertices = make([]Vertex, pn.MaxVid)
	for i := range sources {
		pn.addEdge(pn.VertexHash[sources[i]], pn.VertexHash[targets[i]])
	}

	return pn, nil
}

// getOrCreateVertex gets or creates a vertex ID
func (pn *ProNet) getOrCreateVertex(name string) int64 {
	if vid, exists := pn.VertexHash[name]; exists {
		return vid
	}

	vid := int64(len(pn.VertexKeys))
	pn.VertexHash[name] = vid
	pn.VertexKeys = append(pn.VertexKeys, name)
	pn.MaxVid = vid + 1

	return vid
}

// addEdge links two vertices in both directions; a self loop is linked once
func (pn *ProNet) addEdge(vid1, vid2 int64) {
	pn.Graph[vid1] = append(pn.Graph[vid1], vid2)
	pn.Vertices[vid1].Degree++
	if vid1 != vid2 {
		pn.Graph[vid2] = append(pn.Graph[vid2], vid1)
		pn.Vertices[vid2].Degree++
	}
	pn.MaxLine++
}

// NumNodes returns the number of vertices
func (pn *ProNet) NumNodes() int {
	return int(pn.MaxVid)
}

// NumEdges returns the number of undirected edges added
func (pn *ProNet) NumEdges() int {
	return int(pn.MaxLine)
}

// Nodes returns vertex names in native order
func (pn *ProNet) Nodes() []string {
	out := make([]string, len(pn.VertexKeys))
	copy(out, pn.VertexKeys)
	return out
}

// Neighbors returns the adjacency list of vid
func (pn *ProNet) Neighbors(vid int64) []int64 {
	if vid < 0 || vid >= pn.MaxVid {
		return nil
	}
	return pn.Graph[vid]
}

// HasEdge reports whether vid1 and vid2 are adjacent
func (pn *ProNet) HasEdge(vid1, vid2 int64) bool {
	a, b := pn.Neighbors(vid1), pn.Neighbors(vid2)
	if len(b) < len(a) {
		a, vid2 = b, vid1
	}
	for _, n := range a {
		if n == vid2 {
			return true
		}
	}
	return false
}

// TargetSample samples a neighbour of vid uniformly, or -1 if it has none
func (pn *ProNet) TargetSample(vid int64, rng *rand.Rand) int64 {
	neighbors := pn.Neighbors(vid)
	if len(neighbors) == 0 {
		return -1
	}
	return neighbors[rng.Intn(len(neighbors))]
}

// RandomWalk performs a first-order random walk of at most steps moves from vid
func (pn *ProNet) RandomWalk(vid int64, steps int, rng *rand.Rand) []int64 {
	walk := make([]int64, 0, steps+1)
	walk = append(walk, vid)

	current := vid
	for i := 0; i < steps; i++ {
		next := pn.TargetSample(current, rng)
		if next == -1 {
			break
		}
		walk = append(walk, next)
		current = next
	}

	return walk
}

// MeanDegree returns the average vertex degree
func (pn *ProNet) MeanDegree() float64 {
	if pn.MaxVid == 0 {
		return 0
	}
	total := 0.0
	for _, v := range pn.Vertices {
		total += v.Degree
	}
	return total / float64(pn.MaxVid)
}

// GetVertexName returns the name of a vertex by ID
func (pn *ProNet) GetVertexName(vid int64) string {
	if vid < 0 || vid >= int64(len(pn.VertexKeys)) {
		return ""
	}
	return pn.VertexKeys[vid]
}
