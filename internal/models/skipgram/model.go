package skipgram

// Model holds the trained input vectors, indexed by token
type Model struct {
	words   []string
	index   map[string]int64
	counts  []float64
	vectors [][]float32
	dim     int
}

func newModel(voc *vocab, wVertex [][]float64) *Model {
	m := &Model{
		words:   voc.words,
		index:   voc.index,
		counts:  voc.counts,
		vectors: make([][]float32, len(wVertex)),
	}
	for i, row := range wVertex {
		vec := make([]float32, len(row))
		for d, v := range row {
			vec[d] = float32(v)
		}
		m.vectors[i] = vec
		m.dim = len(row)
	}
	return m
}

// Vector returns the embedding of token
func (m *Model) Vector(token string) ([]float32, bool) {
	id, ok := m.index[token]
	if !ok {
		return nil, false
	}
	return m.vectors[id], true
}

// Dimensions is the length of every vector
func (m *Model) Dimensions() int {
	return m.dim
}

// Words returns the vocabulary, most frequent first
func (m *Model) Words() []string {
	return m.words
}

// Count returns how often token occurred in the corpus
func (m *Model) Count(token string) int {
	id, ok := m.index[token]
	if !ok {
		return 0
	}
	return int(m.counts[id])
}
