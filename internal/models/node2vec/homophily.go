package node2vec

import (
	"math"

	"github.com/cnclabs/genevec/pkg/pronet"
)

// HomophilyThreshold is the cosine similarity above which an edge counts as similar
const HomophilyThreshold = 0.5

// Lookup resolves a node name to its learned vector
type Lookup func(name string) ([]float32, bool)

// ComputeHomophily returns the share of edge endpoints whose embeddings have
// cosine similarity above HomophilyThreshold. It helps assess how well local
// structure was preserved. Nodes without a vector are skipped.
func ComputeHomophily(pnet *pronet.ProNet, lookup Lookup) float64 {
	totalEdges := 0
	similarEdges := 0

	for vid := int64(0); vid < pnet.MaxVid; vid++ {
		a, ok := lookup(pnet.GetVertexName(vid))
		if !ok {
			continue
		}
		for _, neighbor := range pnet.Neighbors(vid) {
			b, ok := lookup(pnet.GetVertexName(neighbor))
			if !ok {
				continue
			}
			totalEdges++
			if cosineSimilarity(a, b) > HomophilyThreshold {
				similarEdges++
			}
		}
	}

	if totalEdges == 0 {
		return 0.0
	}

	return float64(similarEdges) / float64(totalEdges)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	dotProduct := 0.0
	normA := 0.0
	normB := 0.0
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
