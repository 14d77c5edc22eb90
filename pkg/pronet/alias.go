package pronet

import (
	"math"
	"math/rand"
)

// AliasTable is one bucket of a Walker alias table
type AliasTable struct {
	Alias int64
	Prob  float64
}

// BuildAliasMethod builds a table for O(1) sampling of index i with
// probability proportional to distribution[i]^power. Non-positive weights
// are never drawn unless every weight is non-positive, in which case the
// table is uniform.
func BuildAliasMethod(distribution []float64, power float64) []AliasTable {
	n := len(distribution)
	if n == 0 {
		return nil
	}

	scaled, total := make([]float64, n), 0.0
	for i, w := range distribution {
		if w > 0 {
			scaled[i] = math.Pow(w, power)
			total += scaled[i]
		}
	}

	table := make([]AliasTable, n)
	for i := range table {
		table[i] = AliasTable{Alias: int64(i), Prob: 1.0}
	}
	if total == 0 {
		return table
	}

	// Vose: pair each under-full bucket with an over-full donor
	var under, over []int
	for i := range scaled {
		scaled[i] *= float64(n) / total
		if scaled[i] < 1.0 {
			under = append(under, i)
		} else {
			over = append(over, i)
		}
	}
	for len(under) > 0 && len(over) > 0 {
		small, large := under[len(under)-1], over[len(over)-1]
		under, over = under[:len(under)-1], over[:len(over)-1]

		table[small] = AliasTable{Alias: int64(large), Prob: scaled[small]}
		scaled[large] -= 1.0 - scaled[small]
		if scaled[large] < 1.0 {
			under = append(under, large)
		} else {
			over = append(over, large)
		}
	}
	// leftovers are full buckets up to float error and keep Prob 1
	return table
}

// AliasSample draws one index from table, or -1 if the table is empty
func AliasSample(table []AliasTable, rng *rand.Rand) int64 {
	if len(table) == 0 {
		return -1
	}
	i := rng.Intn(len(table))
	if rng.Float64() < table[i].Prob {
		return int64(i)
	}
	return table[i].Alias
}
