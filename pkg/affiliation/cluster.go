// Package affiliation clusters raw institutional-affiliation strings and
// scores each cluster's relevance to a target institution. Clustering and
// scoring are pure in-memory computations so callers can run them from any
// concurrency context.
package affiliation

import (
	"fmt"
	"math"
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultSimilarityThreshold is the minimum similarity for two affiliation
// strings to land in the same cluster.
const DefaultSimilarityThreshold = 0.7

// Cluster groups textual variants of the same institution. The
// representative is the first-encountered member, not necessarily the most
// canonical form.
type Cluster struct {
	Representative string   `json:"representative"`
	Variations     []string `json:"variations"`
}

// Size counts the representative plus its variations.
func (c Cluster) Size() int {
	return 1 + len(c.Variations)
}

// Members returns the representative followed by the variations, as a fresh
// slice.
func (c Cluster) Members() []string {
	return append([]string{c.Representative}, c.Variations...)
}

// Similarity returns a normalized Levenshtein ratio between the lowercased
// strings, in [0,1]. Commutative.
func Similarity(a, b string) float64 {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == lb {
		return 1.0
	}
	sim, err := edlib.StringsSimilarity(la, lb, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(sim)
}

// ClusterAffiliations partitions affiliation strings into clusters of
// near-duplicates. Greedy and order-dependent: each unprocessed string opens
// a cluster and absorbs every later unprocessed string whose similarity
// exceeds the threshold. A string similar to an earlier representative is
// claimed there even if a later representative would have matched better;
// downstream heuristics assume first-seen-wins, so reordering the input can
// change the result.
//
// The processed set keys on the raw string value, so exact duplicates
// collapse into whichever cluster claims the first occurrence.
func ClusterAffiliations(affiliations []string, threshold float64) ([]Cluster, error) {
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("similarity threshold must be in (0, 1), got %v", threshold)
	}

	var clusters []Cluster
	processed := make(map[string]bool, len(affiliations))

	for i, aff := range affiliations {
		if processed[aff] {
			continue
		}
		processed[aff] = true
		cluster := Cluster{Representative: aff}

		for _, other := range affiliations[i+1:] {
			if processed[other] {
				continue
			}
			if Similarity(aff, other) > threshold {
				cluster.Variations = append(cluster.Variations, other)
				processed[other] = true
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters, nil
}
