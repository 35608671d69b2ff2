package affiliation

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strings"
)

// DefaultMinScore keeps clusters with at least a weak positive signal.
const DefaultMinScore = 5.0

// FilterOptions controls the filter pass. MaxResults zero means unlimited;
// a negative value is rejected.
type FilterOptions struct {
	MinScore   float64
	MaxResults int
}

// FilterMetadata records how a FilterResult was produced, for
// reproducibility of saved artifacts.
type FilterMetadata struct {
	OriginalTotalClusters int     `json:"original_total_clusters"`
	FilteredClustersCount int     `json:"filtered_clusters_count"`
	MinScoreThreshold     float64 `json:"min_score_threshold"`
	MaxResultsLimit       int     `json:"max_results_limit,omitempty"`
}

// FilterResult is the serializable outcome of scoring and filtering a
// cluster list. RelevantClusters is sorted by score descending, ties keeping
// their pre-filter relative order; representatives and variations are
// carried verbatim so consumers can apply their own cleaning.
type FilterResult struct {
	Metadata         FilterMetadata  `json:"filtering_metadata"`
	RelevantClusters []ScoredCluster `json:"relevant_affiliation_clusters"`
}

// FilterAffiliations scores every cluster, keeps those at or above MinScore,
// sorts them by score descending with a stable tie-break, and truncates to
// MaxResults when set. Each retained cluster keeps its index into the
// original unfiltered slice. Logs progress every 50 clusters.
func (p *Profile) FilterAffiliations(clusters []Cluster, opts FilterOptions) (*FilterResult, error) {
	if math.IsNaN(opts.MinScore) {
		return nil, fmt.Errorf("min score must be a number")
	}
	if opts.MaxResults < 0 {
		return nil, fmt.Errorf("max results must be positive, got %d", opts.MaxResults)
	}

	log.Printf("Scoring %d clusters...", len(clusters))

	var scored []ScoredCluster
	for i, cluster := range clusters {
		score, reasons := p.ScoreCluster(cluster)
		if score >= opts.MinScore {
			scored = append(scored, ScoredCluster{
				Cluster:              cluster,
				RelevanceScore:       score,
				MatchingReasons:      reasons,
				OriginalClusterIndex: i,
			})
		}
		if (i+1)%50 == 0 {
			log.Printf("Processed %d/%d clusters...", i+1, len(clusters))
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].RelevanceScore > scored[b].RelevanceScore
	})

	if opts.MaxResults > 0 && len(scored) > opts.MaxResults {
		scored = scored[:opts.MaxResults]
	}

	log.Printf("Found %d relevant clusters (score >= %g)", len(scored), opts.MinScore)

	return &FilterResult{
		Metadata: FilterMetadata{
			OriginalTotalClusters: len(clusters),
			FilteredClustersCount: len(scored),
			MinScoreThreshold:     opts.MinScore,
			MaxResultsLimit:       opts.MaxResults,
		},
		RelevantClusters: scored,
	}, nil
}

// PrintTopMatches renders the top N retained clusters for interactive
// review, in the result's own order. It never re-sorts.
func PrintTopMatches(w io.Writer, result *FilterResult, topN int) {
	clusters := result.RelevantClusters
	n := topN
	if n < 0 {
		n = 0
	}
	if len(clusters) < n {
		n = len(clusters)
	}

	fmt.Fprintf(w, "\n=== TOP %d RELEVANT CLUSTERS ===\n\n", n)

	for i, cluster := range clusters[:n] {
		fmt.Fprintf(w, "%d. Representative: %q\n", i+1, cluster.Representative)
		fmt.Fprintf(w, "   Score: %.2f\n", cluster.RelevanceScore)
		fmt.Fprintf(w, "   Variations: %d\n", len(cluster.Variations))

		reasons := cluster.MatchingReasons
		suffix := ""
		if len(reasons) > 3 {
			reasons = reasons[:3]
			suffix = "..."
		}
		fmt.Fprintf(w, "   Reasons: %s%s\n\n", strings.Join(reasons, ", "), suffix)
	}
}
