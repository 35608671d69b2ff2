package affiliation

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

// Cluster fixtures with known scores under testProfile: see
// TestScoreContributions for the arithmetic.
func filterFixture() []Cluster {
	return []Cluster{
		{Representative: "Alpha Institute Complex"},      // 10
		{Representative: "Alpha Beta Lab Research Wing"}, // 25
		{Representative: "Avoidme Memorial Hospital"},    // -10
		{Representative: "Beta Lab Facility Central"},    // 15
		{Representative: "Quiet Valley Observatory"},     // 0
	}
}

func TestFilterThresholdAndLimit(t *testing.T) {
	profile := testProfile()

	result, err := profile.FilterAffiliations(filterFixture(), FilterOptions{MinScore: 10.0, MaxResults: 1})
	if err != nil {
		t.Fatalf("FilterAffiliations: %v", err)
	}

	if len(result.RelevantClusters) != 1 {
		t.Fatalf("got %d clusters, want exactly 1", len(result.RelevantClusters))
	}
	top := result.RelevantClusters[0]
	if top.Representative != "Alpha Beta Lab Research Wing" {
		t.Errorf("top cluster = %q, want the highest-scoring one", top.Representative)
	}
	if top.RelevanceScore != 25.0 {
		t.Errorf("top score = %.2f, want 25.0", top.RelevanceScore)
	}
	if top.OriginalClusterIndex != 1 {
		t.Errorf("original index = %d, want 1 (position in the unfiltered input)", top.OriginalClusterIndex)
	}
	if result.Metadata.OriginalTotalClusters != 5 {
		t.Errorf("original total = %d, want 5", result.Metadata.OriginalTotalClusters)
	}
	if result.Metadata.FilteredClustersCount != 1 {
		t.Errorf("filtered count = %d, want 1", result.Metadata.FilteredClustersCount)
	}
}

func TestFilterSortDescending(t *testing.T) {
	profile := testProfile()

	result, err := profile.FilterAffiliations(filterFixture(), FilterOptions{MinScore: -100.0})
	if err != nil {
		t.Fatalf("FilterAffiliations: %v", err)
	}

	if len(result.RelevantClusters) != 5 {
		t.Fatalf("min score -100 should keep everything, got %d", len(result.RelevantClusters))
	}
	for i := 0; i < len(result.RelevantClusters)-1; i++ {
		if result.RelevantClusters[i].RelevanceScore < result.RelevantClusters[i+1].RelevanceScore {
			t.Errorf("clusters out of order at %d: %.2f < %.2f",
				i, result.RelevantClusters[i].RelevanceScore, result.RelevantClusters[i+1].RelevanceScore)
		}
	}
}

func TestFilterThresholdMonotonicity(t *testing.T) {
	profile := testProfile()
	clusters := filterFixture()

	previous := len(clusters) + 1
	for _, minScore := range []float64{-20, 0, 5, 10, 15, 25, 30} {
		result, err := profile.FilterAffiliations(clusters, FilterOptions{MinScore: minScore})
		if err != nil {
			t.Fatalf("FilterAffiliations(minScore=%v): %v", minScore, err)
		}
		count := len(result.RelevantClusters)
		if count > previous {
			t.Errorf("raising min score to %v grew the result from %d to %d", minScore, previous, count)
		}
		previous = count
	}
}

func TestFilterTruncationCorrectness(t *testing.T) {
	profile := testProfile()
	clusters := filterFixture()

	// 3 clusters pass minScore 5 (scores 10, 15, 25).
	for limit, want := range map[int]int{1: 1, 2: 2, 3: 3, 10: 3} {
		result, err := profile.FilterAffiliations(clusters, FilterOptions{MinScore: DefaultMinScore, MaxResults: limit})
		if err != nil {
			t.Fatalf("FilterAffiliations(maxResults=%d): %v", limit, err)
		}
		if len(result.RelevantClusters) != want {
			t.Errorf("maxResults=%d: got %d clusters, want %d", limit, len(result.RelevantClusters), want)
		}
	}
}

func TestFilterStableTies(t *testing.T) {
	profile := testProfile()
	clusters := []Cluster{
		{Representative: "Alpha Annex Building West"},
		{Representative: "Alpha Annex Building East"},
		{Representative: "Alpha Annex Building South"},
	}

	result, err := profile.FilterAffiliations(clusters, FilterOptions{MinScore: 5.0})
	if err != nil {
		t.Fatalf("FilterAffiliations: %v", err)
	}

	if len(result.RelevantClusters) != 3 {
		t.Fatalf("got %d clusters, want 3", len(result.RelevantClusters))
	}
	for i, c := range result.RelevantClusters {
		if c.OriginalClusterIndex != i {
			t.Errorf("equal scores should keep input order: position %d has original index %d", i, c.OriginalClusterIndex)
		}
	}
}

func TestFilterZeroMaxResultsMeansUnlimited(t *testing.T) {
	profile := testProfile()

	result, err := profile.FilterAffiliations(filterFixture(), FilterOptions{MinScore: 5.0})
	if err != nil {
		t.Fatalf("FilterAffiliations: %v", err)
	}
	if len(result.RelevantClusters) != 3 {
		t.Errorf("got %d clusters, want all 3 passing the threshold", len(result.RelevantClusters))
	}
}

func TestFilterInvalidOptions(t *testing.T) {
	profile := testProfile()

	if _, err := profile.FilterAffiliations(nil, FilterOptions{MinScore: 5.0, MaxResults: -1}); err == nil {
		t.Error("negative max results should be rejected")
	}
	if _, err := profile.FilterAffiliations(nil, FilterOptions{MinScore: math.NaN()}); err == nil {
		t.Error("NaN min score should be rejected")
	}
}

func TestPrintTopMatchesUsesResultOrder(t *testing.T) {
	profile := testProfile()

	result, err := profile.FilterAffiliations(filterFixture(), FilterOptions{MinScore: 5.0})
	if err != nil {
		t.Fatalf("FilterAffiliations: %v", err)
	}

	var buf bytes.Buffer
	PrintTopMatches(&buf, result, 2)
	out := buf.String()

	if !strings.Contains(out, "TOP 2 RELEVANT CLUSTERS") {
		t.Errorf("header missing or wrong count:\n%s", out)
	}
	first := strings.Index(out, "Alpha Beta Lab Research Wing")
	second := strings.Index(out, "Beta Lab Facility Central")
	if first == -1 || second == -1 || first > second {
		t.Errorf("printer must follow the result's descending order:\n%s", out)
	}
	if strings.Contains(out, "Alpha Institute Complex") {
		t.Errorf("third cluster should be cut by topN=2:\n%s", out)
	}
}

func TestPrintTopMatchesTruncatesReasons(t *testing.T) {
	result := &FilterResult{
		RelevantClusters: []ScoredCluster{{
			Cluster:         Cluster{Representative: "Instituto de Fisiología Celular"},
			RelevanceScore:  42.0,
			MatchingReasons: []string{"one", "two", "three", "four"},
		}},
	}

	var buf bytes.Buffer
	PrintTopMatches(&buf, result, 10)
	out := buf.String()

	if !strings.Contains(out, "one, two, three...") {
		t.Errorf("want first 3 reasons with ellipsis, got:\n%s", out)
	}
	if strings.Contains(out, "four") {
		t.Errorf("fourth reason should not print:\n%s", out)
	}
}
