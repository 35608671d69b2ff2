package affiliation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Score contribution constants. Purely additive, no cap: the score is a
// loose ranking heuristic whose absolute value carries no meaning.
const (
	negativeKeywordPenalty  = 10.0
	patternBonus            = 15.0
	multiMatchFactor        = 2.0
	highSimilarityFloor     = 0.7
	moderateSimilarityFloor = 0.5
	shortNameRunes          = 10
	shortNamePenalty        = 2.0
	variationBonusFloor     = 5
	variationBonusStep      = 0.5
	maxVariationBonus       = 5.0
)

// ScoredCluster annotates a Cluster with its relevance score, the ordered
// reason trail behind it, and the cluster's index in the pre-filter list.
type ScoredCluster struct {
	Cluster
	RelevanceScore       float64  `json:"relevance_score"`
	MatchingReasons      []string `json:"matching_reasons"`
	OriginalClusterIndex int      `json:"original_cluster_index"`
}

// ScoreCluster assigns a relevance score to a cluster plus a human-readable
// trail of every contribution, in application order: negative-keyword
// penalties, pattern bonuses, categorized keyword bonuses, best exemplar
// similarity, short-representative penalty, variation-count bonus. Pure and
// total: an empty representative or variation list just scores low. The
// input cluster is never mutated.
func (p *Profile) ScoreCluster(c Cluster) (float64, []string) {
	allText := c.Members()
	score := 0.0
	var reasons []string

	// Negative keywords first, matched against normalized text. Every hit
	// counts, so a cluster full of Harvard variants sinks fast.
	for _, text := range allText {
		clean := cleanText(text)
		for _, neg := range p.NegativeKeywords {
			if strings.Contains(clean, neg) {
				score -= negativeKeywordPenalty
				reasons = append(reasons, fmt.Sprintf("Contains negative keyword: %s", neg))
			}
		}
	}

	// Institution patterns run over the raw text, case-insensitively.
	for _, text := range allText {
		for _, pattern := range p.Patterns {
			if pattern.Match(text) {
				score += patternBonus
				reasons = append(reasons, fmt.Sprintf("Pattern match: %s in '%s'", pattern, truncateRunes(text, 50)))
			}
		}
	}

	// Categorized keywords on normalized text. The multi-match bonus for a
	// category is emitted once, after that category's scan.
	for _, cat := range p.Categories {
		matches := 0
		for _, text := range allText {
			clean := cleanText(text)
			for _, keyword := range cat.Keywords {
				if strings.Contains(clean, keyword) {
					score += cat.Weight
					matches++
					reasons = append(reasons, fmt.Sprintf("Keyword match (%s): '%s' in '%s'", cat.Name, keyword, truncateRunes(text, 50)))
				}
			}
		}
		if matches > 1 {
			score += float64(matches) * multiMatchFactor
			reasons = append(reasons, fmt.Sprintf("Multiple matches in %s: %d", cat.Name, matches))
		}
	}

	// Single best similarity against the canonical exemplars. The higher
	// tier excludes the lower one.
	maxSimilarity := 0.0
	bestExemplar := ""
	for _, text := range allText {
		for _, exemplar := range p.Exemplars {
			if sim := exemplarSimilarity(text, exemplar); sim > maxSimilarity {
				maxSimilarity = sim
				bestExemplar = exemplar
			}
		}
	}
	if maxSimilarity > highSimilarityFloor {
		score += maxSimilarity * 10.0
		reasons = append(reasons, fmt.Sprintf("High similarity (%.2f) to '%s'", maxSimilarity, bestExemplar))
	} else if maxSimilarity > moderateSimilarityFloor {
		score += maxSimilarity * 5.0
		reasons = append(reasons, fmt.Sprintf("Moderate similarity (%.2f) to '%s'", maxSimilarity, bestExemplar))
	}

	if utf8.RuneCountInString(c.Representative) < shortNameRunes {
		score -= shortNamePenalty
		reasons = append(reasons, "Penalty: Very short representative name")
	}

	if n := len(c.Variations); n > variationBonusFloor {
		score += math.Min(float64(n)*variationBonusStep, maxVariationBonus)
		reasons = append(reasons, fmt.Sprintf("Bonus: %d variations", n))
	}

	return score, reasons
}

// truncateRunes caps s at n runes for reason messages.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
