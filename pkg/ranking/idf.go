// Package ranking orders candidate articles by lexical relevance to a
// topic. Scores combine IDF-weighted token overlap with a recency decay,
// so rare shared terms count for more than ubiquitous ones.
package ranking

import (
	"math"
	"regexp"
	"strings"
)

// tokenRe matches alphanumeric words, keeping hyphenated compounds whole
// ("beta-cell", "Ca2-binding").
var tokenRe = regexp.MustCompile(`[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true,
	"to": true, "of": true, "in": true, "on": true, "for": true, "with": true, "by": true,
	"and": true, "or": true, "as": true, "at": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"this": true, "that": true, "these": true, "those": true,
	"we": true, "our": true, "its": true, "their": true,
	"into": true, "between": true, "during": true, "after": true, "using": true,
}

// tokenize lowercases, drops stop words and single characters, and
// deduplicates while preserving first-occurrence order.
func tokenize(raw string) []string {
	parts := tokenRe.FindAllString(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToLower(p)
		if stopWords[t] || len(t) <= 1 {
			continue
		}
		out = append(out, t)
	}
	return uniqPreserveOrder(out)
}

func uniqPreserveOrder(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// defaultIDFKey holds the fallback weight for tokens the corpus never saw.
const defaultIDFKey = "__DEFAULT__"

// buildIDF computes IDF(t) = log(1 + N/(1+df(t))) over tokenized documents.
// Unknown tokens get the maximum observed value so rare query terms are not
// discounted to zero.
func buildIDF(docs [][]string) map[string]float64 {
	df := map[string]int{}
	n := len(docs)

	for _, d := range docs {
		seen := map[string]bool{}
		for _, t := range d {
			if seen[t] {
				continue
			}
			seen[t] = true
			df[t]++
		}
	}

	idf := map[string]float64{}
	maxIDF := 0.0
	for t, f := range df {
		v := math.Log(1.0 + float64(n)/float64(1+f))
		idf[t] = v
		if v > maxIDF {
			maxIDF = v
		}
	}
	idf[defaultIDFKey] = maxIDF

	return idf
}

func idfValue(idf map[string]float64, t string) float64 {
	if v, ok := idf[t]; ok {
		return v
	}
	if v, ok := idf[defaultIDFKey]; ok && v > 0 {
		return v
	}
	return 1.0
}

// idfWeightedRecall measures how much of the query's token weight the
// candidate covers: sum of IDF over the intersection divided by the sum
// over the query. Also reports the raw shared-token count.
func idfWeightedRecall(queryTokens, candTokens []string, idf map[string]float64) (overlap float64, shared int) {
	candSet := map[string]bool{}
	for _, t := range candTokens {
		candSet[t] = true
	}

	num, den := 0.0, 0.0
	for _, t := range queryTokens {
		w := idfValue(idf, t)
		den += w
		if candSet[t] {
			num += w
			shared++
		}
	}
	if den == 0 {
		return 0, 0
	}
	return clamp01(num / den), shared
}

// idfWeightedJaccard is intersection weight over union weight across both
// token sets.
func idfWeightedJaccard(aTokens, bTokens []string, idf map[string]float64) float64 {
	aSet := map[string]bool{}
	for _, t := range aTokens {
		aSet[t] = true
	}
	bSet := map[string]bool{}
	for _, t := range bTokens {
		bSet[t] = true
	}

	union, inter := 0.0, 0.0
	for t := range aSet {
		union += idfValue(idf, t)
		if bSet[t] {
			inter += idfValue(idf, t)
		}
	}
	for t := range bSet {
		if !aSet[t] {
			union += idfValue(idf, t)
		}
	}

	if union == 0 {
		return 0
	}
	return clamp01(inter / union)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
