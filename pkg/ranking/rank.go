package ranking

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Candidate is an article up for ranking, regardless of where it came from.
type Candidate struct {
	Title       string `json:"title"`
	Abstract    string `json:"abstract,omitempty"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"` // RFC 3339
}

// Ranked pairs a candidate with its score and a readable breakdown.
type Ranked struct {
	Candidate
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Options tune one ranking pass. The zero value means: now as reference
// time, no age cutoff, keep everything above MinScore, return all.
type Options struct {
	Now      time.Time
	DaysBack int     // candidates older than this score zero recency; 0 = no cutoff
	TopK     int     // 0 = unlimited
	MinScore float64 // candidates below are dropped
}

// Scoring weights. Lexical overlap dominates; recency is a tiebreaker.
const (
	recallWeight  = 0.6
	jaccardWeight = 0.3
	recencyWeight = 0.1
)

// Rank scores candidates against the topic text and returns them in
// descending score order, ties broken by title. Candidates sharing no
// token with the topic are dropped regardless of MinScore.
func Rank(topic string, candidates []Candidate, opts Options) []Ranked {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	topicTokens := tokenize(topic)

	docs := make([][]string, 0, len(candidates)+1)
	docs = append(docs, topicTokens)
	candTokens := make([][]string, len(candidates))
	for i, c := range candidates {
		candTokens[i] = tokenize(c.Title + " " + c.Abstract)
		docs = append(docs, candTokens[i])
	}
	idf := buildIDF(docs)

	seenURL := map[string]bool{}
	var ranked []Ranked
	for i, c := range candidates {
		if c.Title == "" {
			continue
		}
		if c.URL != "" {
			if seenURL[c.URL] {
				continue
			}
			seenURL[c.URL] = true
		}

		overlap, shared := idfWeightedRecall(topicTokens, candTokens[i], idf)
		if shared == 0 {
			continue
		}
		sim := idfWeightedJaccard(topicTokens, candTokens[i], idf)
		rec := recencyScore(c.PublishedAt, now, opts.DaysBack)

		score := recallWeight*overlap + jaccardWeight*sim + recencyWeight*rec
		if score < opts.MinScore {
			continue
		}

		ranked = append(ranked, Ranked{
			Candidate: c,
			Score:     score,
			Reason: fmt.Sprintf("overlap=%.2f sim=%.2f recency=%.2f shared=%d",
				overlap, sim, rec, shared),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score == ranked[j].Score {
			return ranked[i].Title < ranked[j].Title
		}
		return ranked[i].Score > ranked[j].Score
	})

	if opts.TopK > 0 && len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}
	return ranked
}

// recencyScore decays exponentially with age: exp(-days/14), so two weeks
// old is worth about a third of brand new. Unparseable or missing dates
// score zero.
func recencyScore(publishedAt string, now time.Time, daysBack int) float64 {
	if publishedAt == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return 0
	}
	age := now.Sub(t).Hours() / 24.0
	if age < 0 {
		age = 0
	}
	if daysBack > 0 && age > float64(daysBack) {
		return 0
	}
	return clamp01(math.Exp(-age / 14.0))
}
