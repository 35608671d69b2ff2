// Package preprint searches arXiv's quantitative-biology listings for
// preprints related to the institute's research topics.
package preprint

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mtreilly/goarxiv"

	"github.com/ubmi/ifc-podcast/pkg/ranking"
)

// Preprint is one arXiv result, flattened for ranking and reporting.
type Preprint struct {
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	ArxivID   string `json:"arxiv_id"`
	URL       string `json:"url"`
	Published string `json:"published"` // RFC 3339
}

// Search queries arXiv for a topic within quantitative biology.
func Search(ctx context.Context, topic string, maxResults int) ([]Preprint, error) {
	client, err := goarxiv.New()
	if err != nil {
		return nil, fmt.Errorf("arxiv client: %w", err)
	}

	query := fmt.Sprintf("all:%s AND cat:q-bio*", topic)
	results, err := client.Search(ctx, query, &goarxiv.SearchOptions{
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("arxiv search %q: %w", topic, err)
	}

	preprints := make([]Preprint, 0, len(results.Articles))
	for _, article := range results.Articles {
		preprints = append(preprints, Preprint{
			Title:     strings.TrimSpace(article.Title),
			Abstract:  strings.TrimSpace(article.Summary),
			ArxivID:   article.BaseID(),
			URL:       article.ID,
			Published: article.Published.Format(time.RFC3339),
		})
	}
	log.Printf("arXiv returned %d preprints for %q", len(preprints), topic)
	return preprints, nil
}

// SearchTopics runs one search per topic and deduplicates by arXiv ID,
// first occurrence wins.
func SearchTopics(ctx context.Context, topics []string, maxPerTopic int) ([]Preprint, error) {
	seen := make(map[string]bool)
	var all []Preprint

	for _, topic := range topics {
		preprints, err := Search(ctx, topic, maxPerTopic)
		if err != nil {
			log.Printf("Topic %q: %v", topic, err)
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			continue
		}
		all = append(all, Dedup(preprints, seen)...)
	}
	return all, nil
}

// Dedup filters out preprints whose arXiv ID (or, lacking one, lowercased
// title) is already in seen, recording new keys as it goes.
func Dedup(preprints []Preprint, seen map[string]bool) []Preprint {
	out := make([]Preprint, 0, len(preprints))
	for _, p := range preprints {
		key := p.ArxivID
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(p.Title))
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// Candidates converts preprints for relevance ranking.
func Candidates(preprints []Preprint) []ranking.Candidate {
	candidates := make([]ranking.Candidate, 0, len(preprints))
	for _, p := range preprints {
		candidates = append(candidates, ranking.Candidate{
			Title:       p.Title,
			Abstract:    p.Abstract,
			URL:         p.URL,
			Source:      "arxiv",
			PublishedAt: p.Published,
		})
	}
	return candidates
}
