package ranking

import (
	"reflect"
	"testing"
	"time"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		in     string
		want   []string
		reason string
	}{
		{
			"The calcium of the beta-cell",
			[]string{"calcium", "beta-cell"},
			"stop words dropped, hyphenated compound kept whole",
		},
		{
			"Calcium calcium CALCIUM",
			[]string{"calcium"},
			"case-insensitive dedup",
		},
		{
			"a b c signaling",
			[]string{"signaling"},
			"single characters dropped",
		},
		{
			"", nil, "empty text yields no tokens",
		},
	}

	for _, tc := range cases {
		got := tokenize(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("tokenize(%q) = %v, want %v — %s", tc.in, got, tc.want, tc.reason)
		}
	}
}

func TestBuildIDFRareTokensWeighMore(t *testing.T) {
	docs := [][]string{
		{"calcium", "channel"},
		{"calcium", "mitochondria"},
		{"calcium", "synapse"},
	}
	idf := buildIDF(docs)

	if idf["calcium"] >= idf["synapse"] {
		t.Errorf("common token should weigh less: calcium=%.3f synapse=%.3f",
			idf["calcium"], idf["synapse"])
	}
	if idfValue(idf, "never-seen") != idf[defaultIDFKey] {
		t.Errorf("unknown tokens should get the default weight")
	}
}

func TestRankOrdersByRelevance(t *testing.T) {
	topic := "calcium signaling in pancreatic beta cells"
	candidates := []Candidate{
		{Title: "Glacier melt dynamics in Patagonia", URL: "u1"},
		{Title: "Calcium signaling networks of pancreatic beta cells", URL: "u2"},
		{Title: "A single calcium mention", URL: "u3"},
	}

	ranked := Rank(topic, candidates, Options{})

	if len(ranked) != 2 {
		t.Fatalf("got %d ranked, want 2 (zero-overlap candidate dropped): %+v", len(ranked), ranked)
	}
	if ranked[0].URL != "u2" {
		t.Errorf("strongest lexical match should rank first, got %q", ranked[0].Title)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Errorf("scores not descending: %.3f then %.3f", ranked[0].Score, ranked[1].Score)
	}
	if ranked[0].Reason == "" {
		t.Error("ranked entries should carry a score breakdown")
	}
}

func TestRankRecencyBreaksTies(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fresh := now.AddDate(0, 0, -1).Format(time.RFC3339)
	stale := now.AddDate(0, 0, -60).Format(time.RFC3339)

	candidates := []Candidate{
		{Title: "calcium channels alpha", URL: "old", PublishedAt: stale},
		{Title: "calcium channels alpha", URL: "new", PublishedAt: fresh},
	}

	ranked := Rank("calcium channels", candidates, Options{Now: now})
	if len(ranked) != 2 {
		t.Fatalf("got %d ranked, want 2", len(ranked))
	}
	if ranked[0].URL != "new" {
		t.Errorf("identical lexical matches should order by recency, got %q first", ranked[0].URL)
	}
}

func TestRankDeduplicatesByURL(t *testing.T) {
	candidates := []Candidate{
		{Title: "calcium one", URL: "same"},
		{Title: "calcium two", URL: "same"},
	}
	ranked := Rank("calcium", candidates, Options{})
	if len(ranked) != 1 {
		t.Errorf("got %d ranked, want 1 after URL dedup", len(ranked))
	}
}

func TestRankTopK(t *testing.T) {
	candidates := []Candidate{
		{Title: "calcium alpha", URL: "a"},
		{Title: "calcium beta", URL: "b"},
		{Title: "calcium gamma", URL: "c"},
	}
	ranked := Rank("calcium", candidates, Options{TopK: 2})
	if len(ranked) != 2 {
		t.Errorf("got %d ranked, want TopK cap of 2", len(ranked))
	}
}

func TestRecencyScore(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if got := recencyScore("", now, 0); got != 0 {
		t.Errorf("empty date = %v, want 0", got)
	}
	if got := recencyScore("not-a-date", now, 0); got != 0 {
		t.Errorf("bad date = %v, want 0", got)
	}

	future := now.AddDate(0, 0, 2).Format(time.RFC3339)
	if got := recencyScore(future, now, 0); got != 1 {
		t.Errorf("future date = %v, want age clamped to 0 and score 1", got)
	}

	recent := now.AddDate(0, 0, -7).Format(time.RFC3339)
	if got := recencyScore(recent, now, 0); got <= 0 || got >= 1 {
		t.Errorf("week-old date = %v, want in (0, 1)", got)
	}

	old := now.AddDate(0, 0, -90).Format(time.RFC3339)
	if got := recencyScore(old, now, 30); got != 0 {
		t.Errorf("past the cutoff = %v, want 0", got)
	}
}

func TestExtractKeywords(t *testing.T) {
	text := "Calcium calcium calcium channels channels the the gating ab verylongwordbeyondlimit"

	got := ExtractKeywords(text, 3)
	want := []string{"calcium", "channels", "gating"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeywords = %v, want %v (frequency order, stop words and out-of-range lengths dropped)", got, want)
	}
}

func TestExtractKeywordsTieAlphabetical(t *testing.T) {
	got := ExtractKeywords("zebra apple mango", 3)
	want := []string{"apple", "mango", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeywords = %v, want alphabetical on ties %v", got, want)
	}
}

func TestExtractKeywordsEmpty(t *testing.T) {
	if got := ExtractKeywords("", 5); got != nil {
		t.Errorf("empty text = %v, want nil", got)
	}
	if got := ExtractKeywords("calcium", 0); got != nil {
		t.Errorf("zero max = %v, want nil", got)
	}
}
