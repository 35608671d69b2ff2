package script

import (
	"context"
	"strings"
	"testing"

	"github.com/ubmi/ifc-podcast/pkg/pubmed"
)

// fakeLLM replays canned responses and records the prompts it saw.
type fakeLLM struct {
	responses []string
	prompts   []Request
}

func (f *fakeLLM) Complete(_ context.Context, req Request) (string, error) {
	f.prompts = append(f.prompts, req)
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func sampleArticles() []SourceArticle {
	return []SourceArticle{
		{
			Article: pubmed.Article{
				Title:           "Calcium signaling in beta cells",
				Abstract:        "Background text. We found calcium oscillations drive secretion. Methods were standard. The results indicate a new pathway.",
				Authors:         []string{"Ana Hernandez", "Luis Lopez"},
				Journal:         "Journal of Cellular Physiology",
				PublicationDate: "2026-Jun-01",
				MeshTerms:       []string{"Calcium", "Insulin-Secreting Cells", "Signal Transduction", "Extra Term"},
			},
			Score: 0.91,
		},
		{
			Article: pubmed.Article{
				Title:     "Mitochondrial dynamics",
				Abstract:  "Purely descriptive text without conclusions.",
				Journal:   "Cell Reports",
				Keywords:  []string{"mitochondria", "fission"},
				MeshTerms: []string{"Calcium"},
			},
			Score: 0.72,
		},
	}
}

func TestGenerateScriptPrompt(t *testing.T) {
	llm := &fakeLLM{responses: []string{"[00:00] Welcome to the show."}}
	g := NewGenerator(llm)

	scriptText, err := g.GenerateScript(context.Background(), sampleArticles())
	if err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	if scriptText != "[00:00] Welcome to the show." {
		t.Errorf("script = %q", scriptText)
	}

	if len(llm.prompts) != 1 {
		t.Fatalf("got %d LLM calls, want 1", len(llm.prompts))
	}
	prompt := llm.prompts[0].Prompt
	for _, want := range []string{
		"Article 1:",
		"Calcium signaling in beta cells",
		"Ana Hernandez, Luis Lopez",
		"Relevance Score: 0.910",
		"We found calcium oscillations drive secretion",
		"Article 2:",
		"Key findings not extracted.",
		"IFC-UNAM",
		"Opening hook (30 seconds)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if llm.prompts[0].Temperature != scriptTemperature {
		t.Errorf("Temperature = %v", llm.prompts[0].Temperature)
	}
}

func TestKeyFindings(t *testing.T) {
	cases := []struct {
		name, abstract, want string
	}{
		{
			"two findings picked",
			"Intro. We showed X. Filler. Data revealed Y. We also demonstrated Z.",
			"We showed X. Data revealed Y",
		},
		{
			"no markers",
			"A purely descriptive abstract without markers.",
			"Key findings not extracted.",
		},
		{
			"empty abstract",
			"",
			"Key findings not extracted.",
		},
	}

	for _, tc := range cases {
		if got := keyFindings(tc.abstract); got != tc.want {
			t.Errorf("%s: keyFindings = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestArticlesSummaryTruncatesAbstract(t *testing.T) {
	long := strings.Repeat("palabra ", 100) // 800 chars
	articles := []SourceArticle{{
		Article: pubmed.Article{Title: "Long one", Abstract: long},
	}}

	summary := articlesSummary(articles)
	if !strings.Contains(summary, "...") {
		t.Error("long abstracts should be truncated with an ellipsis")
	}
	if strings.Contains(summary, long) {
		t.Error("full abstract should not appear in the summary")
	}
}

func TestGenerateMetadata(t *testing.T) {
	llm := &fakeLLM{responses: []string{"  Calcium, Up Close  ", " An episode about calcium. "}}
	g := NewGenerator(llm)

	meta, err := g.GenerateMetadata(context.Background(), "script body", sampleArticles())
	if err != nil {
		t.Fatalf("GenerateMetadata: %v", err)
	}

	if meta.Title != "Calcium, Up Close" {
		t.Errorf("Title = %q, want trimmed", meta.Title)
	}
	if meta.Description != "An episode about calcium." {
		t.Errorf("Description = %q", meta.Description)
	}
	if meta.SourceArticlesCount != 2 {
		t.Errorf("SourceArticlesCount = %d", meta.SourceArticlesCount)
	}

	// Three MeSH terms from the first article, then the second article's
	// terms with the duplicate "Calcium" dropped.
	want := []string{"Calcium", "Insulin-Secreting Cells", "Signal Transduction", "mitochondria", "fission"}
	if len(meta.Keywords) != len(want) {
		t.Fatalf("Keywords = %v, want %v", meta.Keywords, want)
	}
	for i := range want {
		if meta.Keywords[i] != want[i] {
			t.Errorf("Keywords[%d] = %q, want %q", i, meta.Keywords[i], want[i])
		}
	}

	if len(meta.TopJournals) != 2 || meta.TopJournals[0] != "Journal of Cellular Physiology" {
		t.Errorf("TopJournals = %v", meta.TopJournals)
	}

	if len(llm.prompts) != 2 {
		t.Fatalf("got %d LLM calls, want title and description", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[0].Prompt, "max 60 characters") {
		t.Error("first call should ask for the title")
	}
	if !strings.Contains(llm.prompts[1].Prompt, "100-150 words") {
		t.Error("second call should ask for the description")
	}
}

func TestFormatEpisode(t *testing.T) {
	meta := &Metadata{
		Title:               "Calcium, Up Close",
		Description:         "About calcium.",
		Keywords:            []string{"calcium", "cells"},
		SourceArticlesCount: 2,
		GenerationDate:      "2026-08-23",
	}

	out := FormatEpisode("The script.", meta)
	for _, want := range []string{
		"# Podcast Episode",
		"## Calcium, Up Close",
		"- **Source Articles**: 2",
		"- **Keywords**: calcium, cells",
		"### Description",
		"## Script",
		"The script.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("episode markdown missing %q", want)
		}
	}

	bare := FormatEpisode("Only script.", nil)
	if strings.Contains(bare, "Metadata") {
		t.Error("nil metadata should render script only")
	}
}
