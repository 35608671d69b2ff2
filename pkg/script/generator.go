package script

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ubmi/ifc-podcast/pkg/pubmed"
)

// SourceArticle is a ranked article feeding the episode.
type SourceArticle struct {
	pubmed.Article
	Score float64 `json:"score"`
}

// Generator drives script and metadata generation.
type Generator struct {
	LLM Client
}

func NewGenerator(llm Client) *Generator {
	return &Generator{LLM: llm}
}

const (
	maxSummaryArticles = 10
	abstractPreviewLen = 500
	scriptTemperature  = 0.7
	scriptMaxTokens    = 4000
)

// GenerateScript builds a podcast script from the top articles.
func (g *Generator) GenerateScript(ctx context.Context, articles []SourceArticle) (string, error) {
	log.Printf("Generating podcast script from %d articles", len(articles))

	prompt := buildScriptPrompt(articlesSummary(articles))
	script, err := g.LLM.Complete(ctx, Request{
		Prompt:      prompt,
		Temperature: scriptTemperature,
		MaxTokens:   scriptMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate script: %w", err)
	}

	log.Printf("Podcast script generated (%d characters)", len(script))
	return script, nil
}

// articlesSummary renders the top articles as prompt context.
func articlesSummary(articles []SourceArticle) string {
	if len(articles) > maxSummaryArticles {
		articles = articles[:maxSummaryArticles]
	}

	blocks := make([]string, 0, len(articles))
	for i, a := range articles {
		authors := "N/A"
		if len(a.Authors) > 0 {
			authors = strings.Join(a.Authors, ", ")
		}
		abstract := a.Abstract
		suffix := ""
		if runes := []rune(abstract); len(runes) > abstractPreviewLen {
			abstract = string(runes[:abstractPreviewLen])
			suffix = "..."
		}

		blocks = append(blocks, fmt.Sprintf(`
Article %d:
Title: %s
Authors: %s
Journal: %s
Publication Date: %s
Relevance Score: %.3f

Abstract: %s%s

Key Findings: %s
`, i+1, orNA(a.Title), authors, orNA(a.Journal), orNA(a.PublicationDate), a.Score, abstract, suffix, keyFindings(a.Abstract)))
	}
	return strings.Join(blocks, "\n")
}

var findingMarkers = []string{"found", "showed", "demonstrated", "revealed", "concluded", "results indicate"}

// keyFindings picks up to two conclusion-sounding sentences out of an
// abstract.
func keyFindings(abstract string) string {
	var picked []string
	for _, sentence := range strings.Split(abstract, ".") {
		sentence = strings.TrimSpace(sentence)
		lower := strings.ToLower(sentence)
		for _, marker := range findingMarkers {
			if strings.Contains(lower, marker) {
				picked = append(picked, sentence)
				break
			}
		}
		if len(picked) == 2 {
			break
		}
	}
	if len(picked) == 0 {
		return "Key findings not extracted."
	}
	return strings.Join(picked, ". ")
}

func buildScriptPrompt(summary string) string {
	return fmt.Sprintf(`You are writing a short science podcast episode about recent research from the Instituto de Fisiología Celular (IFC-UNAM).

Source articles:
%s

Instructions:
- Focus on the most impactful and interconnected findings
- Create smooth transitions between different topics
- Include brief explanations of complex scientific terms
- Maintain an engaging, conversational tone
- Structure: Opening hook (30 seconds), Main content (4 minutes), Closing (30 seconds)
- Target audience: Educated general public with interest in science
- Mention that this episode covers recent research relevant to IFC-UNAM's research areas

Please generate a complete podcast script with clear sections and timing cues.`, summary)
}

// Metadata describes a generated episode.
type Metadata struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Keywords            []string `json:"keywords"`
	SourceArticlesCount int      `json:"source_articles_count"`
	TopJournals         []string `json:"top_journals"`
	GenerationDate      string   `json:"generation_date"`
}

// GenerateMetadata derives title, description, and keywords for an episode
// from the finished script and its source articles.
func (g *Generator) GenerateMetadata(ctx context.Context, scriptText string, articles []SourceArticle) (*Metadata, error) {
	titlePrompt := fmt.Sprintf(`Based on this podcast script, generate a compelling episode title (max 60 characters):

%s...

Title should be:
- Engaging and informative
- Suitable for a scientific podcast
- Focused on the main themes
- Professional but accessible

Respond with only the title, no additional text.`, truncateRunes(scriptText, 1000))

	title, err := g.LLM.Complete(ctx, Request{Prompt: titlePrompt, Temperature: 0.5, MaxTokens: 100})
	if err != nil {
		return nil, fmt.Errorf("generate title: %w", err)
	}

	descriptionPrompt := fmt.Sprintf(`Write a brief podcast episode description (100-150 words) based on this script:

%s...

Description should:
- Summarize key topics covered
- Mention it's based on recent research
- Be engaging for potential listeners
- Include relevant scientific areas

Respond with only the description text.`, truncateRunes(scriptText, 1500))

	description, err := g.LLM.Complete(ctx, Request{Prompt: descriptionPrompt, Temperature: 0.6, MaxTokens: 200})
	if err != nil {
		return nil, fmt.Errorf("generate description: %w", err)
	}

	return &Metadata{
		Title:               strings.TrimSpace(title),
		Description:         strings.TrimSpace(description),
		Keywords:            articleKeywords(articles),
		SourceArticlesCount: len(articles),
		TopJournals:         topJournals(articles),
		GenerationDate:      time.Now().UTC().Format("2006-01-02"),
	}, nil
}

// articleKeywords merges each article's leading MeSH terms and keywords,
// first occurrence wins, capped at ten.
func articleKeywords(articles []SourceArticle) []string {
	seen := map[string]bool{}
	var keywords []string

	add := func(terms []string) {
		if len(terms) > 3 {
			terms = terms[:3]
		}
		for _, term := range terms {
			key := strings.ToLower(term)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			keywords = append(keywords, term)
		}
	}

	for _, a := range articles {
		add(a.MeshTerms)
		add(a.Keywords)
	}

	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return keywords
}

func topJournals(articles []SourceArticle) []string {
	if len(articles) > 5 {
		articles = articles[:5]
	}
	seen := map[string]bool{}
	var journals []string
	for _, a := range articles {
		if a.Journal == "" || seen[a.Journal] {
			continue
		}
		seen[a.Journal] = true
		journals = append(journals, a.Journal)
	}
	return journals
}

// FormatEpisode renders the script with its metadata header as markdown.
func FormatEpisode(scriptText string, meta *Metadata) string {
	var b strings.Builder

	if meta != nil {
		b.WriteString("# Podcast Episode\n")
		fmt.Fprintf(&b, "## %s\n\n", orNA(meta.Title))
		b.WriteString("### Metadata\n")
		fmt.Fprintf(&b, "- **Generated**: %s\n", meta.GenerationDate)
		fmt.Fprintf(&b, "- **Source Articles**: %d\n", meta.SourceArticlesCount)
		fmt.Fprintf(&b, "- **Keywords**: %s\n\n", strings.Join(meta.Keywords, ", "))
		b.WriteString("### Description\n")
		b.WriteString(meta.Description)
		b.WriteString("\n\n---\n\n")
	}

	b.WriteString("## Script\n\n")
	b.WriteString(scriptText)
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
