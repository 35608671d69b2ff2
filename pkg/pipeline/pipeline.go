// Package pipeline wires the whole episode workflow together: scrape the
// institute's publications, mine and score affiliations, search recent
// articles, and turn the best of them into a podcast script and audio.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ubmi/ifc-podcast/pkg/affiliation"
	"github.com/ubmi/ifc-podcast/pkg/audio"
	"github.com/ubmi/ifc-podcast/pkg/pdftext"
	"github.com/ubmi/ifc-podcast/pkg/preprint"
	"github.com/ubmi/ifc-podcast/pkg/pubdb"
	"github.com/ubmi/ifc-podcast/pkg/pubmed"
	"github.com/ubmi/ifc-podcast/pkg/ranking"
	"github.com/ubmi/ifc-podcast/pkg/scraper"
	"github.com/ubmi/ifc-podcast/pkg/script"
)

// ReviewFunc lets a human prune the scored affiliation clusters before
// they drive the searches. Nil means keep everything.
type ReviewFunc func([]affiliation.ScoredCluster) ([]affiliation.ScoredCluster, error)

// Config holds the knobs for one pipeline run.
type Config struct {
	BaseURL             string  // institute website
	StartYear, EndYear  int     // scrape and search window
	DataDir             string  // cache and output directory
	DatabasePath        string  // SQLite publications database
	SimilarityThreshold float64 // affiliation clustering
	MinScore            float64 // affiliation relevance cutoff
	MaxClusters         int     // cap on relevant clusters, 0 = unlimited
	MaxSearchResults    int     // PubMed retmax
	MaxQueries          int     // affiliation query cap, 0 = unlimited
	Topics              []string
	TopArticles         int  // articles feeding the script
	SkipAudio           bool // stop after the script
}

// Pipeline carries the collaborators for a run. Any nil optional piece
// (TTS, Review) disables its step.
type Pipeline struct {
	Config  Config
	Scraper *scraper.Client
	PubMed  *pubmed.Client
	Store   *pubdb.Store
	LLM     script.Client
	TTS     *audio.Synthesizer
	Review  ReviewFunc
	Profile *affiliation.Profile
}

// Report summarizes what a run produced.
type Report struct {
	Publications     int              `json:"publications"`
	PDFTexts         int              `json:"pdf_texts"`
	Clusters         int              `json:"clusters"`
	RelevantClusters int              `json:"relevant_clusters"`
	Queries          []string         `json:"queries"`
	ArticlesFound    int              `json:"articles_found"`
	PreprintsFound   int              `json:"preprints_found"`
	MergeStats       pubdb.MergeStats `json:"merge_stats"`
	Database         *pubdb.Summary   `json:"database,omitempty"`
	RankedArticles   int              `json:"ranked_articles"`
	ScriptPath       string           `json:"script_path,omitempty"`
	AudioPath        string           `json:"audio_path,omitempty"`
	ReportPath       string           `json:"report_path,omitempty"`
	StartedAt        string           `json:"started_at"`
	FinishedAt       string           `json:"finished_at"`
}

// Run executes the full workflow.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now().UTC().Format(time.RFC3339)}

	if err := os.MkdirAll(p.Config.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	log.Println("Step 1/10: collecting institute publications")
	publications, err := p.loadOrScrape(ctx)
	if err != nil {
		return nil, err
	}
	report.Publications = len(publications)

	log.Println("Step 2/10: downloading PDFs and extracting text")
	texts, err := p.collectTexts(ctx, publications)
	if err != nil {
		return nil, err
	}
	report.PDFTexts = len(texts)

	log.Println("Step 3/10: mining and clustering affiliations")
	clusters, scored, err := p.mineAndScore(texts)
	if err != nil {
		return nil, err
	}
	report.Clusters = len(clusters)

	log.Println("Step 4/10: reviewing relevant clusters")
	if p.Review != nil {
		scored, err = p.Review(scored)
		if err != nil {
			return nil, fmt.Errorf("review: %w", err)
		}
	}
	report.RelevantClusters = len(scored)

	log.Println("Step 5/10: building search queries")
	queries := pubmed.BuildAffiliationQueries(approvedVariations(scored), p.Config.MaxQueries)
	report.Queries = queries

	log.Println("Step 6/10: searching PubMed")
	articles, err := p.searchArticles(ctx, queries)
	if err != nil {
		return nil, err
	}
	report.ArticlesFound = len(articles)

	log.Println("Step 7/10: searching preprints")
	preprints, err := preprint.SearchTopics(ctx, p.Config.Topics, p.Config.MaxSearchResults)
	if err != nil {
		return nil, err
	}
	report.PreprintsFound = len(preprints)

	log.Println("Step 8/10: merging into the publications database")
	if _, err := p.Store.MergePublications(publications); err != nil {
		return nil, err
	}
	stats, err := p.Store.MergeArticles(articles)
	if err != nil {
		return nil, err
	}
	report.MergeStats = stats

	summary, err := p.Store.Summarize()
	if err != nil {
		return nil, err
	}
	report.Database = summary

	log.Println("Step 9/10: ranking and writing the script")
	topic := topicText(p.Config.Topics, scored) + " " + strings.Join(corpusKeywords(texts), " ")
	sources := rankSources(topic, articles, preprints, p.Config.TopArticles)
	report.RankedArticles = len(sources)

	scriptPath, err := p.writeScript(ctx, sources)
	if err != nil {
		return nil, err
	}
	report.ScriptPath = scriptPath

	log.Println("Step 10/10: synthesizing audio")
	if !p.Config.SkipAudio && p.TTS != nil {
		audioPath, err := p.writeAudio(ctx, scriptPath)
		if err != nil {
			return nil, err
		}
		report.AudioPath = audioPath
	}

	report.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if err := p.writeReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

// loadOrScrape reads the cached publication listing if present, otherwise
// scrapes the website and caches the result.
func (p *Pipeline) loadOrScrape(ctx context.Context) ([]scraper.Publication, error) {
	cachePath := filepath.Join(p.Config.DataDir, "publications.json")

	if data, err := os.ReadFile(cachePath); err == nil {
		var publications []scraper.Publication
		if err := json.Unmarshal(data, &publications); err == nil {
			log.Printf("Loaded %d cached publications from %s", len(publications), cachePath)
			return publications, nil
		}
		log.Printf("Cache at %s is unreadable, rescraping", cachePath)
	}

	publications, err := p.Scraper.ScrapeYears(ctx, p.Config.StartYear, p.Config.EndYear)
	if err != nil {
		return nil, fmt.Errorf("scrape publications: %w", err)
	}

	if data, err := json.MarshalIndent(publications, "", "  "); err == nil {
		if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			log.Printf("Cache publications: %v", err)
		}
	}
	return publications, nil
}

// collectTexts downloads available PDFs and extracts their text; abstracts
// from the listing fill in for publications without a PDF.
func (p *Pipeline) collectTexts(ctx context.Context, publications []scraper.Publication) (map[string]string, error) {
	var pdfURLs []string
	for _, pub := range publications {
		if filepath.Ext(pub.URL) == ".pdf" {
			pdfURLs = append(pdfURLs, pub.URL)
		}
	}

	pdfDir := filepath.Join(p.Config.DataDir, "pdfs")
	if len(pdfURLs) > 0 {
		downloader := pdftext.NewDownloader(pdfDir)
		if _, err := downloader.DownloadAll(ctx, pdfURLs); err != nil {
			return nil, fmt.Errorf("download PDFs: %w", err)
		}
	}

	texts := map[string]string{}
	if _, err := os.Stat(pdfDir); err == nil {
		extracted, err := pdftext.ExtractDir(ctx, pdfDir)
		if err != nil {
			return nil, fmt.Errorf("extract PDFs: %w", err)
		}
		texts = extracted
	}

	for i, pub := range publications {
		if pub.Abstract != "" {
			texts[fmt.Sprintf("abstract-%d", i)] = pub.Abstract
		}
	}
	return texts, nil
}

// mineAndScore extracts affiliations from all texts, clusters them, and
// scores the clusters against the relevance profile.
func (p *Pipeline) mineAndScore(texts map[string]string) ([]affiliation.Cluster, []affiliation.ScoredCluster, error) {
	names := make([]string, 0, len(texts))
	for name := range texts {
		names = append(names, name)
	}
	sort.Strings(names)

	var mined []string
	for _, name := range names {
		mined = append(mined, affiliation.ExtractAffiliations(texts[name])...)
	}
	log.Printf("Mined %d affiliation strings from %d texts", len(mined), len(texts))

	clusters, err := affiliation.ClusterAffiliations(mined, p.Config.SimilarityThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("cluster affiliations: %w", err)
	}

	result, err := p.Profile.FilterAffiliations(clusters, affiliation.FilterOptions{
		MinScore:   p.Config.MinScore,
		MaxResults: p.Config.MaxClusters,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("filter affiliations: %w", err)
	}
	return clusters, result.RelevantClusters, nil
}

// approvedVariations flattens the surviving clusters into affiliation
// strings for query building.
func approvedVariations(scored []affiliation.ScoredCluster) []string {
	var variations []string
	for _, c := range scored {
		variations = append(variations, c.Members()...)
	}
	return variations
}

// searchArticles runs one combined PubMed search over all queries and
// fetches the article records.
func (p *Pipeline) searchArticles(ctx context.Context, queries []string) ([]pubmed.Article, error) {
	if len(queries) == 0 {
		log.Println("No affiliation queries, skipping PubMed search")
		return nil, nil
	}

	combined := pubmed.CombinedQuery(queries, p.Config.StartYear, p.Config.EndYear)
	pmids, err := p.PubMed.Search(ctx, combined, p.Config.MaxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}

	articles, err := p.PubMed.FetchArticles(ctx, pmids)
	if err != nil {
		return nil, fmt.Errorf("pubmed fetch: %w", err)
	}
	return articles, nil
}

// corpusKeywords extracts the dominant terms of the institute's own texts
// so the ranking favors articles in its research areas.
func corpusKeywords(texts map[string]string) []string {
	names := make([]string, 0, len(texts))
	for name := range texts {
		names = append(names, name)
	}
	sort.Strings(names)

	var all strings.Builder
	for _, name := range names {
		all.WriteString(texts[name])
		all.WriteByte('\n')
	}
	return ranking.ExtractKeywords(all.String(), 15)
}

// topicText combines the configured topics and the approved cluster
// representatives into the ranking query.
func topicText(topics []string, scored []affiliation.ScoredCluster) string {
	parts := append([]string{}, topics...)
	for _, c := range scored {
		parts = append(parts, c.Representative)
	}
	return strings.Join(parts, " ")
}

// rankSources merges PubMed articles and preprints into one ranked list of
// script sources.
func rankSources(topic string, articles []pubmed.Article, preprints []preprint.Preprint, topK int) []script.SourceArticle {
	byKey := make(map[string]pubmed.Article, len(articles))
	candidates := make([]ranking.Candidate, 0, len(articles)+len(preprints))

	for _, a := range articles {
		key := "pmid:" + a.PMID
		byKey[key] = a
		candidates = append(candidates, ranking.Candidate{
			Title:       a.Title,
			Abstract:    a.Abstract,
			URL:         key,
			Source:      "pubmed",
			PublishedAt: "",
		})
	}
	candidates = append(candidates, preprint.Candidates(preprints)...)

	ranked := ranking.Rank(topic, candidates, ranking.Options{TopK: topK})

	sources := make([]script.SourceArticle, 0, len(ranked))
	for _, r := range ranked {
		if a, ok := byKey[r.URL]; ok {
			sources = append(sources, script.SourceArticle{Article: a, Score: r.Score})
			continue
		}
		sources = append(sources, script.SourceArticle{
			Article: pubmed.Article{
				Title:    r.Title,
				Abstract: r.Abstract,
				Journal:  r.Source,
			},
			Score: r.Score,
		})
	}
	return sources
}

func (p *Pipeline) writeScript(ctx context.Context, sources []script.SourceArticle) (string, error) {
	if len(sources) == 0 {
		return "", fmt.Errorf("no articles available for the script")
	}

	generator := script.NewGenerator(p.LLM)
	text, err := generator.GenerateScript(ctx, sources)
	if err != nil {
		return "", err
	}
	meta, err := generator.GenerateMetadata(ctx, text, sources)
	if err != nil {
		return "", err
	}

	path := filepath.Join(p.Config.DataDir,
		fmt.Sprintf("podcast_script_%s.md", time.Now().UTC().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(script.FormatEpisode(text, meta)), 0o644); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	log.Printf("Saved podcast script to %s", path)
	return path, nil
}

func (p *Pipeline) writeAudio(ctx context.Context, scriptPath string) (string, error) {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", err
	}

	mp3, err := p.TTS.Synthesize(ctx, string(data))
	if err != nil {
		return "", fmt.Errorf("synthesize audio: %w", err)
	}

	path := scriptPath[:len(scriptPath)-len(filepath.Ext(scriptPath))] + ".mp3"
	if err := os.WriteFile(path, mp3, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	log.Printf("Saved episode audio to %s", path)
	return path, nil
}

func (p *Pipeline) writeReport(report *Report) error {
	path := filepath.Join(p.Config.DataDir, "run_report.json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	report.ReportPath = path
	return nil
}
