// Command ifc-podcast builds podcast episodes from the Instituto de
// Fisiología Celular's recent publications.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ubmi/ifc-podcast/pkg/affiliation"
	"github.com/ubmi/ifc-podcast/pkg/audio"
	"github.com/ubmi/ifc-podcast/pkg/pipeline"
	"github.com/ubmi/ifc-podcast/pkg/pubdb"
	"github.com/ubmi/ifc-podcast/pkg/pubmed"
	"github.com/ubmi/ifc-podcast/pkg/scraper"
	"github.com/ubmi/ifc-podcast/pkg/script"
)

const version = "0.3.0"

const defaultBaseURL = "http://www.ifc.unam.mx"

func usage() {
	fmt.Fprintf(os.Stderr, `ifc-podcast %s

Usage: ifc-podcast <command> [flags]

Commands:
  run      Run the full episode pipeline
  scrape   Scrape the institute's publication listing
  filter   Cluster and score affiliations from a text file
  search   Search PubMed with an affiliation query
  bibtex   Export the publications database as BibTeX
  stats    Summarize the publications database
  version  Print the version

Run 'ifc-podcast <command> -h' for command flags.
`, version)
}

func main() {
	log.SetFlags(log.LstdFlags)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Load .env: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(ctx, os.Args[2:])
	case "scrape":
		err = scrapeCmd(ctx, os.Args[2:])
	case "filter":
		err = filterCmd(os.Args[2:])
	case "search":
		err = searchCmd(ctx, os.Args[2:])
	case "bibtex":
		err = bibtexCmd(os.Args[2:])
	case "stats":
		err = statsCmd(os.Args[2:])
	case "version":
		fmt.Println(version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func runCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	baseURL := fs.String("base-url", defaultBaseURL, "institute website base URL")
	startYear := fs.Int("start-year", 2020, "first year of the publication window")
	endYear := fs.Int("end-year", 2024, "last year of the publication window")
	dataDir := fs.String("data-dir", "data", "cache and output directory")
	dbPath := fs.String("db", "data/publications.db", "SQLite database path")
	threshold := fs.Float64("threshold", affiliation.DefaultSimilarityThreshold, "affiliation clustering similarity threshold")
	minScore := fs.Float64("min-score", affiliation.DefaultMinScore, "affiliation relevance cutoff")
	maxClusters := fs.Int("max-clusters", 0, "cap on relevant clusters (0 = unlimited)")
	maxResults := fs.Int("max-results", 100, "maximum PubMed results")
	maxQueries := fs.Int("max-queries", 20, "cap on affiliation search queries")
	topics := fs.String("topics", "cellular physiology", "comma-separated preprint topics")
	topArticles := fs.Int("top", 10, "articles feeding the script")
	model := fs.String("model", "gpt-4", "OpenAI chat model")
	skipAudio := fs.Bool("skip-audio", false, "stop after the script, no TTS")
	noReview := fs.Bool("no-review", false, "skip the interactive cluster review")
	if err := fs.Parse(args); err != nil {
		return err
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the run command")
	}

	store, err := pubdb.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	p := &pipeline.Pipeline{
		Config: pipeline.Config{
			BaseURL:             *baseURL,
			StartYear:           *startYear,
			EndYear:             *endYear,
			DataDir:             *dataDir,
			DatabasePath:        *dbPath,
			SimilarityThreshold: *threshold,
			MinScore:            *minScore,
			MaxClusters:         *maxClusters,
			MaxSearchResults:    *maxResults,
			MaxQueries:          *maxQueries,
			Topics:              splitTopics(*topics),
			TopArticles:         *topArticles,
			SkipAudio:           *skipAudio,
		},
		Scraper: scraper.NewClient(*baseURL),
		PubMed:  pubmed.NewClient(os.Getenv("PUBMED_EMAIL"), os.Getenv("PUBMED_API_KEY")),
		Store:   store,
		LLM:     script.NewOpenAIClient(openaiKey, *model),
		Profile: affiliation.DefaultProfile(),
	}
	if !*skipAudio {
		p.TTS = audio.NewSynthesizer(openaiKey)
	}
	if !*noReview {
		p.Review = reviewClusters
	}

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("Run complete: %d articles ranked, script at %s", report.RankedArticles, report.ScriptPath)
	if report.AudioPath != "" {
		log.Printf("Episode audio at %s", report.AudioPath)
	}
	return nil
}

func scrapeCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	baseURL := fs.String("base-url", defaultBaseURL, "institute website base URL")
	startYear := fs.Int("start-year", 2020, "first year to scrape")
	endYear := fs.Int("end-year", 2024, "last year to scrape")
	feedURL := fs.String("feed", "", "RSS/Atom publications feed URL (replaces the HTML listing)")
	out := fs.String("o", "", "output JSON file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var publications []scraper.Publication
	var err error
	if *feedURL != "" {
		publications, err = scraper.FetchFeed(ctx, *feedURL)
	} else {
		publications, err = scraper.NewClient(*baseURL).ScrapeYears(ctx, *startYear, *endYear)
	}
	if err != nil {
		return err
	}
	return writeJSON(*out, publications)
}

func filterCmd(args []string) error {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	input := fs.String("i", "", "file with one affiliation per line (default stdin)")
	threshold := fs.Float64("threshold", affiliation.DefaultSimilarityThreshold, "clustering similarity threshold")
	minScore := fs.Float64("min-score", affiliation.DefaultMinScore, "relevance cutoff")
	maxResults := fs.Int("max-results", 0, "cap on relevant clusters (0 = unlimited)")
	topN := fs.Int("top", 10, "clusters to print")
	jsonOut := fs.String("o", "", "write the full result as JSON to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	affiliations, err := readLines(*input)
	if err != nil {
		return err
	}

	clusters, err := affiliation.ClusterAffiliations(affiliations, *threshold)
	if err != nil {
		return err
	}

	result, err := affiliation.DefaultProfile().FilterAffiliations(clusters, affiliation.FilterOptions{
		MinScore:   *minScore,
		MaxResults: *maxResults,
	})
	if err != nil {
		return err
	}

	affiliation.PrintTopMatches(os.Stdout, result, *topN)
	if *jsonOut != "" {
		return writeJSON(*jsonOut, result)
	}
	return nil
}

func searchCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	affil := fs.String("affiliation", "", "affiliation to search for")
	query := fs.String("query", "", "raw PubMed query (overrides -affiliation)")
	maxResults := fs.Int("max-results", 20, "maximum results")
	out := fs.String("o", "", "output JSON file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	term := *query
	if term == "" && *affil != "" {
		term = pubmed.AffiliationQuery(*affil)
	}
	if term == "" {
		return fmt.Errorf("either -query or -affiliation is required")
	}

	client := pubmed.NewClient(os.Getenv("PUBMED_EMAIL"), os.Getenv("PUBMED_API_KEY"))
	pmids, err := client.Search(ctx, term, *maxResults)
	if err != nil {
		return err
	}
	articles, err := client.FetchArticles(ctx, pmids)
	if err != nil {
		return err
	}

	log.Printf("Found %d articles for %q", len(articles), term)
	return writeJSON(*out, articles)
}

func bibtexCmd(args []string) error {
	fs := flag.NewFlagSet("bibtex", flag.ExitOnError)
	dbPath := fs.String("db", "data/publications.db", "SQLite database path")
	out := fs.String("o", "", "output .bib file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := pubdb.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.All()
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return pubdb.WriteBibTeX(w, records)
}

func statsCmd(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("db", "data/publications.db", "SQLite database path")
	out := fs.String("o", "", "output JSON file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := pubdb.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Summarize()
	if err != nil {
		return err
	}
	return writeJSON(*out, summary)
}

func splitTopics(s string) []string {
	var topics []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

func readLines(path string) ([]string, error) {
	f := os.Stdin
	if path != "" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
