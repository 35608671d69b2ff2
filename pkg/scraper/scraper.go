// Package scraper collects the institute's publication listing from its
// website and, alternatively, from an RSS/Atom feed. The listing markup is
// parsed best-effort: entries that do not look like publications are
// skipped, never errors.
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Publication is one entry of the institute's publication list. Fields are
// best-effort: a missing DOI or abstract is normal.
type Publication struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Journal  string `json:"journal"`
	Year     int    `json:"year"`
	DOI      string `json:"doi,omitempty"`
	PubMedID string `json:"pubmed_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Abstract string `json:"abstract,omitempty"`
}

// Client scrapes publication pages. Delay spaces out detail-page fetches.
type Client struct {
	BaseURL    string
	Delay      time.Duration
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Delay:      time.Second,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

var (
	doiRe     = regexp.MustCompile(`10\.\d+/[^\s<>"]+`)
	yearRe    = regexp.MustCompile(`\((\d{4})\)`)
	titleRe   = regexp.MustCompile(`\(\d{4}\)\.\s*([^.]+\.)`)
	authorsRe = regexp.MustCompile(`^([^(]+)\s*\(`)
	pmidRe    = regexp.MustCompile(`pubmed[^\d]*(\d+)`)
)

// ScrapeYear fetches and parses the listing page for one year, then visits
// each entry's detail page to fill abstract, DOI and PubMed ID.
func (c *Client) ScrapeYear(ctx context.Context, year int) ([]Publication, error) {
	listURL := fmt.Sprintf("%s/publicaciones.php?year=%d", c.BaseURL, year)

	doc, err := c.fetchDocument(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing for %d: %w", year, err)
	}

	publications := parseListing(doc, year)
	log.Printf("Parsed %d publications for year %d", len(publications), year)

	for i := range publications {
		if publications[i].URL == "" {
			continue
		}
		if err := c.fillDetails(ctx, &publications[i]); err != nil {
			log.Printf("Details for %q: %v", truncate(publications[i].Title, 50), err)
		}
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return publications, ctx.Err()
		}
	}

	return publications, nil
}

// ScrapeYears scrapes an inclusive year range, accumulating what succeeds.
func (c *Client) ScrapeYears(ctx context.Context, startYear, endYear int) ([]Publication, error) {
	var all []Publication
	for year := startYear; year <= endYear; year++ {
		publications, err := c.ScrapeYear(ctx, year)
		if err != nil {
			log.Printf("Year %d: %v", year, err)
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			continue
		}
		all = append(all, publications...)
	}
	log.Printf("Total publications scraped: %d", len(all))
	return all, nil
}

// parseListing extracts publications from the listing page. Entries live in
// anchor tags carrying the opensans400 or d-flexy classes; anything short or
// without a DOI-looking token is noise.
func parseListing(doc *goquery.Document, fallbackYear int) []Publication {
	var publications []Publication

	doc.Find("a.opensans400, a.d-flexy").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) < 50 || !strings.Contains(text, "10.") {
			return
		}

		pub := parseEntryText(text, fallbackYear)
		if href, ok := sel.Attr("href"); ok {
			pub.URL = href
		}
		publications = append(publications, pub)
	})

	return publications
}

// parseEntryText pulls fields out of a flat publication line shaped like
// "Authors (2024). Title. Journal. doi".
func parseEntryText(text string, fallbackYear int) Publication {
	pub := Publication{Year: fallbackYear}

	pub.DOI = doiRe.FindString(text)

	if m := yearRe.FindStringSubmatch(text); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			pub.Year = year
		}
	}

	if m := titleRe.FindStringSubmatch(text); m != nil {
		pub.Title = strings.TrimSuffix(strings.TrimSpace(m[1]), ".")
	} else {
		pub.Title = truncate(text, 100)
	}

	if m := authorsRe.FindStringSubmatch(text); m != nil {
		pub.Authors = strings.TrimSpace(m[1])
	}

	if pub.Title != "" {
		if _, after, found := strings.Cut(text, pub.Title); found {
			remainder := strings.TrimLeft(after, ". ")
			if dot := strings.IndexByte(remainder, '.'); dot > 0 {
				pub.Journal = strings.TrimSpace(remainder[:dot])
			}
		}
	}

	return pub
}

// fillDetails fetches the entry's detail page for abstract, DOI and PubMed
// links.
func (c *Client) fillDetails(ctx context.Context, pub *Publication) error {
	detailURL := pub.URL
	if !strings.HasPrefix(detailURL, "http") {
		detailURL = c.BaseURL + "/" + strings.TrimLeft(detailURL, "/")
	}

	doc, err := c.fetchDocument(ctx, detailURL)
	if err != nil {
		return err
	}

	if abstract := strings.TrimSpace(doc.Find("div.abstract").First().Text()); abstract != "" {
		pub.Abstract = abstract
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.Contains(strings.ToLower(href), "pubmed") {
			return true
		}
		if pmid := extractPubMedID(href); pmid != "" {
			pub.PubMedID = pmid
			return false
		}
		return true
	})

	if pub.DOI == "" {
		pub.DOI = doiRe.FindString(doc.Text())
	}

	return nil
}

// extractPubMedID pulls the numeric ID from a PubMed article URL.
func extractPubMedID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if !strings.Contains(strings.ToLower(parsed.Host), "pubmed") &&
		!strings.Contains(strings.ToLower(parsed.Path), "pubmed") {
		return ""
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := parts[len(parts)-1]
	if last != "" && isDigits(last) {
		return last
	}
	if m := pmidRe.FindStringSubmatch(strings.ToLower(rawURL)); m != nil {
		return m[1]
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, pageURL)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
