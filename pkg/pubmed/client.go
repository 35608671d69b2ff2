// Package pubmed talks to the NCBI E-utilities endpoints: ESearch for PMID
// discovery and EFetch for article detail XML.
package pubmed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"
	toolName       = "ifc-podcast"

	// NCBI allows up to 200 IDs per efetch request.
	fetchBatchSize = 200
)

// Article is one PubMed record, flattened from the efetch XML.
type Article struct {
	PMID            string   `json:"pmid"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	Authors         []string `json:"authors"`
	Journal         string   `json:"journal"`
	PublicationDate string   `json:"publication_date"`
	DOI             string   `json:"doi,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	MeshTerms       []string `json:"mesh_terms,omitempty"`
}

// Client is an E-utilities client. Email identifies the caller to NCBI; the
// API key, when present, raises the rate limit. Delay spaces out batch
// requests.
type Client struct {
	BaseURL    string
	Email      string
	APIKey     string
	Delay      time.Duration
	HTTPClient *http.Client
}

func NewClient(email, apiKey string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		Email:      email,
		APIKey:     apiKey,
		Delay:      time.Second,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Search runs an ESearch for the query, relevance-sorted, and returns up to
// maxResults PMIDs.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"xml"},
		"tool":    {toolName},
		"email":   {c.Email},
		"sort":    {"relevance"},
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}

	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	pmids, err := parseSearchResults(body)
	if err != nil {
		return nil, fmt.Errorf("esearch parse: %w", err)
	}
	if len(pmids) > maxResults {
		pmids = pmids[:maxResults]
	}
	return pmids, nil
}

// FetchArticles retrieves article details for the PMIDs, batching requests
// and sleeping Delay between batches.
func (c *Client) FetchArticles(ctx context.Context, pmids []string) ([]Article, error) {
	var articles []Article

	for i := 0; i < len(pmids); i += fetchBatchSize {
		end := i + fetchBatchSize
		if end > len(pmids) {
			end = len(pmids)
		}

		batch, err := c.fetchBatch(ctx, pmids[i:end])
		if err != nil {
			return articles, fmt.Errorf("efetch batch at %d: %w", i, err)
		}
		articles = append(articles, batch...)

		if end < len(pmids) {
			select {
			case <-time.After(c.Delay):
			case <-ctx.Done():
				return articles, ctx.Err()
			}
		}
	}

	return articles, nil
}

func (c *Client) fetchBatch(ctx context.Context, pmids []string) ([]Article, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
		"tool":    {toolName},
		"email":   {c.Email},
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}

	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}
	return ParseArticleXML(body)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, endpoint)
	}
	return io.ReadAll(resp.Body)
}
