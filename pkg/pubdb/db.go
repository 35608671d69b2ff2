// Package pubdb persists publications in SQLite and deduplicates merged
// search results by DOI, PubMed ID, or normalized title.
package pubdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ubmi/ifc-podcast/pkg/pubmed"
	"github.com/ubmi/ifc-podcast/pkg/scraper"
)

const schema = `
CREATE TABLE IF NOT EXISTS publications (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	title     TEXT NOT NULL,
	authors   TEXT NOT NULL DEFAULT '[]',
	journal   TEXT NOT NULL DEFAULT '',
	year      INTEGER NOT NULL DEFAULT 0,
	doi       TEXT NOT NULL DEFAULT '',
	pubmed_id TEXT NOT NULL DEFAULT '',
	url       TEXT NOT NULL DEFAULT '',
	abstract  TEXT NOT NULL DEFAULT '',
	source    TEXT NOT NULL DEFAULT '',
	added_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_publications_doi ON publications(doi);
CREATE INDEX IF NOT EXISTS idx_publications_pubmed_id ON publications(pubmed_id);
CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(year);
`

// Record is one stored publication.
type Record struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Journal  string   `json:"journal"`
	Year     int      `json:"year"`
	DOI      string   `json:"doi,omitempty"`
	PubMedID string   `json:"pubmed_id,omitempty"`
	URL      string   `json:"url,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Source   string   `json:"source"`
}

// Store wraps the publications database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// MergeStats accounts for one merge pass: how many incoming records were
// new, and how many duplicates each key caught.
type MergeStats struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	ByDOI   int `json:"duplicates_by_doi"`
	ByPMID  int `json:"duplicates_by_pmid"`
	ByTitle int `json:"duplicates_by_title"`
}

// dedupKeys holds the lookup sets for one merge pass. Keys are checked in
// order: DOI first, then PubMed ID, then normalized title.
type dedupKeys struct {
	dois   map[string]bool
	pmids  map[string]bool
	titles map[string]bool
}

func (k *dedupKeys) add(r Record) {
	if r.DOI != "" {
		k.dois[strings.ToLower(r.DOI)] = true
	}
	if r.PubMedID != "" {
		k.pmids[r.PubMedID] = true
	}
	if r.Title != "" {
		k.titles[titleKey(r.Title)] = true
	}
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (s *Store) loadDedupKeys() (*dedupKeys, error) {
	keys := &dedupKeys{
		dois:   make(map[string]bool),
		pmids:  make(map[string]bool),
		titles: make(map[string]bool),
	}

	rows, err := s.db.Query(`SELECT title, doi, pubmed_id FROM publications`)
	if err != nil {
		return nil, fmt.Errorf("load dedup keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Title, &r.DOI, &r.PubMedID); err != nil {
			return nil, err
		}
		keys.add(r)
	}
	return keys, rows.Err()
}

// Merge inserts the records that are not already stored. A record is a
// duplicate when its DOI, PubMed ID, or lowercased title matches an
// existing row; the first matching key decides which counter it lands in.
func (s *Store) Merge(records []Record) (MergeStats, error) {
	keys, err := s.loadDedupKeys()
	if err != nil {
		return MergeStats{}, err
	}

	stats := MergeStats{Total: len(records)}
	for _, r := range records {
		switch {
		case r.DOI != "" && keys.dois[strings.ToLower(r.DOI)]:
			stats.ByDOI++
			continue
		case r.PubMedID != "" && keys.pmids[r.PubMedID]:
			stats.ByPMID++
			continue
		case r.Title != "" && keys.titles[titleKey(r.Title)]:
			stats.ByTitle++
			continue
		}

		if err := s.insert(r); err != nil {
			return stats, err
		}
		keys.add(r)
		stats.New++
	}

	log.Printf("Merged %d records: %d new, %d dup by DOI, %d by PMID, %d by title",
		stats.Total, stats.New, stats.ByDOI, stats.ByPMID, stats.ByTitle)
	return stats, nil
}

// MergeArticles converts fetched PubMed articles and merges them.
func (s *Store) MergeArticles(articles []pubmed.Article) (MergeStats, error) {
	records := make([]Record, 0, len(articles))
	for _, a := range articles {
		records = append(records, Record{
			Title:    a.Title,
			Authors:  a.Authors,
			Journal:  a.Journal,
			Year:     yearFromDate(a.PublicationDate),
			DOI:      a.DOI,
			PubMedID: a.PMID,
			Abstract: a.Abstract,
			Source:   "pubmed",
		})
	}
	return s.Merge(records)
}

// MergePublications converts scraped publications and merges them.
func (s *Store) MergePublications(publications []scraper.Publication) (MergeStats, error) {
	records := make([]Record, 0, len(publications))
	for _, p := range publications {
		var authors []string
		if p.Authors != "" {
			authors = []string{p.Authors}
		}
		records = append(records, Record{
			Title:    p.Title,
			Authors:  authors,
			Journal:  p.Journal,
			Year:     p.Year,
			DOI:      p.DOI,
			PubMedID: p.PubMedID,
			URL:      p.URL,
			Abstract: p.Abstract,
			Source:   "scraper",
		})
	}
	return s.Merge(records)
}

func (s *Store) insert(r Record) error {
	authorsJSON, err := json.Marshal(r.Authors)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO publications (title, authors, journal, year, doi, pubmed_id, url, abstract, source, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, string(authorsJSON), r.Journal, r.Year, r.DOI, r.PubMedID,
		r.URL, r.Abstract, r.Source, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert %q: %w", r.Title, err)
	}
	return nil
}

// All returns every stored record, newest year first, then by title.
func (s *Store) All() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, title, authors, journal, year, doi, pubmed_id, url, abstract, source
		 FROM publications ORDER BY year DESC, title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var authorsJSON string
		if err := rows.Scan(&r.ID, &r.Title, &authorsJSON, &r.Journal, &r.Year,
			&r.DOI, &r.PubMedID, &r.URL, &r.Abstract, &r.Source); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(authorsJSON), &r.Authors); err != nil {
			return nil, fmt.Errorf("decode authors for %q: %w", r.Title, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored publications.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM publications`).Scan(&n)
	return n, err
}

// JournalCount pairs a journal name with how many stored publications it
// has.
type JournalCount struct {
	Journal string `json:"journal"`
	Count   int    `json:"count"`
}

// Summary describes the stored collection: totals, per-year distribution,
// and the most frequent journals.
type Summary struct {
	TotalPublications int            `json:"total_publications"`
	ByYear            map[string]int `json:"by_year"`
	TopJournals       []JournalCount `json:"top_journals"`
	GeneratedAt       string         `json:"generated_at"`
}

// Summarize builds a Summary of the stored collection. Top journals are
// capped at ten, ties broken alphabetically.
func (s *Store) Summarize() (*Summary, error) {
	records, err := s.All()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalPublications: len(records),
		ByYear:            make(map[string]int),
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	journals := make(map[string]int)
	for _, r := range records {
		summary.ByYear[strconv.Itoa(r.Year)]++
		if r.Journal != "" {
			journals[r.Journal]++
		}
	}

	for journal, count := range journals {
		summary.TopJournals = append(summary.TopJournals, JournalCount{Journal: journal, Count: count})
	}
	sort.Slice(summary.TopJournals, func(i, j int) bool {
		if summary.TopJournals[i].Count != summary.TopJournals[j].Count {
			return summary.TopJournals[i].Count > summary.TopJournals[j].Count
		}
		return summary.TopJournals[i].Journal < summary.TopJournals[j].Journal
	})
	if len(summary.TopJournals) > 10 {
		summary.TopJournals = summary.TopJournals[:10]
	}

	return summary, nil
}

// yearFromDate parses the leading year out of a "2024-Mar-12" style date.
func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
