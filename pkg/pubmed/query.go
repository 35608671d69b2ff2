package pubmed

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	queryPunctRe = regexp.MustCompile(`[,.:]`)
	querySpaceRe = regexp.MustCompile(`\s+`)
)

// Terms an affiliation variation must carry to be worth a search query.
var affiliationKeyTerms = []string{"fisiol", "physiol", "mexico", "unam", "ifc", "cellular"}

// AffiliationQuery turns a raw affiliation string into a PubMed
// affiliation-field search term: punctuation stripped, whitespace collapsed,
// [Affiliation] appended.
func AffiliationQuery(affiliation string) string {
	clean := queryPunctRe.ReplaceAllString(affiliation, "")
	clean = strings.TrimSpace(querySpaceRe.ReplaceAllString(clean, " "))
	return clean + "[Affiliation]"
}

// BuildAffiliationQueries maps approved affiliation variations to search
// queries, dropping variations that are too short or carry no institute
// identifier, deduplicating, and capping at maxQueries (0 = no cap).
func BuildAffiliationQueries(variations []string, maxQueries int) []string {
	seen := make(map[string]bool)
	var queries []string

	for _, variation := range variations {
		check := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(variation, "[Affiliation]", "")))
		if len(check) < 10 {
			continue
		}
		if !containsAnyTerm(check, affiliationKeyTerms) {
			continue
		}

		query := AffiliationQuery(variation)
		if seen[query] {
			continue
		}
		seen[query] = true
		queries = append(queries, query)

		if maxQueries > 0 && len(queries) >= maxQueries {
			break
		}
	}

	return queries
}

// CombinedQuery ORs search terms together and restricts to a publication
// date range.
func CombinedQuery(terms []string, startYear, endYear int) string {
	return fmt.Sprintf("(%s) AND (%d:%d[pdat])", strings.Join(terms, " OR "), startYear, endYear)
}

func containsAnyTerm(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
