package affiliation

import (
	"regexp"
	"sort"
	"strings"
)

// Institutional name extraction patterns, per language. Each captures a name
// phrase up to the delimiting comma or period; the Spanish set also stops at
// a trailing UNAM token.
var (
	spanishInstitutionRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Instituto\s+de\s+[A-Za-zÁáÉéÍíÓóÚúÑñ\s,]+?(?:,|\.|\s+UNAM)`),
		regexp.MustCompile(`(?i)Universidad\s+[A-Za-zÁáÉéÍíÓóÚúÑñ\s,]+?(?:,|\.)`),
		regexp.MustCompile(`(?i)Departamento\s+de\s+[A-Za-zÁáÉéÍíÓóÚúÑñ\s,]+?(?:,|\.)`),
	}
	englishInstitutionRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Institute\s+of\s+[A-Za-z\s,]+?(?:,|\.|\s+UNAM)`),
		regexp.MustCompile(`(?i)University\s+of\s+[A-Za-z\s,]+?(?:,|\.)`),
		regexp.MustCompile(`(?i)Department\s+of\s+[A-Za-z\s,]+?(?:,|\.)`),
	}

	spanishIndicators = []string{"instituto de", "universidad", "departamento de", "centro de", "facultad de", "unam"}
	englishIndicators = []string{"institute of", "university of", "department of", "center of", "faculty of", "unam"}

	spanishLangKeywords = []string{"de", "del", "la", "el", "y", "universidad", "instituto"}
	englishLangKeywords = []string{"of", "the", "and", "university", "institute", "department"}
)

// Keywords a candidate must carry, beyond a minimum length, to count as a
// relevant institutional affiliation.
var relevantMinerKeywords = []string{
	"instituto", "institute", "universidad", "university",
	"departamento", "department", "unam", "ifc", "mexico",
	"fisiolog", "physiolog", "celular", "cellular", "neurobiolog",
}

// DetectLanguage guesses es or en from institutional keyword counts.
// English wins ties.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	spanish, english := 0, 0
	for _, kw := range spanishLangKeywords {
		if strings.Contains(lower, kw) {
			spanish++
		}
	}
	for _, kw := range englishLangKeywords {
		if strings.Contains(lower, kw) {
			english++
		}
	}
	if spanish > english {
		return "es"
	}
	return "en"
}

// ExtractAffiliations mines candidate affiliation strings from document
// text. It scans line by line for institutional indicator phrases, extracts
// the institutional name part with the per-language patterns, and keeps
// candidates passing the relevance filter. Results are deduplicated and
// returned sorted for a stable downstream clustering order.
func ExtractAffiliations(text string) []string {
	language := DetectLanguage(text)

	indicators := englishIndicators
	patterns := englishInstitutionRes
	if language == "es" {
		indicators = spanishIndicators
		patterns = spanishInstitutionRes
	}

	seen := make(map[string]bool)
	var found []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !containsIndicator(line, indicators) {
			continue
		}
		for _, re := range patterns {
			for _, match := range re.FindAllString(line, -1) {
				candidate := strings.Trim(strings.TrimSpace(match), ",.")
				candidate = strings.TrimSpace(candidate)
				if !isRelevantAffiliation(candidate) {
					continue
				}
				if !seen[candidate] {
					seen[candidate] = true
					found = append(found, candidate)
				}
			}
		}
	}

	sort.Strings(found)
	return found
}

func containsIndicator(text string, indicators []string) bool {
	lower := strings.ToLower(text)
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// isRelevantAffiliation requires more than 10 characters plus at least one
// institutional keyword, filtering out stray capitalized phrases.
func isRelevantAffiliation(candidate string) bool {
	if len(candidate) <= 10 {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, kw := range relevantMinerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
