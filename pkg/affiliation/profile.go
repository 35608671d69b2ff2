package affiliation

import (
	"regexp"
	"strings"
)

// KeywordCategory is a named group of lowercase keywords sharing one bonus
// weight. Categories are kept as an ordered slice so reason trails come out
// in a stable order.
type KeywordCategory struct {
	Name     string
	Keywords []string
	Weight   float64
}

// Pattern pairs a compiled case-insensitive regexp with its source
// expression for reason messages.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// MustPattern compiles expr case-insensitively, panicking on a bad
// expression.
func MustPattern(expr string) Pattern {
	return Pattern{expr: expr, re: regexp.MustCompile(`(?i)` + expr)}
}

func (p Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}

func (p Pattern) String() string {
	return p.expr
}

// Profile carries the target-institution configuration the scorer runs
// against: negative keywords for known-unrelated institutions, categorized
// positive keywords, institution name patterns, and canonical exemplar
// strings. Profiles are immutable after construction and safe for concurrent
// use.
type Profile struct {
	NegativeKeywords []string
	Categories       []KeywordCategory
	Patterns         []Pattern
	Exemplars        []string
}

// DefaultProfile targets the Instituto de Fisiología Celular, UNAM.
func DefaultProfile() *Profile {
	return &Profile{
		NegativeKeywords: []string{
			"harvard", "mit", "stanford", "yale", "oxford", "cambridge university",
			"university of california", "university of michigan", "university of washington",
			"johns hopkins", "mayo clinic", "cleveland clinic", "nih",
			"university of toronto", "mcgill", "university of british columbia",
		},
		Categories: []KeywordCategory{
			{
				Name: "ifc_spanish",
				Keywords: []string{
					"instituto de fisiología celular",
					"instituto de fisiologia celular",
					"fisiología celular",
					"fisiologia celular",
					"ifc",
				},
				Weight: 10.0,
			},
			{
				Name: "ifc_english",
				Keywords: []string{
					"institute of cellular physiology",
					"institute for cellular physiology",
					"cellular physiology",
					"cell physiology",
				},
				Weight: 10.0,
			},
			{
				Name: "unam",
				Keywords: []string{
					"unam",
					"universidad nacional autónoma de méxico",
					"universidad nacional autonoma de mexico",
					"national autonomous university of mexico",
				},
				Weight: 8.0,
			},
			{
				Name: "related_departments",
				Keywords: []string{
					"molecular genetics",
					"biochemistry",
					"structural biology",
					"cell biology",
					"development",
					"neurociencias",
					"neurosciences",
					"biología celular",
					"biologia celular",
				},
				Weight: 5.0,
			},
			{
				Name: "physiology_terms",
				Keywords: []string{
					"physiology",
					"fisiología",
					"fisiologia",
					"electrophysiology",
					"neurophysiology",
					"molecular physiology",
				},
				Weight: 3.0,
			},
		},
		Patterns: []Pattern{
			MustPattern(`instituto\s+de\s+fisiolog[íi]a\s+celular`),
			MustPattern(`institute\s+(?:of|for)\s+cellular\s+physiology`),
			MustPattern(`fisiolog[íi]a\s+celular`),
			MustPattern(`cellular\s+physiology`),
			MustPattern(`unam`),
			MustPattern(`universidad\s+nacional\s+autónoma\s+de\s+méxico`),
		},
		Exemplars: []string{
			"Instituto de Fisiología Celular",
			"Institute of Cellular Physiology",
			"Instituto de Fisiología Celular UNAM",
			"Department of Cellular Physiology",
		},
	}
}

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// Noise words are filtered from cleaned text only when at most two
// characters long, so of/at/in/to drop while the/and/for/from survive.
var noiseWords = map[string]bool{
	"the": true, "and": true, "of": true, "at": true,
	"in": true, "for": true, "to": true, "from": true,
}

// cleanText normalizes affiliation text for keyword and exemplar comparison:
// strip punctuation except hyphens, collapse whitespace, lowercase, drop
// short noise words.
func cleanText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := nonWordRe.ReplaceAllString(text, " ")
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.ToLower(strings.TrimSpace(cleaned))

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if !noiseWords[w] || len(w) > 2 {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// exemplarSimilarity compares two strings after cleaning both sides. Returns
// 0 when either side cleans to empty.
func exemplarSimilarity(a, b string) float64 {
	ca, cb := cleanText(a), cleanText(b)
	if ca == "" || cb == "" {
		return 0
	}
	return Similarity(ca, cb)
}
