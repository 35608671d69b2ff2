package ranking

import (
	"regexp"
	"sort"
	"strings"
)

var keywordRe = regexp.MustCompile(`\b[a-zA-Z]{3,15}\b`)

// Function words excluded from keyword extraction.
var commonWords = map[string]bool{
	"the": true, "and": true, "was": true, "were": true, "with": true,
	"for": true, "this": true, "that": true, "from": true, "are": true,
	"been": true, "have": true, "has": true, "had": true, "will": true,
	"would": true, "could": true, "should": true, "can": true, "may": true,
	"might": true, "must": true, "shall": true, "did": true, "does": true,
	"done": true, "into": true, "onto": true, "upon": true, "over": true,
	"under": true, "above": true, "below": true, "between": true,
	"among": true, "through": true, "during": true, "before": true,
	"after": true, "while": true, "since": true, "until": true,
	"although": true, "though": true, "because": true, "unless": true,
	"whether": true, "where": true, "when": true, "what": true,
	"which": true, "who": true, "whom": true, "whose": true,
	"why": true, "how": true,
}

// ExtractKeywords returns up to maxKeywords of the most frequent words in
// text, function words excluded. Words of 3 to 15 letters only. Ties break
// alphabetically so output is deterministic.
func ExtractKeywords(text string, maxKeywords int) []string {
	if text == "" || maxKeywords <= 0 {
		return nil
	}

	freq := map[string]int{}
	for _, w := range keywordRe.FindAllString(strings.ToLower(text), -1) {
		if commonWords[w] {
			continue
		}
		freq[w]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words
}
