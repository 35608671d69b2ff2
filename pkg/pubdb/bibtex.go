package pubdb

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

const bibtexNote = "Instituto de Fisiología Celular, UNAM"

var bibtexEscaper = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
)

// WriteBibTeX renders records as @article entries. Citation keys follow
// <firstAuthorLetters><year>_ifc_<index> so repeated exports stay stable
// for a fixed record order.
func WriteBibTeX(w io.Writer, records []Record) error {
	for i, r := range records {
		if _, err := io.WriteString(w, formatEntry(r, i+1)); err != nil {
			return err
		}
	}
	return nil
}

func formatEntry(r Record, index int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "@article{%s,\n", citationKey(r, index))
	fmt.Fprintf(&b, "  title = {%s},\n", bibtexEscaper.Replace(r.Title))
	if len(r.Authors) > 0 {
		fmt.Fprintf(&b, "  author = {%s},\n", bibtexEscaper.Replace(strings.Join(r.Authors, " and ")))
	}
	if r.Journal != "" {
		fmt.Fprintf(&b, "  journal = {%s},\n", bibtexEscaper.Replace(r.Journal))
	}
	if r.Year != 0 {
		fmt.Fprintf(&b, "  year = {%d},\n", r.Year)
	}
	if r.DOI != "" {
		fmt.Fprintf(&b, "  doi = {%s},\n", bibtexEscaper.Replace(r.DOI))
	}
	if r.PubMedID != "" {
		fmt.Fprintf(&b, "  pmid = {%s},\n", r.PubMedID)
	}
	fmt.Fprintf(&b, "  note = {%s}\n", bibtexNote)
	b.WriteString("}\n\n")

	return b.String()
}

// citationKey builds a key from the first author's letters and the year.
// Records without authors fall back to "anon".
func citationKey(r Record, index int) string {
	name := "anon"
	if len(r.Authors) > 0 {
		if letters := lettersOnly(r.Authors[0]); letters != "" {
			name = letters
		}
	}
	return fmt.Sprintf("%s%d_ifc_%d", name, r.Year, index)
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
