package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const listingHTML = `<html><body>
<a class="opensans400" href="detalle.php?id=1">
  Garcia R., Martinez L. (2023). Calcium waves in pancreatic beta cells. Journal of Cell Science. 10.1242/jcs.98765
</a>
<a class="d-flexy" href="detalle.php?id=2">
  Hernandez A. (2022). Mitochondrial dynamics during oxidative stress responses. Cell Reports. 10.1016/j.celrep.2022.111
</a>
<a class="opensans400" href="nav.php">Inicio</a>
<a class="opensans400" href="detalle.php?id=3">
  Seminario del departamento, jueves 14 de marzo, auditorio principal del instituto
</a>
</body></html>`

func TestParseListing(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		t.Fatalf("parse HTML: %v", err)
	}

	publications := parseListing(doc, 2023)
	if len(publications) != 2 {
		t.Fatalf("got %d publications, want 2 (short links and no-DOI entries skipped): %+v",
			len(publications), publications)
	}

	first := publications[0]
	if first.Title != "Calcium waves in pancreatic beta cells" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Authors != "Garcia R., Martinez L." {
		t.Errorf("Authors = %q", first.Authors)
	}
	if first.Year != 2023 {
		t.Errorf("Year = %d", first.Year)
	}
	if first.DOI != "10.1242/jcs.98765" {
		t.Errorf("DOI = %q", first.DOI)
	}
	if first.Journal != "Journal of Cell Science" {
		t.Errorf("Journal = %q", first.Journal)
	}
	if first.URL != "detalle.php?id=1" {
		t.Errorf("URL = %q", first.URL)
	}

	if publications[1].Year != 2022 {
		t.Errorf("second entry Year = %d, want year from text over fallback", publications[1].Year)
	}
}

func TestParseEntryText(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		want   Publication
		reason string
	}{
		{
			name: "full entry",
			text: "Lopez M., Ruiz P. (2021). Synaptic plasticity in hippocampal circuits. Neuron. 10.1016/j.neuron.2021.05",
			want: Publication{
				Title:   "Synaptic plasticity in hippocampal circuits",
				Authors: "Lopez M., Ruiz P.",
				Journal: "Neuron",
				Year:    2021,
				DOI:     "10.1016/j.neuron.2021.05",
			},
			reason: "all fields parse from a well-formed line",
		},
		{
			name: "no year parenthesis",
			text: "An untitled fragment mentioning a doi 10.1234/abc without the usual structure around it at all",
			want: Publication{
				Title: "An untitled fragment mentioning a doi 10.1234/abc without the usual structure around it at all",
				Year:  2020,
				DOI:   "10.1234/abc",
			},
			reason: "fallback year kept, whole text becomes the title",
		},
	}

	for _, tc := range cases {
		got := parseEntryText(tc.text, 2020)
		if got != tc.want {
			t.Errorf("%s: parseEntryText = %+v, want %+v — %s", tc.name, got, tc.want, tc.reason)
		}
	}
}

func TestExtractPubMedID(t *testing.T) {
	cases := []struct {
		url, want string
	}{
		{"https://pubmed.ncbi.nlm.nih.gov/38000001/", "38000001"},
		{"https://www.ncbi.nlm.nih.gov/pubmed/12345", "12345"},
		{"https://example.com/article/987", ""},
		{"https://pubmed.ncbi.nlm.nih.gov/?term=calcium", ""},
	}

	for _, tc := range cases {
		if got := extractPubMedID(tc.url); got != tc.want {
			t.Errorf("extractPubMedID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
