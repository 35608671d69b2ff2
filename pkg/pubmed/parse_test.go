package pubmed

import (
	"reflect"
	"testing"
)

const sampleArticleXML = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">38000001</PMID>
      <Article>
        <Journal>
          <JournalIssue>
            <PubDate><Year>2024</Year><Month>Mar</Month><Day>12</Day></PubDate>
          </JournalIssue>
          <Title>Journal of Cellular Physiology</Title>
        </Journal>
        <ArticleTitle>Calcium signaling in pancreatic beta cells</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">Calcium drives secretion.</AbstractText>
          <AbstractText Label="RESULTS">We found oscillations.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Hernandez</LastName><ForeName>Ana</ForeName></Author>
          <Author><LastName>Lopez</LastName></Author>
          <Author><CollectiveName>The Beta Cell Consortium</CollectiveName></Author>
        </AuthorList>
      </Article>
      <MeshHeadingList>
        <MeshHeading><DescriptorName UI="D002118">Calcium</DescriptorName></MeshHeading>
        <MeshHeading><DescriptorName UI="D050379">Insulin-Secreting Cells</DescriptorName></MeshHeading>
      </MeshHeadingList>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">38000001</ArticleId>
        <ArticleId IdType="doi">10.1002/jcp.12345</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">38000002</PMID>
      <Article>
        <Journal>
          <JournalIssue><PubDate><Year>2024</Year></PubDate></JournalIssue>
          <Title>Neuroscience Letters</Title>
        </Journal>
        <ArticleTitle>A minimal record</ArticleTitle>
      </Article>
    </MedlineCitation>
    <PubmedData><ArticleIdList/></PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func TestParseArticleXML(t *testing.T) {
	articles, err := ParseArticleXML([]byte(sampleArticleXML))
	if err != nil {
		t.Fatalf("ParseArticleXML: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}

	a := articles[0]
	if a.PMID != "38000001" {
		t.Errorf("PMID = %q", a.PMID)
	}
	if a.Title != "Calcium signaling in pancreatic beta cells" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Abstract != "Calcium drives secretion. We found oscillations." {
		t.Errorf("abstract sections should join with a space, got %q", a.Abstract)
	}
	wantAuthors := []string{"Ana Hernandez", "Lopez"}
	if !reflect.DeepEqual(a.Authors, wantAuthors) {
		t.Errorf("Authors = %v, want %v (collective names without LastName skipped)", a.Authors, wantAuthors)
	}
	if a.Journal != "Journal of Cellular Physiology" {
		t.Errorf("Journal = %q", a.Journal)
	}
	if a.PublicationDate != "2024-Mar-12" {
		t.Errorf("PublicationDate = %q, want 2024-Mar-12", a.PublicationDate)
	}
	if a.DOI != "10.1002/jcp.12345" {
		t.Errorf("DOI = %q", a.DOI)
	}
	wantMesh := []string{"Calcium", "Insulin-Secreting Cells"}
	if !reflect.DeepEqual(a.MeshTerms, wantMesh) {
		t.Errorf("MeshTerms = %v, want %v", a.MeshTerms, wantMesh)
	}

	b := articles[1]
	if b.Abstract != "" || b.DOI != "" || len(b.Authors) != 0 {
		t.Errorf("minimal record should have empty optional fields: %+v", b)
	}
	if b.PublicationDate != "2024" {
		t.Errorf("year-only date = %q, want 2024", b.PublicationDate)
	}
}

func TestParseSearchResults(t *testing.T) {
	xmlData := `<?xml version="1.0" ?>
<eSearchResult>
  <Count>3</Count>
  <RetMax>3</RetMax>
  <IdList>
    <Id>111</Id>
    <Id>222</Id>
    <Id>333</Id>
  </IdList>
</eSearchResult>`

	pmids, err := parseSearchResults([]byte(xmlData))
	if err != nil {
		t.Fatalf("parseSearchResults: %v", err)
	}
	if !reflect.DeepEqual(pmids, []string{"111", "222", "333"}) {
		t.Errorf("pmids = %v", pmids)
	}
}

func TestParseArticleXMLMalformed(t *testing.T) {
	if _, err := ParseArticleXML([]byte("<PubmedArticleSet><unclosed")); err == nil {
		t.Error("malformed XML should return an error")
	}
}
