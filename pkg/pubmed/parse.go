package pubmed

import (
	"encoding/xml"
	"strings"
)

type eSearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	IDs     []string `xml:"IdList>Id"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation   medlineCitation `xml:"MedlineCitation"`
	PubmedData pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID      string   `xml:"PMID"`
	Article   articleX `xml:"Article"`
	MeshTerms []string `xml:"MeshHeadingList>MeshHeading>DescriptorName"`
	Keywords  []string `xml:"KeywordList>Keyword"`
}

type articleX struct {
	Title         string    `xml:"ArticleTitle"`
	AbstractTexts []string  `xml:"Abstract>AbstractText"`
	Authors       []authorX `xml:"AuthorList>Author"`
	Journal       journalX  `xml:"Journal"`
}

type journalX struct {
	Title   string   `xml:"Title"`
	PubDate pubDateX `xml:"JournalIssue>PubDate"`
}

type pubDateX struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type authorX struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type pubmedData struct {
	ArticleIDs []articleID `xml:"ArticleIdList>ArticleId"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

func parseSearchResults(data []byte) ([]string, error) {
	var result eSearchResult
	if err := xml.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result.IDs, nil
}

// ParseArticleXML flattens an efetch PubmedArticleSet document into
// Articles. Records without a PMID are skipped.
func ParseArticleXML(data []byte) ([]Article, error) {
	var set pubmedArticleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	var articles []Article
	for _, raw := range set.Articles {
		if raw.Citation.PMID == "" {
			continue
		}
		articles = append(articles, flattenArticle(raw))
	}
	return articles, nil
}

func flattenArticle(raw pubmedArticle) Article {
	a := raw.Citation.Article

	var authors []string
	for _, author := range a.Authors {
		if author.LastName == "" {
			continue
		}
		name := author.LastName
		if author.ForeName != "" {
			name = author.ForeName + " " + name
		}
		authors = append(authors, name)
	}

	var dateParts []string
	for _, part := range []string{a.Journal.PubDate.Year, a.Journal.PubDate.Month, a.Journal.PubDate.Day} {
		if part != "" {
			dateParts = append(dateParts, part)
		}
	}

	doi := ""
	for _, id := range raw.PubmedData.ArticleIDs {
		if id.Type == "doi" {
			doi = strings.TrimSpace(id.Value)
			break
		}
	}

	return Article{
		PMID:            raw.Citation.PMID,
		Title:           a.Title,
		Abstract:        strings.Join(a.AbstractTexts, " "),
		Authors:         authors,
		Journal:         a.Journal.Title,
		PublicationDate: strings.Join(dateParts, "-"),
		DOI:             doi,
		Keywords:        raw.Citation.Keywords,
		MeshTerms:       raw.Citation.MeshTerms,
	}
}
