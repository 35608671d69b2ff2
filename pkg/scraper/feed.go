package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FetchFeed reads an RSS/Atom publication feed and maps its items to
// Publications. Used when an institute exposes a feed instead of (or in
// addition to) the HTML listing.
func FetchFeed(ctx context.Context, feedURL string) ([]Publication, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	return feedPublications(feed), nil
}

func feedPublications(feed *gofeed.Feed) []Publication {
	publications := make([]Publication, 0, len(feed.Items))
	for _, item := range feed.Items {
		pub := Publication{
			Title:    strings.TrimSpace(item.Title),
			Abstract: strings.TrimSpace(item.Description),
			URL:      item.Link,
			Journal:  feed.Title,
		}
		if item.PublishedParsed != nil {
			pub.Year = item.PublishedParsed.Year()
		}
		if len(item.Authors) > 0 {
			names := make([]string, 0, len(item.Authors))
			for _, author := range item.Authors {
				if author.Name != "" {
					names = append(names, author.Name)
				}
			}
			pub.Authors = strings.Join(names, ", ")
		}
		pub.DOI = doiRe.FindString(item.Link + " " + item.Description)
		publications = append(publications, pub)
	}
	return publications
}
