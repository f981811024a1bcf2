// Package republish adapts a fetched feedmodel.FusedFeed into a
// serializer-agnostic model an external Atom/RSS encoder can consume.
package republish

import (
	"time"

	"github.com/fusefeed/fusefeed/internal/feedmodel"
	"github.com/fusefeed/fusefeed/internal/fusion"
)

// Item is one republished entry.
type Item struct {
	ID         string // = Entry.GUID
	Title      string // falls back to Link when Title is empty
	Author     string
	Link       string
	PubDate    time.Time
	UpdateDate time.Time

	Summary     string
	SummaryType string // "text" or "html"

	Content     string
	ContentType string // "text" or "html"

	Enclosures []feedmodel.Enclosure
}

// Feed is the republishable model for one FusedFeed.
type Feed struct {
	Name         string
	SelfURL      string
	AlternateURL string
	Items        []Item
}

// Adapt builds a Feed from a fetched FusedFeed. selfURL is the request URL
// that produced this document; requestRoot is used as the alternate link
// when ff has zero or more than one source.
func Adapt(ff *feedmodel.FusedFeed, selfURL, requestRoot string) Feed {
	alt := requestRoot
	if len(ff.Sources) == 1 && ff.Sources[0].HTMLURI != "" {
		alt = ff.Sources[0].HTMLURI
	}

	entries := fusion.Entries(ff)
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, adaptItem(e))
	}

	return Feed{
		Name:         ff.Name,
		SelfURL:      selfURL,
		AlternateURL: alt,
		Items:        items,
	}
}

func adaptItem(e feedmodel.Entry) Item {
	title := e.Title
	if title == "" {
		title = e.Link
	}
	return Item{
		ID:          e.GUID,
		Title:       title,
		Author:      e.Author,
		Link:        e.Link,
		PubDate:     e.PubDate,
		UpdateDate:  e.UpdateDate,
		Summary:     e.Summary,
		SummaryType: mediaKind(e.SummaryType),
		Content:     e.Content,
		ContentType: mediaKind(e.ContentType),
		Enclosures:  e.Enclosures,
	}
}

// mediaKind reduces a feedmodel.MediaType to the "text"/"html" vocabulary
// the external Atom/RSS serializer expects.
func mediaKind(mt feedmodel.MediaType) string {
	if mt == feedmodel.MediaTypePlain {
		return "text"
	}
	return "html"
}
