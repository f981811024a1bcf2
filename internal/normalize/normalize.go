// Package normalize converts a parsed upstream feed item (from gofeed) into
// the canonical feedmodel.Entry shape, synthesizing whatever fields the
// upstream item left unset.
//
// # Field Resolution
//
// Titles, authors, and links are copied verbatim when present. The update
// date falls back through a documented chain (upstream updated → pub_date →
// current wall clock); summary and content pick up the first value gofeed exposed
// and classify it as text/plain or text/html by sniffing for markup, since
// gofeed's own Item type does not retain the original RSS/Atom type
// attribute once it has normalized Description/Content across formats.
//
// # GUID Synthesis
//
// When an upstream item has no guid, one is synthesized as the hex MD5 of
// title+content+summary. An item with none of the three is reported as a
// discard via the second return value, never a zero-value Entry. Callers
// must check it.
package normalize

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/fusefeed/fusefeed/internal/feedmodel"
)

// htmlLike matches a plausible HTML/XML tag, used to sniff the media type
// of a summary/content string that arrived with no declared type.
var htmlLike = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// FromParsedItem converts one *gofeed.Item into a feedmodel.Entry.
//
// The second return value is false when the item has no guid and no
// title/content/summary to synthesize one from (if all three are empty
// the entry is discarded); callers must drop the item in that case rather
// than use the returned Entry.
func FromParsedItem(item *gofeed.Item) (feedmodel.Entry, bool) {
	e := feedmodel.Entry{
		Title: item.Title,
		Link:  item.Link,
	}

	if item.Author != nil {
		e.Author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		e.Author = item.Authors[0].Name
	}

	e.PubDate = parseTimestamp(item.Published, item.PublishedParsed)
	updateDate := parseTimestamp(item.Updated, item.UpdatedParsed)
	switch {
	case !updateDate.IsZero():
		e.UpdateDate = updateDate
	case !e.PubDate.IsZero():
		e.UpdateDate = e.PubDate
	default:
		e.UpdateDate = time.Now().UTC()
	}

	if item.Description != "" {
		e.Summary = item.Description
		e.SummaryType = sniffMediaType(item.Description)
	}
	if item.Content != "" {
		e.Content = item.Content
		e.ContentType = sniffMediaType(item.Content)
	}

	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		e.Enclosures = append(e.Enclosures, feedmodel.Enclosure{
			Href:   enc.URL,
			Type:   enc.Type,
			Length: enc.Length,
		})
	}

	e.GUID = item.GUID
	if e.GUID == "" {
		material := e.Title + e.Content + e.Summary
		if material == "" {
			return feedmodel.Entry{}, false
		}
		sum := md5.Sum([]byte(material))
		e.GUID = hex.EncodeToString(sum[:])
	}

	return e, true
}

// parseTimestamp prefers gofeed's own already-parsed time, falling back to
// dateparse.ParseAny on the raw string: a general, timezone-preserving
// parser instead of a leap-second-truncating time.Struct conversion.
func parseTimestamp(raw string, parsed *time.Time) time.Time {
	if parsed != nil {
		return *parsed
	}
	if raw == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func sniffMediaType(s string) feedmodel.MediaType {
	if htmlLike.MatchString(s) {
		return feedmodel.MediaTypeHTML
	}
	return feedmodel.MediaTypePlain
}
