// Package feedmodel defines the shared domain types for the fused-feed
// engine: the normalized Entry, the per-source Source with its cache state,
// the Filter/Rule variant types, and the top-level FusedFeed aggregate.
//
// These types are intentionally dependency-free (no HTTP, no XML parsing) so
// that internal/normalize, internal/filter, internal/fetch and
// internal/fusion can all depend on them without creating import cycles.
package feedmodel

import "time"

// MediaType is the declared content type of a textual Entry field.
type MediaType string

const (
	MediaTypePlain MediaType = "text/plain"
	MediaTypeHTML  MediaType = "text/html"
)

// Enclosure is a single media attachment on an Entry, in upstream order.
type Enclosure struct {
	Href   string
	Type   string
	Length string
}

// Entry is one normalized item, the unit of merge, filter, and republish.
//
// An Entry is immutable after construction by internal/normalize: nothing in
// this package or internal/filter mutates an Entry's fields, they only
// select which Entries survive into the merged stream.
type Entry struct {
	GUID string // non-empty, required

	Title  string
	Author string
	Link   string

	Summary     string
	SummaryType MediaType

	Content     string
	ContentType MediaType

	PubDate    time.Time // zero value means "not set"
	UpdateDate time.Time // required, never zero

	Enclosures []Enclosure
}

// Field looks up an Entry attribute by name for rule evaluation: a small,
// closed enumeration of known fields instead of reflection-based dynamic
// attribute lookup.
//
// Returns ("", false) for an unknown field name or one that is legitimately
// empty on this Entry. Callers (internal/filter) treat both the same way,
// the field does not contribute a match.
func (e *Entry) Field(name string) (string, bool) {
	switch name {
	case "title":
		return e.Title, e.Title != ""
	case "author":
		return e.Author, e.Author != ""
	case "link":
		return e.Link, e.Link != ""
	case "summary":
		return e.Summary, e.Summary != ""
	case "content":
		return e.Content, e.Content != ""
	case "guid":
		return e.GUID, e.GUID != ""
	default:
		return "", false
	}
}
