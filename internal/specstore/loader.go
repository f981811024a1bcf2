// Package specstore loads a FusedFeed definition from its on-disk JSON
// schema.
package specstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/fusefeed/fusefeed/internal/feedmodel"
)

// ErrNotFound is returned when the spec file for a given feed id does not
// exist. Callers at the HTTP boundary map this to 404.
var ErrNotFound = errors.New("specstore: spec file not found")

// validID matches the sanitized feed-id charset this package accepts.
// SanitizeID first discards directory components with filepath.Base, then
// rejects the remaining base name if it contains a character outside this
// set, so only a bare safe filename ever reaches the filesystem.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// specDoc is the raw JSON shape of a spec file.
type specDoc struct {
	Name    string      `json:"name"`
	Sources []sourceDoc `json:"sources"`
	Filters []filterDoc `json:"filters"`
}

// sourceDoc accepts either a bare URL string or an object with uri+filters.
// UnmarshalJSON below implements the union.
type sourceDoc struct {
	URI     string      `json:"uri"`
	Filters []filterDoc `json:"filters"`
}

func (s *sourceDoc) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		s.URI = asString
		return nil
	}
	type alias sourceDoc
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = sourceDoc(a)
	return nil
}

type filterDoc struct {
	Mode  string    `json:"mode"`
	Type  string    `json:"type"`
	Rules []ruleDoc `json:"rules"`
}

type ruleDoc struct {
	Op    string `json:"op"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// SanitizeID validates a feed id is safe to use as a filename component.
func SanitizeID(id string) (string, bool) {
	base := filepath.Base(id)
	if base == "." || base == string(filepath.Separator) || !validID.MatchString(base) {
		return "", false
	}
	return base, true
}

// Load reads and parses the spec file for feedID under root (the config
// root; the file read is "<root>/feeds/{id}.json").
//
// Returns ErrNotFound if the file does not exist; any other error means
// the id is not a safe filename, or the file could not be read, is empty,
// or is unparseable, which callers at the HTTP boundary map to 400.
func Load(root, feedID string) (*feedmodel.FusedFeed, error) {
	safeID, ok := SanitizeID(feedID)
	if !ok {
		return nil, fmt.Errorf("specstore: invalid feed id %q", feedID)
	}

	path := filepath.Join(root, "feeds", safeID+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("specstore: reading %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("specstore: %s is empty", path)
	}

	var doc specDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("specstore: parsing %s: %w", path, err)
	}

	ff := &feedmodel.FusedFeed{
		Name:    doc.Name,
		Filters: convertFilters(doc.Filters),
	}
	for _, sd := range doc.Sources {
		if sd.URI == "" {
			continue
		}
		ff.Sources = append(ff.Sources, &feedmodel.Source{
			URI:     sd.URI,
			Filters: convertFilters(sd.Filters),
		})
	}
	return ff, nil
}

func convertFilters(docs []filterDoc) []feedmodel.Filter {
	if len(docs) == 0 {
		return nil
	}
	out := make([]feedmodel.Filter, 0, len(docs))
	for _, fd := range docs {
		rules := make([]feedmodel.Rule, 0, len(fd.Rules))
		for _, rd := range fd.Rules {
			rules = append(rules, feedmodel.Rule{
				Op:    feedmodel.RuleOp(rd.Op),
				Field: rd.Field,
				Value: rd.Value,
			})
		}
		out = append(out, feedmodel.Filter{
			Type:  feedmodel.NormalizeFilterType(fd.Type),
			Mode:  feedmodel.NormalizeMode(fd.Mode),
			Rules: rules,
		})
	}
	return out
}
