package feedmodel

import "strings"

// FilterType selects block/allow semantics for a Filter.
type FilterType string

const (
	FilterTypeBlock FilterType = "block"
	FilterTypeAllow FilterType = "allow"
)

// FilterMode selects whether a Filter's Rules combine with OR or AND.
type FilterMode string

const (
	FilterModeOr  FilterMode = "or"
	FilterModeAnd FilterMode = "and"
)

// Filter is one rule group applied to a Source's normalized entries.
//
// Mode and Type are canonicalized to lowercase at load time (see
// internal/specstore) so downstream comparisons never need to re-normalize
// case. An unrecognized FilterType degrades to identity pass-through; an
// unrecognized FilterMode yields an empty result (defensive).
type Filter struct {
	Type  FilterType
	Mode  FilterMode
	Rules []Rule
}

// NormalizeMode trims and lowercases a raw mode string from a spec file. It
// does not validate the result; internal/filter treats any mode other than
// "or"/"and" as yielding an empty result.
func NormalizeMode(raw string) FilterMode {
	return FilterMode(strings.ToLower(strings.TrimSpace(raw)))
}

// NormalizeFilterType lowercases a raw filter type string from a spec file.
func NormalizeFilterType(raw string) FilterType {
	return FilterType(strings.ToLower(strings.TrimSpace(raw)))
}
